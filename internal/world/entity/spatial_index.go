package entity

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// DefaultCellSize - размер ячейки индекса по умолчанию (ширина чанка)
const DefaultCellSize = 16

// cellKey представляет ключ ячейки в горизонтальной сетке
type cellKey struct {
	x, z int
}

// SpatialIndex - равномерная сетка по XZ для поиска сущностей рядом с точкой.
// Индекс не потокобезопасен: доступ синхронизирует Manager.
type SpatialIndex struct {
	cellSize float32
	cells    map[cellKey]map[uuid.UUID]*PhysicalEntity
	where    map[uuid.UUID]cellKey
}

// NewSpatialIndex создаёт индекс; cellSize <= 0 означает DefaultCellSize
func NewSpatialIndex(cellSize float32) *SpatialIndex {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &SpatialIndex{
		cellSize: cellSize,
		cells:    make(map[cellKey]map[uuid.UUID]*PhysicalEntity),
		where:    make(map[uuid.UUID]cellKey),
	}
}

func (si *SpatialIndex) keyFor(x, z float32) cellKey {
	return cellKey{
		x: int(math.Floor(float64(x / si.cellSize))),
		z: int(math.Floor(float64(z / si.cellSize))),
	}
}

// Insert добавляет сущность или переносит её в ячейку текущей позиции
func (si *SpatialIndex) Insert(e *PhysicalEntity) {
	key := si.keyFor(e.Position.X(), e.Position.Z())
	if old, ok := si.where[e.ID]; ok {
		if old == key {
			si.cells[key][e.ID] = e
			return
		}
		si.removeFromCell(old, e.ID)
	}

	cell, ok := si.cells[key]
	if !ok {
		cell = make(map[uuid.UUID]*PhysicalEntity)
		si.cells[key] = cell
	}
	cell[e.ID] = e
	si.where[e.ID] = key
}

// Update обновляет ячейку сущности после перемещения
func (si *SpatialIndex) Update(e *PhysicalEntity) {
	si.Insert(e)
}

// Remove удаляет сущность из индекса
func (si *SpatialIndex) Remove(id uuid.UUID) {
	key, ok := si.where[id]
	if !ok {
		return
	}
	si.removeFromCell(key, id)
	delete(si.where, id)
}

func (si *SpatialIndex) removeFromCell(key cellKey, id uuid.UUID) {
	cell := si.cells[key]
	delete(cell, id)
	if len(cell) == 0 {
		delete(si.cells, key)
	}
}

// QueryRange возвращает сущности, чья позиция не дальше radius от center
func (si *SpatialIndex) QueryRange(center mgl32.Vec3, radius float32) []*PhysicalEntity {
	minKey := si.keyFor(center.X()-radius, center.Z()-radius)
	maxKey := si.keyFor(center.X()+radius, center.Z()+radius)
	r2 := radius * radius

	var result []*PhysicalEntity
	for x := minKey.x; x <= maxKey.x; x++ {
		for z := minKey.z; z <= maxKey.z; z++ {
			for _, e := range si.cells[cellKey{x: x, z: z}] {
				d := e.Position.Sub(center)
				if d.Dot(d) <= r2 {
					result = append(result, e)
				}
			}
		}
	}
	return result
}

// CellCount возвращает количество непустых ячеек
func (si *SpatialIndex) CellCount() int { return len(si.cells) }

// Len возвращает количество индексированных сущностей
func (si *SpatialIndex) Len() int { return len(si.where) }

// String возвращает краткую статистику индекса
func (si *SpatialIndex) String() string {
	maxPerCell := 0
	for _, cell := range si.cells {
		if len(cell) > maxPerCell {
			maxPerCell = len(cell)
		}
	}
	avg := 0.0
	if len(si.cells) > 0 {
		avg = float64(len(si.where)) / float64(len(si.cells))
	}
	return fmt.Sprintf("SpatialIndex: %d entities, %d cells, avg %.2f/cell, max %d/cell",
		len(si.where), len(si.cells), avg, maxPerCell)
}
