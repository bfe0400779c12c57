// Package mesh строит геометрию чанков с отсечением невидимых граней.
package mesh

import "github.com/annel0/blockworld/internal/world/block"

// VertexStride - количество float32 на вершину: позиция (3), UV (2), нормаль (3)
const VertexStride = 8

// Mesh - неизменяемая пара буферов вершин и индексов
type Mesh struct {
	Vertices []float32
	Indices  []uint32
}

// VertexCount возвращает количество вершин
func (m *Mesh) VertexCount() int {
	if m == nil {
		return 0
	}
	return len(m.Vertices) / VertexStride
}

// FaceCount возвращает количество квадов (по два треугольника)
func (m *Mesh) FaceCount() int {
	if m == nil {
		return 0
	}
	return len(m.Indices) / 6
}

// IsEmpty возвращает true, если в меше нет граней
func (m *Mesh) IsEmpty() bool {
	return m.FaceCount() == 0
}

// Pair - снимок геометрии чанка: непрозрачная и прозрачная части.
// Публикуется целиком, поэтому читатель никогда не видит половину обновления.
type Pair struct {
	Opaque      *Mesh
	Transparent *Mesh
}

// FaceCount возвращает суммарное количество граней
func (p *Pair) FaceCount() int {
	if p == nil {
		return 0
	}
	return p.Opaque.FaceCount() + p.Transparent.FaceCount()
}

// Source предоставляет мешеру блоки чанка в локальных координатах.
// Координаты за пределами [0,16) по горизонтали разрешаются через соседние чанки,
// за пределами [0,256) по вертикали считаются воздухом.
type Source interface {
	Block(x, y, z int) block.ID
	Origin() (x, z int)
	Height() int
	Width() int
}

// Visible решает, нужно ли рисовать грань блока current, за которой находится neighbor
func Visible(current, neighbor block.ID) bool {
	if neighbor == block.Air || !block.IsValid(neighbor) {
		return true
	}

	neighborTransparent := block.IsTransparent(neighbor)
	if !block.IsTransparent(current) {
		// Непрозрачную грань под водой не рисуем: иначе z-fighting с поверхностью воды
		return neighborTransparent && neighbor != block.Water
	}

	return !neighborTransparent || neighbor != current
}
