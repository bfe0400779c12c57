package world

import (
	"sync"
	"sync/atomic"

	"github.com/annel0/blockworld/internal/mesh"
	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world/block"
)

// Размеры чанка
const (
	ChunkSize   = 16  // по X и Z
	ChunkHeight = 256 // по Y
)

// Column - вертикальный столбец блоков одного чанка
type Column [ChunkHeight]block.ID

// Chunk представляет участок мира размером 16x256x16 блоков
type Chunk struct {
	Coords vec.Vec2 // Координаты чанка в мире (X, Z)

	mu     sync.RWMutex // защищает blocks
	blocks [ChunkSize][ChunkHeight][ChunkSize]block.ID

	dirty   atomic.Bool
	version atomic.Uint64
	mesh    atomic.Pointer[mesh.Pair] // последний готовый снимок геометрии
}

// NewChunk создаёт новый пустой чанк с указанными координатами.
// Новый чанк помечен грязным: для него ещё нет геометрии.
func NewChunk(coords vec.Vec2) *Chunk {
	c := &Chunk{Coords: coords}
	c.dirty.Store(true)
	return c
}

// inBounds проверяет локальные координаты
func inBounds(x, y, z int) bool {
	return x >= 0 && x < ChunkSize && y >= 0 && y < ChunkHeight && z >= 0 && z < ChunkSize
}

// GetBlock возвращает ID блока по локальным координатам; вне чанка: воздух
func (c *Chunk) GetBlock(x, y, z int) block.ID {
	if !inBounds(x, y, z) {
		return block.Air
	}

	c.mu.RLock()
	id := c.blocks[x][y][z]
	c.mu.RUnlock()
	return id
}

// SetBlock устанавливает блок по локальным координатам и помечает чанк грязным.
// Координаты вне чанка игнорируются.
func (c *Chunk) SetBlock(x, y, z int, id block.ID) {
	if !inBounds(x, y, z) {
		return
	}

	c.mu.Lock()
	c.blocks[x][y][z] = id
	c.mu.Unlock()

	c.version.Add(1)
	c.dirty.Store(true)
}

// SetColumn записывает столбец целиком (используется генератором)
func (c *Chunk) SetColumn(x, z int, column *Column) {
	if !inBounds(x, 0, z) {
		return
	}

	c.mu.Lock()
	for y := 0; y < ChunkHeight; y++ {
		c.blocks[x][y][z] = column[y]
	}
	c.mu.Unlock()

	c.version.Add(1)
	c.dirty.Store(true)
}

// IsDirty возвращает true, если блоки менялись после последней сборки меша
func (c *Chunk) IsDirty() bool {
	return c.dirty.Load()
}

// MarkDirty помечает чанк для пересборки меша
func (c *Chunk) MarkDirty() {
	c.dirty.Store(true)
}

// Version возвращает счетчик изменений блоков
func (c *Chunk) Version() uint64 {
	return c.version.Load()
}

// Mesh возвращает последний опубликованный снимок геометрии (nil, если ещё не строился)
func (c *Chunk) Mesh() *mesh.Pair {
	return c.mesh.Load()
}

// Origin возвращает мировые координаты блока (0, 0) чанка
func (c *Chunk) Origin() (x, z int) {
	return c.Coords.X << vec.ChunkShift, c.Coords.Y << vec.ChunkShift
}

// NeighborSource разрешает блоки за границами чанка (обычно *World)
type NeighborSource interface {
	GetBlock(x, y, z int) Block
}

// GenerateMesh перестраивает геометрию, если чанк грязный.
// Флаг снимается до снятия копии блоков: правка во время сборки снова пометит чанк,
// и следующий проход его подхватит. Пара мешей публикуется одной атомарной записью.
// Возвращает false, если чанк был чистым.
func (c *Chunk) GenerateMesh(neighbors NeighborSource, uv mesh.UVResolver) bool {
	if !c.dirty.CompareAndSwap(true, false) {
		return false
	}

	view := &chunkView{neighbors: neighbors}
	view.ox, view.oz = c.Origin()

	c.mu.RLock()
	view.blocks = c.blocks
	c.mu.RUnlock()

	c.mesh.Store(mesh.Build(view, uv))
	return true
}

// chunkView - неизменяемая копия блоков чанка для мешера
type chunkView struct {
	blocks    [ChunkSize][ChunkHeight][ChunkSize]block.ID
	ox, oz    int
	neighbors NeighborSource
}

func (v *chunkView) Block(x, y, z int) block.ID {
	if y < 0 || y >= ChunkHeight {
		return block.Air
	}
	if x >= 0 && x < ChunkSize && z >= 0 && z < ChunkSize {
		return v.blocks[x][y][z]
	}
	if v.neighbors == nil {
		return block.Air
	}
	return v.neighbors.GetBlock(v.ox+x, y, v.oz+z).ID
}

func (v *chunkView) Origin() (int, int) { return v.ox, v.oz }
func (v *chunkView) Height() int        { return ChunkHeight }
func (v *chunkView) Width() int         { return ChunkSize }
