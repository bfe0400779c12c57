package world

import (
	"math"

	"github.com/annel0/blockworld/internal/noise"
	"github.com/annel0/blockworld/internal/world/block"
)

// Константы высот для генерации
const (
	BaseHeight = 64 // Базовая высота поверхности
	SeaLevel   = 62 // Уровень моря: вода заполняет всё до него включительно
	DirtDepth  = 3  // Толщина слоя земли под поверхностью
)

// octave описывает одну октаву шума высот
type octave struct {
	frequency  float64
	amplitude  float64
	seedOffset int64
}

// Континенты, рельеф и мелкая детализация
var terrainOctaves = [3]octave{
	{frequency: 0.0005, amplitude: 40, seedOffset: 0},
	{frequency: 0.01, amplitude: 20, seedOffset: 1},
	{frequency: 0.001, amplitude: 5, seedOffset: 2},
}

// Generator заполняет новый чанк блоками
type Generator interface {
	Populate(c *Chunk)
}

// GeneratorFunc позволяет использовать функцию как Generator
type GeneratorFunc func(c *Chunk)

// Populate вызывает f(c)
func (f GeneratorFunc) Populate(c *Chunk) { f(c) }

// TerrainGenerator генерирует ландшафт по карте высот из трёх октав шума
type TerrainGenerator struct {
	Seed     int64 // Сид для генерации шума
	samplers [len(terrainOctaves)]noise.Sampler
}

// NewTerrainGenerator создаёт генератор с указанным типом шума
func NewTerrainGenerator(seed int64, kind noise.Kind) *TerrainGenerator {
	g := &TerrainGenerator{Seed: seed}
	for i, o := range terrainOctaves {
		g.samplers[i] = noise.New(kind, seed+o.seedOffset)
	}
	return g
}

// Height возвращает высоту поверхности в мировой колонне (x, z)
func (g *TerrainGenerator) Height(x, z int) int {
	h := float64(BaseHeight)
	for i, o := range terrainOctaves {
		h += g.samplers[i].Sample(float64(x)*o.frequency, float64(z)*o.frequency) * o.amplitude
	}

	height := int(math.Floor(h))
	if height < 0 {
		return 0
	}
	if height >= ChunkHeight {
		return ChunkHeight - 1
	}
	return height
}

// BlockAt возвращает тип блока на высоте y в колонне с поверхностью height
func BlockAt(height, y int) block.ID {
	switch {
	case y > height:
		if y <= SeaLevel {
			return block.Water
		}
		return block.Air
	case y == height:
		if height <= SeaLevel {
			return block.Sand
		}
		return block.Grass
	case y >= height-DirtDepth:
		return block.Dirt
	default:
		return block.Stone
	}
}

// Populate заполняет все колонны чанка за один проход
func (g *TerrainGenerator) Populate(c *Chunk) {
	ox, oz := c.Origin()

	var column Column
	for x := 0; x < ChunkSize; x++ {
		for z := 0; z < ChunkSize; z++ {
			height := g.Height(ox+x, oz+z)
			for y := 0; y < ChunkHeight; y++ {
				column[y] = BlockAt(height, y)
			}
			c.SetColumn(x, z, &column)
		}
	}
}

// FlatGenerator заполняет всё ниже Height блоком Fill, выше остаётся воздух.
// Используется в тестах и инструментах.
type FlatGenerator struct {
	Height int
	Fill   block.ID
}

// Populate заполняет чанк плоским слоем
func (g FlatGenerator) Populate(c *Chunk) {
	var column Column
	for y := 0; y < g.Height && y < ChunkHeight; y++ {
		column[y] = g.Fill
	}
	for x := 0; x < ChunkSize; x++ {
		for z := 0; z < ChunkSize; z++ {
			c.SetColumn(x, z, &column)
		}
	}
}
