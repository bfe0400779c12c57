package physics

import (
	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world"
	"github.com/annel0/blockworld/internal/world/block"
)

// blockMap - разреженный источник блоков для тестов
type blockMap map[vec.Vec3]block.ID

func (m blockMap) GetBlock(x, y, z int) world.Block {
	if id, ok := m[vec.Vec3{X: x, Y: y, Z: z}]; ok {
		return world.NewBlock(id)
	}
	return world.AirBlock
}

func (m blockMap) set(x, y, z int, id block.ID) blockMap {
	m[vec.Vec3{X: x, Y: y, Z: z}] = id
	return m
}

// column заполняет вертикальный столбец [from, to] блоком id
func (m blockMap) column(x, z, from, to int, id block.ID) blockMap {
	for y := from; y <= to; y++ {
		m.set(x, y, z, id)
	}
	return m
}
