package world

import (
	"github.com/annel0/blockworld/internal/world/block"
)

// Block представляет собой блок в игровом мире
type Block struct {
	ID block.ID // Идентификатор типа блока
}

// AirBlock - значение, возвращаемое для пустых и незагруженных позиций
var AirBlock = Block{ID: block.Air}

// NewBlock создаёт блок с указанным ID
func NewBlock(id block.ID) Block {
	return Block{ID: id}
}

// IsAir возвращает true для воздуха и незарегистрированных типов
func (b Block) IsAir() bool {
	return b.ID == block.Air || !block.IsValid(b.ID)
}

// IsSolid возвращает true, если блок участвует в коллизиях
func (b Block) IsSolid() bool {
	return block.IsSolid(b.ID)
}

// IsTransparent возвращает true, если сквозь блок видны соседние грани
func (b Block) IsTransparent() bool {
	return block.IsTransparent(b.ID)
}

// IsWater возвращает true для воды
func (b Block) IsWater() bool {
	return b.ID == block.Water
}

// Friction возвращает коэффициент трения поверхности блока
func (b Block) Friction() float32 {
	return block.Friction(b.ID)
}
