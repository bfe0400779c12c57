package block

// Регистрируем встроенные типы блоков при импорте пакета
func init() {
	// Базовые блоки
	Register(Definition{ID: Air, Name: "air", Transparent: true, Friction: DefaultFriction})
	Register(Definition{ID: Stone, Name: "stone", Solid: true, Friction: 0.6})
	Register(Definition{ID: Grass, Name: "grass", Solid: true, Friction: 0.6})
	Register(Definition{ID: Water, Name: "water", Transparent: true, Friction: 0.2})
	Register(Definition{ID: Sand, Name: "sand", Solid: true, Friction: 0.5})
	Register(Definition{ID: Dirt, Name: "dirt", Solid: true, Friction: 0.6})

	// Прозрачные твёрдые блоки
	Register(Definition{ID: Glass, Name: "glass", Solid: true, Transparent: true, Friction: 0.6})
	Register(Definition{ID: Leaves, Name: "leaves", Solid: true, Transparent: true, Friction: 0.6})

	Register(Definition{ID: Bedrock, Name: "bedrock", Solid: true, Friction: 0.6})
}
