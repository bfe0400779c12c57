package vec

import "math"

// ChunkShift и ChunkMask задают разложение мировой координаты на чанк и локальную часть
const (
	ChunkShift = 4
	ChunkMask  = 0xF
)

// Vec2 представляет 2D координаты (для чанков X соответствует мировой X, Y соответствует мировой Z)
type Vec2 struct {
	X, Y int
}

// ToChunkCoords преобразует глобальные координаты в координаты чанка
func (v Vec2) ToChunkCoords() Vec2 {
	return Vec2{X: v.X >> ChunkShift, Y: v.Y >> ChunkShift} // Деление на 16 с округлением вниз
}

// LocalInChunk возвращает локальные координаты внутри чанка
func (v Vec2) LocalInChunk() Vec2 {
	return Vec2{X: v.X & ChunkMask, Y: v.Y & ChunkMask} // Модуль 16, всегда в [0,16)
}

// Add складывает два вектора
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

// DistanceSq возвращает квадрат евклидова расстояния
func (v Vec2) DistanceSq(other Vec2) int {
	dx := v.X - other.X
	dy := v.Y - other.Y
	return dx*dx + dy*dy
}

// Chebyshev возвращает расстояние Чебышёва (максимум по осям)
func (v Vec2) Chebyshev(other Vec2) int {
	dx := v.X - other.X
	if dx < 0 {
		dx = -dx
	}
	dy := v.Y - other.Y
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

// DistanceTo вычисляет расстояние до другой точки
func (v Vec2) DistanceTo(other Vec2) float64 {
	return math.Sqrt(float64(v.DistanceSq(other)))
}
