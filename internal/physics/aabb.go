// Package physics реализует коллизии с воксельным миром, сенсоры среды и мотор движения.
package physics

import (
	"github.com/go-gl/mathgl/mgl32"
)

// AABB - ограничивающий параллелепипед, выровненный по осям
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// FromPositionSize строит AABB сущности; pos задаёт точку у ног (центр по X и Z)
func FromPositionSize(pos, size mgl32.Vec3) AABB {
	half := mgl32.Vec3{size.X() / 2, 0, size.Z() / 2}
	return AABB{
		Min: mgl32.Vec3{pos.X() - half.X(), pos.Y(), pos.Z() - half.Z()},
		Max: mgl32.Vec3{pos.X() + half.X(), pos.Y() + size.Y(), pos.Z() + half.Z()},
	}
}

// BlockAABB возвращает единичный куб блока
func BlockAABB(x, y, z int) AABB {
	corner := mgl32.Vec3{float32(x), float32(y), float32(z)}
	return AABB{Min: corner, Max: corner.Add(mgl32.Vec3{1, 1, 1})}
}

// Intersects проверяет пересечение со строгими неравенствами: касание не считается
func (a AABB) Intersects(b AABB) bool {
	return a.Min.X() < b.Max.X() && a.Max.X() > b.Min.X() &&
		a.Min.Y() < b.Max.Y() && a.Max.Y() > b.Min.Y() &&
		a.Min.Z() < b.Max.Z() && a.Max.Z() > b.Min.Z()
}

// Offset возвращает AABB, сдвинутый на d
func (a AABB) Offset(d mgl32.Vec3) AABB {
	return AABB{Min: a.Min.Add(d), Max: a.Max.Add(d)}
}

// Size возвращает размеры AABB
func (a AABB) Size() mgl32.Vec3 {
	return a.Max.Sub(a.Min)
}
