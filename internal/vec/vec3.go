package vec

import "math"

// Vec3 представляет трехмерный вектор с целочисленными координатами (позиция блока)
type Vec3 struct {
	X int
	Y int
	Z int
}

// FloorVec3 возвращает блок, содержащий точку с плавающими координатами
func FloorVec3(x, y, z float32) Vec3 {
	return Vec3{
		X: int(math.Floor(float64(x))),
		Y: int(math.Floor(float64(y))),
		Z: int(math.Floor(float64(z))),
	}
}

// Chunk возвращает координаты чанка, которому принадлежит блок
func (v Vec3) Chunk() Vec2 {
	return Vec2{X: v.X >> ChunkShift, Y: v.Z >> ChunkShift}
}

// Local возвращает координаты блока внутри его чанка (Y не меняется)
func (v Vec3) Local() Vec3 {
	return Vec3{X: v.X & ChunkMask, Y: v.Y, Z: v.Z & ChunkMask}
}

// Equals проверяет равенство векторов
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}
