package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/annel0/blockworld/internal/world"
)

// Epsilon - зазор, на который сущность отодвигается от блока при коллизии
const Epsilon float32 = 0.001

// BlockQuery предоставляет блоки по мировым координатам (*world.World).
// Незагруженные позиции должны возвращать воздух.
type BlockQuery interface {
	GetBlock(x, y, z int) world.Block
}

// Contacts описывает, по каким осям движение было остановлено
type Contacts struct {
	X, Y, Z bool
	Floor   bool // остановлено падение
	Ceiling bool // остановлен подъём
}

// Any возвращает true, если была хотя бы одна коллизия
func (c Contacts) Any() bool {
	return c.X || c.Y || c.Z
}

// System разрешает коллизии сущностей с твёрдыми блоками
type System struct {
	Query   BlockQuery
	Epsilon float32
}

// NewSystem создаёт систему коллизий поверх источника блоков
func NewSystem(q BlockQuery) *System {
	return &System{Query: q, Epsilon: Epsilon}
}

// Индексы осей в mgl32.Vec3
const (
	axisX = 0
	axisY = 1
	axisZ = 2
)

// MoveAndResolve перемещает сущность на disp (скорость * dt) по осям X, Z, Y по очереди.
// Ось, на которой AABB пересёк твёрдый блок, прижимается к границе блока с зазором Epsilon.
func (s *System) MoveAndResolve(pos, disp, size mgl32.Vec3) (mgl32.Vec3, Contacts) {
	var c Contacts

	c.X = s.resolveAxis(&pos, axisX, disp.X(), size)
	c.Z = s.resolveAxis(&pos, axisZ, disp.Z(), size)
	c.Y = s.resolveAxis(&pos, axisY, disp.Y(), size)

	if c.Y {
		c.Floor = disp.Y() < 0
		c.Ceiling = disp.Y() > 0
	}
	return pos, c
}

func (s *System) resolveAxis(pos *mgl32.Vec3, axis int, delta float32, size mgl32.Vec3) bool {
	if delta == 0 {
		return false
	}

	pos[axis] += delta
	box := FromPositionSize(*pos, size)

	var (
		hit  bool
		snap float32
	)

	minX, maxX := floor(box.Min.X()), floor(box.Max.X())
	minY, maxY := floor(box.Min.Y()), floor(box.Max.Y())
	minZ, maxZ := floor(box.Min.Z()), floor(box.Max.Z())

	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
				if s.Query == nil || !s.Query.GetBlock(x, y, z).IsSolid() {
					continue
				}
				b := BlockAABB(x, y, z)
				if !box.Intersects(b) {
					continue
				}

				target := s.snapTarget(axis, delta, b, size)
				if !hit || (delta > 0 && target < snap) || (delta < 0 && target > snap) {
					snap = target
				}
				hit = true
			}
		}
	}

	if hit {
		pos[axis] = snap
	}
	return hit
}

// snapTarget возвращает координату позиции сущности, при которой она касается блока b
// со стороны движения
func (s *System) snapTarget(axis int, delta float32, b AABB, size mgl32.Vec3) float32 {
	switch axis {
	case axisY:
		if delta > 0 {
			return b.Min.Y() - size.Y() - s.Epsilon
		}
		return b.Max.Y() + s.Epsilon
	default:
		half := size[axis] / 2
		if delta > 0 {
			return b.Min[axis] - half - s.Epsilon
		}
		return b.Max[axis] + half + s.Epsilon
	}
}

func floor(v float32) int {
	return int(math.Floor(float64(v)))
}
