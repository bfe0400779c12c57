package physics

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/annel0/blockworld/internal/world"
)

// Точки опроса сенсоров относительно позиции у ног
const (
	feetSample = 0.05 // ниже ног
	midRatio   = 0.5  // доля высоты
	headRatio  = 0.9  // доля высоты

	maxDepthScan = 16 // максимум блоков воды при поиске поверхности
)

// SensorData описывает среду вокруг сущности на текущем тике
type SensorData struct {
	IsUnderwater     bool // голова в воде
	IsSwimming       bool // под водой или середина тела в воде
	IsOnWaterSurface bool // ноги в воде, но не плывёт
	IsGrounded       bool // под ногами твёрдый блок, голова в воздухе
	IsFlying         bool // ноги и голова в воздухе
	FloorContact     bool // коллизия с полом на прошлом тике

	SubmersionDepth float32 // расстояние от ног до поверхности воды (со знаком)
	GroundFriction  float32 // трение блока под ногами

	Feet world.Block
	Mid  world.Block
	Head world.Block
}

// Sense опрашивает блоки у ног, в середине тела и у головы.
// floorContact - флаг IsGrounded сущности, полученный из коллизий прошлого тика.
func Sense(q BlockQuery, pos, size mgl32.Vec3, floorContact bool) SensorData {
	x, z := pos.X(), pos.Z()
	feetY := floor(pos.Y() - feetSample)

	s := SensorData{
		Feet:         blockAt(q, x, float32(feetY), z),
		Mid:          blockAt(q, x, pos.Y()+size.Y()*midRatio, z),
		Head:         blockAt(q, x, pos.Y()+size.Y()*headRatio, z),
		FloorContact: floorContact,
	}

	s.IsUnderwater = s.Head.IsWater()
	s.IsSwimming = s.IsUnderwater || s.Mid.IsWater()
	s.IsOnWaterSurface = s.Feet.IsWater() && !s.IsSwimming
	s.IsGrounded = s.Feet.IsSolid() && s.Head.IsAir()
	s.IsFlying = s.Feet.IsAir() && s.Head.IsAir()

	if s.IsGrounded {
		s.GroundFriction = s.Feet.Friction()
	}

	if s.Feet.IsWater() && q != nil {
		bx, bz := floor(x), floor(z)
		surface := feetY
		for i := 0; i < maxDepthScan && q.GetBlock(bx, surface, bz).IsWater(); i++ {
			surface++
		}
		s.SubmersionDepth = float32(surface) - pos.Y()
	}

	return s
}

func blockAt(q BlockQuery, x, y, z float32) world.Block {
	if q == nil {
		return world.AirBlock
	}
	return q.GetBlock(floor(x), floor(y), floor(z))
}
