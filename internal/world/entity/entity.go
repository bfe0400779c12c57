package entity

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/annel0/blockworld/internal/physics"
)

// EntityType представляет тип сущности
type EntityType uint16

const (
	EntityTypePlayer EntityType = iota
	EntityTypeNPC
	EntityTypeAnimal
	EntityTypeItem
)

// String возвращает имя типа сущности
func (t EntityType) String() string {
	switch t {
	case EntityTypePlayer:
		return "player"
	case EntityTypeNPC:
		return "npc"
	case EntityTypeAnimal:
		return "animal"
	case EntityTypeItem:
		return "item"
	default:
		return "unknown"
	}
}

// DefaultSize - хитбокс взрослого человека
var DefaultSize = mgl32.Vec3{0.6, 1.8, 0.6}

// Transform - положение, ориентация и масштаб
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

// NewTransform создаёт трансформацию без поворота с единичным масштабом
func NewTransform(pos mgl32.Vec3) Transform {
	return Transform{Position: pos, Rotation: mgl32.QuatIdent(), Scale: mgl32.Vec3{1, 1, 1}}
}

// Lerp интерполирует позицию и масштаб линейно, поворот сферически
func (t Transform) Lerp(to Transform, alpha float32) Transform {
	return Transform{
		Position: t.Position.Add(to.Position.Sub(t.Position).Mul(alpha)),
		Rotation: mgl32.QuatSlerp(t.Rotation, to.Rotation, alpha),
		Scale:    t.Scale.Add(to.Scale.Sub(t.Scale).Mul(alpha)),
	}
}

// PhysicalEntity - сущность с физикой: позиция у ног, скорость и хитбокс
type PhysicalEntity struct {
	ID   uuid.UUID
	Type EntityType
	Transform

	Velocity   mgl32.Vec3
	Size       mgl32.Vec3
	IsGrounded bool
	Sensors    physics.SensorData
	Contacts   physics.Contacts

	// Состояние предыдущего тика для интерполяции при отрисовке
	PrevPosition mgl32.Vec3
	PrevRotation mgl32.Quat
}

// NewPhysicalEntity создаёт сущность в позиции pos
func NewPhysicalEntity(entityType EntityType, pos, size mgl32.Vec3) *PhysicalEntity {
	t := NewTransform(pos)
	return &PhysicalEntity{
		ID:           uuid.New(),
		Type:         entityType,
		Transform:    t,
		Size:         size,
		PrevPosition: pos,
		PrevRotation: t.Rotation,
	}
}

// Bounds возвращает текущий AABB сущности
func (e *PhysicalEntity) Bounds() physics.AABB {
	return physics.FromPositionSize(e.Position, e.Size)
}

// Tick выполняет один фиксированный шаг: сенсоры, мотор, перемещение с коллизиями.
// Оси, по которым движение остановлено, обнуляют скорость.
func (e *PhysicalEntity) Tick(sys *physics.System, motor *physics.Motor, intent physics.MovementIntent, dt float32) {
	e.PrevPosition = e.Position
	e.PrevRotation = e.Rotation

	e.Sensors = physics.Sense(sys.Query, e.Position, e.Size, e.IsGrounded)
	e.Velocity = motor.Update(e.Velocity, intent, e.Sensors, dt)

	intended := e.Velocity.Mul(dt)
	pos, contacts := sys.MoveAndResolve(e.Position, intended, e.Size)
	e.Position = pos
	e.Contacts = contacts

	// Перемещение по Y оказалось меньше запрошенного при падении или покое
	e.IsGrounded = e.Velocity.Y() <= 0 && contacts.Y

	if contacts.X {
		e.Velocity[0] = 0
	}
	if contacts.Y {
		e.Velocity[1] = 0
	}
	if contacts.Z {
		e.Velocity[2] = 0
	}

	e.face(intent.Direction)
}

// face поворачивает сущность по направлению движения вокруг оси Y
func (e *PhysicalEntity) face(dir mgl32.Vec3) {
	if dir.X() == 0 && dir.Z() == 0 {
		return
	}
	yaw := float32(math.Atan2(float64(dir.X()), float64(dir.Z())))
	e.Rotation = mgl32.QuatRotate(yaw, mgl32.Vec3{0, 1, 0})
}

// Interpolated возвращает трансформацию между предыдущим и текущим тиком (alpha в [0, 1])
func (e *PhysicalEntity) Interpolated(alpha float32) Transform {
	prev := Transform{Position: e.PrevPosition, Rotation: e.PrevRotation, Scale: e.Scale}
	return prev.Lerp(e.Transform, alpha)
}
