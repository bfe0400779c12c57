package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// MovementIntent - желаемое движение сущности на текущем тике
type MovementIntent struct {
	Direction mgl32.Vec3 // горизонтальное направление (Y игнорируется)
	Jump      bool       // прыжок / всплытие / подъём в полёте
	Descend   bool       // погружение / снижение в полёте
	Flying    bool
	Sprint    bool
}

// MotorParams - физические константы мотора
type MotorParams struct {
	Mass    float32 // кг
	Gravity float32 // м/с², отрицательная

	AirDensity      float32 // кг/м³
	WaterDensity    float32 // кг/м³
	DragCoefficient float32
	Area            float32 // площадь поперечного сечения, м²

	WalkSpeed              float32
	SprintMultiplier       float32
	SwimSpeedMultiplier    float32
	SurfaceSpeedMultiplier float32

	AirFriction     float32
	WaterFriction   float32
	SurfaceFriction float32

	SwimGravityScale    float32
	SurfaceGravityScale float32

	JumpVelocity   float32
	SwimUpVelocity float32
	KickVelocity   float32
	KickDepth      float32 // глубина, после которой всплытие усиливается

	FlySpeed         float32
	FlyVerticalSpeed float32
	FlyVerticalBlend float32 // коэффициент сглаживания вертикальной скорости в полёте
	FlyDrag          float32
	MaxFlySpeed      float32 // предел скорости в полёте
}

// DefaultMotorParams возвращает параметры взрослого человека
func DefaultMotorParams() MotorParams {
	return MotorParams{
		Mass:    80,
		Gravity: -9.81,

		AirDensity:      1.225,
		WaterDensity:    997,
		DragCoefficient: 1.0,
		Area:            0.5,

		WalkSpeed:              4.3,
		SprintMultiplier:       1.3,
		SwimSpeedMultiplier:    0.5,
		SurfaceSpeedMultiplier: 0.75,

		AirFriction:     0.05,
		WaterFriction:   0.15,
		SurfaceFriction: 0.25,

		SwimGravityScale:    0.2,
		SurfaceGravityScale: 0.6,

		JumpVelocity:   5.0,
		SwimUpVelocity: 1.0,
		KickVelocity:   2.0,
		KickDepth:      1.2,

		FlySpeed:         10.9,
		FlyVerticalSpeed: 7.5,
		FlyVerticalBlend: 0.2,
		FlyDrag:          0.5,
		MaxFlySpeed:      20,
	}
}

// TerminalVelocity возвращает предельную скорость падения по уравнению сопротивления
func TerminalVelocity(mass, gravity, density, drag, area float32) float32 {
	denom := float64(density) * float64(drag) * float64(area)
	if denom <= 0 {
		return float32(math.Inf(1))
	}
	return float32(math.Sqrt(2 * float64(mass) * math.Abs(float64(gravity)) / denom))
}

// Motor вычисляет скорость сущности по сенсорам и намерению
type Motor struct {
	Params MotorParams
}

// NewMotor создаёт мотор с указанными параметрами
func NewMotor(params MotorParams) *Motor {
	return &Motor{Params: params}
}

// Update возвращает новую скорость после одного тика длительностью dt
func (m *Motor) Update(vel mgl32.Vec3, intent MovementIntent, s SensorData, dt float32) mgl32.Vec3 {
	p := &m.Params

	gravity := p.Gravity
	density := p.AirDensity
	speed := p.WalkSpeed
	friction := p.AirFriction

	switch {
	case intent.Flying:
		gravity = 0
		if s.IsSwimming || s.IsOnWaterSurface {
			density = p.WaterDensity
		}
		friction = 1 - float32(math.Exp(-float64(density*p.FlyDrag)))
		speed = p.FlySpeed
	case s.IsSwimming:
		gravity *= p.SwimGravityScale
		density = p.WaterDensity
		speed *= p.SwimSpeedMultiplier
		friction = p.WaterFriction
	case s.IsOnWaterSurface:
		gravity *= p.SurfaceGravityScale
		density = p.WaterDensity
		speed *= p.SurfaceSpeedMultiplier
		friction = p.SurfaceFriction
	case s.IsGrounded:
		friction = s.GroundFriction
	}
	if intent.Sprint {
		speed *= p.SprintMultiplier
	}

	var terminal float32
	if intent.Flying {
		terminal = TerminalVelocity(p.Mass, p.Gravity, density, p.DragCoefficient, p.Area)
		if terminal > p.MaxFlySpeed {
			terminal = p.MaxFlySpeed
		}
	} else {
		terminal = TerminalVelocity(p.Mass, gravity, density, p.DragCoefficient, p.Area)
	}

	vy := vel.Y() + gravity*dt

	switch {
	case intent.Flying:
		var target float32
		if intent.Jump {
			target = p.FlyVerticalSpeed
		} else if intent.Descend {
			target = -p.FlyVerticalSpeed
		}
		vy = lerp(vel.Y(), target, blend(p.FlyVerticalBlend, dt))
	case s.IsSwimming && intent.Jump:
		up := p.SwimUpVelocity
		if s.SubmersionDepth > p.KickDepth {
			up = p.KickVelocity
		}
		if vy < up {
			vy = up
		}
	case s.IsSwimming && intent.Descend:
		if vy > -p.SwimUpVelocity {
			vy = -p.SwimUpVelocity
		}
	case intent.Jump && s.IsGrounded && s.FloorContact:
		vy = p.JumpVelocity
	}

	if vy < -terminal {
		vy = -terminal
	}
	if intent.Flying && vy > terminal {
		vy = terminal
	}

	dir := mgl32.Vec3{intent.Direction.X(), 0, intent.Direction.Z()}
	if l := dir.Len(); l > 1 {
		dir = dir.Mul(1 / l)
	}
	target := dir.Mul(speed)
	a := blend(friction, dt)

	return mgl32.Vec3{
		lerp(vel.X(), target.X(), a),
		vy,
		lerp(vel.Z(), target.Z(), a),
	}
}

// blend переводит коэффициент трения за тик 1/60 с в долю для шага dt
func blend(friction, dt float32) float32 {
	if friction >= 1 {
		return 1
	}
	if friction <= 0 {
		return 0
	}
	return 1 - float32(math.Pow(float64(1-friction), float64(dt*60)))
}

func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}
