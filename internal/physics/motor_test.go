package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

const tick = float32(1.0 / 60.0)

func TestTerminalVelocity(t *testing.T) {
	vt := TerminalVelocity(80, -9.81, 1.225, 1.0, 0.5)
	assert.InDelta(t, 50.62, vt, 0.01)

	assert.True(t, math.IsInf(float64(TerminalVelocity(80, -9.81, 0, 1, 0.5)), 1))
}

func TestMotor_FallIsClampedToTerminal(t *testing.T) {
	m := NewMotor(DefaultMotorParams())
	air := SensorData{IsFlying: true}

	v := m.Update(mgl32.Vec3{0, -80, 0}, MovementIntent{}, air, tick)
	assert.InDelta(t, -50.62, v.Y(), 0.01)

	// Подъём вверх не ограничивается
	v = m.Update(mgl32.Vec3{0, 60, 0}, MovementIntent{}, air, tick)
	assert.InDelta(t, 60-9.81*tick, v.Y(), 1e-3)
}

func TestMotor_Jump(t *testing.T) {
	m := NewMotor(DefaultMotorParams())
	ground := SensorData{IsGrounded: true, FloorContact: true, GroundFriction: 0.6}

	v := m.Update(mgl32.Vec3{}, MovementIntent{Jump: true}, ground, tick)
	assert.InDelta(t, 5.0, v.Y(), 1e-6)

	ground.FloorContact = false
	v = m.Update(mgl32.Vec3{}, MovementIntent{Jump: true}, ground, tick)
	assert.Less(t, v.Y(), float32(0), "без опоры прыжок невозможен")
}

func TestMotor_SwimKick(t *testing.T) {
	m := NewMotor(DefaultMotorParams())
	jump := MovementIntent{Jump: true}

	shallow := SensorData{IsSwimming: true, SubmersionDepth: 0.8}
	v := m.Update(mgl32.Vec3{0, -0.5, 0}, jump, shallow, tick)
	assert.InDelta(t, 1.0, v.Y(), 1e-6)

	deep := SensorData{IsSwimming: true, IsUnderwater: true, SubmersionDepth: 3}
	v = m.Update(mgl32.Vec3{0, -0.5, 0}, jump, deep, tick)
	assert.InDelta(t, 2.0, v.Y(), 1e-6)

	// Без прыжка тонет медленно: сниженная гравитация и плотность воды
	v = m.Update(mgl32.Vec3{}, MovementIntent{}, deep, tick)
	assert.InDelta(t, -9.81*0.2*tick, v.Y(), 1e-5)
}

func TestMotor_FlyingHasNoGravity(t *testing.T) {
	m := NewMotor(DefaultMotorParams())
	fly := MovementIntent{Flying: true}
	air := SensorData{IsFlying: true}

	v := m.Update(mgl32.Vec3{}, fly, air, tick)
	assert.Equal(t, float32(0), v.Y())

	fly.Jump = true
	v = m.Update(mgl32.Vec3{}, fly, air, tick)
	assert.InDelta(t, 7.5*0.2, v.Y(), 1e-5)

	// Скорость в полёте ограничена сверху
	v = m.Update(mgl32.Vec3{0, 100, 0}, fly, air, tick)
	assert.LessOrEqual(t, v.Y(), m.Params.MaxFlySpeed)
}

func TestMotor_HorizontalBlend(t *testing.T) {
	m := NewMotor(DefaultMotorParams())
	ground := SensorData{IsGrounded: true, GroundFriction: 0.6}
	walk := MovementIntent{Direction: mgl32.Vec3{1, 0, 0}}

	v := m.Update(mgl32.Vec3{}, walk, ground, tick)
	assert.InDelta(t, 4.3*0.6, v.X(), 1e-4)
	assert.Equal(t, float32(0), v.Z())

	walk.Sprint = true
	v = m.Update(mgl32.Vec3{}, walk, ground, tick)
	assert.InDelta(t, 4.3*1.3*0.6, v.X(), 1e-4)
}

func TestMotor_BlendIsFrameRateIndependent(t *testing.T) {
	m := NewMotor(DefaultMotorParams())
	ground := SensorData{IsGrounded: true, GroundFriction: 0.6}
	walk := MovementIntent{Direction: mgl32.Vec3{0, 0, -1}}

	one := m.Update(mgl32.Vec3{}, walk, ground, tick)

	half := m.Update(mgl32.Vec3{}, walk, ground, tick/2)
	half = m.Update(mgl32.Vec3{half.X(), 0, half.Z()}, walk, ground, tick/2)

	assert.InDelta(t, one.Z(), half.Z(), 1e-4)
}

func TestMotor_SwimmingIsSlower(t *testing.T) {
	m := NewMotor(DefaultMotorParams())
	walk := MovementIntent{Direction: mgl32.Vec3{1, 0, 1}}

	// Большое число тиков: скорость сходится к целевой
	run := func(s SensorData) float32 {
		var v mgl32.Vec3
		for i := 0; i < 600; i++ {
			v = m.Update(mgl32.Vec3{v.X(), 0, v.Z()}, walk, s, tick)
		}
		return mgl32.Vec3{v.X(), 0, v.Z()}.Len()
	}

	land := run(SensorData{IsGrounded: true, GroundFriction: 0.6})
	swim := run(SensorData{IsSwimming: true})
	surface := run(SensorData{IsOnWaterSurface: true})

	assert.InDelta(t, 4.3, land, 1e-3, "диагональное направление нормализуется")
	assert.InDelta(t, 4.3*0.5, swim, 1e-3)
	assert.InDelta(t, 4.3*0.75, surface, 1e-3)
}
