package entity

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/annel0/blockworld/internal/physics"
)

// Behavior выбирает намерение движения сущности на каждом тике
type Behavior interface {
	Intent(e *PhysicalEntity, dt float32) physics.MovementIntent
}

// BehaviorFunc позволяет использовать функцию как Behavior
type BehaviorFunc func(e *PhysicalEntity, dt float32) physics.MovementIntent

// Intent вызывает f(e, dt)
func (f BehaviorFunc) Intent(e *PhysicalEntity, dt float32) physics.MovementIntent {
	return f(e, dt)
}

type wanderState uint8

const (
	wanderIdle wanderState = iota
	wanderMove
)

// WanderBehavior чередует простой и движение в случайном направлении.
// В воде всегда всплывает.
type WanderBehavior struct {
	rng           *rand.Rand
	idleTimeRange [2]float32 // Мин/макс время простоя
	moveTimeRange [2]float32 // Мин/макс время движения

	state     wanderState
	timer     float32
	direction mgl32.Vec3
}

// NewWanderBehavior создаёт поведение с детерминированным генератором случайных чисел
func NewWanderBehavior(seed int64) *WanderBehavior {
	return &WanderBehavior{
		rng:           rand.New(rand.NewSource(seed)),
		idleTimeRange: [2]float32{2, 7}, // 2-7 секунд простоя
		moveTimeRange: [2]float32{1, 4}, // 1-4 секунды движения
	}
}

// Intent обновляет таймер состояния и возвращает намерение
func (w *WanderBehavior) Intent(e *PhysicalEntity, dt float32) physics.MovementIntent {
	w.timer -= dt
	if w.timer <= 0 {
		w.switchState()
	}

	intent := physics.MovementIntent{Jump: e.Sensors.IsSwimming}
	if w.state == wanderMove {
		intent.Direction = w.direction
		// Упёрлись в стену: пробуем перепрыгнуть
		if e.Contacts.X || e.Contacts.Z {
			intent.Jump = true
		}
	}
	return intent
}

func (w *WanderBehavior) switchState() {
	if w.state == wanderIdle {
		w.state = wanderMove
		angle := w.rng.Float64() * 2 * math.Pi
		w.direction = mgl32.Vec3{float32(math.Sin(angle)), 0, float32(math.Cos(angle))}
		w.timer = w.randomIn(w.moveTimeRange)
		return
	}
	w.state = wanderIdle
	w.direction = mgl32.Vec3{}
	w.timer = w.randomIn(w.idleTimeRange)
}

func (w *WanderBehavior) randomIn(r [2]float32) float32 {
	return r[0] + w.rng.Float32()*(r[1]-r[0])
}
