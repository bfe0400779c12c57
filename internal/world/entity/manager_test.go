package entity

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/blockworld/internal/physics"
)

func TestManager_SpawnGetRemove(t *testing.T) {
	m := NewManager(nil, physics.DefaultMotorParams())

	e := m.Spawn(EntityTypePlayer, mgl32.Vec3{1, 2, 3}, DefaultSize)
	require.NotEqual(t, uuid.Nil, e.ID)
	assert.Equal(t, 1, m.Count())

	got, ok := m.Get(e.ID)
	require.True(t, ok)
	assert.Same(t, e, got)

	assert.True(t, m.Remove(e.ID))
	assert.False(t, m.Remove(e.ID))
	_, ok = m.Get(e.ID)
	assert.False(t, ok)

	assert.False(t, m.SetIntent(e.ID, physics.MovementIntent{Jump: true}))
	assert.False(t, m.SetBehavior(e.ID, nil))
}

func TestManager_TickUsesIntent(t *testing.T) {
	w := flatWorld(t)
	m := NewManager(w, physics.DefaultMotorParams())
	e := m.Spawn(EntityTypePlayer, mgl32.Vec3{8.5, 64 + physics.Epsilon, 8.5}, DefaultSize)

	require.True(t, m.SetIntent(e.ID, physics.MovementIntent{Direction: mgl32.Vec3{0, 0, 1}}))
	for i := 0; i < 30; i++ {
		m.Tick(tick)
	}

	assert.Greater(t, e.Position.Z(), float32(9))
	assert.InDelta(t, 8.5, e.Position.X(), 1e-4)
	assert.True(t, e.IsGrounded)
}

func TestManager_SnapshotInterpolates(t *testing.T) {
	m := NewManager(nil, physics.DefaultMotorParams())
	e := m.Spawn(EntityTypeItem, mgl32.Vec3{0, 100, 0}, mgl32.Vec3{0.25, 0.25, 0.25})

	m.Tick(tick)
	m.Tick(tick)

	snap := m.Snapshot(0.5)
	require.Contains(t, snap, e.ID)

	want := e.PrevPosition.Add(e.Position).Mul(0.5)
	assertVecNear(t, want, snap[e.ID].Position)
	assert.Less(t, snap[e.ID].Position.Y(), float32(100))
}

func TestManager_InRangeAndStats(t *testing.T) {
	m := NewManager(nil, physics.DefaultMotorParams())
	m.Spawn(EntityTypePlayer, mgl32.Vec3{0, 0, 0}, DefaultSize)
	m.Spawn(EntityTypeAnimal, mgl32.Vec3{3, 0, 4}, DefaultSize)
	m.Spawn(EntityTypeAnimal, mgl32.Vec3{30, 0, 0}, DefaultSize)

	assert.Len(t, m.InRange(mgl32.Vec3{}, 5), 2)
	assert.Len(t, m.InRange(mgl32.Vec3{}, 4.9), 1)

	stats := m.GetStats()
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.ByType["animal"])
	assert.Equal(t, 1, stats.ByType["player"])
}

func TestWanderBehavior_Deterministic(t *testing.T) {
	a := NewWanderBehavior(42)
	b := NewWanderBehavior(42)
	e := NewPhysicalEntity(EntityTypeAnimal, mgl32.Vec3{}, DefaultSize)

	moved := false
	for i := 0; i < 60*20; i++ {
		ia := a.Intent(e, tick)
		ib := b.Intent(e, tick)
		require.Equal(t, ia, ib, "тик %d", i)
		if ia.Direction.Len() > 0 {
			moved = true
			assert.InDelta(t, 1.0, ia.Direction.Len(), 1e-5)
		}
	}
	assert.True(t, moved, "за 20 секунд животное должно начать движение")
}

func TestWanderBehavior_SwimsUp(t *testing.T) {
	b := NewWanderBehavior(1)
	e := NewPhysicalEntity(EntityTypeAnimal, mgl32.Vec3{}, DefaultSize)
	e.Sensors.IsSwimming = true

	assert.True(t, b.Intent(e, tick).Jump)
}

func TestManager_BehaviorDrivesEntity(t *testing.T) {
	w := flatWorld(t)
	m := NewManager(w, physics.DefaultMotorParams())
	e := m.Spawn(EntityTypeAnimal, mgl32.Vec3{8.5, 64 + physics.Epsilon, 8.5}, DefaultSize)

	calls := 0
	m.SetBehavior(e.ID, BehaviorFunc(func(*PhysicalEntity, float32) physics.MovementIntent {
		calls++
		return physics.MovementIntent{Direction: mgl32.Vec3{-1, 0, 0}}
	}))

	for i := 0; i < 10; i++ {
		m.Tick(tick)
	}
	assert.Equal(t, 10, calls)
	assert.Less(t, e.Position.X(), float32(8.5))
}

func TestManager_ViewsCopyState(t *testing.T) {
	m := NewManager(nil, physics.DefaultMotorParams())
	e := m.Spawn(EntityTypeAnimal, mgl32.Vec3{4, 70, 4}, DefaultSize)
	e.Velocity = mgl32.Vec3{1, 0, 0}

	views := m.Views(1)
	require.Len(t, views, 1)
	v := views[0]
	assert.Equal(t, e.ID, v.ID)
	assert.Equal(t, EntityTypeAnimal, v.Type)
	assert.Equal(t, mgl32.Vec3{4, 70, 4}, v.Transform.Position)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, v.Velocity)

	e.Velocity = mgl32.Vec3{}
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, v.Velocity)
}
