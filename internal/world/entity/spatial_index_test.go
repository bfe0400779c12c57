package entity

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/blockworld/internal/physics"
)

func TestSpatialIndex_QueryAcrossCells(t *testing.T) {
	si := NewSpatialIndex(16)
	a := NewPhysicalEntity(EntityTypeAnimal, mgl32.Vec3{15.5, 64, 0}, DefaultSize)
	b := NewPhysicalEntity(EntityTypeAnimal, mgl32.Vec3{16.5, 64, 0}, DefaultSize)
	c := NewPhysicalEntity(EntityTypeAnimal, mgl32.Vec3{-0.5, 64, -0.5}, DefaultSize)
	for _, e := range []*PhysicalEntity{a, b, c} {
		si.Insert(e)
	}

	assert.Equal(t, 3, si.CellCount(), "отрицательные координаты попадают в свою ячейку")
	assert.Len(t, si.QueryRange(mgl32.Vec3{16, 64, 0}, 1), 2)
	assert.Len(t, si.QueryRange(mgl32.Vec3{0, 64, 0}, 1), 1)
}

func TestSpatialIndex_UpdateMovesBetweenCells(t *testing.T) {
	si := NewSpatialIndex(16)
	e := NewPhysicalEntity(EntityTypePlayer, mgl32.Vec3{1, 64, 1}, DefaultSize)
	si.Insert(e)

	e.Position = mgl32.Vec3{40, 64, 1}
	si.Update(e)

	assert.Equal(t, 1, si.Len())
	assert.Equal(t, 1, si.CellCount())
	assert.Empty(t, si.QueryRange(mgl32.Vec3{1, 64, 1}, 2))
	require.Len(t, si.QueryRange(mgl32.Vec3{40, 64, 1}, 2), 1)

	si.Remove(e.ID)
	assert.Zero(t, si.Len())
	assert.Zero(t, si.CellCount())
	si.Remove(e.ID)
}

func TestManager_InRangeFollowsMovement(t *testing.T) {
	w := flatWorld(t)
	m := NewManager(w, physics.DefaultMotorParams())
	e := m.Spawn(EntityTypePlayer, mgl32.Vec3{8.5, 64 + physics.Epsilon, 8.5}, DefaultSize)
	require.True(t, m.SetIntent(e.ID, physics.MovementIntent{Direction: mgl32.Vec3{1, 0, 0}}))

	for i := 0; i < 120; i++ {
		m.Tick(1.0 / 60)
	}

	got, _ := m.Get(e.ID)
	assert.Empty(t, m.InRange(mgl32.Vec3{8.5, 64, 8.5}, 1))
	assert.Len(t, m.InRange(got.Position, 0.5), 1)
}
