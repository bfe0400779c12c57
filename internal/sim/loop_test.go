package sim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/blockworld/internal/eventbus"
	"github.com/annel0/blockworld/internal/physics"
	"github.com/annel0/blockworld/internal/pipeline"
	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world"
	"github.com/annel0/blockworld/internal/world/block"
	"github.com/annel0/blockworld/internal/world/entity"
)

type fixture struct {
	world    *world.World
	pipeline *pipeline.Pipeline
	entities *entity.Manager
	loop     *Loop
}

func newFixture(cfg Config) *fixture {
	w := world.NewWorld(world.Config{Generator: world.FlatGenerator{Height: 64, Fill: block.Stone}})
	p := pipeline.New(w, pipeline.Config{Workers: 4})
	em := entity.NewManager(w, physics.DefaultMotorParams())
	return &fixture{world: w, pipeline: p, entities: em, loop: New(w, p, em, cfg)}
}

func TestLoop_StepAccumulates(t *testing.T) {
	f := newFixture(Config{TickRate: 50})
	ctx := context.Background()

	assert.Equal(t, 20*time.Millisecond, f.loop.TickDuration())

	assert.Equal(t, 0, f.loop.Step(ctx, 12*time.Millisecond))
	assert.InDelta(t, 0.6, f.loop.Alpha(), 1e-4)

	assert.Equal(t, 1, f.loop.Step(ctx, 12*time.Millisecond))
	assert.InDelta(t, 0.2, f.loop.Alpha(), 1e-4)
	assert.Equal(t, uint64(1), f.loop.Ticks())
}

func TestLoop_CatchUpIsLimited(t *testing.T) {
	f := newFixture(Config{TickRate: 50, MaxSteps: 5})

	assert.Equal(t, 5, f.loop.Step(context.Background(), time.Second))
	assert.Less(t, f.loop.Alpha(), float32(1))
	assert.Equal(t, uint64(5), f.loop.Ticks())
}

func TestLoop_StreamsAroundFocus(t *testing.T) {
	f := newFixture(Config{StreamRadius: 1, UnloadRange: 2})
	e := f.entities.Spawn(entity.EntityTypePlayer, mgl32.Vec3{100, 64 + physics.Epsilon, 100}, entity.DefaultSize)
	f.loop.SetFocus(e.ID)

	ready := make(map[vec.Vec2]bool)
	f.loop.OnChunkReady = func(c *world.Chunk) { ready[c.Coords] = true }

	ctx := context.Background()
	f.loop.Tick(ctx)
	require.NoError(t, f.loop.WaitStreaming())

	// Фокус в чанке (6, 6)
	assert.Equal(t, 9, f.world.ChunkCount())
	assert.NotNil(t, f.world.GetChunk(vec.Vec2{X: 6, Y: 6}))

	for i := 0; i < 10 && len(ready) < 9; i++ {
		f.loop.Tick(ctx)
		f.pipeline.Wait()
	}
	f.loop.Tick(ctx)

	assert.Len(t, ready, 9)
	f.world.Range(func(c *world.Chunk) bool {
		assert.NotNil(t, c.Mesh(), "чанк %v без меша", c.Coords)
		return true
	})
}

func TestLoop_UnloadsFarChunks(t *testing.T) {
	f := newFixture(Config{StreamRadius: 1, UnloadRange: 1, StreamEvery: 1})
	require.NoError(t, f.world.Generate(3))
	require.Equal(t, 49, f.world.ChunkCount())

	f.loop.Tick(context.Background())
	require.NoError(t, f.loop.WaitStreaming())

	assert.Equal(t, 9, f.world.ChunkCount())
}

func TestLoop_TicksEntities(t *testing.T) {
	f := newFixture(Config{})
	require.NoError(t, f.world.Generate(1))
	e := f.entities.Spawn(entity.EntityTypeAnimal, mgl32.Vec3{8.5, 70, 8.5}, entity.DefaultSize)

	f.loop.Step(context.Background(), 100*time.Millisecond)
	require.NoError(t, f.loop.WaitStreaming())

	assert.Less(t, e.Position.Y(), float32(70))
	snap := f.entities.Snapshot(f.loop.Alpha())
	assert.Contains(t, snap, e.ID)
}

func TestLoop_CollectsMeshErrors(t *testing.T) {
	w := world.NewWorld(world.Config{Generator: world.FlatGenerator{Height: 1, Fill: block.Bedrock}})
	require.NoError(t, w.Generate(0))
	p := pipeline.New(w, pipeline.Config{
		Workers: 1,
		Mesher:  func(*world.Chunk) error { return errors.New("mesher offline") },
	})
	l := New(w, p, nil, Config{StreamEvery: 1000})

	l.Tick(context.Background())
	p.Wait()
	l.Tick(context.Background())
	p.Wait()

	stats := l.Stats()
	assert.GreaterOrEqual(t, stats.MeshErrors, uint64(1))
	assert.Equal(t, "mesher offline", stats.LastMeshError)
	assert.Equal(t, 1, stats.Chunks)
}

func TestLoop_RunStopsOnCancel(t *testing.T) {
	f := newFixture(Config{TickRate: 200})
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- f.loop.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("цикл не остановился")
	}
	assert.Greater(t, f.loop.Ticks(), uint64(0))
	_ = f.loop.WaitStreaming()
}

func TestLoop_PublishesMeshedChunks(t *testing.T) {
	bus := eventbus.NewMemoryBus(64)
	meshed := make(chan world.ChunkEvent, 64)
	_, err := bus.Subscribe(context.Background(), eventbus.Filter{Types: []string{world.EventChunkMeshed}},
		func(_ context.Context, ev *eventbus.Envelope) { meshed <- ev.Payload.(world.ChunkEvent) })
	require.NoError(t, err)

	w := world.NewWorld(world.Config{Generator: world.FlatGenerator{Height: 64, Fill: block.Stone}, Events: bus})
	require.NoError(t, w.Generate(0))
	p := pipeline.New(w, pipeline.Config{Workers: 1})
	l := New(w, p, nil, Config{StreamEvery: 1000})

	ctx := context.Background()
	l.Tick(ctx)
	p.Wait()
	l.Tick(ctx)
	bus.Close()

	require.Len(t, meshed, 1)
	ev := <-meshed
	assert.Equal(t, vec.Vec2{}, ev.Coords)
	// Одинокий чанк: верх, низ и четыре боковые стороны по 64 блока
	assert.Equal(t, 2*16*16+4*16*64, ev.Faces)
}
