package world

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/blockworld/internal/eventbus"
	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world/block"
)

type recorder struct {
	mu     sync.Mutex
	events []*eventbus.Envelope
}

func (r *recorder) handle(_ context.Context, ev *eventbus.Envelope) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) ofType(eventType string) []*eventbus.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*eventbus.Envelope
	for _, ev := range r.events {
		if ev.EventType == eventType {
			out = append(out, ev)
		}
	}
	return out
}

func TestWorld_PublishesEvents(t *testing.T) {
	bus := eventbus.NewMemoryBus(256)
	rec := &recorder{}
	_, err := bus.Subscribe(context.Background(), eventbus.Filter{Sources: []string{EventSource}}, rec.handle)
	require.NoError(t, err)

	w := NewWorld(Config{Generator: FlatGenerator{Height: 64, Fill: block.Stone}, Events: bus})
	require.NoError(t, w.Generate(1))

	w.SetBlock(3, 64, 3, block.Glass)
	w.SetBlock(3, 64, 3, block.Glass) // без изменений: без события
	assert.Equal(t, 8, w.UnloadChunks(vec.Vec2{X: 16}, 0))
	bus.Close()

	assert.Len(t, rec.ofType(EventChunkLoaded), 9)
	assert.Len(t, rec.ofType(EventChunkUnloaded), 8)

	changes := rec.ofType(EventBlockChanged)
	require.Len(t, changes, 1)
	ev := changes[0].Payload.(BlockEvent)
	assert.Equal(t, vec.Vec3{X: 3, Y: 64, Z: 3}, ev.Position)
	assert.Equal(t, block.Air, ev.Old)
	assert.Equal(t, block.Glass, ev.New)
	assert.Equal(t, eventbus.PriorityHigh, changes[0].Priority)
}

func TestWorld_PublishWithoutBus(t *testing.T) {
	w := newFlatWorld()
	assert.NotPanics(t, func() { w.Publish(EventChunkMeshed, ChunkEvent{}) })
}

func TestWorld_UnloadPublishesEvictedCoords(t *testing.T) {
	bus := eventbus.NewMemoryBus(64)
	rec := &recorder{}
	_, err := bus.Subscribe(context.Background(), eventbus.Filter{Types: []string{EventChunkUnloaded}}, rec.handle)
	require.NoError(t, err)

	w := NewWorld(Config{Generator: FlatGenerator{Height: 10, Fill: block.Stone}, Events: bus})
	require.NoError(t, w.Generate(1))
	require.Equal(t, 8, w.UnloadChunks(vec.Vec2{}, 0))
	bus.Close()

	unloaded := rec.ofType(EventChunkUnloaded)
	require.Len(t, unloaded, 8)

	seen := make(map[vec.Vec2]bool)
	for _, ev := range unloaded {
		coords := ev.Payload.(ChunkEvent).Coords
		assert.Nil(t, w.GetChunk(coords))
		seen[coords] = true
	}
	assert.Len(t, seen, 8)
	assert.False(t, seen[vec.Vec2{}], "центральный чанк остаётся загруженным")
}
