package world

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world/block"
)

func newFlatWorld() *World {
	return NewWorld(Config{Seed: 1, Generator: FlatGenerator{Height: 64, Fill: block.Stone}})
}

func TestWorld_GetOrCreateRunsGeneratorOnce(t *testing.T) {
	var calls atomic.Int32
	w := NewWorld(Config{Generator: GeneratorFunc(func(*Chunk) { calls.Add(1) })})

	const workers = 32
	results := make([]*Chunk, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = w.GetOrCreateChunk(vec.Vec2{X: 3, Y: -2})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load(), "генератор должен запускаться один раз")
	for _, c := range results {
		assert.Same(t, results[0], c)
	}
	assert.Equal(t, 1, w.ChunkCount())
}

func TestWorld_GenerateSquare(t *testing.T) {
	w := newFlatWorld()

	require.NoError(t, w.Generate(2))
	assert.Equal(t, 25, w.ChunkCount())
	assert.Equal(t, 2, w.Size())

	for x := -2; x <= 2; x++ {
		for z := -2; z <= 2; z++ {
			assert.NotNil(t, w.GetChunk(vec.Vec2{X: x, Y: z}), "чанк (%d,%d)", x, z)
		}
	}
	assert.Nil(t, w.GetChunk(vec.Vec2{X: 3, Y: 0}))
}

func TestWorld_GenerateNearestFirst(t *testing.T) {
	var (
		mu    sync.Mutex
		order []vec.Vec2
	)
	w := NewWorld(Config{
		BatchSize: 1,
		Generator: GeneratorFunc(func(c *Chunk) {
			mu.Lock()
			order = append(order, c.Coords)
			mu.Unlock()
		}),
	})

	require.NoError(t, w.Generate(3))
	require.Len(t, order, 49)

	assert.Equal(t, vec.Vec2{}, order[0])
	for i := 1; i < len(order); i++ {
		assert.LessOrEqual(t, order[i-1].DistanceSq(vec.Vec2{}), order[i].DistanceSq(vec.Vec2{}))
	}
}

func TestWorld_GenerationPanicIsReported(t *testing.T) {
	var broken atomic.Bool
	broken.Store(true)

	w := NewWorld(Config{Generator: GeneratorFunc(func(c *Chunk) {
		if broken.Load() && c.Coords == (vec.Vec2{X: 1}) {
			panic("генератор сломан")
		}
	})})

	err := w.Generate(1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGeneration))
	assert.Nil(t, w.GetChunk(vec.Vec2{X: 1}))

	// После исправления чанк можно сгенерировать повторно
	broken.Store(false)
	require.NoError(t, w.Generate(1))
	assert.NotNil(t, w.GetChunk(vec.Vec2{X: 1}))
	assert.Equal(t, 9, w.ChunkCount())
}

func TestWorld_GetBlockUnloadedIsAir(t *testing.T) {
	w := newFlatWorld()

	assert.True(t, w.GetBlock(100, 10, 100).IsAir())
	assert.Equal(t, 0, w.ChunkCount(), "чтение не должно создавать чанки")

	assert.True(t, w.GetBlock(0, -1, 0).IsAir())
	assert.True(t, w.GetBlock(0, 256, 0).IsAir())
}

func TestWorld_SetGetBlockNegativeCoords(t *testing.T) {
	w := newFlatWorld()

	w.SetBlock(-1, 70, -17, block.Glass)
	assert.Equal(t, block.Glass, w.GetBlock(-1, 70, -17).ID)
	assert.NotNil(t, w.GetChunk(vec.Vec2{X: -1, Y: -2}))

	// Генератор заполнил чанк камнем ниже 64
	assert.Equal(t, block.Stone, w.GetBlock(-1, 63, -17).ID)
	assert.True(t, w.GetBlock(-1, 64, -17).IsAir())

	w.SetBlock(0, 300, 0, block.Stone)
	assert.True(t, w.GetBlock(0, 300, 0).IsAir())
}

func TestWorld_SetBlockLandsInDecomposedChunk(t *testing.T) {
	w := newFlatWorld()

	w.SetBlock(16, 64, 16, block.Glass)
	assert.Equal(t, block.Glass, w.GetBlock(16, 64, 16).ID)

	c := w.GetChunk(vec.Vec2{X: 1, Y: 1})
	require.NotNil(t, c)
	assert.Equal(t, block.Glass, c.GetBlock(0, 64, 0))
	assert.Nil(t, w.GetChunk(vec.Vec2{}), "соседний чанк не должен создаваться")
	assert.True(t, w.GetBlock(15, 64, 15).IsAir())
}

func TestWorld_BorderEditMarksNeighborDirty(t *testing.T) {
	w := newFlatWorld()
	require.NoError(t, w.Generate(1))

	w.Range(func(c *Chunk) bool {
		c.GenerateMesh(w, nil)
		return true
	})

	w.SetBlock(0, 70, 5, block.Stone)
	assert.True(t, w.GetChunk(vec.Vec2{X: 0}).IsDirty())
	assert.True(t, w.GetChunk(vec.Vec2{X: -1}).IsDirty(), "сосед по -X должен пересобраться")
	assert.False(t, w.GetChunk(vec.Vec2{X: 1}).IsDirty())
	assert.False(t, w.GetChunk(vec.Vec2{Y: -1}).IsDirty())

	w.SetBlock(8, 70, 15, block.Stone)
	assert.True(t, w.GetChunk(vec.Vec2{Y: 1}).IsDirty(), "сосед по +Z должен пересобраться")
}

func TestWorld_NewChunkDirtiesNeighbors(t *testing.T) {
	w := newFlatWorld()
	c := w.GetOrCreateChunk(vec.Vec2{})
	c.GenerateMesh(w, nil)
	require.False(t, c.IsDirty())

	w.GetOrCreateChunk(vec.Vec2{X: 1})
	assert.True(t, c.IsDirty())
}

func TestWorld_UnloadChunks(t *testing.T) {
	w := newFlatWorld()
	require.NoError(t, w.Generate(3))
	require.Equal(t, 49, w.ChunkCount())

	evicted := w.UnloadChunks(vec.Vec2{X: 5, Y: 5}, 1)
	assert.Equal(t, 40, evicted)
	assert.Equal(t, 9, w.ChunkCount())
	assert.NotNil(t, w.GetChunk(vec.Vec2{X: 1, Y: -1}))
	assert.Nil(t, w.GetChunk(vec.Vec2{X: 2, Y: 0}))
}

func TestWorld_GenerateAsyncAroundCenter(t *testing.T) {
	w := newFlatWorld()

	err := <-w.GenerateAsync(context.Background(), 1, vec.Vec2{X: 160, Y: -20})
	require.NoError(t, err)

	assert.Equal(t, 9, w.ChunkCount())
	assert.NotNil(t, w.GetChunk(vec.Vec2{X: 10, Y: -2}))
	assert.NotNil(t, w.GetChunk(vec.Vec2{X: 11, Y: -1}))
	assert.Nil(t, w.GetChunk(vec.Vec2{}))
}

func TestWorld_GenerateCancelled(t *testing.T) {
	w := newFlatWorld()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.GenerateAround(ctx, 2, vec.Vec2{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, w.ChunkCount())

	assert.Error(t, w.Generate(-1))
}

func TestWorld_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	w := NewWorld(Config{Generator: FlatGenerator{Height: 1, Fill: block.Bedrock}, Registerer: reg})

	require.NoError(t, w.Generate(1))
	w.UnloadChunks(vec.Vec2{}, 0)

	values := gatherValues(t, reg)
	assert.Equal(t, 9.0, values["blockworld_world_chunks_generated_total"])
	assert.Equal(t, 8.0, values["blockworld_world_chunks_evicted_total"])
	assert.Equal(t, 1.0, values["blockworld_world_loaded_chunks"])
}

// gatherValues возвращает значения счетчиков и датчиков реестра по имени
func gatherValues(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	values := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				values[mf.GetName()] += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				values[mf.GetName()] += m.GetGauge().GetValue()
			}
		}
	}
	return values
}
