package world

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/annel0/blockworld/internal/eventbus"
	"github.com/annel0/blockworld/internal/logging"
	"github.com/annel0/blockworld/internal/noise"
	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world/block"
)

// DefaultBatchSize - количество чанков, генерируемых параллельно в одном пакете
const DefaultBatchSize = 8

// ErrGeneration возвращается, если генератор чанка завершился паникой
var ErrGeneration = errors.New("chunk generation failed")

// Config задаёт параметры мира
type Config struct {
	Seed       int64
	BatchSize  int        // <= 0: DefaultBatchSize
	Noise      noise.Kind // тип шума для TerrainGenerator
	Generator  Generator  // nil: TerrainGenerator
	Registerer prometheus.Registerer
	Events     eventbus.EventBus // nil: события не публикуются
}

// chunkSlot - ячейка хранилища; once гарантирует единственный запуск генератора
type chunkSlot struct {
	once  sync.Once
	chunk *Chunk
	err   error
	ready atomic.Bool
}

// World хранит загруженные чанки и отвечает за их генерацию и выгрузку.
// Доступ к хранилищу не требует внешней блокировки.
type World struct {
	chunks    sync.Map // vec.Vec2 -> *chunkSlot
	count     atomic.Int64
	size      atomic.Int64 // последний запрошенный радиус генерации
	seed      int64
	batchSize int
	generator Generator
	metrics   *Metrics
	events    eventbus.EventBus
	tracer    trace.Tracer
	logger    *logging.Logger
}

// NewWorld создаёт мир с указанными параметрами
func NewWorld(cfg Config) *World {
	gen := cfg.Generator
	if gen == nil {
		gen = NewTerrainGenerator(cfg.Seed, cfg.Noise)
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}

	return &World{
		seed:      cfg.Seed,
		batchSize: batch,
		generator: gen,
		metrics:   NewMetrics(cfg.Registerer),
		events:    cfg.Events,
		tracer:    otel.Tracer("blockworld/world"),
		logger:    logging.GetWorldLogger(),
	}
}

// Seed возвращает сид мира
func (w *World) Seed() int64 { return w.seed }

// Size возвращает последний запрошенный радиус генерации в чанках
func (w *World) Size() int { return int(w.size.Load()) }

// ChunkCount возвращает количество загруженных чанков
func (w *World) ChunkCount() int { return int(w.count.Load()) }

// Metrics возвращает метрики мира
func (w *World) Metrics() *Metrics { return w.metrics }

// GetChunk возвращает загруженный чанк или nil, не создавая новый
func (w *World) GetChunk(coords vec.Vec2) *Chunk {
	v, ok := w.chunks.Load(coords)
	if !ok {
		return nil
	}
	slot := v.(*chunkSlot)
	if !slot.ready.Load() {
		return nil
	}
	return slot.chunk
}

// GetOrCreateChunk возвращает чанк, генерируя его при первом обращении.
// При конкурентных вызовах для одной координаты генератор выполняется один раз.
// Возвращает nil, если генерация завершилась ошибкой.
func (w *World) GetOrCreateChunk(coords vec.Vec2) *Chunk {
	c, err := w.loadOrGenerate(coords)
	if err != nil {
		w.logger.Warn("Не удалось сгенерировать чанк %v: %v", coords, err)
		return nil
	}
	return c
}

func (w *World) loadOrGenerate(coords vec.Vec2) (*Chunk, error) {
	v, _ := w.chunks.LoadOrStore(coords, &chunkSlot{})
	slot := v.(*chunkSlot)

	slot.once.Do(func() {
		slot.chunk, slot.err = w.generate(coords)
		if slot.err != nil {
			return
		}
		slot.ready.Store(true)
		w.count.Add(1)
		w.metrics.LoadedChunks.Inc()
		w.metrics.Generated.Inc()
		w.markNeighborsDirty(coords)
		w.Publish(EventChunkLoaded, ChunkEvent{Coords: coords})
	})

	if slot.err != nil {
		// Освобождаем ячейку, чтобы следующий запрос попробовал снова
		w.chunks.CompareAndDelete(coords, slot)
		return nil, slot.err
	}
	return slot.chunk, nil
}

func (w *World) generate(coords vec.Vec2) (c *Chunk, err error) {
	defer func() {
		if r := recover(); r != nil {
			w.metrics.GenerateError.Inc()
			c, err = nil, fmt.Errorf("%w: chunk %v: %v", ErrGeneration, coords, r)
		}
	}()

	c = NewChunk(coords)
	w.generator.Populate(c)
	return c, nil
}

// markNeighborsDirty заставляет соседей перестроить граничные грани после появления чанка
func (w *World) markNeighborsDirty(coords vec.Vec2) {
	for _, d := range [4]vec.Vec2{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}} {
		if n := w.GetChunk(coords.Add(d)); n != nil {
			n.MarkDirty()
		}
	}
}

// GetBlock возвращает блок по мировым координатам.
// Незагруженные чанки и позиции вне высоты мира считаются воздухом.
func (w *World) GetBlock(x, y, z int) Block {
	if y < 0 || y >= ChunkHeight {
		return AirBlock
	}
	p := vec.Vec3{X: x, Y: y, Z: z}
	c := w.GetChunk(p.Chunk())
	if c == nil {
		return AirBlock
	}
	l := p.Local()
	return Block{ID: c.GetBlock(l.X, l.Y, l.Z)}
}

// SetBlock устанавливает блок по мировым координатам, создавая чанк при необходимости.
// Изменение на границе чанка помечает загруженного соседа грязным.
func (w *World) SetBlock(x, y, z int, id block.ID) {
	if y < 0 || y >= ChunkHeight {
		return
	}
	p := vec.Vec3{X: x, Y: y, Z: z}
	coords := p.Chunk()
	c := w.GetOrCreateChunk(coords)
	if c == nil {
		return
	}

	l := p.Local()
	old := c.GetBlock(l.X, l.Y, l.Z)
	if old == id {
		return
	}
	c.SetBlock(l.X, l.Y, l.Z, id)
	w.Publish(EventBlockChanged, BlockEvent{Position: p, Chunk: coords, Old: old, New: id})

	switch l.X {
	case 0:
		w.markDirty(coords.Add(vec.Vec2{X: -1}))
	case ChunkSize - 1:
		w.markDirty(coords.Add(vec.Vec2{X: 1}))
	}
	switch l.Z {
	case 0:
		w.markDirty(coords.Add(vec.Vec2{Y: -1}))
	case ChunkSize - 1:
		w.markDirty(coords.Add(vec.Vec2{Y: 1}))
	}
}

func (w *World) markDirty(coords vec.Vec2) {
	if c := w.GetChunk(coords); c != nil {
		c.MarkDirty()
	}
}

// Range вызывает fn для каждого загруженного чанка; false прекращает обход
func (w *World) Range(fn func(c *Chunk) bool) {
	w.chunks.Range(func(_, v any) bool {
		slot := v.(*chunkSlot)
		if !slot.ready.Load() {
			return true
		}
		return fn(slot.chunk)
	})
}

// Generate синхронно генерирует квадрат (2*bounds+1)^2 чанков вокруг начала координат
func (w *World) Generate(bounds int) error {
	return w.GenerateAround(context.Background(), bounds, vec.Vec2{})
}

// GenerateAsync запускает GenerateAround в фоне; результат приходит в канал
func (w *World) GenerateAsync(ctx context.Context, bounds int, center vec.Vec2) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- w.GenerateAround(ctx, bounds, center)
	}()
	return done
}

// GenerateAround генерирует квадрат (2*bounds+1)^2 чанков вокруг мировой точки center.
// Чанки упорядочены по удалённости и генерируются пакетами: пакет выполняется
// параллельно, следующий начинается только после завершения предыдущего.
func (w *World) GenerateAround(ctx context.Context, bounds int, center vec.Vec2) error {
	if bounds < 0 {
		return fmt.Errorf("invalid generation bounds %d", bounds)
	}
	w.size.Store(int64(bounds))

	origin := center.ToChunkCoords()
	pending := generationOrder(origin, bounds)

	for start := 0; start < len(pending); start += w.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := start + w.batchSize
		if end > len(pending) {
			end = len(pending)
		}
		if err := w.generateBatch(ctx, pending[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// generationOrder возвращает координаты квадрата, отсортированные по квадрату расстояния до центра
func generationOrder(origin vec.Vec2, bounds int) []vec.Vec2 {
	coords := make([]vec.Vec2, 0, (2*bounds+1)*(2*bounds+1))
	for x := -bounds; x <= bounds; x++ {
		for z := -bounds; z <= bounds; z++ {
			coords = append(coords, vec.Vec2{X: origin.X + x, Y: origin.Y + z})
		}
	}

	sort.SliceStable(coords, func(i, j int) bool {
		return coords[i].DistanceSq(origin) < coords[j].DistanceSq(origin)
	})
	return coords
}

func (w *World) generateBatch(ctx context.Context, batch []vec.Vec2) error {
	ctx, span := w.tracer.Start(ctx, "world.generate_batch",
		trace.WithAttributes(attribute.Int("batch.size", len(batch))))
	defer span.End()

	start := time.Now()
	defer func() { w.metrics.BatchDuration.Observe(time.Since(start).Seconds()) }()

	g, _ := errgroup.WithContext(ctx)
	for _, coords := range batch {
		coords := coords
		if w.GetChunk(coords) != nil {
			continue
		}
		g.Go(func() error {
			_, err := w.loadOrGenerate(coords)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		w.logger.Error("Ошибка генерации пакета чанков: %v", err)
		return err
	}
	return nil
}

// UnloadChunks выгружает чанки, удалённые от мировой точки center больше чем на rng
// чанков по Чебышёву. Возвращает количество выгруженных чанков.
func (w *World) UnloadChunks(center vec.Vec2, rng int) int {
	origin := center.ToChunkCoords()
	evicted := 0

	w.chunks.Range(func(k, v any) bool {
		coords := k.(vec.Vec2)
		if coords.Chebyshev(origin) <= rng {
			return true
		}
		slot := v.(*chunkSlot)
		if !slot.ready.Load() {
			return true
		}
		if w.chunks.CompareAndDelete(coords, slot) {
			evicted++
			w.count.Add(-1)
			w.metrics.LoadedChunks.Dec()
			w.metrics.Evicted.Inc()
			w.Publish(EventChunkUnloaded, ChunkEvent{Coords: coords})
		}
		return true
	})

	if evicted > 0 {
		w.logger.Debug("Выгружено чанков: %d (осталось %d)", evicted, w.ChunkCount())
	}
	return evicted
}
