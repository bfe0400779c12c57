// Package sim содержит главный цикл симуляции с фиксированным шагом.
package sim

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/annel0/blockworld/internal/logging"
	"github.com/annel0/blockworld/internal/pipeline"
	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world"
	"github.com/annel0/blockworld/internal/world/entity"
)

// Значения по умолчанию
const (
	DefaultTickRate    = 60
	DefaultMaxSteps    = 5
	DefaultStreamEvery = 20
)

// Config задаёт параметры цикла
type Config struct {
	TickRate     int // тиков в секунду
	MaxSteps     int // максимум тиков за один кадр при догонянии
	StreamEvery  int // период подгрузки и выгрузки чанков в тиках
	StreamRadius int // радиус генерации вокруг фокуса в чанках
	UnloadRange  int // радиус, за которым чанки выгружаются
	DrainPerTick int // сколько готовых мешей забирать за тик (0: все)
	Registerer   prometheus.Registerer
}

func (c *Config) applyDefaults() {
	if c.TickRate <= 0 {
		c.TickRate = DefaultTickRate
	}
	if c.MaxSteps <= 0 {
		c.MaxSteps = DefaultMaxSteps
	}
	if c.StreamEvery <= 0 {
		c.StreamEvery = DefaultStreamEvery
	}
	if c.UnloadRange < c.StreamRadius {
		c.UnloadRange = c.StreamRadius + 2
	}
}

// Stats - состояние цикла для отладочного API
type Stats struct {
	Ticks         uint64  `json:"ticks"`
	Alpha         float32 `json:"alpha"`
	Chunks        int     `json:"chunks"`
	PendingMeshes int     `json:"pending_meshes"`
	Entities      int     `json:"entities"`
	MeshErrors    uint64  `json:"mesh_errors"`
	LastMeshError string  `json:"last_mesh_error,omitempty"`
}

// Loop связывает мир, конвейер мешинга и сущности в фиксированный шаг
type Loop struct {
	world    *world.World
	pipeline *pipeline.Pipeline
	entities *entity.Manager
	cfg      Config
	dt       time.Duration

	mu          sync.Mutex // защищает accumulator и streaming
	accumulator time.Duration
	streaming   <-chan error

	ticks      atomic.Uint64
	focus      atomic.Pointer[uuid.UUID]
	meshErrors atomic.Uint64
	lastErr    atomic.Pointer[string]

	// OnChunkReady вызывается в потоке цикла для каждого чанка с новым мешем
	OnChunkReady func(c *world.Chunk)

	metrics *Metrics
	logger  *logging.Logger
}

// New создаёт цикл симуляции
func New(w *world.World, p *pipeline.Pipeline, em *entity.Manager, cfg Config) *Loop {
	cfg.applyDefaults()
	return &Loop{
		world:    w,
		pipeline: p,
		entities: em,
		cfg:      cfg,
		dt:       time.Second / time.Duration(cfg.TickRate),
		metrics:  NewMetrics(cfg.Registerer),
		logger:   logging.GetComponentLogger("sim"),
	}
}

// SetFocus задаёт сущность, вокруг которой подгружаются чанки
func (l *Loop) SetFocus(id uuid.UUID) {
	l.focus.Store(&id)
}

// TickDuration возвращает длительность фиксированного шага
func (l *Loop) TickDuration() time.Duration { return l.dt }

// Ticks возвращает количество выполненных тиков
func (l *Loop) Ticks() uint64 { return l.ticks.Load() }

// Alpha возвращает долю шага, накопленную после последнего тика (для интерполяции)
func (l *Loop) Alpha() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return float32(l.accumulator) / float32(l.dt)
}

// Step добавляет прошедшее время и выполняет накопившиеся тики, не больше MaxSteps.
// Остаток сверх лимита отбрасывается. Возвращает количество выполненных тиков.
func (l *Loop) Step(ctx context.Context, elapsed time.Duration) int {
	l.mu.Lock()
	l.accumulator += elapsed
	l.mu.Unlock()

	steps := 0
	for {
		l.mu.Lock()
		if l.accumulator < l.dt {
			l.mu.Unlock()
			break
		}
		if steps == l.cfg.MaxSteps {
			dropped := l.accumulator
			l.accumulator %= l.dt
			l.mu.Unlock()
			l.metrics.DroppedTime.Add((dropped - l.accumulator).Seconds())
			break
		}
		l.accumulator -= l.dt
		l.mu.Unlock()

		l.Tick(ctx)
		steps++
	}
	return steps
}

// Tick выполняет один фиксированный шаг симуляции
func (l *Loop) Tick(ctx context.Context) {
	start := time.Now()
	n := l.ticks.Add(1) - 1

	if l.entities != nil {
		l.entities.Tick(float32(l.dt.Seconds()))
	}

	if n%uint64(l.cfg.StreamEvery) == 0 {
		l.stream(ctx)
	}

	if l.pipeline != nil {
		l.pipeline.EnqueueDirty()
		l.pipeline.Process(ctx)
		l.collect()
	}

	l.metrics.Ticks.Inc()
	l.metrics.TickDuration.Observe(time.Since(start).Seconds())
}

// focusPoint возвращает мировые координаты (X, Z) фокуса
func (l *Loop) focusPoint() vec.Vec2 {
	id := l.focus.Load()
	if id == nil || l.entities == nil {
		return vec.Vec2{}
	}
	e, ok := l.entities.Get(*id)
	if !ok {
		return vec.Vec2{}
	}
	p := vec.FloorVec3(e.Position.X(), e.Position.Y(), e.Position.Z())
	return vec.Vec2{X: p.X, Y: p.Z}
}

// stream опрашивает фоновую генерацию и запускает новую, если прошлая завершилась
func (l *Loop) stream(ctx context.Context) {
	if l.world == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.streaming != nil {
		select {
		case err := <-l.streaming:
			if err != nil {
				l.logger.Warn("Фоновая генерация завершилась с ошибкой: %v", err)
			}
			l.streaming = nil
		default:
			return
		}
	}

	center := l.focusPoint()
	l.streaming = l.world.GenerateAsync(ctx, l.cfg.StreamRadius, center)
	if evicted := l.world.UnloadChunks(center, l.cfg.UnloadRange); evicted > 0 {
		l.logger.Debug("Выгружено %d чанков вокруг %v", evicted, center)
	}
}

// collect забирает готовые меши и ошибки конвейера
func (l *Loop) collect() {
	for _, c := range l.pipeline.DrainCompleted(l.cfg.DrainPerTick) {
		faces := 0
		if m := c.Mesh(); m != nil {
			faces = m.FaceCount()
		}
		l.world.Publish(world.EventChunkMeshed, world.ChunkEvent{Coords: c.Coords, Faces: faces})
		if l.OnChunkReady != nil {
			l.OnChunkReady(c)
		}
	}

	for {
		select {
		case err := <-l.pipeline.Errors():
			l.meshErrors.Add(1)
			msg := err.Error()
			l.lastErr.Store(&msg)
		default:
			return
		}
	}
}

// WaitStreaming блокирует до завершения текущей фоновой генерации
func (l *Loop) WaitStreaming() error {
	l.mu.Lock()
	ch := l.streaming
	l.streaming = nil
	l.mu.Unlock()

	if ch == nil {
		return nil
	}
	return <-ch
}

// Run выполняет цикл в реальном времени до отмены контекста
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.dt)
	defer ticker.Stop()

	l.logger.Info("Цикл симуляции запущен: %d тиков/с", l.cfg.TickRate)
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Цикл симуляции остановлен после %d тиков", l.Ticks())
			if l.pipeline != nil {
				l.pipeline.Wait()
			}
			return nil
		case now := <-ticker.C:
			l.Step(ctx, now.Sub(last))
			last = now
		}
	}
}

// Stats возвращает текущее состояние цикла
func (l *Loop) Stats() Stats {
	s := Stats{
		Ticks:      l.Ticks(),
		Alpha:      l.Alpha(),
		MeshErrors: l.meshErrors.Load(),
	}
	if l.world != nil {
		s.Chunks = l.world.ChunkCount()
	}
	if l.pipeline != nil {
		s.PendingMeshes = l.pipeline.Pending()
	}
	if l.entities != nil {
		s.Entities = l.entities.Count()
	}
	if msg := l.lastErr.Load(); msg != nil {
		s.LastMeshError = *msg
	}
	return s
}
