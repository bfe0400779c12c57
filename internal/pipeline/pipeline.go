// Package pipeline перестраивает геометрию грязных чанков в фоне.
//
// Главный поток ставит чанки в очередь (Enqueue, EnqueueDirty), раздаёт задания
// воркерам (Process) и забирает готовые чанки (DrainCompleted). Чанк не может
// находиться в очереди или в работе дважды.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/annel0/blockworld/internal/logging"
	"github.com/annel0/blockworld/internal/mesh"
	"github.com/annel0/blockworld/internal/world"
)

// DefaultErrorBuffer - ёмкость канала ошибок по умолчанию
const DefaultErrorBuffer = 64

// Пределы паузы перед повторным мешингом чанка после ошибки
const (
	DefaultRetryBackoff = 100 * time.Millisecond
	MaxRetryBackoff     = 10 * time.Second
)

// ErrMeshPanic оборачивает панику, перехваченную в задании мешинга
var ErrMeshPanic = errors.New("mesh job panicked")

// MeshFunc перестраивает меш одного чанка
type MeshFunc func(c *world.Chunk) error

// Config задаёт параметры конвейера
type Config struct {
	Workers     int // максимум одновременных заданий; <= 0: число CPU
	ErrorBuffer int // <= 0: DefaultErrorBuffer
	UV          mesh.UVResolver
	Mesher      MeshFunc // nil: Chunk.GenerateMesh с соседями из мира
	Registerer  prometheus.Registerer

	RetryBackoff time.Duration // <= 0: DefaultRetryBackoff
}

// failure - история неудачных попыток мешинга одного чанка
type failure struct {
	version  uint64
	attempts int
	retryAt  time.Time
}

// Pipeline - производитель/потребитель заданий мешинга
type Pipeline struct {
	world  *world.World
	mesher MeshFunc

	queueMu sync.Mutex
	queue   []*world.Chunk

	completedMu sync.Mutex
	completed   []*world.Chunk

	inFlight sync.Map // *world.Chunk -> struct{}
	pending  atomic.Int64

	failuresMu sync.Mutex
	failures   map[*world.Chunk]*failure
	backoff    time.Duration
	now        func() time.Time

	sem     *semaphore.Weighted
	wg      sync.WaitGroup
	errs    chan error
	metrics *Metrics
	tracer  trace.Tracer
	logger  *logging.Logger
}

// New создаёт конвейер для чанков мира w
func New(w *world.World, cfg Config) *Pipeline {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	buffer := cfg.ErrorBuffer
	if buffer <= 0 {
		buffer = DefaultErrorBuffer
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = DefaultRetryBackoff
	}

	p := &Pipeline{
		world:    w,
		mesher:   cfg.Mesher,
		sem:      semaphore.NewWeighted(int64(workers)),
		errs:     make(chan error, buffer),
		failures: make(map[*world.Chunk]*failure),
		backoff:  backoff,
		now:      time.Now,
		metrics:  NewMetrics(cfg.Registerer),
		tracer:   otel.Tracer("blockworld/pipeline"),
		logger:   logging.GetMeshingLogger(),
	}
	if p.mesher == nil {
		uv := cfg.UV
		p.mesher = func(c *world.Chunk) error {
			c.GenerateMesh(w, uv)
			return nil
		}
	}
	return p
}

// Enqueue ставит чанк в очередь. Возвращает false, если чанк уже в очереди или в работе.
func (p *Pipeline) Enqueue(c *world.Chunk) bool {
	if c == nil {
		return false
	}
	if _, loaded := p.inFlight.LoadOrStore(c, struct{}{}); loaded {
		return false
	}
	p.pending.Add(1)
	p.metrics.InFlight.Inc()
	p.metrics.Queued.Inc()

	p.queueMu.Lock()
	p.queue = append(p.queue, c)
	p.queueMu.Unlock()
	return true
}

// EnqueueDirty ставит в очередь все грязные чанки мира и возвращает их количество.
// Чанк, чей мешинг упал, пропускается до истечения паузы, если его блоки не менялись.
func (p *Pipeline) EnqueueDirty() int {
	if p.world == nil {
		return 0
	}
	n := 0
	now := p.now()
	p.world.Range(func(c *world.Chunk) bool {
		if c.IsDirty() && !p.backingOff(c, now) && p.Enqueue(c) {
			n++
		}
		return true
	})
	p.pruneFailures()
	return n
}

// pruneFailures забывает ошибки выгруженных чанков
func (p *Pipeline) pruneFailures() {
	p.failuresMu.Lock()
	defer p.failuresMu.Unlock()

	for c := range p.failures {
		if p.world.GetChunk(c.Coords) != c {
			delete(p.failures, c)
		}
	}
}

func (p *Pipeline) backingOff(c *world.Chunk, now time.Time) bool {
	p.failuresMu.Lock()
	defer p.failuresMu.Unlock()

	f, ok := p.failures[c]
	if !ok {
		return false
	}
	return f.version == c.Version() && now.Before(f.retryAt)
}

// recordFailure продлевает паузу для чанка и сообщает, первая ли это ошибка для его версии
func (p *Pipeline) recordFailure(c *world.Chunk, version uint64) bool {
	p.failuresMu.Lock()
	defer p.failuresMu.Unlock()

	f, ok := p.failures[c]
	if !ok || f.version != version {
		f = &failure{version: version}
		p.failures[c] = f
	}
	f.attempts++

	delay := p.backoff
	for i := 1; i < f.attempts && delay < MaxRetryBackoff; i++ {
		delay *= 2
	}
	if delay > MaxRetryBackoff {
		delay = MaxRetryBackoff
	}
	f.retryAt = p.now().Add(delay)
	return f.attempts == 1
}

func (p *Pipeline) clearFailure(c *world.Chunk) {
	p.failuresMu.Lock()
	delete(p.failures, c)
	p.failuresMu.Unlock()
}

// Process раздаёт задания из очереди свободным воркерам и не блокируется.
// Чанки, которым не хватило воркеров, остаются в очереди до следующего вызова.
// Возвращает количество запущенных заданий.
func (p *Pipeline) Process(ctx context.Context) int {
	started := 0
	for ctx.Err() == nil {
		if !p.sem.TryAcquire(1) {
			break
		}

		c := p.pop()
		if c == nil {
			p.sem.Release(1)
			break
		}

		p.wg.Add(1)
		go p.run(ctx, c)
		started++
	}
	return started
}

func (p *Pipeline) pop() *world.Chunk {
	p.queueMu.Lock()
	defer p.queueMu.Unlock()

	if len(p.queue) == 0 {
		return nil
	}
	c := p.queue[0]
	p.queue[0] = nil
	p.queue = p.queue[1:]
	return c
}

// run выполняет одно задание; маркер «в работе» снимается при любом исходе
func (p *Pipeline) run(ctx context.Context, c *world.Chunk) {
	defer p.wg.Done()
	defer p.sem.Release(1)

	start := time.Now()
	version := c.Version()
	err := p.mesh(ctx, c)

	p.inFlight.Delete(c)
	p.pending.Add(-1)
	p.metrics.InFlight.Dec()

	if err != nil {
		p.metrics.Failed.Inc()
		if p.recordFailure(c, version) {
			p.logger.Warn("Ошибка мешинга чанка %v: %v", c.Coords, err)
		} else {
			p.logger.Debug("Повторная ошибка мешинга чанка %v: %v", c.Coords, err)
		}
		// Чанк снова грязный: EnqueueDirty повторит попытку после паузы
		c.MarkDirty()
		p.report(err)
		return
	}

	p.clearFailure(c)
	p.metrics.Completed.Inc()
	p.metrics.Duration.Observe(time.Since(start).Seconds())

	p.completedMu.Lock()
	p.completed = append(p.completed, c)
	p.completedMu.Unlock()

	// Блоки изменились во время сборки: меш уже устарел
	if c.Version() != version {
		c.MarkDirty()
		p.Enqueue(c)
	}
}

func (p *Pipeline) mesh(ctx context.Context, c *world.Chunk) (err error) {
	_, span := p.tracer.Start(ctx, "pipeline.mesh_chunk", trace.WithAttributes(
		attribute.Int("chunk.x", c.Coords.X),
		attribute.Int("chunk.z", c.Coords.Y),
	))
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: chunk %v: %v", ErrMeshPanic, c.Coords, r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	return p.mesher(c)
}

// report отправляет ошибку без блокировки; при переполнении ошибка только считается
func (p *Pipeline) report(err error) {
	select {
	case p.errs <- err:
	default:
		p.metrics.DroppedErrors.Inc()
	}
}

// DrainCompleted забирает до max готовых чанков (max <= 0: все)
func (p *Pipeline) DrainCompleted(max int) []*world.Chunk {
	p.completedMu.Lock()
	defer p.completedMu.Unlock()

	n := len(p.completed)
	if max > 0 && max < n {
		n = max
	}
	if n == 0 {
		return nil
	}

	out := make([]*world.Chunk, n)
	copy(out, p.completed[:n])
	p.completed = append(p.completed[:0], p.completed[n:]...)
	return out
}

// Errors возвращает канал ошибок фоновых заданий
func (p *Pipeline) Errors() <-chan error {
	return p.errs
}

// Pending возвращает количество чанков в очереди и в работе
func (p *Pipeline) Pending() int {
	return int(p.pending.Load())
}

// QueueLen возвращает количество чанков, ожидающих воркера
func (p *Pipeline) QueueLen() int {
	p.queueMu.Lock()
	defer p.queueMu.Unlock()
	return len(p.queue)
}

// Metrics возвращает метрики конвейера
func (p *Pipeline) Metrics() *Metrics {
	return p.metrics
}

// Wait ожидает завершения всех запущенных заданий
func (p *Pipeline) Wait() {
	p.wg.Wait()
}
