package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/annel0/blockworld/internal/api"
	"github.com/annel0/blockworld/internal/config"
	"github.com/annel0/blockworld/internal/eventbus"
	"github.com/annel0/blockworld/internal/logging"
	"github.com/annel0/blockworld/internal/noise"
	"github.com/annel0/blockworld/internal/observability"
	"github.com/annel0/blockworld/internal/pipeline"
	"github.com/annel0/blockworld/internal/sim"
	"github.com/annel0/blockworld/internal/world"
	"github.com/annel0/blockworld/internal/world/entity"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (по умолчанию ENV BLOCKWORLD_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	logOpts := logging.Options{
		ConsoleLevel: logging.ParseLevel(cfg.Logging.Level),
		FileLevel:    logging.ParseLevel(cfg.Logging.FileLevel),
		FilePath:     cfg.Logging.File,
	}
	if err := logging.InitDefaultLogger("server", logOpts); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	// Логгеры компонентов пишут только в консоль, файл остаётся за основным
	logging.GetLoggerManager().Configure(logging.Options{
		ConsoleLevel: logOpts.ConsoleLevel,
		FileLevel:    logOpts.FileLevel,
	})
	defer logging.GetLoggerManager().CloseAll()

	if err := run(cfg); err != nil {
		logging.Error("❌ %v", err)
		os.Exit(1)
	}
	logging.Info("👋 Сервер успешно остановлен")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info("🧱 Запуск blockworld (seed=%d, noise=%s, radius=%d)", cfg.World.Seed, cfg.World.Noise, cfg.World.Radius)

	// === ТЕЛЕМЕТРИЯ ===
	shutdownTelemetry := observability.ShutdownFunc(observability.Noop)
	if cfg.Server.Telemetry {
		fn, err := observability.InitTelemetry(ctx, "blockworld", cfg.Server.OTLPURL)
		if err != nil {
			logging.Warn("OpenTelemetry недоступен: %v", err)
		} else {
			shutdownTelemetry = fn
		}
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logging.Warn("Ошибка остановки телеметрии: %v", err)
		}
	}()

	// === МЕТРИКИ ===
	registry := prometheus.NewRegistry()
	var reg prometheus.Registerer
	if cfg.Server.Metrics {
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		reg = registry
	}

	// === СОБЫТИЯ ===
	bus := eventbus.NewMemoryBus(1024)
	defer bus.Close()
	eventbus.RegisterMetrics(bus, reg)
	if _, err := eventbus.StartLoggingListener(bus, nil); err != nil {
		return fmt.Errorf("подписка на события: %w", err)
	}

	// === МИР ===
	terrain := world.NewTerrainGenerator(cfg.World.Seed, noise.Kind(cfg.World.Noise))
	w := world.NewWorld(world.Config{
		Seed:       cfg.World.Seed,
		BatchSize:  cfg.World.BatchSize,
		Generator:  terrain,
		Registerer: reg,
		Events:     bus,
	})

	start := time.Now()
	if err := w.Generate(cfg.World.Radius); err != nil {
		return fmt.Errorf("генерация стартовой области: %w", err)
	}
	logging.Info("🌍 Стартовая область готова: %d чанков за %s", w.ChunkCount(), time.Since(start).Round(time.Millisecond))

	p := pipeline.New(w, pipeline.Config{
		Workers:     cfg.Meshing.Workers,
		ErrorBuffer: cfg.Meshing.ErrorBuffer,
		Registerer:  reg,
	})

	// === СУЩНОСТИ ===
	em := entity.NewManager(w, cfg.MotorParams())
	spawnY := float32(terrain.Height(8, 8) + 1)
	player := em.Spawn(entity.EntityTypePlayer, mgl32.Vec3{8.5, spawnY, 8.5}, entity.DefaultSize)

	for i := 0; i < cfg.Sim.Animals; i++ {
		x, z := 4+i*3, 12
		pos := mgl32.Vec3{float32(x) + 0.5, float32(terrain.Height(x, z) + 1), float32(z) + 0.5}
		a := em.Spawn(entity.EntityTypeAnimal, pos, mgl32.Vec3{0.9, 0.9, 0.9})
		em.SetBehavior(a.ID, entity.NewWanderBehavior(cfg.World.Seed+int64(i)))
	}
	logging.Info("🐾 Создано сущностей: %d", em.Count())

	// === ЦИКЛ СИМУЛЯЦИИ ===
	loop := sim.New(w, p, em, sim.Config{
		TickRate:     cfg.Sim.TickRate,
		MaxSteps:     cfg.Sim.MaxSteps,
		StreamEvery:  cfg.Sim.StreamEvery,
		StreamRadius: cfg.World.Radius,
		UnloadRange:  cfg.World.UnloadRange,
		DrainPerTick: cfg.Meshing.DrainPerTick,
		Registerer:   reg,
	})
	loop.SetFocus(player.ID)
	meshLogger := logging.GetMeshingLogger()
	loop.OnChunkReady = func(c *world.Chunk) {
		if m := c.Mesh(); m != nil {
			meshLogger.Trace("Меш чанка %v готов: %d граней", c.Coords, m.FaceCount())
		}
	}

	// === REST API ===
	server := api.NewServer(api.Config{
		Port:     fmt.Sprintf(":%d", cfg.Server.GetAPIPort()),
		World:    w,
		Pipeline: p,
		Entities: em,
		Loop:     loop,
		Events:   bus,
		Registry: registry,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := loop.Run(gctx)
		if werr := loop.WaitStreaming(); werr != nil && !errors.Is(werr, context.Canceled) {
			logging.Warn("Фоновая генерация завершилась ошибкой: %v", werr)
		}
		return err
	})
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		logging.Info("📡 Завершение работы...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logging.Error("❌ Ошибка остановки REST API: %v", err)
		}
		p.Wait()
		return nil
	})

	logging.Info("✅ Все сервисы запущены")
	logging.Info("   🌐 REST API: http://localhost:%d", cfg.Server.GetAPIPort())
	logging.Info("   ❤️  Health check: http://localhost:%d/health", cfg.Server.GetAPIPort())

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
