package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/annel0/blockworld/internal/physics"
)

// ErrInvalidConfig возвращается Validate для недопустимых значений
var ErrInvalidConfig = errors.New("invalid config")

// Config корневая структура конфигурации приложения
type Config struct {
	World   WorldConfig   `yaml:"world"`
	Meshing MeshingConfig `yaml:"meshing"`
	Physics PhysicsConfig `yaml:"physics"`
	Sim     SimConfig     `yaml:"sim"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

type WorldConfig struct {
	Seed        int64  `yaml:"seed"`
	Radius      int    `yaml:"radius"`       // радиус генерации вокруг фокуса, в чанках
	BatchSize   int    `yaml:"batch_size"`   // чанков в одном параллельном пакете
	UnloadRange int    `yaml:"unload_range"` // радиус выгрузки, в чанках
	Noise       string `yaml:"noise"`        // gradient | perlin
}

type MeshingConfig struct {
	Workers      int `yaml:"workers"`      // 0: число CPU
	ErrorBuffer  int `yaml:"error_buffer"` // ёмкость канала ошибок
	DrainPerTick int `yaml:"drain_per_tick"`
}

// PhysicsConfig повторяет physics.MotorParams
type PhysicsConfig struct {
	Mass    float32 `yaml:"mass"`
	Gravity float32 `yaml:"gravity"`

	AirDensity      float32 `yaml:"air_density"`
	WaterDensity    float32 `yaml:"water_density"`
	DragCoefficient float32 `yaml:"drag_coefficient"`
	Area            float32 `yaml:"area"`

	WalkSpeed              float32 `yaml:"walk_speed"`
	SprintMultiplier       float32 `yaml:"sprint_multiplier"`
	SwimSpeedMultiplier    float32 `yaml:"swim_speed_multiplier"`
	SurfaceSpeedMultiplier float32 `yaml:"surface_speed_multiplier"`

	AirFriction     float32 `yaml:"air_friction"`
	WaterFriction   float32 `yaml:"water_friction"`
	SurfaceFriction float32 `yaml:"surface_friction"`

	SwimGravityScale    float32 `yaml:"swim_gravity_scale"`
	SurfaceGravityScale float32 `yaml:"surface_gravity_scale"`

	JumpVelocity   float32 `yaml:"jump_velocity"`
	SwimUpVelocity float32 `yaml:"swim_up_velocity"`
	KickVelocity   float32 `yaml:"kick_velocity"`
	KickDepth      float32 `yaml:"kick_depth"`

	FlySpeed         float32 `yaml:"fly_speed"`
	FlyVerticalSpeed float32 `yaml:"fly_vertical_speed"`
	FlyVerticalBlend float32 `yaml:"fly_vertical_blend"`
	FlyDrag          float32 `yaml:"fly_drag"`
	MaxFlySpeed      float32 `yaml:"max_fly_speed"`
}

type SimConfig struct {
	TickRate    int `yaml:"tick_rate"`
	MaxSteps    int `yaml:"max_steps"`
	StreamEvery int `yaml:"stream_every"` // в тиках
	Animals     int `yaml:"animals"`      // животных при старте
}

type ServerConfig struct {
	APIPort   int    `yaml:"api_port"`
	Metrics   bool   `yaml:"metrics"`
	Telemetry bool   `yaml:"telemetry"`
	OTLPURL   string `yaml:"otlp_url"`
}

type LoggingConfig struct {
	Level     string `yaml:"level"`
	FileLevel string `yaml:"file_level"`
	File      string `yaml:"file"`
}

// GetAPIPort возвращает порт отладочного API с поддержкой fallback значений
func (s *ServerConfig) GetAPIPort() int {
	return getPortWithEnvFallback(s.APIPort, "BLOCKWORLD_API_PORT", 8090)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если порт задан в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	// Используем дефолтное значение
	return defaultPort
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		World: WorldConfig{
			Seed:        1337,
			Radius:      4,
			BatchSize:   8,
			UnloadRange: 8,
			Noise:       "gradient",
		},
		Meshing: MeshingConfig{ErrorBuffer: 64},
		Physics: physicsFromParams(physics.DefaultMotorParams()),
		Sim: SimConfig{
			TickRate:    60,
			MaxSteps:    5,
			StreamEvery: 20,
			Animals:     4,
		},
		Server: ServerConfig{
			Metrics: true,
		},
		Logging: LoggingConfig{Level: "info", FileLevel: "debug"},
	}
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать путь из ENV BLOCKWORLD_CONFIG; если и он пуст, возвращает Default().
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("BLOCKWORLD_CONFIG")
		if path == "" {
			return Default(), nil // конфиг не задан: использовать дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет допустимость значений
func (c *Config) Validate() error {
	switch {
	case c.World.Radius < 0:
		return fmt.Errorf("%w: world.radius must be >= 0, got %d", ErrInvalidConfig, c.World.Radius)
	case c.World.BatchSize <= 0:
		return fmt.Errorf("%w: world.batch_size must be > 0, got %d", ErrInvalidConfig, c.World.BatchSize)
	case c.World.UnloadRange < c.World.Radius:
		return fmt.Errorf("%w: world.unload_range (%d) must be >= world.radius (%d)", ErrInvalidConfig, c.World.UnloadRange, c.World.Radius)
	case c.World.Noise != "gradient" && c.World.Noise != "perlin":
		return fmt.Errorf("%w: world.noise must be gradient or perlin, got %q", ErrInvalidConfig, c.World.Noise)
	case c.Sim.TickRate <= 0:
		return fmt.Errorf("%w: sim.tick_rate must be > 0, got %d", ErrInvalidConfig, c.Sim.TickRate)
	case c.Physics.Mass <= 0, c.Physics.AirDensity <= 0, c.Physics.WaterDensity <= 0,
		c.Physics.DragCoefficient <= 0, c.Physics.Area <= 0:
		return fmt.Errorf("%w: physics mass, densities, drag and area must be > 0", ErrInvalidConfig)
	}
	return nil
}

// MotorParams возвращает параметры мотора из секции physics
func (c *Config) MotorParams() physics.MotorParams {
	p := c.Physics
	return physics.MotorParams{
		Mass:                   p.Mass,
		Gravity:                p.Gravity,
		AirDensity:             p.AirDensity,
		WaterDensity:           p.WaterDensity,
		DragCoefficient:        p.DragCoefficient,
		Area:                   p.Area,
		WalkSpeed:              p.WalkSpeed,
		SprintMultiplier:       p.SprintMultiplier,
		SwimSpeedMultiplier:    p.SwimSpeedMultiplier,
		SurfaceSpeedMultiplier: p.SurfaceSpeedMultiplier,
		AirFriction:            p.AirFriction,
		WaterFriction:          p.WaterFriction,
		SurfaceFriction:        p.SurfaceFriction,
		SwimGravityScale:       p.SwimGravityScale,
		SurfaceGravityScale:    p.SurfaceGravityScale,
		JumpVelocity:           p.JumpVelocity,
		SwimUpVelocity:         p.SwimUpVelocity,
		KickVelocity:           p.KickVelocity,
		KickDepth:              p.KickDepth,
		FlySpeed:               p.FlySpeed,
		FlyVerticalSpeed:       p.FlyVerticalSpeed,
		FlyVerticalBlend:       p.FlyVerticalBlend,
		FlyDrag:                p.FlyDrag,
		MaxFlySpeed:            p.MaxFlySpeed,
	}
}

func physicsFromParams(p physics.MotorParams) PhysicsConfig {
	return PhysicsConfig{
		Mass:                   p.Mass,
		Gravity:                p.Gravity,
		AirDensity:             p.AirDensity,
		WaterDensity:           p.WaterDensity,
		DragCoefficient:        p.DragCoefficient,
		Area:                   p.Area,
		WalkSpeed:              p.WalkSpeed,
		SprintMultiplier:       p.SprintMultiplier,
		SwimSpeedMultiplier:    p.SwimSpeedMultiplier,
		SurfaceSpeedMultiplier: p.SurfaceSpeedMultiplier,
		AirFriction:            p.AirFriction,
		WaterFriction:          p.WaterFriction,
		SurfaceFriction:        p.SurfaceFriction,
		SwimGravityScale:       p.SwimGravityScale,
		SurfaceGravityScale:    p.SurfaceGravityScale,
		JumpVelocity:           p.JumpVelocity,
		SwimUpVelocity:         p.SwimUpVelocity,
		KickVelocity:           p.KickVelocity,
		KickDepth:              p.KickDepth,
		FlySpeed:               p.FlySpeed,
		FlyVerticalSpeed:       p.FlyVerticalSpeed,
		FlyVerticalBlend:       p.FlyVerticalBlend,
		FlyDrag:                p.FlyDrag,
		MaxFlySpeed:            p.MaxFlySpeed,
	}
}
