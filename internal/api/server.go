package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/blockworld/internal/eventbus"
	"github.com/annel0/blockworld/internal/logging"
	"github.com/annel0/blockworld/internal/middleware"
	"github.com/annel0/blockworld/internal/pipeline"
	"github.com/annel0/blockworld/internal/sim"
	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world"
	"github.com/annel0/blockworld/internal/world/block"
	"github.com/annel0/blockworld/internal/world/entity"
)

// GenericResponse - общий формат ответа API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Config содержит зависимости и параметры сервера
type Config struct {
	Port     string // ":8090"
	World    *world.World
	Pipeline *pipeline.Pipeline
	Entities *entity.Manager
	Loop     *sim.Loop
	Events   eventbus.EventBus

	// Registry используется и для регистрации HTTP-метрик, и для /metrics.
	// nil - глобальный реестр prometheus.
	Registry *prometheus.Registry
}

// Server - отладочный REST API для осмотра мира
type Server struct {
	router  *gin.Engine
	http    *http.Server
	cfg     Config
	metrics *ServerMetrics
	logger  *logging.Logger
}

// NewServer создаёт сервер и настраивает маршруты
func NewServer(cfg Config) *Server {
	if cfg.Port == "" {
		cfg.Port = ":8090"
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(otelgin.Middleware("blockworld_api"))
	router.Use(middleware.NewRequestLogger(nil).Handler())

	var reg prometheus.Registerer = prometheus.DefaultRegisterer
	var gatherer prometheus.Gatherer
	if cfg.Registry != nil {
		reg, gatherer = cfg.Registry, cfg.Registry
	}
	promMw := middleware.NewPrometheusMiddleware("blockworld_api", reg)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, gatherer)

	s := &Server{
		router:  router,
		cfg:     cfg,
		metrics: NewServerMetrics(),
		logger:  logging.GetServerLogger(),
	}
	s.http = &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/stats", s.handleStats)

	w := s.router.Group("/world")
	{
		w.GET("/block", s.handleGetBlock)
		w.POST("/block", s.handleSetBlock)
		w.GET("/chunks/:x/:z", s.handleGetChunk)
	}

	s.router.GET("/entities", s.handleEntities)
}

// Handler возвращает http.Handler сервера
func (s *Server) Handler() http.Handler { return s.router }

// Start запускает сервер и блокируется до его остановки
func (s *Server) Start() error {
	s.logger.Info("🌐 REST API слушает %s", s.cfg.Port)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("rest api: %w", err)
	}
	return nil
}

// Shutdown плавно останавливает сервер
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

func (s *Server) handleStats(c *gin.Context) {
	stats := make(map[string]interface{})

	if s.cfg.Loop != nil {
		stats["sim"] = s.cfg.Loop.Stats()
	}
	if s.cfg.World != nil {
		stats["world"] = gin.H{
			"seed":   s.cfg.World.Seed(),
			"radius": s.cfg.World.Size(),
			"chunks": s.cfg.World.ChunkCount(),
		}
	}
	if s.cfg.Pipeline != nil {
		stats["meshing"] = gin.H{
			"pending": s.cfg.Pipeline.Pending(),
			"queued":  s.cfg.Pipeline.QueueLen(),
		}
	}
	if s.cfg.Entities != nil {
		stats["entities"] = s.cfg.Entities.GetStats()
	}
	if s.cfg.Events != nil {
		stats["events"] = s.cfg.Events.Metrics()
	}

	cpuPercent, err := s.metrics.GetCPUUsage()
	if err != nil {
		s.logger.Debug("CPU недоступен: %v", err)
	}
	stats["server"] = gin.H{
		"uptime":      s.metrics.GetUptime(),
		"memory_mb":   fmt.Sprintf("%.2f", s.metrics.GetMemoryUsage()),
		"cpu_percent": fmt.Sprintf("%.2f", cpuPercent),
		"server_time": time.Now().Unix(),
	}
	stats["memory_details"] = s.metrics.GetDetailedMemoryStats()

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика получена",
		Data:    stats,
	})
}

// BlockResponse описывает блок по мировым координатам
type BlockResponse struct {
	X     int      `json:"x"`
	Y     int      `json:"y"`
	Z     int      `json:"z"`
	ID    block.ID `json:"id"`
	Name  string   `json:"name"`
	Solid bool     `json:"solid"`
}

func (s *Server) handleGetBlock(c *gin.Context) {
	if s.cfg.World == nil {
		s.unavailable(c, "мир не подключен")
		return
	}

	x, y, z, err := queryCoords(c)
	if err != nil {
		s.badRequest(c, err.Error())
		return
	}

	b := s.cfg.World.GetBlock(x, y, z)
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Блок получен",
		Data: BlockResponse{
			X: x, Y: y, Z: z,
			ID:    b.ID,
			Name:  block.Lookup(b.ID).Name,
			Solid: b.IsSolid(),
		},
	})
}

// SetBlockRequest - тело запроса на изменение блока
type SetBlockRequest struct {
	X  int       `json:"x"`
	Y  int       `json:"y" binding:"min=0,max=255"`
	Z  int       `json:"z"`
	ID *block.ID `json:"id" binding:"required"`
}

func (s *Server) handleSetBlock(c *gin.Context) {
	if s.cfg.World == nil {
		s.unavailable(c, "мир не подключен")
		return
	}

	var req SetBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "Неверный формат запроса: "+err.Error())
		return
	}
	if !block.IsValid(*req.ID) {
		s.badRequest(c, fmt.Sprintf("неизвестный блок %d", *req.ID))
		return
	}

	s.cfg.World.SetBlock(req.X, req.Y, req.Z, *req.ID)
	s.logger.Info("Блок (%d,%d,%d) заменён на %s", req.X, req.Y, req.Z, *req.ID)

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Блок установлен",
	})
}

// ChunkResponse описывает состояние загруженного чанка
type ChunkResponse struct {
	X                int    `json:"x"`
	Z                int    `json:"z"`
	Dirty            bool   `json:"dirty"`
	Version          uint64 `json:"version"`
	HasMesh          bool   `json:"has_mesh"`
	OpaqueFaces      int    `json:"opaque_faces"`
	TransparentFaces int    `json:"transparent_faces"`
}

func (s *Server) handleGetChunk(c *gin.Context) {
	if s.cfg.World == nil {
		s.unavailable(c, "мир не подключен")
		return
	}

	cx, errX := strconv.Atoi(c.Param("x"))
	cz, errZ := strconv.Atoi(c.Param("z"))
	if errX != nil || errZ != nil {
		s.badRequest(c, "координаты чанка должны быть целыми")
		return
	}

	chunk := s.cfg.World.GetChunk(vec.Vec2{X: cx, Y: cz})
	if chunk == nil {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: fmt.Sprintf("Чанк (%d,%d) не загружен", cx, cz),
		})
		return
	}

	resp := ChunkResponse{
		X:       cx,
		Z:       cz,
		Dirty:   chunk.IsDirty(),
		Version: chunk.Version(),
	}
	if m := chunk.Mesh(); m != nil {
		resp.HasMesh = true
		if m.Opaque != nil {
			resp.OpaqueFaces = m.Opaque.FaceCount()
		}
		if m.Transparent != nil {
			resp.TransparentFaces = m.Transparent.FaceCount()
		}
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Чанк получен",
		Data:    resp,
	})
}

// EntityResponse - интерполированное состояние сущности
type EntityResponse struct {
	ID       string     `json:"id"`
	Type     string     `json:"type"`
	Position [3]float32 `json:"position"`
	Rotation [4]float32 `json:"rotation"` // x, y, z, w
	Grounded bool       `json:"grounded"`
	Swimming bool       `json:"swimming"`
}

func (s *Server) handleEntities(c *gin.Context) {
	if s.cfg.Entities == nil {
		s.unavailable(c, "менеджер сущностей не подключен")
		return
	}

	var alpha float32 = 1
	if s.cfg.Loop != nil {
		alpha = s.cfg.Loop.Alpha()
	}

	views := s.cfg.Entities.Views(alpha)
	list := make([]EntityResponse, 0, len(views))
	for _, v := range views {
		rot := v.Transform.Rotation
		list = append(list, EntityResponse{
			ID:       v.ID.String(),
			Type:     v.Type.String(),
			Position: [3]float32(v.Transform.Position),
			Rotation: [4]float32{rot.V[0], rot.V[1], rot.V[2], rot.W},
			Grounded: v.Grounded,
			Swimming: v.Swimming,
		})
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Сущности получены",
		Data: gin.H{
			"entities": list,
			"stats":    s.cfg.Entities.GetStats(),
		},
	})
}

func queryCoords(c *gin.Context) (x, y, z int, err error) {
	vals := [3]int{}
	for i, key := range [3]string{"x", "y", "z"} {
		raw, ok := c.GetQuery(key)
		if !ok {
			return 0, 0, 0, fmt.Errorf("параметр %s обязателен", key)
		}
		if vals[i], err = strconv.Atoi(raw); err != nil {
			return 0, 0, 0, fmt.Errorf("параметр %s должен быть целым", key)
		}
	}
	return vals[0], vals[1], vals[2], nil
}

func (s *Server) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: msg})
}

func (s *Server) unavailable(c *gin.Context, msg string) {
	c.JSON(http.StatusServiceUnavailable, GenericResponse{Success: false, Message: msg})
}
