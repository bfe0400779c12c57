package entity

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/annel0/blockworld/internal/logging"
	"github.com/annel0/blockworld/internal/physics"
)

// managed хранит сущность вместе с её управлением
type managed struct {
	entity   *PhysicalEntity
	intent   physics.MovementIntent
	behavior Behavior
}

// Manager управляет всеми физическими сущностями мира
type Manager struct {
	entities map[uuid.UUID]*managed // Хранилище всех сущностей
	index    *SpatialIndex
	system   *physics.System
	motor    *physics.Motor
	mu       sync.RWMutex // Мьютекс для безопасного доступа
	logger   *logging.Logger
}

// Stats - сводка по сущностям
type Stats struct {
	Total    int            `json:"total_entities"`
	ByType   map[string]int `json:"entity_types"`
	Grounded int            `json:"grounded"`
	Swimming int            `json:"swimming"`
}

// NewManager создаёт менеджер сущностей поверх источника блоков
func NewManager(q physics.BlockQuery, params physics.MotorParams) *Manager {
	return &Manager{
		entities: make(map[uuid.UUID]*managed),
		index:    NewSpatialIndex(DefaultCellSize),
		system:   physics.NewSystem(q),
		motor:    physics.NewMotor(params),
		logger:   logging.GetPhysicsLogger(),
	}
}

// System возвращает систему коллизий
func (m *Manager) System() *physics.System { return m.system }

// Motor возвращает мотор
func (m *Manager) Motor() *physics.Motor { return m.motor }

// Spawn создаёт новую сущность в мире
func (m *Manager) Spawn(entityType EntityType, pos, size mgl32.Vec3) *PhysicalEntity {
	e := NewPhysicalEntity(entityType, pos, size)
	m.Add(e)
	m.logger.Debug("Создана сущность %s (%s) в %v", e.ID, entityType, pos)
	return e
}

// Add добавляет уже созданную сущность. Сущность с тем же ID перезаписывается.
func (m *Manager) Add(e *PhysicalEntity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entities[e.ID] = &managed{entity: e}
	m.index.Insert(e)
}

// Get возвращает сущность по ID
func (m *Manager) Get(id uuid.UUID) (*PhysicalEntity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	me, ok := m.entities[id]
	if !ok {
		return nil, false
	}
	return me.entity, true
}

// Remove удаляет сущность из мира
func (m *Manager) Remove(id uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entities[id]; !ok {
		return false
	}
	delete(m.entities, id)
	m.index.Remove(id)
	return true
}

// SetIntent задаёт намерение движения для сущности без поведения
func (m *Manager) SetIntent(id uuid.UUID, intent physics.MovementIntent) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	me, ok := m.entities[id]
	if !ok {
		return false
	}
	me.intent = intent
	return true
}

// SetBehavior назначает поведение; nil возвращает управление через SetIntent
func (m *Manager) SetBehavior(id uuid.UUID, b Behavior) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	me, ok := m.entities[id]
	if !ok {
		return false
	}
	me.behavior = b
	return true
}

// Tick выполняет один фиксированный шаг для всех сущностей.
// Блокировка держится на всё время обновления.
func (m *Manager) Tick(dt float32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, me := range m.entities {
		intent := me.intent
		if me.behavior != nil {
			intent = me.behavior.Intent(me.entity, dt)
		}
		me.entity.Tick(m.system, m.motor, intent, dt)
		m.index.Update(me.entity)
	}
}

// Snapshot возвращает интерполированные трансформации всех сущностей
func (m *Manager) Snapshot(alpha float32) map[uuid.UUID]Transform {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[uuid.UUID]Transform, len(m.entities))
	for id, me := range m.entities {
		out[id] = me.entity.Interpolated(alpha)
	}
	return out
}

// View - копия состояния сущности для внешних потребителей
type View struct {
	ID        uuid.UUID
	Type      EntityType
	Transform Transform
	Velocity  mgl32.Vec3
	Grounded  bool
	Swimming  bool
}

// Views возвращает копии состояния всех сущностей с интерполяцией alpha
func (m *Manager) Views(alpha float32) []View {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]View, 0, len(m.entities))
	for id, me := range m.entities {
		e := me.entity
		out = append(out, View{
			ID:        id,
			Type:      e.Type,
			Transform: e.Interpolated(alpha),
			Velocity:  e.Velocity,
			Grounded:  e.IsGrounded,
			Swimming:  e.Sensors.IsSwimming,
		})
	}
	return out
}

// InRange возвращает сущности в указанном радиусе
func (m *Manager) InRange(center mgl32.Vec3, radius float32) []*PhysicalEntity {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.index.QueryRange(center, radius)
}

// Count возвращает количество сущностей
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entities)
}

// GetStats возвращает статистику по сущностям
func (m *Manager) GetStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Stats{Total: len(m.entities), ByType: make(map[string]int)}
	for _, me := range m.entities {
		e := me.entity
		stats.ByType[e.Type.String()]++
		if e.IsGrounded {
			stats.Grounded++
		}
		if e.Sensors.IsSwimming {
			stats.Swimming++
		}
	}
	return stats
}
