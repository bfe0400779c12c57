package block

import "sync"

// ID представляет идентификатор типа блока
type ID uint16

// Константы ID блоков
const (
	Air     ID = iota // 0
	Stone             // 1
	Grass             // 2
	Water             // 3
	Sand              // 4
	Dirt              // 5
	Glass             // 6
	Leaves            // 7
	Bedrock           // 8
)

// DefaultFriction - коэффициент трения для блоков без явного значения
const DefaultFriction float32 = 0.6

// Definition описывает свойства типа блока
type Definition struct {
	ID          ID
	Name        string
	Solid       bool    // участвует в коллизиях
	Transparent bool    // не скрывает грани соседей
	Friction    float32 // доля сближения скорости с целевой за тик (0..1)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[ID]Definition)
)

// Register добавляет или заменяет определение блока в регистре
func Register(def Definition) {
	registryMu.Lock()
	registry[def.ID] = def
	registryMu.Unlock()
}

// Get возвращает определение для указанного ID
func Get(id ID) (Definition, bool) {
	registryMu.RLock()
	def, exists := registry[id]
	registryMu.RUnlock()
	return def, exists
}

// Lookup возвращает определение или описание воздуха для неизвестных ID
func Lookup(id ID) Definition {
	if def, ok := Get(id); ok {
		return def
	}
	return Definition{ID: id, Name: "unknown", Transparent: true, Friction: DefaultFriction}
}

// IsValid проверяет, зарегистрирован ли ID
func IsValid(id ID) bool {
	_, exists := Get(id)
	return exists
}

// IsSolid возвращает true для блоков, участвующих в коллизиях
func IsSolid(id ID) bool {
	return Lookup(id).Solid
}

// IsTransparent возвращает true для блоков, сквозь которые видны грани соседей
func IsTransparent(id ID) bool {
	return Lookup(id).Transparent
}

// Friction возвращает коэффициент трения блока
func Friction(id ID) float32 {
	return Lookup(id).Friction
}

// String возвращает имя блока
func (id ID) String() string {
	return Lookup(id).Name
}
