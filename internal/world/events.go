package world

import (
	"context"

	"github.com/annel0/blockworld/internal/eventbus"
	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world/block"
)

// EventSource - имя источника событий мира в шине
const EventSource = "world"

// Типы событий мира
const (
	EventChunkLoaded   = "world.chunk_loaded"
	EventChunkUnloaded = "world.chunk_unloaded"
	EventChunkMeshed   = "world.chunk_meshed"
	EventBlockChanged  = "world.block_changed"
)

// ChunkEvent сопровождает загрузку, выгрузку и перестроение меша чанка
type ChunkEvent struct {
	Coords vec.Vec2
	Faces  int // только для EventChunkMeshed
}

// BlockEvent описывает изменение блока по мировым координатам
type BlockEvent struct {
	Position vec.Vec3
	Chunk    vec.Vec2
	Old      block.ID
	New      block.ID
}

// Publish отправляет событие мира в шину, если она подключена.
// Изменения блоков не отбрасываются при переполнении шины.
func (w *World) Publish(eventType string, payload any) {
	if w == nil || w.events == nil {
		return
	}

	priority := eventbus.PriorityLow
	if eventType == EventBlockChanged {
		priority = eventbus.PriorityHigh
	}
	if err := w.events.Publish(context.Background(), eventbus.NewEnvelope(EventSource, eventType, priority, payload)); err != nil {
		w.logger.Warn("Не удалось опубликовать %s: %v", eventType, err)
	}
}
