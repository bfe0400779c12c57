package eventbus

import (
	"context"

	"github.com/annel0/blockworld/internal/logging"
)

// StartLoggingListener подписывается на все события и пишет их в лог на уровне Trace.
// Функция неблокирующая.
func StartLoggingListener(bus EventBus, logger *logging.Logger) (Subscription, error) {
	if logger == nil {
		logger = logging.GetComponentLogger("events")
	}
	sub, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		logger.Trace("[EventBus] %s %s src=%s prio=%d payload=%+v", ev.ID, ev.EventType, ev.Source, ev.Priority, ev.Payload)
	})
	if err != nil {
		return nil, err
	}
	logger.Info("🪵 LoggingListener: подписка на все события активирована")
	return sub, nil
}
