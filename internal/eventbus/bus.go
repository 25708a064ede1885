// Package eventbus - внутрипроцессная шина доменных событий и ее подписчики.
package eventbus

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/UkralStul/graphql-blog-service/internal/domain"
)

// Handler обрабатывает одно событие.
type Handler func(ctx context.Context, event domain.DomainEvent) error

// Bus доставляет события подписчикам синхронно, в порядке подписки.
type Bus struct {
	mu     sync.RWMutex
	byName map[string][]Handler
	all    []Handler
}

var _ domain.EventPublisher = (*Bus)(nil)

func New() *Bus {
	return &Bus{byName: make(map[string][]Handler)}
}

// Subscribe подписывает обработчик на события с данным именем.
func (b *Bus) Subscribe(eventName string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.byName[eventName] = append(b.byName[eventName], h)
}

// SubscribeAll подписывает обработчик на все события.
func (b *Bus) SubscribeAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, h)
}

// Publish вызывает всех подписчиков; ошибки объединяются.
func (b *Bus) Publish(ctx context.Context, event domain.DomainEvent) error {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.all)+len(b.byName[event.EventName()]))
	handlers = append(handlers, b.all...)
	handlers = append(handlers, b.byName[event.EventName()]...)
	b.mu.RUnlock()

	var errs []error
	for _, h := range handlers {
		if err := h(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("handle %s: %w", event.EventName(), err))
		}
	}
	return errors.Join(errs...)
}

// PublishAll публикует события по порядку и останавливается на первой ошибке.
func (b *Bus) PublishAll(ctx context.Context, events []domain.DomainEvent) error {
	for _, e := range events {
		if err := b.Publish(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// LogHandler пишет каждое событие в лог.
func LogHandler(logger *zap.Logger) Handler {
	return func(_ context.Context, event domain.DomainEvent) error {
		logger.Info("domain event",
			zap.String("event", event.EventName()),
			zap.Int64("aggregateId", event.AggregateID().Value()),
			zap.Time("occurredOn", event.OccurredOn()),
		)
		return nil
	}
}
