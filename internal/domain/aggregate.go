package domain

import (
	"context"
	"time"
)

// now подменяется в тестах.
var now = func() time.Time { return time.Now().UTC() }

// aggregate - общая часть всех агрегатов: идентификатор и буфер
// неопубликованных событий.
type aggregate struct {
	id     Identifier
	events []DomainEvent
}

// ID возвращает идентификатор агрегата.
func (a *aggregate) ID() Identifier {
	return a.id
}

// IsNew - агрегат еще не сохранен.
func (a *aggregate) IsNew() bool {
	return a.id.IsNew()
}

// AssignID вызывается адаптером хранилища после первой вставки.
// События, накопленные до сохранения, получают выданный идентификатор.
func (a *aggregate) AssignID(id Identifier) {
	if !a.id.IsNew() || id.IsNew() {
		return
	}
	a.id = id
	for _, e := range a.events {
		if s, ok := e.(interface{ setAggregateID(Identifier) }); ok && e.AggregateID().IsNew() {
			s.setAggregateID(id)
		}
	}
}

// PendingEvents возвращает копию накопленных событий.
func (a *aggregate) PendingEvents() []DomainEvent {
	out := make([]DomainEvent, len(a.events))
	copy(out, a.events)
	return out
}

// ClearEvents отбрасывает накопленные события.
func (a *aggregate) ClearEvents() {
	a.events = nil
}

// PublishEvents сбрасывает накопленные события в шину и очищает буфер.
// При ошибке шины события остаются в буфере.
func (a *aggregate) PublishEvents(ctx context.Context, publisher EventPublisher) error {
	if len(a.events) == 0 {
		return nil
	}
	if err := publisher.PublishAll(ctx, a.PendingEvents()); err != nil {
		return err
	}
	a.events = nil
	return nil
}

func (a *aggregate) addEvent(e DomainEvent) {
	a.events = append(a.events, e)
}
