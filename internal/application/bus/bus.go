// Package bus содержит шины команд и запросов. Обработчик выбирается по
// конкретному типу сообщения; ошибки обработчиков возвращаются без обертки.
package bus

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/UkralStul/graphql-blog-service/internal/apperrors"
)

// Виды сообщений, которые видят middleware.
const (
	KindCommand = "command"
	KindQuery   = "query"
)

// Handler - нетипизированный обработчик сообщения.
type Handler interface {
	Handle(ctx context.Context, msg any) (any, error)
}

// HandlerFunc позволяет использовать функцию как Handler.
type HandlerFunc func(ctx context.Context, msg any) (any, error)

func (f HandlerFunc) Handle(ctx context.Context, msg any) (any, error) {
	return f(ctx, msg)
}

// Middleware оборачивает обработчик. kind - KindCommand или KindQuery.
type Middleware func(kind string, next Handler) Handler

// MessageName возвращает имя типа сообщения (без пакета).
func MessageName(msg any) string {
	t := reflect.TypeOf(msg)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "<nil>"
	}
	return t.Name()
}

// === Registry ===

type registry struct {
	kind        string
	mu          sync.RWMutex
	handlers    map[reflect.Type]Handler
	middlewares []Middleware
}

func newRegistry(kind string, middlewares []Middleware) *registry {
	return &registry{
		kind:        kind,
		handlers:    make(map[reflect.Type]Handler),
		middlewares: middlewares,
	}
}

func (r *registry) register(msg any, h Handler) error {
	if msg == nil || h == nil {
		return fmt.Errorf("%s bus: message and handler are required", r.kind)
	}
	t := reflect.TypeOf(msg)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[t]; exists {
		return fmt.Errorf("%s bus: handler already registered for %s", r.kind, t.Name())
	}
	// Первый middleware - внешний.
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		h = r.middlewares[i](r.kind, h)
	}
	r.handlers[t] = h
	return nil
}

func (r *registry) dispatch(ctx context.Context, msg any) (any, error) {
	r.mu.RLock()
	h, ok := r.handlers[reflect.TypeOf(msg)]
	r.mu.RUnlock()
	if !ok {
		return nil, apperrors.NewInternalError(fmt.Sprintf("no %s handler registered for %T", r.kind, msg))
	}
	return h.Handle(ctx, msg)
}

// === CommandBus ===

// CommandBus доставляет команду единственному обработчику.
type CommandBus struct {
	r *registry
}

func NewCommandBus(middlewares ...Middleware) *CommandBus {
	return &CommandBus{r: newRegistry(KindCommand, middlewares)}
}

// Register связывает тип команды с обработчиком. Повторная регистрация - ошибка.
func (b *CommandBus) Register(cmd any, h Handler) error {
	return b.r.register(cmd, h)
}

func (b *CommandBus) Send(ctx context.Context, cmd any) (any, error) {
	return b.r.dispatch(ctx, cmd)
}

// === QueryBus ===

// QueryBus доставляет запрос единственному обработчику.
type QueryBus struct {
	r *registry
}

func NewQueryBus(middlewares ...Middleware) *QueryBus {
	return &QueryBus{r: newRegistry(KindQuery, middlewares)}
}

func (b *QueryBus) Register(q any, h Handler) error {
	return b.r.register(q, h)
}

func (b *QueryBus) Ask(ctx context.Context, q any) (any, error) {
	return b.r.dispatch(ctx, q)
}

// === Типизированные адаптеры ===

// CommandHandlerFunc превращает типизированный Handle в Handler шины.
func CommandHandlerFunc[C any, R any](fn func(ctx context.Context, cmd C) (R, error)) Handler {
	return HandlerFunc(func(ctx context.Context, msg any) (any, error) {
		cmd, ok := msg.(C)
		if !ok {
			return nil, apperrors.NewInternalError(fmt.Sprintf("unexpected command type %T", msg))
		}
		return fn(ctx, cmd)
	})
}

// QueryHandlerFunc - то же для запросов.
func QueryHandlerFunc[Q any, R any](fn func(ctx context.Context, q Q) (R, error)) Handler {
	return HandlerFunc(func(ctx context.Context, msg any) (any, error) {
		q, ok := msg.(Q)
		if !ok {
			return nil, apperrors.NewInternalError(fmt.Sprintf("unexpected query type %T", msg))
		}
		return fn(ctx, q)
	})
}

// Sender - то, что умеет отправлять команды.
type Sender interface {
	Send(ctx context.Context, cmd any) (any, error)
}

// Asker - то, что умеет выполнять запросы.
type Asker interface {
	Ask(ctx context.Context, q any) (any, error)
}

// Send отправляет команду и приводит результат к R.
func Send[R any](ctx context.Context, s Sender, cmd any) (R, error) {
	var zero R
	res, err := s.Send(ctx, cmd)
	if err != nil {
		return zero, err
	}
	return cast[R](res)
}

// Ask выполняет запрос и приводит результат к R.
func Ask[R any](ctx context.Context, a Asker, q any) (R, error) {
	var zero R
	res, err := a.Ask(ctx, q)
	if err != nil {
		return zero, err
	}
	return cast[R](res)
}

func cast[R any](res any) (R, error) {
	var zero R
	if res == nil {
		return zero, nil
	}
	out, ok := res.(R)
	if !ok {
		return zero, apperrors.NewInternalError(fmt.Sprintf("unexpected result type %T", res))
	}
	return out, nil
}
