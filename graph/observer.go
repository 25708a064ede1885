package graph

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/UkralStul/graphql-blog-service/internal/application/bus"
	"github.com/UkralStul/graphql-blog-service/internal/application/dto"
	"github.com/UkralStul/graphql-blog-service/internal/application/query"
	"github.com/UkralStul/graphql-blog-service/internal/domain"
)

// CommentObserver хранит каналы для подписчиков на комментарии.
// Получает comment.created из шины событий и раздает DTO подписчикам поста.
type CommentObserver struct {
	queries bus.Asker
	log     *zap.Logger

	mu sync.RWMutex
	//   map[postID] map[subscriberID] channel
	subs map[int64]map[string]chan *dto.CommentDTO
}

// NewCommentObserver - конструктор для нашего наблюдателя.
func NewCommentObserver(queries bus.Asker, log *zap.Logger) *CommentObserver {
	if log == nil {
		log = zap.NewNop()
	}
	return &CommentObserver{
		queries: queries,
		log:     log.Named("observer"),
		subs:    make(map[int64]map[string]chan *dto.CommentDTO),
	}
}

// Subscribe регистрирует подписчика; канал закрывается, когда ctx завершен.
func (o *CommentObserver) Subscribe(ctx context.Context, postID int64) <-chan *dto.CommentDTO {
	ch := make(chan *dto.CommentDTO, 8)
	subID := uuid.NewString()

	o.mu.Lock()
	if o.subs[postID] == nil {
		o.subs[postID] = make(map[string]chan *dto.CommentDTO)
	}
	o.subs[postID][subID] = ch
	o.mu.Unlock()

	// Горутина для очистки при отключении клиента
	go func() {
		<-ctx.Done()
		o.mu.Lock()
		if postSubs, ok := o.subs[postID]; ok {
			delete(postSubs, subID)
			if len(postSubs) == 0 {
				delete(o.subs, postID)
			}
		}
		close(ch)
		o.mu.Unlock()
	}()
	return ch
}

// Subscribers - число подписчиков поста.
func (o *CommentObserver) Subscribers(postID int64) int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.subs[postID])
}

// Handle подписывается на domain.EventCommentCreated.
func (o *CommentObserver) Handle(ctx context.Context, event domain.DomainEvent) error {
	created, ok := event.(*domain.CommentCreatedEvent)
	if !ok || o.Subscribers(created.PostID.Value()) == 0 {
		return nil
	}
	comment, err := bus.Ask[*dto.CommentDTO](ctx, o.queries, query.GetCommentByID{ID: created.AggregateID().Value()})
	if err != nil {
		return err
	}
	if comment == nil {
		return nil
	}
	o.publish(comment)
	return nil
}

func (o *CommentObserver) publish(c *dto.CommentDTO) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	for id, ch := range o.subs[c.PostID] {
		select {
		case ch <- c:
		default:
			// Клиент не успевает читать, пропускаем
			o.log.Debug("subscriber is slow, comment dropped", zap.String("subscriber", id), zap.Int64("comment", c.ID))
		}
	}
}
