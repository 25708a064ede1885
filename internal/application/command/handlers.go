// Package command содержит команды и их обработчики (сторона записи).
//
// Каждый обработчик - фиксированный конвейер: загрузка, проверка прав,
// мутация агрегата, сохранение, публикация событий и повторное чтение
// модели через шину запросов.
package command

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/UkralStul/graphql-blog-service/internal/apperrors"
	"github.com/UkralStul/graphql-blog-service/internal/application/bus"
	"github.com/UkralStul/graphql-blog-service/internal/domain"
)

// Actor - пользователь, от имени которого выполняется команда.
type Actor struct {
	UserID int64 `validate:"gt=0"`
	Role   domain.Role
}

func (a Actor) ID() domain.Identifier { return domain.NewIdentifier(a.UserID) }
func (a Actor) IsAdmin() bool         { return a.Role == domain.RoleAdmin }

// canModify - автор ресурса или администратор.
func (a Actor) canModify(authorID domain.Identifier) bool {
	return a.IsAdmin() || a.ID().Equals(authorID)
}

// canSee - черновик видят только автор и администратор.
func (a Actor) canSee(post *domain.Post) bool {
	return post.Published() || a.canModify(post.AuthorID())
}

// PasswordHasher считает и сверяет хэши паролей.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(plain, hash string) bool
}

// TokenIssuer выпускает токен доступа.
type TokenIssuer interface {
	Issue(userID int64, email string, role string) (token string, expiresAt time.Time, err error)
}

// Dependencies - все внешние соавторы обработчиков.
type Dependencies struct {
	Users      domain.UserRepository
	Posts      domain.PostRepository
	Categories domain.CategoryRepository
	Comments   domain.CommentRepository
	Responses  domain.CommentResponseRepository
	Events     domain.EventPublisher
	Queries    bus.Asker
	Hasher     PasswordHasher
	Tokens     TokenIssuer
	Logger     *zap.Logger
}

type Handlers struct {
	Dependencies
	log *zap.Logger
}

func NewHandlers(deps Dependencies) *Handlers {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{Dependencies: deps, log: log.Named("command")}
}

// Register регистрирует все обработчики в шине команд.
func (h *Handlers) Register(b *bus.CommandBus) error {
	for _, r := range []struct {
		cmd any
		fn  bus.Handler
	}{
		{CreateUser{}, bus.CommandHandlerFunc(h.CreateUser)},
		{UpdateUser{}, bus.CommandHandlerFunc(h.UpdateUser)},
		{DeleteUser{}, bus.CommandHandlerFunc(h.DeleteUser)},
		{PromoteUser{}, bus.CommandHandlerFunc(h.PromoteUser)},
		{Login{}, bus.CommandHandlerFunc(h.Login)},
		{CreatePost{}, bus.CommandHandlerFunc(h.CreatePost)},
		{UpdatePost{}, bus.CommandHandlerFunc(h.UpdatePost)},
		{DeletePost{}, bus.CommandHandlerFunc(h.DeletePost)},
		{PublishPost{}, bus.CommandHandlerFunc(h.PublishPost)},
		{UnpublishPost{}, bus.CommandHandlerFunc(h.UnpublishPost)},
		{CreateCategory{}, bus.CommandHandlerFunc(h.CreateCategory)},
		{UpdateCategory{}, bus.CommandHandlerFunc(h.UpdateCategory)},
		{DeleteCategory{}, bus.CommandHandlerFunc(h.DeleteCategory)},
		{CreateComment{}, bus.CommandHandlerFunc(h.CreateComment)},
		{UpdateComment{}, bus.CommandHandlerFunc(h.UpdateComment)},
		{DeleteComment{}, bus.CommandHandlerFunc(h.DeleteComment)},
		{CreateCommentResponse{}, bus.CommandHandlerFunc(h.CreateCommentResponse)},
		{UpdateCommentResponse{}, bus.CommandHandlerFunc(h.UpdateCommentResponse)},
		{DeleteCommentResponse{}, bus.CommandHandlerFunc(h.DeleteCommentResponse)},
	} {
		if err := b.Register(r.cmd, r.fn); err != nil {
			return err
		}
	}
	return nil
}

// === Helpers ===

// refetch читает модель после записи. Пустой результат - нарушение
// постусловия, а не ошибка пользователя.
func refetch[T any](ctx context.Context, q bus.Asker, query any, failure string) (*T, error) {
	out, err := bus.Ask[*T](ctx, q, query)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, apperrors.NewPostconditionFailed(failure)
	}
	return out, nil
}

func createdFailure(what string) string { return fmt.Sprintf("Failed to fetch newly created %s", what) }
func updatedFailure(what string) string { return fmt.Sprintf("Failed to fetch updated %s", what) }

// logLostDelete - запись была найдена, но удаление ничего не удалило.
func (h *Handlers) logLostDelete(entity string, id domain.Identifier) {
	h.log.Warn("delete returned false after existence check, likely concurrent delete",
		zap.String("entity", entity), zap.Int64("id", id.Value()))
}

func forbidden(action string) *apperrors.AppError {
	return apperrors.NewForbiddenError(fmt.Sprintf("You are not allowed to %s.", action))
}
