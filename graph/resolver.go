// graph/resolver.go

package graph

import (
	"context"
	_ "embed"

	graphql "github.com/graph-gophers/graphql-go"
	"go.uber.org/zap"

	"github.com/UkralStul/graphql-blog-service/internal/apperrors"
	"github.com/UkralStul/graphql-blog-service/internal/application/bus"
	"github.com/UkralStul/graphql-blog-service/internal/application/command"
	"github.com/UkralStul/graphql-blog-service/internal/application/dto"
	"github.com/UkralStul/graphql-blog-service/internal/application/query"
	"github.com/UkralStul/graphql-blog-service/internal/auth"
	"github.com/UkralStul/graphql-blog-service/internal/domain"
)

//go:embed schema.graphql
var Schema string

// Resolver - это корневая структура резолвера.
// Резолверы только собирают команды и запросы и отправляют их в шины.
type Resolver struct {
	commands bus.Sender
	queries  bus.Asker
	observer *CommentObserver
	log      *zap.Logger
}

func NewResolver(commands bus.Sender, queries bus.Asker, observer *CommentObserver, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{commands: commands, queries: queries, observer: observer, log: log.Named("graphql")}
}

// NewSchema разбирает SDL и связывает его с резолвером.
func NewSchema(r *Resolver) *graphql.Schema {
	return graphql.MustParseSchema(Schema, r,
		graphql.MaxDepth(12),
		graphql.MaxParallelism(16),
	)
}

// === Ошибки ===

// fail пропускает AppError как есть; прочие ошибки пишет в лог и заменяет общей.
func (r *Resolver) fail(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	fields := []zap.Field{zap.Error(err), zap.Bool("authenticated", auth.FromContext(ctx) != nil)}
	if appErr := apperrors.GetAppError(err); appErr != nil {
		if appErr.Type == apperrors.TypeInternal {
			r.log.Error("request failed", fields...)
		}
		return appErr
	}
	r.log.Error("request failed", fields...)
	return apperrors.NewInternalError("internal server error")
}

// === Guards ===

// currentActor берет роль из хранилища, а не из токена: пониженный или удаленный
// пользователь теряет права сразу, не дожидаясь истечения токена.
func (r *Resolver) currentActor(ctx context.Context) (command.Actor, error) {
	p := auth.FromContext(ctx)
	if p == nil {
		return command.Actor{}, apperrors.NewUnauthorizedError("Authentication required.")
	}
	u, err := bus.Ask[*dto.UserDTO](ctx, r.queries, query.GetUserByID{ID: p.UserID})
	if err != nil {
		return command.Actor{}, r.fail(ctx, err)
	}
	if u == nil {
		return command.Actor{}, apperrors.NewUnauthorizedError("User no longer exists.")
	}
	return command.Actor{UserID: u.ID, Role: domain.Role(u.Role)}, nil
}

func (r *Resolver) requireAdmin(ctx context.Context) error {
	actor, err := r.currentActor(ctx)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return apperrors.NewForbiddenError("Administrator role required.")
	}
	return nil
}

// canSeeDraft - черновик виден автору и администратору.
func canSeeDraft(ctx context.Context, authorID int64) bool {
	p := auth.FromContext(ctx)
	return p.IsAdmin() || (p != nil && p.UserID == authorID)
}

func canSeeEmail(ctx context.Context, userID int64) bool {
	return canSeeDraft(ctx, userID)
}

// === Идентификаторы ===

func parseID(id graphql.ID) (int64, error) {
	v, err := domain.ParseIdentifier(string(id))
	if err != nil {
		return 0, err
	}
	return v.Value(), nil
}

func parseIDs(ids []graphql.ID) ([]int64, error) {
	out := make([]int64, len(ids))
	for i, id := range ids {
		v, err := parseID(id)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func toID(v int64) graphql.ID {
	return graphql.ID(domain.NewIdentifier(v).String())
}
