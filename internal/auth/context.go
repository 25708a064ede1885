package auth

import "context"

// Principal - аутентифицированный пользователь запроса.
type Principal struct {
	UserID  int64
	Email   string
	Role    string
	TokenID string
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == "ADMIN"
}

type contextKey string

const principalKey contextKey = "principal"

// WithPrincipal кладет принципала в контекст.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// FromContext возвращает принципала или nil для анонимного запроса.
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}
