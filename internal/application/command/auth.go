package command

import (
	"context"

	"github.com/UkralStul/graphql-blog-service/internal/apperrors"
	"github.com/UkralStul/graphql-blog-service/internal/application/dto"
	"github.com/UkralStul/graphql-blog-service/internal/application/query"
	"github.com/UkralStul/graphql-blog-service/internal/domain"
)

type Login struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

const invalidCredentials = "Invalid email or password."

// Login не различает "нет пользователя" и "неверный пароль".
func (h *Handlers) Login(ctx context.Context, cmd Login) (*dto.AuthPayload, error) {
	email, err := domain.NewEmail(cmd.Email)
	if err != nil {
		return nil, apperrors.NewUnauthorizedError(invalidCredentials)
	}
	user, err := h.Users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !h.Hasher.Compare(cmd.Password, user.Password()) {
		return nil, apperrors.NewUnauthorizedError(invalidCredentials)
	}

	token, expiresAt, err := h.Tokens.Issue(user.ID().Value(), user.Email().Value(), string(user.Role()))
	if err != nil {
		return nil, err
	}
	view, err := refetch[dto.UserDTO](ctx, h.Queries, query.GetUserByID{ID: user.ID().Value()}, "Failed to fetch authenticated user")
	if err != nil {
		return nil, err
	}
	return &dto.AuthPayload{Token: token, ExpiresAt: expiresAt, User: view}, nil
}
