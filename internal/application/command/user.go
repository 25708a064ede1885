package command

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/UkralStul/graphql-blog-service/internal/apperrors"
	"github.com/UkralStul/graphql-blog-service/internal/application/dto"
	"github.com/UkralStul/graphql-blog-service/internal/application/query"
	"github.com/UkralStul/graphql-blog-service/internal/domain"
)

const PasswordMinLength = 6

type CreateUser struct {
	Email    string
	Username string
	Password string
}

// UpdateUser - частичное обновление; nil-поле не меняется. Роль меняет только администратор.
type UpdateUser struct {
	Actor    Actor
	ID       int64 `validate:"gt=0"`
	Email    *string
	Username *string
	Password *string
	Role     *string
}

type DeleteUser struct {
	Actor Actor
	ID    int64 `validate:"gt=0"`
}

// PromoteUser выдает роль ADMIN по email. Используется из CLI.
type PromoteUser struct {
	Email string `validate:"required"`
}

func (h *Handlers) CreateUser(ctx context.Context, cmd CreateUser) (*dto.UserDTO, error) {
	email, err := domain.NewEmail(cmd.Email)
	if err != nil {
		return nil, err
	}
	existing, err := h.Users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.NewEmailTakenError(email)
	}
	hash, err := h.hashPassword(cmd.Password)
	if err != nil {
		return nil, err
	}

	user, err := domain.CreateUser(domain.UserProps{
		Email:    email,
		Username: cmd.Username,
		Password: hash,
		Role:     domain.RoleUser,
	}, domain.Identifier{})
	if err != nil {
		return nil, err
	}

	saved, err := h.Users.Save(ctx, user)
	if err != nil {
		return nil, err
	}
	user.AssignID(saved.ID())
	if err := user.PublishEvents(ctx, h.Events); err != nil {
		return nil, err
	}
	return refetch[dto.UserDTO](ctx, h.Queries, query.GetUserByID{ID: saved.ID().Value()}, createdFailure("user"))
}

func (h *Handlers) UpdateUser(ctx context.Context, cmd UpdateUser) (*dto.UserDTO, error) {
	id := domain.NewIdentifier(cmd.ID)
	user, err := h.Users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.NewEntityNotFoundError("User", id)
	}
	if !cmd.Actor.canModify(id) {
		return nil, forbidden("update this user")
	}
	if cmd.Role != nil && !cmd.Actor.IsAdmin() {
		return nil, forbidden("change user roles")
	}

	changed := false
	if cmd.Username != nil && strings.TrimSpace(*cmd.Username) != user.Username() {
		if err := user.UpdateUsername(*cmd.Username); err != nil {
			return nil, err
		}
		changed = true
	}
	if cmd.Email != nil {
		email, err := domain.NewEmail(*cmd.Email)
		if err != nil {
			return nil, err
		}
		if !email.Equals(user.Email()) {
			owner, err := h.Users.FindByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if owner != nil && !owner.ID().Equals(id) {
				return nil, domain.NewEmailTakenError(email)
			}
			if err := user.UpdateEmail(email); err != nil {
				return nil, err
			}
			changed = true
		}
	}
	if cmd.Password != nil && !h.Hasher.Compare(*cmd.Password, user.Password()) {
		hash, err := h.hashPassword(*cmd.Password)
		if err != nil {
			return nil, err
		}
		if err := user.ChangePassword(hash); err != nil {
			return nil, err
		}
		changed = true
	}
	if cmd.Role != nil {
		role, err := domain.ParseRole(*cmd.Role)
		if err != nil {
			return nil, err
		}
		if role != user.Role() {
			if err := user.ChangeRole(role); err != nil {
				return nil, err
			}
			changed = true
		}
	}

	if changed {
		if _, err := h.Users.Save(ctx, user); err != nil {
			return nil, err
		}
		if err := user.PublishEvents(ctx, h.Events); err != nil {
			return nil, err
		}
	} else {
		user.ClearEvents()
	}
	return refetch[dto.UserDTO](ctx, h.Queries, query.GetUserByID{ID: cmd.ID}, updatedFailure("user"))
}

func (h *Handlers) DeleteUser(ctx context.Context, cmd DeleteUser) (*dto.DeleteResult, error) {
	id := domain.NewIdentifier(cmd.ID)
	user, err := h.Users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.NewEntityNotFoundError("User", id)
	}
	if !cmd.Actor.canModify(id) {
		return nil, forbidden("delete this user")
	}

	ok, err := h.Users.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		h.logLostDelete("user", id)
		return &dto.DeleteResult{Success: false}, nil
	}
	if err := h.Events.Publish(ctx, domain.NewUserDeletedEvent(id)); err != nil {
		return nil, err
	}
	return &dto.DeleteResult{Success: true}, nil
}

// PromoteUser не генерирует событий: повышение делается напрямую.
func (h *Handlers) PromoteUser(ctx context.Context, cmd PromoteUser) (*dto.UserDTO, error) {
	email, err := domain.NewEmail(cmd.Email)
	if err != nil {
		return nil, err
	}
	user, err := h.Users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NewNotFoundf("User with email %s not found.", email.Value())
	}
	if !user.IsAdmin() {
		user.PromoteToAdmin()
		if _, err := h.Users.Save(ctx, user); err != nil {
			return nil, err
		}
	}
	return refetch[dto.UserDTO](ctx, h.Queries, query.GetUserByID{ID: user.ID().Value()}, updatedFailure("user"))
}

func (h *Handlers) hashPassword(plain string) (string, error) {
	if utf8.RuneCountInString(plain) < PasswordMinLength {
		return "", apperrors.NewArgumentOutOfRange(
			fmt.Sprintf("Password must be at least %d characters.", PasswordMinLength))
	}
	return h.Hasher.Hash(plain)
}
