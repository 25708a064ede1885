package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/UkralStul/graphql-blog-service/internal/apperrors"
)

// Role - роль пользователя.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole проверяет, что роль входит в перечисление.
func ParseRole(raw string) (Role, error) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(raw))); r {
	case RoleUser, RoleAdmin:
		return r, nil
	}
	return "", apperrors.NewArgumentInvalid(fmt.Sprintf("Role \"%s\" is invalid.", raw))
}

const (
	UsernameMaxLength       = 50
	UsernameUpdateMinLength = 3
	UsernameUpdateMaxLength = 20
)

// UserProps - исходные данные пользователя. Password - уже посчитанный хэш.
type UserProps struct {
	Email     Email
	Username  string
	Password  string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// User - агрегат пользователя.
type User struct {
	aggregate
	props UserProps
}

// CreateUser проверяет данные и создает пользователя. Для нового пользователя
// (нулевой id) в буфер попадает UserCreatedEvent.
func CreateUser(props UserProps, id Identifier) (*User, error) {
	props.Username = strings.TrimSpace(props.Username)
	if props.Role == "" {
		props.Role = RoleUser
	}
	if err := validateUserProps(props); err != nil {
		return nil, err
	}
	ts := now()
	if props.CreatedAt.IsZero() {
		props.CreatedAt = ts
	}
	if props.UpdatedAt.IsZero() {
		props.UpdatedAt = props.CreatedAt
	}

	u := &User{aggregate: aggregate{id: id}, props: props}
	if id.IsNew() {
		u.addEvent(&UserCreatedEvent{
			BaseEvent: newBaseEvent(id),
			Email:     props.Email.Value(),
			Username:  props.Username,
			Role:      props.Role,
		})
	}
	return u, nil
}

func validateUserProps(p UserProps) error {
	if p.Email.IsZero() {
		return apperrors.NewArgumentNotProvided("Email is required.")
	}
	if p.Username == "" {
		return apperrors.NewArgumentNotProvided("Username is required.")
	}
	if utf8.RuneCountInString(p.Username) > UsernameMaxLength {
		return apperrors.NewArgumentOutOfRange(fmt.Sprintf("Username must be at most %d characters.", UsernameMaxLength))
	}
	if p.Password == "" {
		return apperrors.NewArgumentNotProvided("Password is required.")
	}
	if _, err := ParseRole(string(p.Role)); err != nil {
		return err
	}
	return nil
}

func (u *User) Email() Email         { return u.props.Email }
func (u *User) Username() string     { return u.props.Username }
func (u *User) Password() string     { return u.props.Password }
func (u *User) Role() Role           { return u.props.Role }
func (u *User) IsAdmin() bool        { return u.props.Role == RoleAdmin }
func (u *User) CreatedAt() time.Time { return u.props.CreatedAt }
func (u *User) UpdatedAt() time.Time { return u.props.UpdatedAt }

// Equals сравнивает пользователей по идентификатору.
func (u *User) Equals(other *User) bool {
	return other != nil && u.id.Equals(other.id)
}

// UpdateUsername меняет имя пользователя (3-20 символов).
func (u *User) UpdateUsername(username string) error {
	username = strings.TrimSpace(username)
	if n := utf8.RuneCountInString(username); n < UsernameUpdateMinLength || n > UsernameUpdateMaxLength {
		return apperrors.NewArgumentOutOfRange(fmt.Sprintf(
			"Username must be between %d and %d characters.", UsernameUpdateMinLength, UsernameUpdateMaxLength))
	}
	if username == u.props.Username {
		return nil
	}
	u.props.Username = username
	u.touched("username")
	return nil
}

// UpdateEmail меняет email. Уникальность проверяет вызывающий обработчик.
func (u *User) UpdateEmail(email Email) error {
	if email.IsZero() {
		return apperrors.NewArgumentNotProvided("Email is required.")
	}
	if email.Equals(u.props.Email) {
		return nil
	}
	u.props.Email = email
	u.touched("email")
	return nil
}

// ChangeRole меняет роль с генерацией события.
func (u *User) ChangeRole(role Role) error {
	if _, err := ParseRole(string(role)); err != nil {
		return err
	}
	if role == u.props.Role {
		return nil
	}
	u.props.Role = role
	u.touched("role")
	return nil
}

// ChangePassword заменяет хэш пароля. Событие не генерируется.
func (u *User) ChangePassword(hash string) error {
	if hash == "" {
		return apperrors.NewArgumentNotProvided("Password is required.")
	}
	if hash == u.props.Password {
		return nil
	}
	u.props.Password = hash
	u.props.UpdatedAt = now()
	return nil
}

// PromoteToAdmin выдает роль администратора напрямую, без события.
func (u *User) PromoteToAdmin() {
	if u.props.Role == RoleAdmin {
		return
	}
	u.props.Role = RoleAdmin
	u.props.UpdatedAt = now()
}

// DemoteToUser снимает роль администратора напрямую, без события.
func (u *User) DemoteToUser() {
	if u.props.Role == RoleUser {
		return
	}
	u.props.Role = RoleUser
	u.props.UpdatedAt = now()
}

func (u *User) touched(field string) {
	u.props.UpdatedAt = now()
	u.addEvent(&UserUpdatedEvent{BaseEvent: newBaseEvent(u.id), Field: field})
}
