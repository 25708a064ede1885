package domain

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/UkralStul/graphql-blog-service/internal/apperrors"
)

const (
	CategoryNameMinLength   = 2
	CategoryNameMaxLength   = 50
	PostTitleMaxLength      = 255
	CommentContentMaxLength = 1000
	EmailMaxLength          = 50
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// === CategoryName ===

// CategoryName - имя категории, 2-50 символов после trim.
type CategoryName struct {
	value string
}

func NewCategoryName(raw string) (CategoryName, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return CategoryName{}, apperrors.NewArgumentNotProvided("Category name cannot be empty.")
	}
	if n := utf8.RuneCountInString(v); n < CategoryNameMinLength || n > CategoryNameMaxLength {
		return CategoryName{}, apperrors.NewArgumentOutOfRange(fmt.Sprintf(
			"Category name must be between %d and %d characters.", CategoryNameMinLength, CategoryNameMaxLength))
	}
	return CategoryName{value: v}, nil
}

func (n CategoryName) Value() string                  { return n.value }
func (n CategoryName) Equals(other CategoryName) bool { return n.value == other.value }
func (n CategoryName) IsZero() bool                   { return n.value == "" }

// === PostTitle ===

// PostTitle - заголовок поста, непустой после trim и не длиннее 255 символов.
type PostTitle struct {
	value string
}

func NewPostTitle(raw string) (PostTitle, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return PostTitle{}, apperrors.NewArgumentNotProvided("Post title cannot be empty.")
	}
	if utf8.RuneCountInString(v) > PostTitleMaxLength {
		return PostTitle{}, apperrors.NewArgumentOutOfRange(fmt.Sprintf(
			"Post title must be at most %d characters.", PostTitleMaxLength))
	}
	return PostTitle{value: v}, nil
}

func (t PostTitle) Value() string               { return t.value }
func (t PostTitle) Equals(other PostTitle) bool { return t.value == other.value }
func (t PostTitle) IsZero() bool                { return t.value == "" }

// === PostContent ===

// PostContent - текст поста. Пустая строка запрещена, пробельный текст
// допускается здесь и отсекается только при публикации.
type PostContent struct {
	value string
}

func NewPostContent(raw string) (PostContent, error) {
	if raw == "" {
		return PostContent{}, apperrors.NewArgumentNotProvided("Post content cannot be empty.")
	}
	return PostContent{value: raw}, nil
}

func (c PostContent) Value() string                 { return c.value }
func (c PostContent) Equals(other PostContent) bool { return c.value == other.value }
func (c PostContent) IsZero() bool                  { return c.value == "" }

// IsBlank - текст пуст после trim.
func (c PostContent) IsBlank() bool { return strings.TrimSpace(c.value) == "" }

// === CommentContent ===

// CommentContent - текст комментария или ответа, 1-1000 символов после trim.
type CommentContent struct {
	value string
}

func NewCommentContent(raw string) (CommentContent, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return CommentContent{}, apperrors.NewArgumentNotProvided("Comment content cannot be empty.")
	}
	if utf8.RuneCountInString(v) > CommentContentMaxLength {
		return CommentContent{}, apperrors.NewArgumentOutOfRange(fmt.Sprintf(
			"Comment content must be between 1 and %d characters.", CommentContentMaxLength))
	}
	return CommentContent{value: v}, nil
}

func (c CommentContent) Value() string                    { return c.value }
func (c CommentContent) Equals(other CommentContent) bool { return c.value == other.value }
func (c CommentContent) IsZero() bool                     { return c.value == "" }

// === Email ===

// Email хранится в нижнем регистре.
type Email struct {
	value string
}

func NewEmail(raw string) (Email, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return Email{}, apperrors.NewArgumentNotProvided("Email cannot be empty.")
	}
	if utf8.RuneCountInString(v) > EmailMaxLength {
		return Email{}, apperrors.NewArgumentOutOfRange(fmt.Sprintf(
			"Email must be at most %d characters.", EmailMaxLength))
	}
	if !emailPattern.MatchString(v) {
		return Email{}, apperrors.NewArgumentInvalid(fmt.Sprintf("Email \"%s\" is invalid.", v))
	}
	return Email{value: v}, nil
}

func (e Email) Value() string           { return e.value }
func (e Email) Equals(other Email) bool { return e.value == other.value }
func (e Email) IsZero() bool            { return e.value == "" }
