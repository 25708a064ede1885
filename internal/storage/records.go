package storage

import (
	"time"

	"github.com/UkralStul/graphql-blog-service/internal/domain"
)

// Плоские снимки агрегатов. Хранилища держат и читают их, а восстановление
// в сущности идет через доменные конструкторы, поэтому новые события не копятся.

type UserRecord struct {
	ID        int64
	Email     string
	Username  string
	Password  string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func UserRecordOf(u *domain.User) UserRecord {
	return UserRecord{
		ID:        u.ID().Value(),
		Email:     u.Email().Value(),
		Username:  u.Username(),
		Password:  u.Password(),
		Role:      string(u.Role()),
		CreatedAt: u.CreatedAt(),
		UpdatedAt: u.UpdatedAt(),
	}
}

func (r UserRecord) Restore() (*domain.User, error) {
	email, err := domain.NewEmail(r.Email)
	if err != nil {
		return nil, err
	}
	return domain.CreateUser(domain.UserProps{
		Email:     email,
		Username:  r.Username,
		Password:  r.Password,
		Role:      domain.Role(r.Role),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, domain.NewIdentifier(r.ID))
}

type CategoryRecord struct {
	ID   int64
	Name string
}

func CategoryRecordOf(c *domain.Category) CategoryRecord {
	return CategoryRecord{ID: c.ID().Value(), Name: c.Name().Value()}
}

func (r CategoryRecord) Restore() (*domain.Category, error) {
	name, err := domain.NewCategoryName(r.Name)
	if err != nil {
		return nil, err
	}
	return domain.CreateCategory(domain.CategoryProps{Name: name}, domain.NewIdentifier(r.ID))
}

type PostRecord struct {
	ID          int64
	Title       string
	Content     string
	Published   bool
	AuthorID    int64
	CategoryIDs []int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func PostRecordOf(p *domain.Post) PostRecord {
	return PostRecord{
		ID:          p.ID().Value(),
		Title:       p.Title().Value(),
		Content:     p.Content().Value(),
		Published:   p.Published(),
		AuthorID:    p.AuthorID().Value(),
		CategoryIDs: domain.IdentifierValues(p.CategoryIDs()),
		CreatedAt:   p.CreatedAt(),
		UpdatedAt:   p.UpdatedAt(),
	}
}

func (r PostRecord) Restore() (*domain.Post, error) {
	title, err := domain.NewPostTitle(r.Title)
	if err != nil {
		return nil, err
	}
	props := domain.PostProps{
		Title:       title,
		Published:   r.Published,
		AuthorID:    domain.NewIdentifier(r.AuthorID),
		CategoryIDs: domain.NewIdentifiers(r.CategoryIDs),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	// у черновика текста может не быть
	if r.Content != "" {
		if props.Content, err = domain.NewPostContent(r.Content); err != nil {
			return nil, err
		}
	}
	return domain.CreatePost(props, domain.NewIdentifier(r.ID))
}

type CommentRecord struct {
	ID        int64
	Content   string
	PostID    int64
	AuthorID  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func CommentRecordOf(c *domain.Comment) CommentRecord {
	return CommentRecord{
		ID:        c.ID().Value(),
		Content:   c.Content().Value(),
		PostID:    c.PostID().Value(),
		AuthorID:  c.AuthorID().Value(),
		CreatedAt: c.CreatedAt(),
		UpdatedAt: c.UpdatedAt(),
	}
}

// Restore не загружает ответы: их подтягивает слой запросов одним пакетом.
func (r CommentRecord) Restore() (*domain.Comment, error) {
	content, err := domain.NewCommentContent(r.Content)
	if err != nil {
		return nil, err
	}
	return domain.CreateComment(domain.CommentProps{
		Content:   content,
		PostID:    domain.NewIdentifier(r.PostID),
		AuthorID:  domain.NewIdentifier(r.AuthorID),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, domain.NewIdentifier(r.ID))
}

type CommentResponseRecord struct {
	ID        int64
	Content   string
	CommentID int64
	PostID    int64
	AuthorID  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func CommentResponseRecordOf(r *domain.CommentResponse) CommentResponseRecord {
	return CommentResponseRecord{
		ID:        r.ID().Value(),
		Content:   r.Content().Value(),
		CommentID: r.CommentID().Value(),
		PostID:    r.PostID().Value(),
		AuthorID:  r.AuthorID().Value(),
		CreatedAt: r.CreatedAt(),
		UpdatedAt: r.UpdatedAt(),
	}
}

func (r CommentResponseRecord) Restore() (*domain.CommentResponse, error) {
	content, err := domain.NewCommentContent(r.Content)
	if err != nil {
		return nil, err
	}
	return domain.CreateCommentResponse(domain.CommentResponseProps{
		Content:   content,
		CommentID: domain.NewIdentifier(r.CommentID),
		PostID:    domain.NewIdentifier(r.PostID),
		AuthorID:  domain.NewIdentifier(r.AuthorID),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, domain.NewIdentifier(r.ID))
}
