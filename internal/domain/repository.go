package domain

import "context"

// Контракты хранилищ. Поиск по ключу при промахе возвращает (nil, nil),
// Delete при промахе - (false, nil).

type UserRepository interface {
	Save(ctx context.Context, user *User) (*User, error)
	FindByID(ctx context.Context, id Identifier) (*User, error)
	FindByEmail(ctx context.Context, email Email) (*User, error)
	FindByIDs(ctx context.Context, ids []Identifier) ([]*User, error)
	FindAll(ctx context.Context) ([]*User, error)
	Delete(ctx context.Context, id Identifier) (bool, error)
}

// PostFilter - общий фильтр для Find и Count. Take == 0 - без ограничения.
type PostFilter struct {
	Published  *bool
	AuthorID   *Identifier
	CategoryID *Identifier
	Skip       int
	Take       int
}

// Matches проверяет пост на соответствие условиям фильтра (без пагинации).
func (f PostFilter) Matches(p *Post) bool {
	if f.Published != nil && p.Published() != *f.Published {
		return false
	}
	if f.AuthorID != nil && !p.AuthorID().Equals(*f.AuthorID) {
		return false
	}
	if f.CategoryID != nil && !p.HasCategory(*f.CategoryID) {
		return false
	}
	return true
}

type PostRepository interface {
	Save(ctx context.Context, post *Post) (*Post, error)
	FindByID(ctx context.Context, id Identifier) (*Post, error)
	// Find возвращает посты от новых к старым.
	Find(ctx context.Context, filter PostFilter) ([]*Post, error)
	Count(ctx context.Context, filter PostFilter) (int, error)
	Delete(ctx context.Context, id Identifier) (bool, error)
}

type CategoryRepository interface {
	Save(ctx context.Context, category *Category) (*Category, error)
	FindByID(ctx context.Context, id Identifier) (*Category, error)
	FindByName(ctx context.Context, name CategoryName) (*Category, error)
	FindByIDs(ctx context.Context, ids []Identifier) ([]*Category, error)
	FindAll(ctx context.Context) ([]*Category, error)
	Delete(ctx context.Context, id Identifier) (bool, error)
}

type CommentRepository interface {
	Save(ctx context.Context, comment *Comment) (*Comment, error)
	FindByID(ctx context.Context, id Identifier) (*Comment, error)
	// FindByPostID возвращает комментарии в порядке создания.
	FindByPostID(ctx context.Context, postID Identifier) ([]*Comment, error)
	Delete(ctx context.Context, id Identifier) (bool, error)
}

type CommentResponseRepository interface {
	Save(ctx context.Context, response *CommentResponse) (*CommentResponse, error)
	FindByID(ctx context.Context, id Identifier) (*CommentResponse, error)
	FindByCommentIDs(ctx context.Context, commentIDs []Identifier) ([]*CommentResponse, error)
	Delete(ctx context.Context, id Identifier) (bool, error)
}
