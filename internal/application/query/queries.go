// Package query содержит запросы и их обработчики (сторона чтения).
package query

const (
	DefaultTake = 10
	MaxTake     = 100
)

type GetUserByID struct {
	ID int64 `validate:"gt=0"`
}

type GetUsers struct{}

type GetUsersByIDs struct {
	IDs []int64 `validate:"dive,gt=0"`
}

type GetPostByID struct {
	ID int64 `validate:"gt=0"`
}

// GetPosts - постраничный список. Take == 0 заменяется на DefaultTake,
// значения больше MaxTake обрезаются.
type GetPosts struct {
	Published  *bool
	AuthorID   *int64 `validate:"omitempty,gt=0"`
	CategoryID *int64 `validate:"omitempty,gt=0"`
	Skip       int    `validate:"gte=0"`
	Take       int    `validate:"gte=0"`
}

type GetCategoryByID struct {
	ID int64 `validate:"gt=0"`
}

type GetCategories struct{}

type GetCategoriesByIDs struct {
	IDs []int64 `validate:"dive,gt=0"`
}

// GetCommentByID возвращает комментарий с ответами.
type GetCommentByID struct {
	ID int64 `validate:"gt=0"`
}

type GetCommentsByPost struct {
	PostID int64 `validate:"gt=0"`
}

type GetCommentResponseByID struct {
	ID int64 `validate:"gt=0"`
}
