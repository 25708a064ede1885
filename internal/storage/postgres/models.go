package postgres

import (
	"time"

	"github.com/UkralStul/graphql-blog-service/internal/storage"
)

// Модели GORM. Ассоциации-указатели нужны только для внешних ключей
// при миграции; при записи они пропускаются (Omit(clause.Associations)).

type userModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Email     string    `gorm:"size:50;not null;uniqueIndex"`
	Username  string    `gorm:"size:50;not null"`
	Password  string    `gorm:"not null"`
	Role      string    `gorm:"size:10;not null;default:USER"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (userModel) TableName() string { return "users" }

type categoryModel struct {
	ID   int64  `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"size:50;not null;uniqueIndex"`
}

func (categoryModel) TableName() string { return "categories" }

type postModel struct {
	ID        int64      `gorm:"primaryKey;autoIncrement"`
	Title     string     `gorm:"size:255;not null"`
	Content   string     `gorm:"type:text;not null;default:''"`
	Published bool       `gorm:"not null;default:false;index"`
	AuthorID  int64      `gorm:"not null;index"`
	Author    *userModel `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `gorm:"not null;index"`
	UpdatedAt time.Time  `gorm:"not null"`
}

func (postModel) TableName() string { return "posts" }

type postCategoryModel struct {
	PostID     int64          `gorm:"primaryKey"`
	CategoryID int64          `gorm:"primaryKey;index"`
	Post       *postModel     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	Category   *categoryModel `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
}

func (postCategoryModel) TableName() string { return "post_categories" }

type commentModel struct {
	ID        int64      `gorm:"primaryKey;autoIncrement"`
	Content   string     `gorm:"size:1000;not null"`
	PostID    int64      `gorm:"not null;index"`
	Post      *postModel `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	AuthorID  int64      `gorm:"not null;index"`
	Author    *userModel `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"not null"`
}

func (commentModel) TableName() string { return "comments" }

type commentResponseModel struct {
	ID        int64         `gorm:"primaryKey;autoIncrement"`
	Content   string        `gorm:"size:1000;not null"`
	CommentID int64         `gorm:"not null;index"`
	Comment   *commentModel `gorm:"foreignKey:CommentID;constraint:OnDelete:CASCADE"`
	PostID    int64         `gorm:"not null;index"`
	Post      *postModel    `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	AuthorID  int64         `gorm:"not null;index"`
	Author    *userModel    `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time     `gorm:"not null"`
	UpdatedAt time.Time     `gorm:"not null"`
}

func (commentResponseModel) TableName() string { return "comment_responses" }

// allModels - порядок важен для AutoMigrate: сначала таблицы, на которые ссылаются.
func allModels() []interface{} {
	return []interface{}{
		&userModel{},
		&categoryModel{},
		&postModel{},
		&postCategoryModel{},
		&commentModel{},
		&commentResponseModel{},
	}
}

// === Преобразования ===

func userModelOf(r storage.UserRecord) userModel {
	return userModel{
		ID: r.ID, Email: r.Email, Username: r.Username, Password: r.Password, Role: r.Role,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

func (m userModel) record() storage.UserRecord {
	return storage.UserRecord{
		ID: m.ID, Email: m.Email, Username: m.Username, Password: m.Password, Role: m.Role,
		CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func (m categoryModel) record() storage.CategoryRecord {
	return storage.CategoryRecord{ID: m.ID, Name: m.Name}
}

func postModelOf(r storage.PostRecord) postModel {
	return postModel{
		ID: r.ID, Title: r.Title, Content: r.Content, Published: r.Published, AuthorID: r.AuthorID,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

func (m postModel) record(categoryIDs []int64) storage.PostRecord {
	return storage.PostRecord{
		ID: m.ID, Title: m.Title, Content: m.Content, Published: m.Published, AuthorID: m.AuthorID,
		CategoryIDs: categoryIDs, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func commentModelOf(r storage.CommentRecord) commentModel {
	return commentModel{
		ID: r.ID, Content: r.Content, PostID: r.PostID, AuthorID: r.AuthorID,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

func (m commentModel) record() storage.CommentRecord {
	return storage.CommentRecord{
		ID: m.ID, Content: m.Content, PostID: m.PostID, AuthorID: m.AuthorID,
		CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func commentResponseModelOf(r storage.CommentResponseRecord) commentResponseModel {
	return commentResponseModel{
		ID: r.ID, Content: r.Content, CommentID: r.CommentID, PostID: r.PostID, AuthorID: r.AuthorID,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

func (m commentResponseModel) record() storage.CommentResponseRecord {
	return storage.CommentResponseRecord{
		ID: m.ID, Content: m.Content, CommentID: m.CommentID, PostID: m.PostID, AuthorID: m.AuthorID,
		CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}
