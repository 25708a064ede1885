package storage

import (
	"github.com/UkralStul/graphql-blog-service/internal/domain"
)

// Storage определяет контракт для хранилищ: набор репозиториев агрегатов.
type Storage interface {
	Users() domain.UserRepository
	Posts() domain.PostRepository
	Categories() domain.CategoryRepository
	Comments() domain.CommentRepository
	CommentResponses() domain.CommentResponseRepository

	Close() error
}
