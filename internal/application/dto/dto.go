// Package dto - модели чтения, которые отдаются наружу.
package dto

import "time"

// UserDTO никогда не содержит пароль.
type UserDTO struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CategoryDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type PostDTO struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Published   bool      `json:"published"`
	AuthorID    int64     `json:"authorId"`
	CategoryIDs []int64   `json:"categoryIds"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PostPage - страница постов. HasMore = skip+take < total.
type PostPage struct {
	Items   []*PostDTO `json:"items"`
	Total   int        `json:"total"`
	HasMore bool       `json:"hasMore"`
}

type CommentResponseDTO struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	CommentID int64     `json:"commentId"`
	PostID    int64     `json:"postId"`
	AuthorID  int64     `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CommentDTO struct {
	ID        int64                 `json:"id"`
	Content   string                `json:"content"`
	PostID    int64                 `json:"postId"`
	AuthorID  int64                 `json:"authorId"`
	Replies   []*CommentResponseDTO `json:"replies"`
	CreatedAt time.Time             `json:"createdAt"`
	UpdatedAt time.Time             `json:"updatedAt"`
}

type DeleteResult struct {
	Success bool `json:"success"`
}

// AuthPayload - результат входа.
type AuthPayload struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      *UserDTO  `json:"user"`
}
