package domain

import (
	"context"
	"time"
)

// Имена событий.
const (
	EventUserCreated            = "user.created"
	EventUserUpdated            = "user.updated"
	EventUserDeleted            = "user.deleted"
	EventPostCreated            = "post.created"
	EventPostUpdated            = "post.updated"
	EventPostPublished          = "post.published"
	EventPostUnpublished        = "post.unpublished"
	EventPostDeleted            = "post.deleted"
	EventCategoryCreated        = "category.created"
	EventCategoryUpdated        = "category.updated"
	EventCategoryDeleted        = "category.deleted"
	EventCommentCreated         = "comment.created"
	EventCommentUpdated         = "comment.updated"
	EventCommentDeleted         = "comment.deleted"
	EventCommentResponseCreated = "comment_response.created"
	EventCommentResponseDeleted = "comment_response.deleted"
)

// DomainEvent - факт, произошедший с агрегатом.
type DomainEvent interface {
	EventName() string
	AggregateID() Identifier
	OccurredOn() time.Time
}

// EventPublisher - шина событий, в которую обработчики сбрасывают накопленные события.
type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent) error
	PublishAll(ctx context.Context, events []DomainEvent) error
}

// BaseEvent содержит общие поля событий.
type BaseEvent struct {
	ID Identifier `json:"aggregateId"`
	At time.Time  `json:"occurredOn"`
}

func newBaseEvent(id Identifier) BaseEvent {
	return BaseEvent{ID: id, At: now()}
}

func (e *BaseEvent) AggregateID() Identifier { return e.ID }
func (e *BaseEvent) OccurredOn() time.Time   { return e.At }

func (e *BaseEvent) setAggregateID(id Identifier) { e.ID = id }

// === User ===

type UserCreatedEvent struct {
	BaseEvent
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

func (*UserCreatedEvent) EventName() string { return EventUserCreated }

type UserUpdatedEvent struct {
	BaseEvent
	Field string `json:"field"`
}

func (*UserUpdatedEvent) EventName() string { return EventUserUpdated }

type UserDeletedEvent struct {
	BaseEvent
}

func (*UserDeletedEvent) EventName() string { return EventUserDeleted }

func NewUserDeletedEvent(id Identifier) *UserDeletedEvent {
	return &UserDeletedEvent{BaseEvent: newBaseEvent(id)}
}

// === Post ===

type PostCreatedEvent struct {
	BaseEvent
	AuthorID Identifier `json:"authorId"`
	Title    string     `json:"title"`
}

func (*PostCreatedEvent) EventName() string { return EventPostCreated }

type PostUpdatedEvent struct {
	BaseEvent
	Field string `json:"field"`
}

func (*PostUpdatedEvent) EventName() string { return EventPostUpdated }

type PostPublishedEvent struct {
	BaseEvent
}

func (*PostPublishedEvent) EventName() string { return EventPostPublished }

type PostUnpublishedEvent struct {
	BaseEvent
}

func (*PostUnpublishedEvent) EventName() string { return EventPostUnpublished }

type PostDeletedEvent struct {
	BaseEvent
}

func (*PostDeletedEvent) EventName() string { return EventPostDeleted }

func NewPostDeletedEvent(id Identifier) *PostDeletedEvent {
	return &PostDeletedEvent{BaseEvent: newBaseEvent(id)}
}

// === Category ===

type CategoryCreatedEvent struct {
	BaseEvent
	Name string `json:"name"`
}

func (*CategoryCreatedEvent) EventName() string { return EventCategoryCreated }

type CategoryUpdatedEvent struct {
	BaseEvent
	OldName string `json:"oldName"`
	NewName string `json:"newName"`
}

func (*CategoryUpdatedEvent) EventName() string { return EventCategoryUpdated }

type CategoryDeletedEvent struct {
	BaseEvent
}

func (*CategoryDeletedEvent) EventName() string { return EventCategoryDeleted }

func NewCategoryDeletedEvent(id Identifier) *CategoryDeletedEvent {
	return &CategoryDeletedEvent{BaseEvent: newBaseEvent(id)}
}

// === Comment ===

type CommentCreatedEvent struct {
	BaseEvent
	PostID   Identifier `json:"postId"`
	AuthorID Identifier `json:"authorId"`
}

func (*CommentCreatedEvent) EventName() string { return EventCommentCreated }

// CommentUpdatedEvent генерируется и комментарием, и ответом на него.
type CommentUpdatedEvent struct {
	BaseEvent
	Content string `json:"content"`
}

func (*CommentUpdatedEvent) EventName() string { return EventCommentUpdated }

type CommentDeletedEvent struct {
	BaseEvent
	PostID Identifier `json:"postId"`
}

func (*CommentDeletedEvent) EventName() string { return EventCommentDeleted }

func NewCommentDeletedEvent(id, postID Identifier) *CommentDeletedEvent {
	return &CommentDeletedEvent{BaseEvent: newBaseEvent(id), PostID: postID}
}

type CommentResponseCreatedEvent struct {
	BaseEvent
	CommentID Identifier `json:"commentId"`
	PostID    Identifier `json:"postId"`
	AuthorID  Identifier `json:"authorId"`
}

func (*CommentResponseCreatedEvent) EventName() string { return EventCommentResponseCreated }

type CommentResponseDeletedEvent struct {
	BaseEvent
	CommentID Identifier `json:"commentId"`
}

func (*CommentResponseDeletedEvent) EventName() string { return EventCommentResponseDeleted }

func NewCommentResponseDeletedEvent(id, commentID Identifier) *CommentResponseDeletedEvent {
	return &CommentResponseDeletedEvent{BaseEvent: newBaseEvent(id), CommentID: commentID}
}
