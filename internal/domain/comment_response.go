package domain

import (
	"time"

	"github.com/UkralStul/graphql-blog-service/internal/apperrors"
)

type CommentResponseProps struct {
	Content   CommentContent
	CommentID Identifier
	PostID    Identifier
	AuthorID  Identifier
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CommentResponse - ответ на комментарий. Вложенность одна: ответить на ответ нельзя.
type CommentResponse struct {
	aggregate
	props CommentResponseProps
}

func CreateCommentResponse(props CommentResponseProps, id Identifier) (*CommentResponse, error) {
	if err := validateCommentShape(props.Content, props.PostID, props.AuthorID); err != nil {
		return nil, err
	}
	if props.CommentID.IsNew() {
		return nil, apperrors.NewArgumentNotProvided("Parent comment is required.")
	}
	if props.CreatedAt.IsZero() {
		props.CreatedAt = now()
	}
	if props.UpdatedAt.IsZero() {
		props.UpdatedAt = props.CreatedAt
	}

	r := &CommentResponse{aggregate: aggregate{id: id}, props: props}
	if id.IsNew() {
		r.addEvent(&CommentResponseCreatedEvent{
			BaseEvent: newBaseEvent(id),
			CommentID: props.CommentID,
			PostID:    props.PostID,
			AuthorID:  props.AuthorID,
		})
	}
	return r, nil
}

func (r *CommentResponse) Content() CommentContent { return r.props.Content }
func (r *CommentResponse) CommentID() Identifier   { return r.props.CommentID }
func (r *CommentResponse) PostID() Identifier      { return r.props.PostID }
func (r *CommentResponse) AuthorID() Identifier    { return r.props.AuthorID }
func (r *CommentResponse) CreatedAt() time.Time    { return r.props.CreatedAt }
func (r *CommentResponse) UpdatedAt() time.Time    { return r.props.UpdatedAt }

func (r *CommentResponse) Equals(other *CommentResponse) bool {
	return other != nil && r.id.Equals(other.id)
}

func (r *CommentResponse) IsAuthoredBy(userID Identifier) bool {
	return r.props.AuthorID.Equals(userID)
}

// UpdateContent генерирует общий CommentUpdatedEvent.
func (r *CommentResponse) UpdateContent(raw string) error {
	content, err := NewCommentContent(raw)
	if err != nil {
		return err
	}
	if content.Equals(r.props.Content) {
		return nil
	}
	r.props.Content = content
	r.props.UpdatedAt = now()
	r.addEvent(&CommentUpdatedEvent{BaseEvent: newBaseEvent(r.id), Content: content.Value()})
	return nil
}
