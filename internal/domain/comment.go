package domain

import (
	"time"

	"github.com/UkralStul/graphql-blog-service/internal/apperrors"
)

type CommentProps struct {
	Content   CommentContent
	PostID    Identifier
	AuthorID  Identifier
	Responses []*CommentResponse
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Comment - комментарий верхнего уровня к посту. Ответы хранятся только в памяти
// агрегата и подгружаются репозиторием отдельно.
type Comment struct {
	aggregate
	props CommentProps
}

func CreateComment(props CommentProps, id Identifier) (*Comment, error) {
	if err := validateCommentShape(props.Content, props.PostID, props.AuthorID); err != nil {
		return nil, err
	}
	if props.Responses == nil {
		props.Responses = []*CommentResponse{}
	}
	if props.CreatedAt.IsZero() {
		props.CreatedAt = now()
	}
	if props.UpdatedAt.IsZero() {
		props.UpdatedAt = props.CreatedAt
	}

	c := &Comment{aggregate: aggregate{id: id}, props: props}
	if id.IsNew() {
		c.addEvent(&CommentCreatedEvent{
			BaseEvent: newBaseEvent(id),
			PostID:    props.PostID,
			AuthorID:  props.AuthorID,
		})
	}
	return c, nil
}

// validateCommentShape общая для комментария и ответа.
func validateCommentShape(content CommentContent, postID, authorID Identifier) error {
	if content.IsZero() {
		return apperrors.NewArgumentNotProvided("Comment content is required.")
	}
	if authorID.IsNew() {
		return apperrors.NewArgumentNotProvided("Comment author is required.")
	}
	if postID.IsNew() {
		return apperrors.NewArgumentNotProvided("Comment post is required.")
	}
	return nil
}

func (c *Comment) Content() CommentContent { return c.props.Content }
func (c *Comment) PostID() Identifier      { return c.props.PostID }
func (c *Comment) AuthorID() Identifier    { return c.props.AuthorID }
func (c *Comment) CreatedAt() time.Time    { return c.props.CreatedAt }
func (c *Comment) UpdatedAt() time.Time    { return c.props.UpdatedAt }

// Responses возвращает копию списка ответов.
func (c *Comment) Responses() []*CommentResponse {
	out := make([]*CommentResponse, len(c.props.Responses))
	copy(out, c.props.Responses)
	return out
}

func (c *Comment) Equals(other *Comment) bool {
	return other != nil && c.id.Equals(other.id)
}

func (c *Comment) IsAuthoredBy(userID Identifier) bool {
	return c.props.AuthorID.Equals(userID)
}

// UpdateContent меняет текст; событие только при изменении.
func (c *Comment) UpdateContent(raw string) error {
	content, err := NewCommentContent(raw)
	if err != nil {
		return err
	}
	if content.Equals(c.props.Content) {
		return nil
	}
	c.props.Content = content
	c.props.UpdatedAt = now()
	c.addEvent(&CommentUpdatedEvent{BaseEvent: newBaseEvent(c.id), Content: content.Value()})
	return nil
}

// AddResponse добавляет ответ. Ответ должен ссылаться на этот комментарий.
// Новый ответ (без id) может прийти к еще не сохраненному комментарию.
func (c *Comment) AddResponse(r *CommentResponse) error {
	if r == nil {
		return apperrors.NewArgumentNotProvided("Comment response is required.")
	}
	if !r.CommentID().Equals(c.id) {
		return NewCommentResponseMismatchError(r.ID(), c.id)
	}
	if !r.IsNew() {
		for _, existing := range c.props.Responses {
			if existing.ID().Equals(r.ID()) {
				return nil
			}
		}
	}
	c.props.Responses = append(c.props.Responses, r)
	return nil
}

// RemoveResponse убирает ответ из списка; ответ чужого комментария - ошибка.
func (c *Comment) RemoveResponse(r *CommentResponse) error {
	if r == nil {
		return apperrors.NewArgumentNotProvided("Comment response is required.")
	}
	if !r.CommentID().Equals(c.id) {
		return NewCommentResponseMismatchError(r.ID(), c.id)
	}
	for i, existing := range c.props.Responses {
		if existing == r || (!r.IsNew() && existing.ID().Equals(r.ID())) {
			c.props.Responses = append(c.props.Responses[:i:i], c.props.Responses[i+1:]...)
			return nil
		}
	}
	return nil
}
