package domain

import (
	"time"

	"github.com/UkralStul/graphql-blog-service/internal/apperrors"
)

// PostProps - данные поста.
type PostProps struct {
	Title       PostTitle
	Content     PostContent
	Published   bool
	AuthorID    Identifier
	CategoryIDs []Identifier
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Post - агрегат поста. Состояния: черновик и опубликован.
type Post struct {
	aggregate
	props PostProps
}

// CreatePost создает пост. Повторы в CategoryIDs схлопываются.
func CreatePost(props PostProps, id Identifier) (*Post, error) {
	if props.Title.IsZero() {
		return nil, apperrors.NewArgumentNotProvided("Post title is required.")
	}
	if props.AuthorID.IsNew() {
		return nil, apperrors.NewArgumentNotProvided("Post author is required.")
	}
	props.CategoryIDs = uniqueIdentifiers(props.CategoryIDs)
	if props.CreatedAt.IsZero() {
		props.CreatedAt = now()
	}
	if props.UpdatedAt.IsZero() {
		props.UpdatedAt = props.CreatedAt
	}

	p := &Post{aggregate: aggregate{id: id}, props: props}
	if id.IsNew() {
		p.addEvent(&PostCreatedEvent{
			BaseEvent: newBaseEvent(id),
			AuthorID:  props.AuthorID,
			Title:     props.Title.Value(),
		})
	}
	return p, nil
}

func (p *Post) Title() PostTitle     { return p.props.Title }
func (p *Post) Content() PostContent { return p.props.Content }
func (p *Post) Published() bool      { return p.props.Published }
func (p *Post) AuthorID() Identifier { return p.props.AuthorID }
func (p *Post) CreatedAt() time.Time { return p.props.CreatedAt }
func (p *Post) UpdatedAt() time.Time { return p.props.UpdatedAt }

// CategoryIDs возвращает копию списка категорий.
func (p *Post) CategoryIDs() []Identifier {
	out := make([]Identifier, len(p.props.CategoryIDs))
	copy(out, p.props.CategoryIDs)
	return out
}

func (p *Post) Equals(other *Post) bool {
	return other != nil && p.id.Equals(other.id)
}

// IsAuthoredBy проверяет авторство.
func (p *Post) IsAuthoredBy(userID Identifier) bool {
	return p.props.AuthorID.Equals(userID)
}

// HasCategory проверяет принадлежность категории.
func (p *Post) HasCategory(id Identifier) bool {
	for _, c := range p.props.CategoryIDs {
		if c.Equals(id) {
			return true
		}
	}
	return false
}

// UpdateTitle меняет заголовок.
func (p *Post) UpdateTitle(raw string) error {
	title, err := NewPostTitle(raw)
	if err != nil {
		return err
	}
	if title.Equals(p.props.Title) {
		return nil
	}
	p.props.Title = title
	p.touched("title")
	return nil
}

// UpdateContent меняет текст.
func (p *Post) UpdateContent(raw string) error {
	content, err := NewPostContent(raw)
	if err != nil {
		return err
	}
	if content.Equals(p.props.Content) {
		return nil
	}
	p.props.Content = content
	p.touched("content")
	return nil
}

// Publish переводит черновик в опубликованные.
func (p *Post) Publish() error {
	if p.props.Published {
		return NewPostIsAlreadyPublishedError(p.id)
	}
	if p.props.Content.IsBlank() {
		return NewPostContentMissingError(p.id)
	}
	p.props.Published = true
	p.props.UpdatedAt = now()
	p.addEvent(&PostPublishedEvent{BaseEvent: newBaseEvent(p.id)})
	return nil
}

// Unpublish возвращает пост в черновики.
func (p *Post) Unpublish() error {
	if !p.props.Published {
		return NewPostIsNotPublishedError(p.id)
	}
	p.props.Published = false
	p.props.UpdatedAt = now()
	p.addEvent(&PostUnpublishedEvent{BaseEvent: newBaseEvent(p.id)})
	return nil
}

// AddCategory добавляет категорию, если ее еще нет.
func (p *Post) AddCategory(id Identifier) {
	if id.IsNew() || p.HasCategory(id) {
		return
	}
	p.props.CategoryIDs = append(p.props.CategoryIDs, id)
	p.touched("categories")
}

// RemoveCategory удаляет категорию, если она есть.
func (p *Post) RemoveCategory(id Identifier) {
	for i, c := range p.props.CategoryIDs {
		if c.Equals(id) {
			p.props.CategoryIDs = append(p.props.CategoryIDs[:i:i], p.props.CategoryIDs[i+1:]...)
			p.touched("categories")
			return
		}
	}
}

// SetCategories заменяет набор категорий целиком и сообщает, изменился ли он.
// На одну замену генерируется одно событие.
func (p *Post) SetCategories(ids []Identifier) bool {
	ids = uniqueIdentifiers(ids)
	if sameIdentifierSet(ids, p.props.CategoryIDs) {
		return false
	}
	p.props.CategoryIDs = ids
	p.touched("categories")
	return true
}

func (p *Post) touched(field string) {
	p.props.UpdatedAt = now()
	p.addEvent(&PostUpdatedEvent{BaseEvent: newBaseEvent(p.id), Field: field})
}

func uniqueIdentifiers(ids []Identifier) []Identifier {
	out := make([]Identifier, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if id.IsNew() {
			continue
		}
		if _, ok := seen[id.value]; ok {
			continue
		}
		seen[id.value] = struct{}{}
		out = append(out, id)
	}
	return out
}

func sameIdentifierSet(a, b []Identifier) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[int64]struct{}, len(a))
	for _, id := range a {
		set[id.value] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id.value]; !ok {
			return false
		}
	}
	return true
}
