package domain

import (
	"fmt"
	"unicode/utf8"

	"github.com/UkralStul/graphql-blog-service/internal/apperrors"
)

// Границы имени на уровне сущности строже, чем у CategoryName.
const (
	CategoryEntityNameMinLength = 3
	CategoryEntityNameMaxLength = 20
)

type CategoryProps struct {
	Name CategoryName
}

// Category - агрегат категории.
type Category struct {
	aggregate
	props CategoryProps
}

func CreateCategory(props CategoryProps, id Identifier) (*Category, error) {
	if err := validateCategoryName(props.Name); err != nil {
		return nil, err
	}
	c := &Category{aggregate: aggregate{id: id}, props: props}
	if id.IsNew() {
		c.addEvent(&CategoryCreatedEvent{BaseEvent: newBaseEvent(id), Name: props.Name.Value()})
	}
	return c, nil
}

func validateCategoryName(name CategoryName) error {
	if name.IsZero() {
		return apperrors.NewArgumentNotProvided("Category name is required.")
	}
	if n := utf8.RuneCountInString(name.Value()); n < CategoryEntityNameMinLength || n > CategoryEntityNameMaxLength {
		return apperrors.NewArgumentOutOfRange(fmt.Sprintf("Category name must be between %d and %d characters.",
			CategoryEntityNameMinLength, CategoryEntityNameMaxLength))
	}
	return nil
}

func (c *Category) Name() CategoryName { return c.props.Name }

func (c *Category) Equals(other *Category) bool {
	return other != nil && c.id.Equals(other.id)
}

// UpdateName переименовывает категорию. Событие генерируется только при изменении.
func (c *Category) UpdateName(raw string) error {
	name, err := NewCategoryName(raw)
	if err != nil {
		return err
	}
	if err := validateCategoryName(name); err != nil {
		return err
	}
	if name.Equals(c.props.Name) {
		return nil
	}
	old := c.props.Name
	c.props.Name = name
	c.addEvent(&CategoryUpdatedEvent{
		BaseEvent: newBaseEvent(c.id),
		OldName:   old.Value(),
		NewName:   name.Value(),
	})
	return nil
}
