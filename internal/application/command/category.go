package command

import (
	"context"

	"github.com/UkralStul/graphql-blog-service/internal/application/dto"
	"github.com/UkralStul/graphql-blog-service/internal/application/query"
	"github.com/UkralStul/graphql-blog-service/internal/domain"
)

// Команды категорий выполняются только администратором; роль проверяет слой GraphQL.

type CreateCategory struct {
	Name string
}

type UpdateCategory struct {
	ID   int64 `validate:"gt=0"`
	Name string
}

type DeleteCategory struct {
	ID int64 `validate:"gt=0"`
}

func (h *Handlers) CreateCategory(ctx context.Context, cmd CreateCategory) (*dto.CategoryDTO, error) {
	name, err := domain.NewCategoryName(cmd.Name)
	if err != nil {
		return nil, err
	}
	// Сначала границы длины имени, потом уникальность.
	category, err := domain.CreateCategory(domain.CategoryProps{Name: name}, domain.Identifier{})
	if err != nil {
		return nil, err
	}
	existing, err := h.Categories.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.NewCategoryNameTakenError(name)
	}

	saved, err := h.Categories.Save(ctx, category)
	if err != nil {
		return nil, err
	}
	category.AssignID(saved.ID())
	if err := category.PublishEvents(ctx, h.Events); err != nil {
		return nil, err
	}
	return refetch[dto.CategoryDTO](ctx, h.Queries, query.GetCategoryByID{ID: saved.ID().Value()}, createdFailure("category"))
}

func (h *Handlers) UpdateCategory(ctx context.Context, cmd UpdateCategory) (*dto.CategoryDTO, error) {
	id := domain.NewIdentifier(cmd.ID)
	category, err := h.Categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, domain.NewEntityNotFoundError("Category", id)
	}

	name, err := domain.NewCategoryName(cmd.Name)
	if err != nil {
		return nil, err
	}
	if name.Equals(category.Name()) {
		category.ClearEvents()
		return refetch[dto.CategoryDTO](ctx, h.Queries, query.GetCategoryByID{ID: cmd.ID}, updatedFailure("category"))
	}

	if err := category.UpdateName(name.Value()); err != nil {
		return nil, err
	}
	owner, err := h.Categories.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if owner != nil && !owner.ID().Equals(id) {
		return nil, domain.NewCategoryNameTakenError(name)
	}

	if _, err := h.Categories.Save(ctx, category); err != nil {
		return nil, err
	}
	if err := category.PublishEvents(ctx, h.Events); err != nil {
		return nil, err
	}
	return refetch[dto.CategoryDTO](ctx, h.Queries, query.GetCategoryByID{ID: cmd.ID}, updatedFailure("category"))
}

// DeleteCategory запрещено, пока категория привязана хотя бы к одному посту.
func (h *Handlers) DeleteCategory(ctx context.Context, cmd DeleteCategory) (*dto.DeleteResult, error) {
	id := domain.NewIdentifier(cmd.ID)
	category, err := h.Categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, domain.NewEntityNotFoundError("Category", id)
	}

	inUse, err := h.Posts.Count(ctx, domain.PostFilter{CategoryID: &id})
	if err != nil {
		return nil, err
	}
	if inUse > 0 {
		return nil, domain.NewCategoryInUseError(id, inUse)
	}

	ok, err := h.Categories.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		h.logLostDelete("category", id)
		return &dto.DeleteResult{Success: false}, nil
	}
	if err := h.Events.Publish(ctx, domain.NewCategoryDeletedEvent(id)); err != nil {
		return nil, err
	}
	return &dto.DeleteResult{Success: true}, nil
}
