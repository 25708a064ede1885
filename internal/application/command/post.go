package command

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/UkralStul/graphql-blog-service/internal/application/dto"
	"github.com/UkralStul/graphql-blog-service/internal/application/query"
	"github.com/UkralStul/graphql-blog-service/internal/domain"
)

type CreatePost struct {
	Actor       Actor
	Title       string
	Content     string
	CategoryIDs []int64 `validate:"dive,gt=0"`
}

// UpdatePost - частичное обновление. CategoryIDs, если задан, заменяет набор целиком.
type UpdatePost struct {
	Actor       Actor
	ID          int64 `validate:"gt=0"`
	Title       *string
	Content     *string
	CategoryIDs *[]int64
}

type DeletePost struct {
	Actor Actor
	ID    int64 `validate:"gt=0"`
}

type PublishPost struct {
	Actor Actor
	ID    int64 `validate:"gt=0"`
}

type UnpublishPost struct {
	Actor Actor
	ID    int64 `validate:"gt=0"`
}

func (h *Handlers) CreatePost(ctx context.Context, cmd CreatePost) (*dto.PostDTO, error) {
	authorID := cmd.Actor.ID()
	categoryIDs := domain.NewIdentifiers(cmd.CategoryIDs)

	// Автор и категории независимы и проверяются параллельно.
	var author *domain.User
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		author, err = h.Users.FindByID(gctx, authorID)
		return err
	})
	g.Go(func() error {
		return h.ensureCategoriesExist(gctx, categoryIDs)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if author == nil {
		return nil, domain.NewEntityNotFoundError("User", authorID)
	}

	title, err := domain.NewPostTitle(cmd.Title)
	if err != nil {
		return nil, err
	}
	props := domain.PostProps{Title: title, AuthorID: authorID, CategoryIDs: categoryIDs}
	if cmd.Content != "" {
		if props.Content, err = domain.NewPostContent(cmd.Content); err != nil {
			return nil, err
		}
	}

	post, err := domain.CreatePost(props, domain.Identifier{})
	if err != nil {
		return nil, err
	}
	saved, err := h.Posts.Save(ctx, post)
	if err != nil {
		return nil, err
	}
	post.AssignID(saved.ID())
	if err := post.PublishEvents(ctx, h.Events); err != nil {
		return nil, err
	}
	return refetch[dto.PostDTO](ctx, h.Queries, query.GetPostByID{ID: saved.ID().Value()}, createdFailure("post"))
}

func (h *Handlers) UpdatePost(ctx context.Context, cmd UpdatePost) (*dto.PostDTO, error) {
	post, err := h.loadOwnPost(ctx, cmd.Actor, cmd.ID, "update this post")
	if err != nil {
		return nil, err
	}

	changed := false
	if cmd.Title != nil {
		title, err := domain.NewPostTitle(*cmd.Title)
		if err != nil {
			return nil, err
		}
		if !title.Equals(post.Title()) {
			if err := post.UpdateTitle(title.Value()); err != nil {
				return nil, err
			}
			changed = true
		}
	}
	if cmd.Content != nil {
		content, err := domain.NewPostContent(*cmd.Content)
		if err != nil {
			return nil, err
		}
		if !content.Equals(post.Content()) {
			if err := post.UpdateContent(content.Value()); err != nil {
				return nil, err
			}
			changed = true
		}
	}
	if cmd.CategoryIDs != nil {
		ids := domain.NewIdentifiers(*cmd.CategoryIDs)
		if err := h.ensureCategoriesExist(ctx, ids); err != nil {
			return nil, err
		}
		if post.SetCategories(ids) {
			changed = true
		}
	}

	if !changed {
		post.ClearEvents()
		return refetch[dto.PostDTO](ctx, h.Queries, query.GetPostByID{ID: cmd.ID}, updatedFailure("post"))
	}
	return h.savePost(ctx, post)
}

func (h *Handlers) DeletePost(ctx context.Context, cmd DeletePost) (*dto.DeleteResult, error) {
	post, err := h.loadOwnPost(ctx, cmd.Actor, cmd.ID, "delete this post")
	if err != nil {
		return nil, err
	}
	ok, err := h.Posts.Delete(ctx, post.ID())
	if err != nil {
		return nil, err
	}
	if !ok {
		h.logLostDelete("post", post.ID())
		return &dto.DeleteResult{Success: false}, nil
	}
	if err := h.Events.Publish(ctx, domain.NewPostDeletedEvent(post.ID())); err != nil {
		return nil, err
	}
	return &dto.DeleteResult{Success: true}, nil
}

// PublishPost: ошибка перехода состояния прерывает конвейер до сохранения.
func (h *Handlers) PublishPost(ctx context.Context, cmd PublishPost) (*dto.PostDTO, error) {
	post, err := h.loadOwnPost(ctx, cmd.Actor, cmd.ID, "publish this post")
	if err != nil {
		return nil, err
	}
	if err := post.Publish(); err != nil {
		return nil, err
	}
	return h.savePost(ctx, post)
}

func (h *Handlers) UnpublishPost(ctx context.Context, cmd UnpublishPost) (*dto.PostDTO, error) {
	post, err := h.loadOwnPost(ctx, cmd.Actor, cmd.ID, "unpublish this post")
	if err != nil {
		return nil, err
	}
	if err := post.Unpublish(); err != nil {
		return nil, err
	}
	return h.savePost(ctx, post)
}

func (h *Handlers) loadOwnPost(ctx context.Context, actor Actor, rawID int64, action string) (*domain.Post, error) {
	id := domain.NewIdentifier(rawID)
	post, err := h.Posts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, domain.NewEntityNotFoundError("Post", id)
	}
	if !actor.canModify(post.AuthorID()) {
		return nil, forbidden(action)
	}
	return post, nil
}

func (h *Handlers) savePost(ctx context.Context, post *domain.Post) (*dto.PostDTO, error) {
	if _, err := h.Posts.Save(ctx, post); err != nil {
		return nil, err
	}
	if err := post.PublishEvents(ctx, h.Events); err != nil {
		return nil, err
	}
	return refetch[dto.PostDTO](ctx, h.Queries, query.GetPostByID{ID: post.ID().Value()}, updatedFailure("post"))
}

// ensureCategoriesExist возвращает NotFound для первой отсутствующей категории.
func (h *Handlers) ensureCategoriesExist(ctx context.Context, ids []domain.Identifier) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := h.Categories.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	known := make(map[int64]struct{}, len(found))
	for _, c := range found {
		known[c.ID().Value()] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := known[id.Value()]; !ok {
			return domain.NewEntityNotFoundError("Category", id)
		}
	}
	return nil
}
