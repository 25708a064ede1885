package query

import (
	"context"

	"github.com/UkralStul/graphql-blog-service/internal/application/bus"
	"github.com/UkralStul/graphql-blog-service/internal/application/dto"
	"github.com/UkralStul/graphql-blog-service/internal/domain"
)

// Repositories - хранилища, нужные стороне чтения.
type Repositories struct {
	Users      domain.UserRepository
	Posts      domain.PostRepository
	Categories domain.CategoryRepository
	Comments   domain.CommentRepository
	Responses  domain.CommentResponseRepository
}

// Handlers обслуживает все запросы. Промах по ключу - nil без ошибки.
type Handlers struct {
	repos Repositories
}

func NewHandlers(repos Repositories) *Handlers {
	return &Handlers{repos: repos}
}

// Register регистрирует обработчики в шине.
func (h *Handlers) Register(b *bus.QueryBus) error {
	for _, r := range []struct {
		q  any
		fn bus.Handler
	}{
		{GetUserByID{}, bus.QueryHandlerFunc(h.GetUserByID)},
		{GetUsers{}, bus.QueryHandlerFunc(h.GetUsers)},
		{GetUsersByIDs{}, bus.QueryHandlerFunc(h.GetUsersByIDs)},
		{GetPostByID{}, bus.QueryHandlerFunc(h.GetPostByID)},
		{GetPosts{}, bus.QueryHandlerFunc(h.GetPosts)},
		{GetCategoryByID{}, bus.QueryHandlerFunc(h.GetCategoryByID)},
		{GetCategories{}, bus.QueryHandlerFunc(h.GetCategories)},
		{GetCategoriesByIDs{}, bus.QueryHandlerFunc(h.GetCategoriesByIDs)},
		{GetCommentByID{}, bus.QueryHandlerFunc(h.GetCommentByID)},
		{GetCommentsByPost{}, bus.QueryHandlerFunc(h.GetCommentsByPost)},
		{GetCommentResponseByID{}, bus.QueryHandlerFunc(h.GetCommentResponseByID)},
	} {
		if err := b.Register(r.q, r.fn); err != nil {
			return err
		}
	}
	return nil
}

// === Users ===

func (h *Handlers) GetUserByID(ctx context.Context, q GetUserByID) (*dto.UserDTO, error) {
	u, err := h.repos.Users.FindByID(ctx, domain.NewIdentifier(q.ID))
	if err != nil {
		return nil, err
	}
	return dto.UserToDTO(u), nil
}

func (h *Handlers) GetUsers(ctx context.Context, _ GetUsers) ([]*dto.UserDTO, error) {
	users, err := h.repos.Users.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return dto.UsersToDTOs(users), nil
}

func (h *Handlers) GetUsersByIDs(ctx context.Context, q GetUsersByIDs) ([]*dto.UserDTO, error) {
	if len(q.IDs) == 0 {
		return []*dto.UserDTO{}, nil
	}
	users, err := h.repos.Users.FindByIDs(ctx, domain.NewIdentifiers(q.IDs))
	if err != nil {
		return nil, err
	}
	return dto.UsersToDTOs(users), nil
}

// === Posts ===

func (h *Handlers) GetPostByID(ctx context.Context, q GetPostByID) (*dto.PostDTO, error) {
	p, err := h.repos.Posts.FindByID(ctx, domain.NewIdentifier(q.ID))
	if err != nil {
		return nil, err
	}
	return dto.PostToDTO(p), nil
}

func (h *Handlers) GetPosts(ctx context.Context, q GetPosts) (*dto.PostPage, error) {
	take := q.Take
	switch {
	case take == 0:
		take = DefaultTake
	case take > MaxTake:
		take = MaxTake
	}

	filter := domain.PostFilter{Published: q.Published, Skip: q.Skip, Take: take}
	if q.AuthorID != nil {
		id := domain.NewIdentifier(*q.AuthorID)
		filter.AuthorID = &id
	}
	if q.CategoryID != nil {
		id := domain.NewIdentifier(*q.CategoryID)
		filter.CategoryID = &id
	}

	posts, err := h.repos.Posts.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := h.repos.Posts.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &dto.PostPage{
		Items:   dto.PostsToDTOs(posts),
		Total:   total,
		HasMore: q.Skip+take < total,
	}, nil
}

// === Categories ===

func (h *Handlers) GetCategoryByID(ctx context.Context, q GetCategoryByID) (*dto.CategoryDTO, error) {
	c, err := h.repos.Categories.FindByID(ctx, domain.NewIdentifier(q.ID))
	if err != nil {
		return nil, err
	}
	return dto.CategoryToDTO(c), nil
}

func (h *Handlers) GetCategories(ctx context.Context, _ GetCategories) ([]*dto.CategoryDTO, error) {
	categories, err := h.repos.Categories.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return dto.CategoriesToDTOs(categories), nil
}

func (h *Handlers) GetCategoriesByIDs(ctx context.Context, q GetCategoriesByIDs) ([]*dto.CategoryDTO, error) {
	if len(q.IDs) == 0 {
		return []*dto.CategoryDTO{}, nil
	}
	categories, err := h.repos.Categories.FindByIDs(ctx, domain.NewIdentifiers(q.IDs))
	if err != nil {
		return nil, err
	}
	return dto.CategoriesToDTOs(categories), nil
}

// === Comments ===

func (h *Handlers) GetCommentByID(ctx context.Context, q GetCommentByID) (*dto.CommentDTO, error) {
	c, err := h.repos.Comments.FindByID(ctx, domain.NewIdentifier(q.ID))
	if err != nil || c == nil {
		return nil, err
	}
	if err := h.attachResponses(ctx, []*domain.Comment{c}); err != nil {
		return nil, err
	}
	return dto.CommentToDTO(c), nil
}

// GetCommentsByPost загружает ответы одним запросом на все комментарии.
func (h *Handlers) GetCommentsByPost(ctx context.Context, q GetCommentsByPost) ([]*dto.CommentDTO, error) {
	comments, err := h.repos.Comments.FindByPostID(ctx, domain.NewIdentifier(q.PostID))
	if err != nil {
		return nil, err
	}
	if err := h.attachResponses(ctx, comments); err != nil {
		return nil, err
	}
	return dto.CommentsToDTOs(comments), nil
}

func (h *Handlers) GetCommentResponseByID(ctx context.Context, q GetCommentResponseByID) (*dto.CommentResponseDTO, error) {
	r, err := h.repos.Responses.FindByID(ctx, domain.NewIdentifier(q.ID))
	if err != nil {
		return nil, err
	}
	return dto.CommentResponseToDTO(r), nil
}

func (h *Handlers) attachResponses(ctx context.Context, comments []*domain.Comment) error {
	if len(comments) == 0 {
		return nil
	}
	byID := make(map[int64]*domain.Comment, len(comments))
	ids := make([]domain.Identifier, 0, len(comments))
	for _, c := range comments {
		byID[c.ID().Value()] = c
		ids = append(ids, c.ID())
	}

	responses, err := h.repos.Responses.FindByCommentIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, r := range responses {
		c, ok := byID[r.CommentID().Value()]
		if !ok {
			continue
		}
		if err := c.AddResponse(r); err != nil {
			return err
		}
	}
	return nil
}
