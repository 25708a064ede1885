package command

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/UkralStul/graphql-blog-service/internal/application/dto"
	"github.com/UkralStul/graphql-blog-service/internal/application/query"
	"github.com/UkralStul/graphql-blog-service/internal/domain"
)

// Комментарии и ответы изменяет и удаляет только автор.

type CreateComment struct {
	Actor   Actor
	PostID  int64 `validate:"gt=0"`
	Content string
}

type UpdateComment struct {
	Actor   Actor
	ID      int64 `validate:"gt=0"`
	Content string
}

type DeleteComment struct {
	Actor Actor
	ID    int64 `validate:"gt=0"`
}

type CreateCommentResponse struct {
	Actor     Actor
	CommentID int64 `validate:"gt=0"`
	Content   string
}

type UpdateCommentResponse struct {
	Actor   Actor
	ID      int64 `validate:"gt=0"`
	Content string
}

type DeleteCommentResponse struct {
	Actor Actor
	ID    int64 `validate:"gt=0"`
}

// === Comment ===

func (h *Handlers) CreateComment(ctx context.Context, cmd CreateComment) (*dto.CommentDTO, error) {
	authorID := cmd.Actor.ID()
	postID := domain.NewIdentifier(cmd.PostID)

	var (
		author *domain.User
		post   *domain.Post
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		author, err = h.Users.FindByID(gctx, authorID)
		return err
	})
	g.Go(func() error {
		var err error
		post, err = h.Posts.FindByID(gctx, postID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if author == nil {
		return nil, domain.NewEntityNotFoundError("User", authorID)
	}
	if post == nil || !cmd.Actor.canSee(post) {
		return nil, domain.NewEntityNotFoundError("Post", postID)
	}

	content, err := domain.NewCommentContent(cmd.Content)
	if err != nil {
		return nil, err
	}
	comment, err := domain.CreateComment(domain.CommentProps{
		Content:  content,
		PostID:   postID,
		AuthorID: authorID,
	}, domain.Identifier{})
	if err != nil {
		return nil, err
	}

	saved, err := h.Comments.Save(ctx, comment)
	if err != nil {
		return nil, err
	}
	comment.AssignID(saved.ID())
	if err := comment.PublishEvents(ctx, h.Events); err != nil {
		return nil, err
	}
	return refetch[dto.CommentDTO](ctx, h.Queries, query.GetCommentByID{ID: saved.ID().Value()}, createdFailure("comment"))
}

func (h *Handlers) UpdateComment(ctx context.Context, cmd UpdateComment) (*dto.CommentDTO, error) {
	comment, err := h.loadOwnComment(ctx, cmd.Actor, cmd.ID, "update this comment")
	if err != nil {
		return nil, err
	}
	content, err := domain.NewCommentContent(cmd.Content)
	if err != nil {
		return nil, err
	}
	if content.Equals(comment.Content()) {
		comment.ClearEvents()
		return refetch[dto.CommentDTO](ctx, h.Queries, query.GetCommentByID{ID: cmd.ID}, updatedFailure("comment"))
	}
	if err := comment.UpdateContent(content.Value()); err != nil {
		return nil, err
	}

	if _, err := h.Comments.Save(ctx, comment); err != nil {
		return nil, err
	}
	if err := comment.PublishEvents(ctx, h.Events); err != nil {
		return nil, err
	}
	return refetch[dto.CommentDTO](ctx, h.Queries, query.GetCommentByID{ID: cmd.ID}, updatedFailure("comment"))
}

func (h *Handlers) DeleteComment(ctx context.Context, cmd DeleteComment) (*dto.DeleteResult, error) {
	comment, err := h.loadOwnComment(ctx, cmd.Actor, cmd.ID, "delete this comment")
	if err != nil {
		return nil, err
	}
	ok, err := h.Comments.Delete(ctx, comment.ID())
	if err != nil {
		return nil, err
	}
	if !ok {
		h.logLostDelete("comment", comment.ID())
		return &dto.DeleteResult{Success: false}, nil
	}
	if err := h.Events.Publish(ctx, domain.NewCommentDeletedEvent(comment.ID(), comment.PostID())); err != nil {
		return nil, err
	}
	return &dto.DeleteResult{Success: true}, nil
}

func (h *Handlers) loadOwnComment(ctx context.Context, actor Actor, rawID int64, action string) (*domain.Comment, error) {
	id := domain.NewIdentifier(rawID)
	comment, err := h.Comments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, domain.NewEntityNotFoundError("Comment", id)
	}
	if !comment.IsAuthoredBy(actor.ID()) {
		return nil, forbidden(action)
	}
	return comment, nil
}

// === Comment response ===

func (h *Handlers) CreateCommentResponse(ctx context.Context, cmd CreateCommentResponse) (*dto.CommentResponseDTO, error) {
	authorID := cmd.Actor.ID()
	commentID := domain.NewIdentifier(cmd.CommentID)

	var (
		author *domain.User
		parent *domain.Comment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		author, err = h.Users.FindByID(gctx, authorID)
		return err
	})
	g.Go(func() error {
		var err error
		parent, err = h.Comments.FindByID(gctx, commentID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if author == nil {
		return nil, domain.NewEntityNotFoundError("User", authorID)
	}
	if parent == nil {
		return nil, domain.NewEntityNotFoundError("Comment", commentID)
	}
	// Черновик чужого поста не раскрываем, в том числе через ответ.
	post, err := h.Posts.FindByID(ctx, parent.PostID())
	if err != nil {
		return nil, err
	}
	if post == nil || !cmd.Actor.canSee(post) {
		return nil, domain.NewEntityNotFoundError("Post", parent.PostID())
	}

	content, err := domain.NewCommentContent(cmd.Content)
	if err != nil {
		return nil, err
	}
	response, err := domain.CreateCommentResponse(domain.CommentResponseProps{
		Content:   content,
		CommentID: parent.ID(),
		PostID:    parent.PostID(),
		AuthorID:  authorID,
	}, domain.Identifier{})
	if err != nil {
		return nil, err
	}
	if err := parent.AddResponse(response); err != nil {
		return nil, err
	}

	saved, err := h.Responses.Save(ctx, response)
	if err != nil {
		return nil, err
	}
	response.AssignID(saved.ID())
	if err := response.PublishEvents(ctx, h.Events); err != nil {
		return nil, err
	}
	return refetch[dto.CommentResponseDTO](ctx, h.Queries,
		query.GetCommentResponseByID{ID: saved.ID().Value()}, createdFailure("comment response"))
}

func (h *Handlers) UpdateCommentResponse(ctx context.Context, cmd UpdateCommentResponse) (*dto.CommentResponseDTO, error) {
	response, err := h.loadOwnResponse(ctx, cmd.Actor, cmd.ID, "update this reply")
	if err != nil {
		return nil, err
	}
	content, err := domain.NewCommentContent(cmd.Content)
	if err != nil {
		return nil, err
	}
	if content.Equals(response.Content()) {
		response.ClearEvents()
		return refetch[dto.CommentResponseDTO](ctx, h.Queries,
			query.GetCommentResponseByID{ID: cmd.ID}, updatedFailure("comment response"))
	}
	if err := response.UpdateContent(content.Value()); err != nil {
		return nil, err
	}

	if _, err := h.Responses.Save(ctx, response); err != nil {
		return nil, err
	}
	if err := response.PublishEvents(ctx, h.Events); err != nil {
		return nil, err
	}
	return refetch[dto.CommentResponseDTO](ctx, h.Queries,
		query.GetCommentResponseByID{ID: cmd.ID}, updatedFailure("comment response"))
}

func (h *Handlers) DeleteCommentResponse(ctx context.Context, cmd DeleteCommentResponse) (*dto.DeleteResult, error) {
	response, err := h.loadOwnResponse(ctx, cmd.Actor, cmd.ID, "delete this reply")
	if err != nil {
		return nil, err
	}
	ok, err := h.Responses.Delete(ctx, response.ID())
	if err != nil {
		return nil, err
	}
	if !ok {
		h.logLostDelete("comment response", response.ID())
		return &dto.DeleteResult{Success: false}, nil
	}
	event := domain.NewCommentResponseDeletedEvent(response.ID(), response.CommentID())
	if err := h.Events.Publish(ctx, event); err != nil {
		return nil, err
	}
	return &dto.DeleteResult{Success: true}, nil
}

func (h *Handlers) loadOwnResponse(ctx context.Context, actor Actor, rawID int64, action string) (*domain.CommentResponse, error) {
	id := domain.NewIdentifier(rawID)
	response, err := h.Responses.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if response == nil {
		return nil, domain.NewEntityNotFoundError("Comment response", id)
	}
	if !response.IsAuthoredBy(actor.ID()) {
		return nil, forbidden(action)
	}
	return response, nil
}
