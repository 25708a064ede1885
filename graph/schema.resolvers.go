package graph

import (
	"context"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/UkralStul/graphql-blog-service/internal/apperrors"
	"github.com/UkralStul/graphql-blog-service/internal/application/bus"
	"github.com/UkralStul/graphql-blog-service/internal/application/command"
	"github.com/UkralStul/graphql-blog-service/internal/application/dto"
	"github.com/UkralStul/graphql-blog-service/internal/application/query"
	"github.com/UkralStul/graphql-blog-service/internal/auth"
)

type idArgs struct {
	ID graphql.ID
}

// === Query ===

func (r *Resolver) Me(ctx context.Context) (*userResolver, error) {
	p := auth.FromContext(ctx)
	if p == nil {
		return nil, nil
	}
	return r.userByID(ctx, p.UserID)
}

func (r *Resolver) User(ctx context.Context, args idArgs) (*userResolver, error) {
	id, err := parseID(args.ID)
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	return r.userByID(ctx, id)
}

func (r *Resolver) Users(ctx context.Context) ([]*userResolver, error) {
	if err := r.requireAdmin(ctx); err != nil {
		return nil, err
	}
	users, err := bus.Ask[[]*dto.UserDTO](ctx, r.queries, query.GetUsers{})
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	out := make([]*userResolver, len(users))
	for i, u := range users {
		out[i] = &userResolver{r: r, u: u}
	}
	return out, nil
}

func (r *Resolver) userByID(ctx context.Context, id int64) (*userResolver, error) {
	u, err := bus.Ask[*dto.UserDTO](ctx, r.queries, query.GetUserByID{ID: id})
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	if u == nil {
		return nil, nil
	}
	return &userResolver{r: r, u: u}, nil
}

func (r *Resolver) Post(ctx context.Context, args idArgs) (*postResolver, error) {
	id, err := parseID(args.ID)
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	return r.visiblePost(ctx, id)
}

type postFilterInput struct {
	Published  *bool
	AuthorID   *graphql.ID
	CategoryID *graphql.ID
	Skip       *int32
	Take       *int32
}

func (r *Resolver) Posts(ctx context.Context, args struct{ Filter *postFilterInput }) (*postPageResolver, error) {
	var q query.GetPosts
	if f := args.Filter; f != nil {
		q.Published = f.Published
		if f.AuthorID != nil {
			id, err := parseID(*f.AuthorID)
			if err != nil {
				return nil, r.fail(ctx, err)
			}
			q.AuthorID = &id
		}
		if f.CategoryID != nil {
			id, err := parseID(*f.CategoryID)
			if err != nil {
				return nil, r.fail(ctx, err)
			}
			q.CategoryID = &id
		}
		pageArgs{Skip: f.Skip, Take: f.Take}.apply(&q)
	}
	return r.postPage(ctx, q)
}

func (r *Resolver) Category(ctx context.Context, args idArgs) (*categoryResolver, error) {
	id, err := parseID(args.ID)
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	c, err := bus.Ask[*dto.CategoryDTO](ctx, r.queries, query.GetCategoryByID{ID: id})
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	if c == nil {
		return nil, nil
	}
	return &categoryResolver{r: r, c: c}, nil
}

func (r *Resolver) Categories(ctx context.Context) ([]*categoryResolver, error) {
	cats, err := bus.Ask[[]*dto.CategoryDTO](ctx, r.queries, query.GetCategories{})
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	out := make([]*categoryResolver, len(cats))
	for i, c := range cats {
		out[i] = &categoryResolver{r: r, c: c}
	}
	return out, nil
}

// Comment возвращает nil, если пост комментария скрыт от вызывающего.
func (r *Resolver) Comment(ctx context.Context, args idArgs) (*commentResolver, error) {
	id, err := parseID(args.ID)
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	c, err := bus.Ask[*dto.CommentDTO](ctx, r.queries, query.GetCommentByID{ID: id})
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	if c == nil {
		return nil, nil
	}
	post, err := r.visiblePost(ctx, c.PostID)
	if err != nil || post == nil {
		return nil, err
	}
	return &commentResolver{r: r, c: c}, nil
}

func (r *Resolver) Comments(ctx context.Context, args struct{ PostID graphql.ID }) ([]*commentResolver, error) {
	postID, err := parseID(args.PostID)
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	post, err := r.visiblePost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return []*commentResolver{}, nil
	}
	comments, err := bus.Ask[[]*dto.CommentDTO](ctx, r.queries, query.GetCommentsByPost{PostID: postID})
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	return r.comments(comments), nil
}

// === Mutation: пользователи ===

type registerInput struct {
	Email    string
	Username string
	Password string
}

func (r *Resolver) Register(ctx context.Context, args struct{ Input registerInput }) (*userResolver, error) {
	u, err := bus.Send[*dto.UserDTO](ctx, r.commands, command.CreateUser{
		Email:    args.Input.Email,
		Username: args.Input.Username,
		Password: args.Input.Password,
	})
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	return &userResolver{r: r, u: u, self: true}, nil
}

type loginInput struct {
	Email    string
	Password string
}

func (r *Resolver) Login(ctx context.Context, args struct{ Input loginInput }) (*authPayloadResolver, error) {
	p, err := bus.Send[*dto.AuthPayload](ctx, r.commands, command.Login{
		Email:    args.Input.Email,
		Password: args.Input.Password,
	})
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	return &authPayloadResolver{r: r, p: p}, nil
}

type updateUserInput struct {
	Email    *string
	Username *string
	Password *string
	Role     *string
}

func (r *Resolver) UpdateUser(ctx context.Context, args struct {
	ID    graphql.ID
	Input updateUserInput
}) (*userResolver, error) {
	actor, err := r.currentActor(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID(args.ID)
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	u, err := bus.Send[*dto.UserDTO](ctx, r.commands, command.UpdateUser{
		Actor:    actor,
		ID:       id,
		Email:    args.Input.Email,
		Username: args.Input.Username,
		Password: args.Input.Password,
		Role:     args.Input.Role,
	})
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	return &userResolver{r: r, u: u}, nil
}

func (r *Resolver) DeleteUser(ctx context.Context, args idArgs) (*deleteResultResolver, error) {
	return r.delete(ctx, args.ID, func(actor command.Actor, id int64) any {
		return command.DeleteUser{Actor: actor, ID: id}
	})
}

// === Mutation: посты ===

type createPostInput struct {
	Title       string
	Content     *string
	CategoryIDs *[]graphql.ID
}

func (r *Resolver) CreatePost(ctx context.Context, args struct{ Input createPostInput }) (*postResolver, error) {
	actor, err := r.currentActor(ctx)
	if err != nil {
		return nil, err
	}
	cmd := command.CreatePost{Actor: actor, Title: args.Input.Title}
	if args.Input.Content != nil {
		cmd.Content = *args.Input.Content
	}
	if args.Input.CategoryIDs != nil {
		if cmd.CategoryIDs, err = parseIDs(*args.Input.CategoryIDs); err != nil {
			return nil, r.fail(ctx, err)
		}
	}
	return r.sendPost(ctx, cmd)
}

type updatePostInput struct {
	Title       *string
	Content     *string
	CategoryIDs *[]graphql.ID
}

func (r *Resolver) UpdatePost(ctx context.Context, args struct {
	ID    graphql.ID
	Input updatePostInput
}) (*postResolver, error) {
	actor, err := r.currentActor(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID(args.ID)
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	cmd := command.UpdatePost{Actor: actor, ID: id, Title: args.Input.Title, Content: args.Input.Content}
	if args.Input.CategoryIDs != nil {
		ids, err := parseIDs(*args.Input.CategoryIDs)
		if err != nil {
			return nil, r.fail(ctx, err)
		}
		cmd.CategoryIDs = &ids
	}
	return r.sendPost(ctx, cmd)
}

func (r *Resolver) DeletePost(ctx context.Context, args idArgs) (*deleteResultResolver, error) {
	return r.delete(ctx, args.ID, func(actor command.Actor, id int64) any {
		return command.DeletePost{Actor: actor, ID: id}
	})
}

func (r *Resolver) PublishPost(ctx context.Context, args idArgs) (*postResolver, error) {
	actor, err := r.currentActor(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID(args.ID)
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	return r.sendPost(ctx, command.PublishPost{Actor: actor, ID: id})
}

func (r *Resolver) UnpublishPost(ctx context.Context, args idArgs) (*postResolver, error) {
	actor, err := r.currentActor(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID(args.ID)
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	return r.sendPost(ctx, command.UnpublishPost{Actor: actor, ID: id})
}

func (r *Resolver) sendPost(ctx context.Context, cmd any) (*postResolver, error) {
	p, err := bus.Send[*dto.PostDTO](ctx, r.commands, cmd)
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	return &postResolver{r: r, p: p}, nil
}

// === Mutation: категории ===

func (r *Resolver) CreateCategory(ctx context.Context, args struct{ Name string }) (*categoryResolver, error) {
	if err := r.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return r.sendCategory(ctx, command.CreateCategory{Name: args.Name})
}

func (r *Resolver) UpdateCategory(ctx context.Context, args struct {
	ID   graphql.ID
	Name string
}) (*categoryResolver, error) {
	if err := r.requireAdmin(ctx); err != nil {
		return nil, err
	}
	id, err := parseID(args.ID)
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	return r.sendCategory(ctx, command.UpdateCategory{ID: id, Name: args.Name})
}

func (r *Resolver) DeleteCategory(ctx context.Context, args idArgs) (*deleteResultResolver, error) {
	if err := r.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return r.delete(ctx, args.ID, func(_ command.Actor, id int64) any {
		return command.DeleteCategory{ID: id}
	})
}

func (r *Resolver) sendCategory(ctx context.Context, cmd any) (*categoryResolver, error) {
	c, err := bus.Send[*dto.CategoryDTO](ctx, r.commands, cmd)
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	return &categoryResolver{r: r, c: c}, nil
}

// === Mutation: комментарии ===

func (r *Resolver) CreateComment(ctx context.Context, args struct {
	PostID  graphql.ID
	Content string
}) (*commentResolver, error) {
	actor, err := r.currentActor(ctx)
	if err != nil {
		return nil, err
	}
	postID, err := parseID(args.PostID)
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	return r.sendComment(ctx, command.CreateComment{Actor: actor, PostID: postID, Content: args.Content})
}

func (r *Resolver) UpdateComment(ctx context.Context, args struct {
	ID      graphql.ID
	Content string
}) (*commentResolver, error) {
	actor, err := r.currentActor(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID(args.ID)
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	return r.sendComment(ctx, command.UpdateComment{Actor: actor, ID: id, Content: args.Content})
}

func (r *Resolver) DeleteComment(ctx context.Context, args idArgs) (*deleteResultResolver, error) {
	return r.delete(ctx, args.ID, func(actor command.Actor, id int64) any {
		return command.DeleteComment{Actor: actor, ID: id}
	})
}

func (r *Resolver) sendComment(ctx context.Context, cmd any) (*commentResolver, error) {
	c, err := bus.Send[*dto.CommentDTO](ctx, r.commands, cmd)
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	return &commentResolver{r: r, c: c}, nil
}

func (r *Resolver) ReplyToComment(ctx context.Context, args struct {
	CommentID graphql.ID
	Content   string
}) (*replyResolver, error) {
	actor, err := r.currentActor(ctx)
	if err != nil {
		return nil, err
	}
	commentID, err := parseID(args.CommentID)
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	return r.sendReply(ctx, command.CreateCommentResponse{Actor: actor, CommentID: commentID, Content: args.Content})
}

func (r *Resolver) UpdateReply(ctx context.Context, args struct {
	ID      graphql.ID
	Content string
}) (*replyResolver, error) {
	actor, err := r.currentActor(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID(args.ID)
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	return r.sendReply(ctx, command.UpdateCommentResponse{Actor: actor, ID: id, Content: args.Content})
}

func (r *Resolver) DeleteReply(ctx context.Context, args idArgs) (*deleteResultResolver, error) {
	return r.delete(ctx, args.ID, func(actor command.Actor, id int64) any {
		return command.DeleteCommentResponse{Actor: actor, ID: id}
	})
}

func (r *Resolver) sendReply(ctx context.Context, cmd any) (*replyResolver, error) {
	c, err := bus.Send[*dto.CommentResponseDTO](ctx, r.commands, cmd)
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	return &replyResolver{r: r, c: c}, nil
}

// delete - общий путь для всех удалений: аутентификация, разбор id, команда.
func (r *Resolver) delete(ctx context.Context, rawID graphql.ID, build func(command.Actor, int64) any) (*deleteResultResolver, error) {
	actor, err := r.currentActor(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID(rawID)
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	res, err := bus.Send[*dto.DeleteResult](ctx, r.commands, build(actor, id))
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	return &deleteResultResolver{res: res}, nil
}

// === Subscription ===

// CommentAdded доставляет новые комментарии поста, пока клиент подписан.
func (r *Resolver) CommentAdded(ctx context.Context, args struct{ PostID graphql.ID }) (<-chan *commentResolver, error) {
	postID, err := parseID(args.PostID)
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	post, err := r.visiblePost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperrors.NewNotFoundf("Post with ID %d not found.", postID)
	}

	in := r.observer.Subscribe(ctx, postID)
	out := make(chan *commentResolver)
	go func() {
		defer close(out)
		for c := range in {
			select {
			case out <- &commentResolver{r: r, c: c}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
