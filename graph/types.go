package graph

import (
	"context"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/UkralStul/graphql-blog-service/internal/application/bus"
	"github.com/UkralStul/graphql-blog-service/internal/application/dto"
	"github.com/UkralStul/graphql-blog-service/internal/application/query"
	"github.com/UkralStul/graphql-blog-service/internal/auth"
	"github.com/UkralStul/graphql-blog-service/internal/dataloader"
)

// === User ===

type userResolver struct {
	r *Resolver
	u *dto.UserDTO
	// self - ответ на register/login, email принадлежит самому вызывающему.
	self bool
}

func (u *userResolver) ID() graphql.ID   { return toID(u.u.ID) }
func (u *userResolver) Username() string { return u.u.Username }
func (u *userResolver) Role() string     { return u.u.Role }

func (u *userResolver) Email(ctx context.Context) *string {
	if !u.self && !canSeeEmail(ctx, u.u.ID) {
		return nil
	}
	return &u.u.Email
}

func (u *userResolver) CreatedAt() graphql.Time { return graphql.Time{Time: u.u.CreatedAt} }
func (u *userResolver) UpdatedAt() graphql.Time { return graphql.Time{Time: u.u.UpdatedAt} }

type pageArgs struct {
	Skip *int32
	Take *int32
}

func (u *userResolver) Posts(ctx context.Context, args pageArgs) (*postPageResolver, error) {
	authorID := u.u.ID
	q := query.GetPosts{AuthorID: &authorID}
	args.apply(&q)
	return u.r.postPage(ctx, q)
}

func (a pageArgs) apply(q *query.GetPosts) {
	if a.Skip != nil {
		q.Skip = int(*a.Skip)
	}
	if a.Take != nil {
		q.Take = int(*a.Take)
	}
}

// === Category ===

type categoryResolver struct {
	r *Resolver
	c *dto.CategoryDTO
}

func (c *categoryResolver) ID() graphql.ID { return toID(c.c.ID) }
func (c *categoryResolver) Name() string   { return c.c.Name }

func (c *categoryResolver) Posts(ctx context.Context, args pageArgs) (*postPageResolver, error) {
	categoryID := c.c.ID
	q := query.GetPosts{CategoryID: &categoryID}
	args.apply(&q)
	return c.r.postPage(ctx, q)
}

// === Post ===

type postResolver struct {
	r *Resolver
	p *dto.PostDTO
}

func (p *postResolver) ID() graphql.ID          { return toID(p.p.ID) }
func (p *postResolver) Title() string           { return p.p.Title }
func (p *postResolver) Content() string         { return p.p.Content }
func (p *postResolver) Published() bool         { return p.p.Published }
func (p *postResolver) CreatedAt() graphql.Time { return graphql.Time{Time: p.p.CreatedAt} }
func (p *postResolver) UpdatedAt() graphql.Time { return graphql.Time{Time: p.p.UpdatedAt} }

func (p *postResolver) Author(ctx context.Context) (*userResolver, error) {
	return p.r.loadUser(ctx, p.p.AuthorID)
}

func (p *postResolver) Categories(ctx context.Context) ([]*categoryResolver, error) {
	cats, err := dataloader.For(ctx, p.r.queries).LoadCategories(ctx, p.p.CategoryIDs)
	if err != nil {
		return nil, p.r.fail(ctx, err)
	}
	out := make([]*categoryResolver, len(cats))
	for i, c := range cats {
		out[i] = &categoryResolver{r: p.r, c: c}
	}
	return out, nil
}

func (p *postResolver) Comments(ctx context.Context) ([]*commentResolver, error) {
	comments, err := bus.Ask[[]*dto.CommentDTO](ctx, p.r.queries, query.GetCommentsByPost{PostID: p.p.ID})
	if err != nil {
		return nil, p.r.fail(ctx, err)
	}
	return p.r.comments(comments), nil
}

type postPageResolver struct {
	r    *Resolver
	page *dto.PostPage
}

func (pp *postPageResolver) Items() []*postResolver {
	out := make([]*postResolver, len(pp.page.Items))
	for i, p := range pp.page.Items {
		out[i] = &postResolver{r: pp.r, p: p}
	}
	return out
}

func (pp *postPageResolver) Total() int32  { return int32(pp.page.Total) }
func (pp *postPageResolver) HasMore() bool { return pp.page.HasMore }

// === Comment ===

type commentResolver struct {
	r *Resolver
	c *dto.CommentDTO
}

func (c *commentResolver) ID() graphql.ID          { return toID(c.c.ID) }
func (c *commentResolver) Content() string         { return c.c.Content }
func (c *commentResolver) CreatedAt() graphql.Time { return graphql.Time{Time: c.c.CreatedAt} }
func (c *commentResolver) UpdatedAt() graphql.Time { return graphql.Time{Time: c.c.UpdatedAt} }

func (c *commentResolver) Post(ctx context.Context) (*postResolver, error) {
	return c.r.visiblePost(ctx, c.c.PostID)
}

func (c *commentResolver) Author(ctx context.Context) (*userResolver, error) {
	return c.r.loadUser(ctx, c.c.AuthorID)
}

func (c *commentResolver) Replies() []*replyResolver {
	out := make([]*replyResolver, len(c.c.Replies))
	for i, reply := range c.c.Replies {
		out[i] = &replyResolver{r: c.r, c: reply}
	}
	return out
}

type replyResolver struct {
	r *Resolver
	c *dto.CommentResponseDTO
}

func (c *replyResolver) ID() graphql.ID          { return toID(c.c.ID) }
func (c *replyResolver) Content() string         { return c.c.Content }
func (c *replyResolver) CreatedAt() graphql.Time { return graphql.Time{Time: c.c.CreatedAt} }
func (c *replyResolver) UpdatedAt() graphql.Time { return graphql.Time{Time: c.c.UpdatedAt} }

func (c *replyResolver) Comment(ctx context.Context) (*commentResolver, error) {
	parent, err := bus.Ask[*dto.CommentDTO](ctx, c.r.queries, query.GetCommentByID{ID: c.c.CommentID})
	if err != nil {
		return nil, c.r.fail(ctx, err)
	}
	if parent == nil {
		return nil, nil
	}
	return &commentResolver{r: c.r, c: parent}, nil
}

func (c *replyResolver) Author(ctx context.Context) (*userResolver, error) {
	return c.r.loadUser(ctx, c.c.AuthorID)
}

// === Результаты мутаций ===

type deleteResultResolver struct {
	res *dto.DeleteResult
}

func (d *deleteResultResolver) Success() bool { return d.res.Success }

type authPayloadResolver struct {
	r *Resolver
	p *dto.AuthPayload
}

func (a *authPayloadResolver) Token() string           { return a.p.Token }
func (a *authPayloadResolver) ExpiresAt() graphql.Time { return graphql.Time{Time: a.p.ExpiresAt} }
func (a *authPayloadResolver) User() *userResolver {
	return &userResolver{r: a.r, u: a.p.User, self: true}
}

// === Общие загрузчики ===

func (r *Resolver) loadUser(ctx context.Context, id int64) (*userResolver, error) {
	u, err := dataloader.For(ctx, r.queries).LoadUser(ctx, id)
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	if u == nil {
		return nil, nil
	}
	return &userResolver{r: r, u: u}, nil
}

// visiblePost возвращает nil для отсутствующего поста и для чужого черновика.
func (r *Resolver) visiblePost(ctx context.Context, id int64) (*postResolver, error) {
	p, err := bus.Ask[*dto.PostDTO](ctx, r.queries, query.GetPostByID{ID: id})
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	if p == nil || (!p.Published && !canSeeDraft(ctx, p.AuthorID)) {
		return nil, nil
	}
	return &postResolver{r: r, p: p}, nil
}

// postPage применяет правило видимости: чужие черновики видит только администратор.
func (r *Resolver) postPage(ctx context.Context, q query.GetPosts) (*postPageResolver, error) {
	ownPosts := q.AuthorID != nil && canSeeDraft(ctx, *q.AuthorID)
	if !ownPosts && !auth.FromContext(ctx).IsAdmin() {
		published := true
		q.Published = &published
	}
	page, err := bus.Ask[*dto.PostPage](ctx, r.queries, q)
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	return &postPageResolver{r: r, page: page}, nil
}

func (r *Resolver) comments(in []*dto.CommentDTO) []*commentResolver {
	out := make([]*commentResolver, len(in))
	for i, c := range in {
		out[i] = &commentResolver{r: r, c: c}
	}
	return out
}
