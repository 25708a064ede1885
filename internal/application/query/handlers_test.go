package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/UkralStul/graphql-blog-service/internal/application/bus"
	"github.com/UkralStul/graphql-blog-service/internal/domain"
	"github.com/UkralStul/graphql-blog-service/internal/domain/mocks"
)

type fixture struct {
	users      *mocks.UserRepository
	posts      *mocks.PostRepository
	categories *mocks.CategoryRepository
	comments   *mocks.CommentRepository
	responses  *mocks.CommentResponseRepository
	h          *Handlers
}

func newFixture() *fixture {
	f := &fixture{
		users:      &mocks.UserRepository{},
		posts:      &mocks.PostRepository{},
		categories: &mocks.CategoryRepository{},
		comments:   &mocks.CommentRepository{},
		responses:  &mocks.CommentResponseRepository{},
	}
	f.h = NewHandlers(Repositories{
		Users:      f.users,
		Posts:      f.posts,
		Categories: f.categories,
		Comments:   f.comments,
		Responses:  f.responses,
	})
	return f
}

func newPost(t *testing.T, id int64) *domain.Post {
	title, err := domain.NewPostTitle("Post")
	require.NoError(t, err)
	p, err := domain.CreatePost(domain.PostProps{Title: title, AuthorID: domain.NewIdentifier(1)}, domain.NewIdentifier(id))
	require.NoError(t, err)
	return p
}

func newComment(t *testing.T, id int64) *domain.Comment {
	content, err := domain.NewCommentContent("comment")
	require.NoError(t, err)
	c, err := domain.CreateComment(domain.CommentProps{
		Content: content, PostID: domain.NewIdentifier(1), AuthorID: domain.NewIdentifier(1),
	}, domain.NewIdentifier(id))
	require.NoError(t, err)
	return c
}

func newReply(t *testing.T, id, commentID int64) *domain.CommentResponse {
	content, err := domain.NewCommentContent("reply")
	require.NoError(t, err)
	r, err := domain.CreateCommentResponse(domain.CommentResponseProps{
		Content: content, CommentID: domain.NewIdentifier(commentID), PostID: domain.NewIdentifier(1), AuthorID: domain.NewIdentifier(2),
	}, domain.NewIdentifier(id))
	require.NoError(t, err)
	return r
}

func TestGetUserByID_Missing(t *testing.T) {
	f := newFixture()
	f.users.On("FindByID", mock.Anything, domain.NewIdentifier(4)).Return(nil, nil)

	out, err := f.h.GetUserByID(context.Background(), GetUserByID{ID: 4})
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestGetPosts_DefaultsAndHasMore(t *testing.T) {
	f := newFixture()
	f.posts.On("Find", mock.Anything, mock.MatchedBy(func(filter domain.PostFilter) bool {
		return filter.Take == DefaultTake && filter.Skip == 0
	})).Return([]*domain.Post{newPost(t, 2), newPost(t, 1)}, nil)
	f.posts.On("Count", mock.Anything, mock.Anything).Return(12, nil)

	page, err := f.h.GetPosts(context.Background(), GetPosts{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 12, page.Total)
	assert.True(t, page.HasMore)
}

func TestGetPosts_LastPage(t *testing.T) {
	f := newFixture()
	published := true
	author := int64(1)
	f.posts.On("Find", mock.Anything, mock.MatchedBy(func(filter domain.PostFilter) bool {
		return filter.Take == MaxTake && *filter.Published && filter.AuthorID.Value() == 1 && filter.CategoryID == nil
	})).Return([]*domain.Post{}, nil)
	f.posts.On("Count", mock.Anything, mock.Anything).Return(5, nil)

	page, err := f.h.GetPosts(context.Background(), GetPosts{Published: &published, AuthorID: &author, Skip: 0, Take: 500})
	require.NoError(t, err)
	assert.False(t, page.HasMore)
	assert.NotNil(t, page.Items)
}

func TestGetPosts_RepositoryError(t *testing.T) {
	f := newFixture()
	dbErr := errors.New("boom")
	f.posts.On("Find", mock.Anything, mock.Anything).Return(nil, dbErr)

	_, err := f.h.GetPosts(context.Background(), GetPosts{})
	assert.Same(t, dbErr, err)
}

func TestGetCommentsByPost_AttachesRepliesInOneLookup(t *testing.T) {
	f := newFixture()
	f.comments.On("FindByPostID", mock.Anything, domain.NewIdentifier(1)).
		Return([]*domain.Comment{newComment(t, 10), newComment(t, 11)}, nil)
	f.responses.On("FindByCommentIDs", mock.Anything, []domain.Identifier{domain.NewIdentifier(10), domain.NewIdentifier(11)}).
		Return([]*domain.CommentResponse{newReply(t, 100, 11), newReply(t, 101, 11), newReply(t, 102, 10)}, nil).Once()

	out, err := f.h.GetCommentsByPost(context.Background(), GetCommentsByPost{PostID: 1})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Len(t, out[0].Replies, 1)
	assert.Len(t, out[1].Replies, 2)
	f.responses.AssertExpectations(t)
}

func TestGetCommentByID_NoReplies(t *testing.T) {
	f := newFixture()
	f.comments.On("FindByID", mock.Anything, domain.NewIdentifier(10)).Return(newComment(t, 10), nil)
	f.responses.On("FindByCommentIDs", mock.Anything, mock.Anything).Return(nil, nil)

	out, err := f.h.GetCommentByID(context.Background(), GetCommentByID{ID: 10})
	require.NoError(t, err)
	assert.NotNil(t, out.Replies)
	assert.Empty(t, out.Replies)
}

func TestGetUsersByIDs_Empty(t *testing.T) {
	f := newFixture()
	out, err := f.h.GetUsersByIDs(context.Background(), GetUsersByIDs{})
	require.NoError(t, err)
	assert.Empty(t, out)
	f.users.AssertNotCalled(t, "FindByIDs", mock.Anything, mock.Anything)
}

func TestRegister_ThroughBus(t *testing.T) {
	f := newFixture()
	b := bus.NewQueryBus(bus.ValidationMiddleware(nil))
	require.NoError(t, f.h.Register(b))
	assert.Error(t, f.h.Register(b))

	f.categories.On("FindAll", mock.Anything).Return(nil, nil)
	res, err := b.Ask(context.Background(), GetCategories{})
	require.NoError(t, err)
	assert.NotNil(t, res)

	_, err = b.Ask(context.Background(), GetPostByID{ID: -1})
	assert.Error(t, err)
}
