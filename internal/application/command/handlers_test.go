package command

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/UkralStul/graphql-blog-service/internal/apperrors"
	"github.com/UkralStul/graphql-blog-service/internal/application/bus"
	"github.com/UkralStul/graphql-blog-service/internal/application/dto"
	"github.com/UkralStul/graphql-blog-service/internal/application/query"
	"github.com/UkralStul/graphql-blog-service/internal/domain"
	"github.com/UkralStul/graphql-blog-service/internal/domain/mocks"
)

// === Fixtures ===

type fakeHasher struct{}

func (fakeHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }
func (fakeHasher) Compare(plain, hash string) bool   { return hash == "hashed:"+plain }

type fakeTokens struct{}

func (fakeTokens) Issue(userID int64, _ string, _ string) (string, time.Time, error) {
	return "token-for-user", time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), nil
}

type fixture struct {
	users      *mocks.UserRepository
	posts      *mocks.PostRepository
	categories *mocks.CategoryRepository
	comments   *mocks.CommentRepository
	responses  *mocks.CommentResponseRepository
	events     *mocks.EventPublisher
	queries    *mocks.QueryAsker
	h          *Handlers
}

func newFixture() *fixture {
	f := &fixture{
		users:      &mocks.UserRepository{},
		posts:      &mocks.PostRepository{},
		categories: &mocks.CategoryRepository{},
		comments:   &mocks.CommentRepository{},
		responses:  &mocks.CommentResponseRepository{},
		events:     &mocks.EventPublisher{},
		queries:    &mocks.QueryAsker{},
	}
	f.h = NewHandlers(Dependencies{
		Users:      f.users,
		Posts:      f.posts,
		Categories: f.categories,
		Comments:   f.comments,
		Responses:  f.responses,
		Events:     f.events,
		Queries:    f.queries,
		Hasher:     fakeHasher{},
		Tokens:     fakeTokens{},
	})
	return f
}

var ctx = context.Background()

func author(id int64) Actor { return Actor{UserID: id, Role: domain.RoleUser} }

func admin(id int64) Actor { return Actor{UserID: id, Role: domain.RoleAdmin} }

func id(v int64) domain.Identifier { return domain.NewIdentifier(v) }

func mustUser(t *testing.T, uid int64, email string) *domain.User {
	e, err := domain.NewEmail(email)
	require.NoError(t, err)
	u, err := domain.CreateUser(domain.UserProps{Email: e, Username: "user", Password: "hashed:secret1"}, id(uid))
	require.NoError(t, err)
	return u
}

func mustCategory(t *testing.T, cid int64, name string) *domain.Category {
	n, err := domain.NewCategoryName(name)
	require.NoError(t, err)
	c, err := domain.CreateCategory(domain.CategoryProps{Name: n}, id(cid))
	require.NoError(t, err)
	return c
}

func mustPost(t *testing.T, pid, authorID int64, content string, published bool) *domain.Post {
	title, err := domain.NewPostTitle("Hello")
	require.NoError(t, err)
	props := domain.PostProps{Title: title, AuthorID: id(authorID), Published: published}
	if content != "" {
		props.Content, err = domain.NewPostContent(content)
		require.NoError(t, err)
	}
	p, err := domain.CreatePost(props, id(pid))
	require.NoError(t, err)
	return p
}

func mustComment(t *testing.T, cid, postID, authorID int64) *domain.Comment {
	content, err := domain.NewCommentContent("hello")
	require.NoError(t, err)
	c, err := domain.CreateComment(domain.CommentProps{Content: content, PostID: id(postID), AuthorID: id(authorID)}, id(cid))
	require.NoError(t, err)
	return c
}

func eventsNamed(names ...string) interface{} {
	return mock.MatchedBy(func(events []domain.DomainEvent) bool {
		if len(events) != len(names) {
			return false
		}
		for i, e := range events {
			if e.EventName() != names[i] {
				return false
			}
		}
		return true
	})
}

// === Category ===

func TestCreateCategory_Success(t *testing.T) {
	f := newFixture()
	f.categories.On("FindByName", mock.Anything, mock.Anything).Return(nil, nil)
	f.categories.On("Save", mock.Anything, mock.MatchedBy(func(c *domain.Category) bool {
		return c.Name().Value() == "Tech" && c.IsNew()
	})).Return(mustCategory(t, 1, "Tech"), nil).Once()
	f.events.On("PublishAll", mock.Anything, mock.MatchedBy(func(events []domain.DomainEvent) bool {
		return len(events) == 1 && events[0].EventName() == domain.EventCategoryCreated && events[0].AggregateID().Value() == 1
	})).Return(nil).Once()
	f.queries.On("Ask", mock.Anything, query.GetCategoryByID{ID: 1}).Return(&dto.CategoryDTO{ID: 1, Name: "Tech"}, nil)

	out, err := f.h.CreateCategory(ctx, CreateCategory{Name: "Tech"})
	require.NoError(t, err)
	assert.Equal(t, &dto.CategoryDTO{ID: 1, Name: "Tech"}, out)
	f.categories.AssertNumberOfCalls(t, "Save", 1)
	f.events.AssertExpectations(t)
}

func TestCreateCategory_Duplicate(t *testing.T) {
	f := newFixture()
	f.categories.On("FindByName", mock.Anything, mock.Anything).Return(mustCategory(t, 3, "Tech"), nil)

	_, err := f.h.CreateCategory(ctx, CreateCategory{Name: "Tech"})
	require.Error(t, err)
	assert.Equal(t, "Category name \"Tech\" is already in use.", err.Error())
	assert.True(t, apperrors.IsConflict(err))
	f.categories.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCreateCategory_NameBoundsCheckedBeforeUniqueness(t *testing.T) {
	for _, name := range []string{"Go", strings.Repeat("x", 21)} {
		f := newFixture()
		f.categories.On("FindByName", mock.Anything, mock.Anything).Return(mustCategory(t, 3, "Tech"), nil)

		_, err := f.h.CreateCategory(ctx, CreateCategory{Name: name})
		require.Error(t, err, name)
		assert.True(t, apperrors.IsValidation(err), name)
		f.categories.AssertNotCalled(t, "FindByName", mock.Anything, mock.Anything)
	}
}

func TestUpdateCategory_NameBoundsCheckedBeforeUniqueness(t *testing.T) {
	f := newFixture()
	f.categories.On("FindByID", mock.Anything, id(1)).Return(mustCategory(t, 1, "Tech"), nil)
	f.categories.On("FindByName", mock.Anything, mock.Anything).Return(mustCategory(t, 2, "News"), nil)

	_, err := f.h.UpdateCategory(ctx, UpdateCategory{ID: 1, Name: "Go"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	f.categories.AssertNotCalled(t, "FindByName", mock.Anything, mock.Anything)
	f.categories.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCreateCategory_PostconditionFailed(t *testing.T) {
	f := newFixture()
	f.categories.On("FindByName", mock.Anything, mock.Anything).Return(nil, nil)
	f.categories.On("Save", mock.Anything, mock.Anything).Return(mustCategory(t, 1, "Tech"), nil)
	f.events.On("PublishAll", mock.Anything, mock.Anything).Return(nil)
	f.queries.On("Ask", mock.Anything, mock.Anything).Return(nil, nil)

	_, err := f.h.CreateCategory(ctx, CreateCategory{Name: "Tech"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodePostconditionFailed))
	assert.Equal(t, "Failed to fetch newly created category", err.Error())
}

func TestCreateCategory_EventBusFailureAbortsPipeline(t *testing.T) {
	f := newFixture()
	f.categories.On("FindByName", mock.Anything, mock.Anything).Return(nil, nil)
	f.categories.On("Save", mock.Anything, mock.Anything).Return(mustCategory(t, 1, "Tech"), nil)
	f.events.On("PublishAll", mock.Anything, mock.Anything).Return(errors.New("bus down"))

	_, err := f.h.CreateCategory(ctx, CreateCategory{Name: "Tech"})
	assert.EqualError(t, err, "bus down")
	f.queries.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything)
}

func TestUpdateCategory_UnchangedIsNoop(t *testing.T) {
	f := newFixture()
	f.categories.On("FindByID", mock.Anything, id(1)).Return(mustCategory(t, 1, "Tech"), nil)
	f.queries.On("Ask", mock.Anything, query.GetCategoryByID{ID: 1}).Return(&dto.CategoryDTO{ID: 1, Name: "Tech"}, nil)

	out, err := f.h.UpdateCategory(ctx, UpdateCategory{ID: 1, Name: " Tech "})
	require.NoError(t, err)
	assert.Equal(t, "Tech", out.Name)
	f.categories.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	f.events.AssertNotCalled(t, "PublishAll", mock.Anything, mock.Anything)
}

func TestUpdateCategory_NameTakenByAnother(t *testing.T) {
	f := newFixture()
	f.categories.On("FindByID", mock.Anything, id(1)).Return(mustCategory(t, 1, "Tech"), nil)
	f.categories.On("FindByName", mock.Anything, mock.Anything).Return(mustCategory(t, 2, "News"), nil)

	_, err := f.h.UpdateCategory(ctx, UpdateCategory{ID: 1, Name: "News"})
	assert.True(t, apperrors.IsConflict(err))
	f.categories.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestUpdateCategory_Renames(t *testing.T) {
	f := newFixture()
	f.categories.On("FindByID", mock.Anything, id(1)).Return(mustCategory(t, 1, "Tech"), nil)
	f.categories.On("FindByName", mock.Anything, mock.Anything).Return(nil, nil)
	f.categories.On("Save", mock.Anything, mock.MatchedBy(func(c *domain.Category) bool {
		return c.Name().Value() == "Science"
	})).Return(mustCategory(t, 1, "Science"), nil)
	f.events.On("PublishAll", mock.Anything, eventsNamed(domain.EventCategoryUpdated)).Return(nil)
	f.queries.On("Ask", mock.Anything, query.GetCategoryByID{ID: 1}).Return(&dto.CategoryDTO{ID: 1, Name: "Science"}, nil)

	out, err := f.h.UpdateCategory(ctx, UpdateCategory{ID: 1, Name: "Science"})
	require.NoError(t, err)
	assert.Equal(t, "Science", out.Name)
	f.events.AssertExpectations(t)
}

func TestDeleteCategory_InUse(t *testing.T) {
	f := newFixture()
	f.categories.On("FindByID", mock.Anything, id(2)).Return(mustCategory(t, 2, "Tech"), nil)
	f.posts.On("Count", mock.Anything, mock.MatchedBy(func(filter domain.PostFilter) bool {
		return filter.CategoryID != nil && filter.CategoryID.Value() == 2
	})).Return(3, nil)

	_, err := f.h.DeleteCategory(ctx, DeleteCategory{ID: 2})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, domain.CodeCategoryInUse))
	f.categories.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteCategory_NotFound(t *testing.T) {
	f := newFixture()
	f.categories.On("FindByID", mock.Anything, id(2)).Return(nil, nil)

	_, err := f.h.DeleteCategory(ctx, DeleteCategory{ID: 2})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, "Category with ID 2 not found.", err.Error())
	f.categories.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteCategory_DeleteReturnsFalse(t *testing.T) {
	f := newFixture()
	f.categories.On("FindByID", mock.Anything, id(2)).Return(mustCategory(t, 2, "Tech"), nil)
	f.posts.On("Count", mock.Anything, mock.Anything).Return(0, nil)
	f.categories.On("Delete", mock.Anything, id(2)).Return(false, nil)

	out, err := f.h.DeleteCategory(ctx, DeleteCategory{ID: 2})
	require.NoError(t, err)
	assert.False(t, out.Success)
	f.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestDeleteCategory_Success(t *testing.T) {
	f := newFixture()
	f.categories.On("FindByID", mock.Anything, id(2)).Return(mustCategory(t, 2, "Tech"), nil)
	f.posts.On("Count", mock.Anything, mock.Anything).Return(0, nil)
	f.categories.On("Delete", mock.Anything, id(2)).Return(true, nil)
	f.events.On("Publish", mock.Anything, mock.MatchedBy(func(e domain.DomainEvent) bool {
		return e.EventName() == domain.EventCategoryDeleted && e.AggregateID().Value() == 2
	})).Return(nil).Once()

	out, err := f.h.DeleteCategory(ctx, DeleteCategory{ID: 2})
	require.NoError(t, err)
	assert.True(t, out.Success)
	f.events.AssertExpectations(t)
}

// === Post ===

func TestPublishPost_Success(t *testing.T) {
	f := newFixture()
	draft := mustPost(t, 4, 1, "body", false)
	f.posts.On("FindByID", mock.Anything, id(4)).Return(draft, nil)
	f.posts.On("Save", mock.Anything, mock.MatchedBy(func(p *domain.Post) bool { return p.Published() })).Return(draft, nil)
	f.events.On("PublishAll", mock.Anything, eventsNamed(domain.EventPostPublished)).Return(nil)
	f.queries.On("Ask", mock.Anything, query.GetPostByID{ID: 4}).Return(&dto.PostDTO{ID: 4, Published: true}, nil)

	out, err := f.h.PublishPost(ctx, PublishPost{Actor: author(1), ID: 4})
	require.NoError(t, err)
	assert.True(t, out.Published)
	f.posts.AssertExpectations(t)
	f.events.AssertExpectations(t)
}

func TestPublishPost_AlreadyPublished(t *testing.T) {
	f := newFixture()
	f.posts.On("FindByID", mock.Anything, id(4)).Return(mustPost(t, 4, 1, "body", true), nil)

	_, err := f.h.PublishPost(ctx, PublishPost{Actor: author(1), ID: 4})
	require.Error(t, err)
	assert.Equal(t, "Post with ID 4 is already published.", err.Error())
	f.posts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	f.events.AssertNotCalled(t, "PublishAll", mock.Anything, mock.Anything)
	f.queries.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything)
}

func TestPublishPost_ContentMissing(t *testing.T) {
	f := newFixture()
	f.posts.On("FindByID", mock.Anything, id(4)).Return(mustPost(t, 4, 1, "", false), nil)

	_, err := f.h.PublishPost(ctx, PublishPost{Actor: author(1), ID: 4})
	assert.True(t, apperrors.HasCode(err, domain.CodePostContentMissing))
	f.posts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestPublishPost_OtherUserForbidden(t *testing.T) {
	f := newFixture()
	f.posts.On("FindByID", mock.Anything, id(4)).Return(mustPost(t, 4, 1, "body", false), nil)

	_, err := f.h.PublishPost(ctx, PublishPost{Actor: author(2), ID: 4})
	assert.True(t, apperrors.IsForbidden(err))
}

func TestUnpublishPost_Draft(t *testing.T) {
	f := newFixture()
	f.posts.On("FindByID", mock.Anything, id(4)).Return(mustPost(t, 4, 1, "body", false), nil)

	_, err := f.h.UnpublishPost(ctx, UnpublishPost{Actor: admin(9), ID: 4})
	require.Error(t, err)
	assert.Equal(t, "Post with ID 4 is not published.", err.Error())
	f.posts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCreatePost_Success(t *testing.T) {
	f := newFixture()
	f.users.On("FindByID", mock.Anything, id(1)).Return(mustUser(t, 1, "a@b.io"), nil)
	f.categories.On("FindByIDs", mock.Anything, mock.Anything).Return([]*domain.Category{mustCategory(t, 2, "Tech")}, nil)
	f.posts.On("Save", mock.Anything, mock.MatchedBy(func(p *domain.Post) bool {
		return p.IsNew() && p.Title().Value() == "Hello" && len(p.CategoryIDs()) == 1
	})).Return(mustPost(t, 7, 1, "body", false), nil)
	f.events.On("PublishAll", mock.Anything, mock.MatchedBy(func(events []domain.DomainEvent) bool {
		return len(events) == 1 && events[0].AggregateID().Value() == 7
	})).Return(nil)
	f.queries.On("Ask", mock.Anything, query.GetPostByID{ID: 7}).Return(&dto.PostDTO{ID: 7, Title: "Hello"}, nil)

	out, err := f.h.CreatePost(ctx, CreatePost{Actor: author(1), Title: "Hello", Content: "body", CategoryIDs: []int64{2, 2}})
	require.NoError(t, err)
	assert.Equal(t, int64(7), out.ID)
	f.events.AssertExpectations(t)
}

func TestCreatePost_MissingCategory(t *testing.T) {
	f := newFixture()
	f.users.On("FindByID", mock.Anything, id(1)).Return(mustUser(t, 1, "a@b.io"), nil)
	f.categories.On("FindByIDs", mock.Anything, mock.Anything).Return([]*domain.Category{mustCategory(t, 2, "Tech")}, nil)

	_, err := f.h.CreatePost(ctx, CreatePost{Actor: author(1), Title: "Hello", CategoryIDs: []int64{2, 5}})
	require.Error(t, err)
	assert.Equal(t, "Category with ID 5 not found.", err.Error())
	f.posts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCreatePost_UnknownAuthor(t *testing.T) {
	f := newFixture()
	f.users.On("FindByID", mock.Anything, id(1)).Return(nil, nil)

	_, err := f.h.CreatePost(ctx, CreatePost{Actor: author(1), Title: "Hello"})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCreatePost_InvalidTitle(t *testing.T) {
	f := newFixture()
	f.users.On("FindByID", mock.Anything, id(1)).Return(mustUser(t, 1, "a@b.io"), nil)

	_, err := f.h.CreatePost(ctx, CreatePost{Actor: author(1), Title: strings.Repeat("x", 256)})
	require.Error(t, err)
	assert.Equal(t, "Post title must be at most 255 characters.", err.Error())
}

func TestUpdatePost_ReplacesCategorySet(t *testing.T) {
	f := newFixture()
	post := mustPost(t, 4, 1, "body", false)
	post.AddCategory(id(2))
	post.ClearEvents()
	f.posts.On("FindByID", mock.Anything, id(4)).Return(post, nil)
	f.categories.On("FindByIDs", mock.Anything, mock.Anything).Return([]*domain.Category{mustCategory(t, 3, "News")}, nil)
	f.posts.On("Save", mock.Anything, mock.MatchedBy(func(p *domain.Post) bool {
		return assert.ObjectsAreEqual([]int64{3}, domain.IdentifierValues(p.CategoryIDs()))
	})).Return(post, nil)
	f.events.On("PublishAll", mock.Anything, eventsNamed(domain.EventPostUpdated)).Return(nil)
	f.queries.On("Ask", mock.Anything, query.GetPostByID{ID: 4}).Return(&dto.PostDTO{ID: 4, CategoryIDs: []int64{3}}, nil)

	ids := []int64{3}
	out, err := f.h.UpdatePost(ctx, UpdatePost{Actor: author(1), ID: 4, CategoryIDs: &ids})
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, out.CategoryIDs)
	f.posts.AssertExpectations(t)
}

func TestUpdatePost_UnchangedIsNoop(t *testing.T) {
	f := newFixture()
	f.posts.On("FindByID", mock.Anything, id(4)).Return(mustPost(t, 4, 1, "body", false), nil)
	f.queries.On("Ask", mock.Anything, query.GetPostByID{ID: 4}).Return(&dto.PostDTO{ID: 4}, nil)

	title, content := "Hello", "body"
	_, err := f.h.UpdatePost(ctx, UpdatePost{Actor: author(1), ID: 4, Title: &title, Content: &content})
	require.NoError(t, err)
	f.posts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	f.events.AssertNotCalled(t, "PublishAll", mock.Anything, mock.Anything)
}

func TestDeletePost_NotFound(t *testing.T) {
	f := newFixture()
	f.posts.On("FindByID", mock.Anything, id(4)).Return(nil, nil)

	_, err := f.h.DeletePost(ctx, DeletePost{Actor: author(1), ID: 4})
	assert.True(t, apperrors.IsNotFound(err))
	f.posts.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeletePost_AdminMayDelete(t *testing.T) {
	f := newFixture()
	f.posts.On("FindByID", mock.Anything, id(4)).Return(mustPost(t, 4, 1, "body", false), nil)
	f.posts.On("Delete", mock.Anything, id(4)).Return(true, nil)
	f.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

	out, err := f.h.DeletePost(ctx, DeletePost{Actor: admin(5), ID: 4})
	require.NoError(t, err)
	assert.True(t, out.Success)
}

// === Comment ===

func TestDeleteComment_NonAuthorForbidden(t *testing.T) {
	f := newFixture()
	f.comments.On("FindByID", mock.Anything, id(3)).Return(mustComment(t, 3, 4, 1), nil)

	_, err := f.h.DeleteComment(ctx, DeleteComment{Actor: author(2), ID: 3})
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))
	f.comments.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteComment_Success(t *testing.T) {
	f := newFixture()
	f.comments.On("FindByID", mock.Anything, id(3)).Return(mustComment(t, 3, 4, 1), nil)
	f.comments.On("Delete", mock.Anything, id(3)).Return(true, nil)
	f.events.On("Publish", mock.Anything, mock.MatchedBy(func(e domain.DomainEvent) bool {
		ev, ok := e.(*domain.CommentDeletedEvent)
		return ok && ev.PostID.Value() == 4
	})).Return(nil)

	out, err := f.h.DeleteComment(ctx, DeleteComment{Actor: author(1), ID: 3})
	require.NoError(t, err)
	assert.True(t, out.Success)
}

func TestCreateComment_PostMissing(t *testing.T) {
	f := newFixture()
	f.users.On("FindByID", mock.Anything, id(1)).Return(mustUser(t, 1, "a@b.io"), nil)
	f.posts.On("FindByID", mock.Anything, id(9)).Return(nil, nil)

	_, err := f.h.CreateComment(ctx, CreateComment{Actor: author(1), PostID: 9, Content: "hi"})
	require.Error(t, err)
	assert.Equal(t, "Post with ID 9 not found.", err.Error())
	f.comments.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCreateComment_RepositoryErrorPassesThrough(t *testing.T) {
	f := newFixture()
	dbErr := errors.New("connection refused")
	f.users.On("FindByID", mock.Anything, id(1)).Return(nil, dbErr)
	f.posts.On("FindByID", mock.Anything, id(9)).Return(mustPost(t, 9, 1, "body", true), nil)

	_, err := f.h.CreateComment(ctx, CreateComment{Actor: author(1), PostID: 9, Content: "hi"})
	assert.Same(t, dbErr, err)
}

func TestCreateComment_Success(t *testing.T) {
	f := newFixture()
	f.users.On("FindByID", mock.Anything, id(1)).Return(mustUser(t, 1, "a@b.io"), nil)
	f.posts.On("FindByID", mock.Anything, id(9)).Return(mustPost(t, 9, 1, "body", true), nil)
	f.comments.On("Save", mock.Anything, mock.Anything).Return(mustComment(t, 12, 9, 1), nil)
	f.events.On("PublishAll", mock.Anything, eventsNamed(domain.EventCommentCreated)).Return(nil)
	f.queries.On("Ask", mock.Anything, query.GetCommentByID{ID: 12}).Return(&dto.CommentDTO{ID: 12, Replies: []*dto.CommentResponseDTO{}}, nil)

	out, err := f.h.CreateComment(ctx, CreateComment{Actor: author(1), PostID: 9, Content: "hi"})
	require.NoError(t, err)
	assert.Equal(t, int64(12), out.ID)
}

func TestCreateComment_DraftOfAnotherUserIsNotFound(t *testing.T) {
	f := newFixture()
	f.users.On("FindByID", mock.Anything, id(2)).Return(mustUser(t, 2, "b@b.io"), nil)
	f.posts.On("FindByID", mock.Anything, id(9)).Return(mustPost(t, 9, 1, "body", false), nil)

	_, err := f.h.CreateComment(ctx, CreateComment{Actor: author(2), PostID: 9, Content: "hi"})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, "Post with ID 9 not found.", err.Error())
	f.comments.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	f.events.AssertNotCalled(t, "PublishAll", mock.Anything, mock.Anything)
}

func TestCreateComment_DraftAllowedForAuthorAndAdmin(t *testing.T) {
	for _, actor := range []Actor{author(1), admin(5)} {
		f := newFixture()
		f.users.On("FindByID", mock.Anything, id(actor.UserID)).Return(mustUser(t, actor.UserID, "a@b.io"), nil)
		f.posts.On("FindByID", mock.Anything, id(9)).Return(mustPost(t, 9, 1, "", false), nil)
		f.comments.On("Save", mock.Anything, mock.Anything).Return(mustComment(t, 12, 9, actor.UserID), nil)
		f.events.On("PublishAll", mock.Anything, eventsNamed(domain.EventCommentCreated)).Return(nil)
		f.queries.On("Ask", mock.Anything, query.GetCommentByID{ID: 12}).Return(&dto.CommentDTO{ID: 12}, nil)

		out, err := f.h.CreateComment(ctx, CreateComment{Actor: actor, PostID: 9, Content: "hi"})
		require.NoError(t, err)
		assert.Equal(t, int64(12), out.ID)
	}
}

func TestCreateCommentResponse_DraftOfAnotherUserIsNotFound(t *testing.T) {
	f := newFixture()
	f.users.On("FindByID", mock.Anything, id(2)).Return(mustUser(t, 2, "b@b.io"), nil)
	f.comments.On("FindByID", mock.Anything, id(3)).Return(mustComment(t, 3, 4, 1), nil)
	f.posts.On("FindByID", mock.Anything, id(4)).Return(mustPost(t, 4, 1, "body", false), nil)

	_, err := f.h.CreateCommentResponse(ctx, CreateCommentResponse{Actor: author(2), CommentID: 3, Content: "reply"})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, "Post with ID 4 not found.", err.Error())
	f.responses.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestUpdateComment_NonAuthorForbidden(t *testing.T) {
	f := newFixture()
	f.comments.On("FindByID", mock.Anything, id(3)).Return(mustComment(t, 3, 4, 1), nil)

	_, err := f.h.UpdateComment(ctx, UpdateComment{Actor: admin(2), ID: 3, Content: "x"})
	assert.True(t, apperrors.IsForbidden(err))
}

func TestCreateCommentResponse_Success(t *testing.T) {
	f := newFixture()
	f.users.On("FindByID", mock.Anything, id(2)).Return(mustUser(t, 2, "b@b.io"), nil)
	f.comments.On("FindByID", mock.Anything, id(3)).Return(mustComment(t, 3, 4, 1), nil)
	f.posts.On("FindByID", mock.Anything, id(4)).Return(mustPost(t, 4, 1, "body", true), nil)

	content, _ := domain.NewCommentContent("reply")
	saved, err := domain.CreateCommentResponse(domain.CommentResponseProps{
		Content: content, CommentID: id(3), PostID: id(4), AuthorID: id(2),
	}, id(20))
	require.NoError(t, err)

	f.responses.On("Save", mock.Anything, mock.MatchedBy(func(r *domain.CommentResponse) bool {
		return r.CommentID().Value() == 3 && r.PostID().Value() == 4
	})).Return(saved, nil)
	f.events.On("PublishAll", mock.Anything, eventsNamed(domain.EventCommentResponseCreated)).Return(nil)
	f.queries.On("Ask", mock.Anything, query.GetCommentResponseByID{ID: 20}).Return(&dto.CommentResponseDTO{ID: 20, CommentID: 3}, nil)

	out, err := f.h.CreateCommentResponse(ctx, CreateCommentResponse{Actor: author(2), CommentID: 3, Content: "reply"})
	require.NoError(t, err)
	assert.Equal(t, int64(20), out.ID)
}

func TestDeleteCommentResponse_DeleteReturnsFalse(t *testing.T) {
	f := newFixture()
	content, _ := domain.NewCommentContent("reply")
	r, err := domain.CreateCommentResponse(domain.CommentResponseProps{
		Content: content, CommentID: id(3), PostID: id(4), AuthorID: id(2),
	}, id(20))
	require.NoError(t, err)
	f.responses.On("FindByID", mock.Anything, id(20)).Return(r, nil)
	f.responses.On("Delete", mock.Anything, id(20)).Return(false, nil)

	out, err := f.h.DeleteCommentResponse(ctx, DeleteCommentResponse{Actor: author(2), ID: 20})
	require.NoError(t, err)
	assert.False(t, out.Success)
	f.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

// === User / auth ===

func TestCreateUser_EmailTaken(t *testing.T) {
	f := newFixture()
	f.users.On("FindByEmail", mock.Anything, mock.Anything).Return(mustUser(t, 1, "a@b.io"), nil)

	_, err := f.h.CreateUser(ctx, CreateUser{Email: "A@b.io", Username: "ann", Password: "secret1"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, domain.CodeEmailTaken))
	f.users.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCreateUser_ShortPassword(t *testing.T) {
	f := newFixture()
	f.users.On("FindByEmail", mock.Anything, mock.Anything).Return(nil, nil)

	_, err := f.h.CreateUser(ctx, CreateUser{Email: "a@b.io", Username: "ann", Password: "123"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeArgumentOutOfRange))
}

func TestCreateUser_HashesPassword(t *testing.T) {
	f := newFixture()
	f.users.On("FindByEmail", mock.Anything, mock.Anything).Return(nil, nil)
	f.users.On("Save", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Password() == "hashed:secret1" && u.Role() == domain.RoleUser
	})).Return(mustUser(t, 5, "a@b.io"), nil)
	f.events.On("PublishAll", mock.Anything, eventsNamed(domain.EventUserCreated)).Return(nil)
	f.queries.On("Ask", mock.Anything, query.GetUserByID{ID: 5}).Return(&dto.UserDTO{ID: 5, Email: "a@b.io"}, nil)

	out, err := f.h.CreateUser(ctx, CreateUser{Email: "a@b.io", Username: "ann", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), out.ID)
	f.users.AssertExpectations(t)
}

func TestUpdateUser_RoleChangeRequiresAdmin(t *testing.T) {
	f := newFixture()
	f.users.On("FindByID", mock.Anything, id(1)).Return(mustUser(t, 1, "a@b.io"), nil)

	role := "ADMIN"
	_, err := f.h.UpdateUser(ctx, UpdateUser{Actor: author(1), ID: 1, Role: &role})
	assert.True(t, apperrors.IsForbidden(err))
}

func TestUpdateUser_SameEmailAndPasswordIsNoop(t *testing.T) {
	f := newFixture()
	f.users.On("FindByID", mock.Anything, id(1)).Return(mustUser(t, 1, "a@b.io"), nil)
	f.queries.On("Ask", mock.Anything, query.GetUserByID{ID: 1}).Return(&dto.UserDTO{ID: 1}, nil)

	email, password := "A@B.io", "secret1"
	_, err := f.h.UpdateUser(ctx, UpdateUser{Actor: author(1), ID: 1, Email: &email, Password: &password})
	require.NoError(t, err)
	f.users.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
	f.users.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestUpdateUser_EmailOwnedByAnother(t *testing.T) {
	f := newFixture()
	f.users.On("FindByID", mock.Anything, id(1)).Return(mustUser(t, 1, "a@b.io"), nil)
	f.users.On("FindByEmail", mock.Anything, mock.Anything).Return(mustUser(t, 2, "c@d.io"), nil)

	email := "c@d.io"
	_, err := f.h.UpdateUser(ctx, UpdateUser{Actor: author(1), ID: 1, Email: &email})
	assert.True(t, apperrors.IsConflict(err))
}

func TestDeleteUser_OtherUserForbidden(t *testing.T) {
	f := newFixture()
	f.users.On("FindByID", mock.Anything, id(1)).Return(mustUser(t, 1, "a@b.io"), nil)

	_, err := f.h.DeleteUser(ctx, DeleteUser{Actor: author(2), ID: 1})
	assert.True(t, apperrors.IsForbidden(err))
	f.users.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestPromoteUser(t *testing.T) {
	f := newFixture()
	f.users.On("FindByEmail", mock.Anything, mock.Anything).Return(mustUser(t, 1, "a@b.io"), nil)
	f.users.On("Save", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.IsAdmin() && len(u.PendingEvents()) == 0
	})).Return(mustUser(t, 1, "a@b.io"), nil)
	f.queries.On("Ask", mock.Anything, query.GetUserByID{ID: 1}).Return(&dto.UserDTO{ID: 1, Role: "ADMIN"}, nil)

	out, err := f.h.PromoteUser(ctx, PromoteUser{Email: "a@b.io"})
	require.NoError(t, err)
	assert.Equal(t, "ADMIN", out.Role)
	f.events.AssertNotCalled(t, "PublishAll", mock.Anything, mock.Anything)
}

func TestLogin(t *testing.T) {
	f := newFixture()
	f.users.On("FindByEmail", mock.Anything, mock.Anything).Return(mustUser(t, 1, "a@b.io"), nil)
	f.queries.On("Ask", mock.Anything, query.GetUserByID{ID: 1}).Return(&dto.UserDTO{ID: 1}, nil)

	out, err := f.h.Login(ctx, Login{Email: "a@b.io", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "token-for-user", out.Token)
	assert.Equal(t, int64(1), out.User.ID)

	_, err = f.h.Login(ctx, Login{Email: "a@b.io", Password: "wrong"})
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthorized(err))
	assert.Equal(t, "Invalid email or password.", err.Error())
}

func newCommandBus(t *testing.T, h *Handlers) *bus.CommandBus {
	b := bus.NewCommandBus(bus.ValidationMiddleware(nil))
	require.NoError(t, h.Register(b))
	return b
}

func TestRegister_RejectsInvalidIDsBeforeHandler(t *testing.T) {
	f := newFixture()
	b := newCommandBus(t, f.h)

	_, err := b.Send(ctx, PublishPost{Actor: author(1), ID: 0})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeArgumentInvalid))
	f.posts.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)

	_, err = b.Send(ctx, DeletePost{Actor: Actor{}, ID: 4})
	assert.True(t, apperrors.IsValidation(err))
}

func TestRegister_AllCommandsRouted(t *testing.T) {
	f := newFixture()
	b := newCommandBus(t, f.h)

	f.comments.On("FindByID", mock.Anything, id(3)).Return(nil, nil)
	_, err := b.Send(ctx, DeleteComment{Actor: author(1), ID: 3})
	assert.True(t, apperrors.IsNotFound(err))
}
