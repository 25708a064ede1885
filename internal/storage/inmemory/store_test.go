// internal/storage/inmemory/store_test.go

package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UkralStul/graphql-blog-service/internal/apperrors"
	"github.com/UkralStul/graphql-blog-service/internal/domain"
)

var ctx = context.Background()

// newTestStore создает хранилище с одним автором и одним постом
func newTestStore(t *testing.T) (*Store, *domain.User, *domain.Post) {
	store := New()
	author := saveUser(t, store, "author@example.com")
	post := savePost(t, store, author.ID(), "Test Post")
	return store, author, post
}

func saveUser(t *testing.T, store *Store, email string) *domain.User {
	e, err := domain.NewEmail(email)
	require.NoError(t, err)
	u, err := domain.CreateUser(domain.UserProps{Email: e, Username: "user", Password: "hash"}, domain.Identifier{})
	require.NoError(t, err)
	saved, err := store.Users().Save(ctx, u)
	require.NoError(t, err)
	return saved
}

func savePost(t *testing.T, store *Store, authorID domain.Identifier, title string, categories ...domain.Identifier) *domain.Post {
	pt, err := domain.NewPostTitle(title)
	require.NoError(t, err)
	p, err := domain.CreatePost(domain.PostProps{Title: pt, AuthorID: authorID, CategoryIDs: categories}, domain.Identifier{})
	require.NoError(t, err)
	saved, err := store.Posts().Save(ctx, p)
	require.NoError(t, err)
	return saved
}

func saveCategory(t *testing.T, store *Store, name string) *domain.Category {
	n, err := domain.NewCategoryName(name)
	require.NoError(t, err)
	c, err := domain.CreateCategory(domain.CategoryProps{Name: n}, domain.Identifier{})
	require.NoError(t, err)
	saved, err := store.Categories().Save(ctx, c)
	require.NoError(t, err)
	return saved
}

func saveComment(t *testing.T, store *Store, postID, authorID domain.Identifier) *domain.Comment {
	content, err := domain.NewCommentContent("First comment!")
	require.NoError(t, err)
	c, err := domain.CreateComment(domain.CommentProps{Content: content, PostID: postID, AuthorID: authorID}, domain.Identifier{})
	require.NoError(t, err)
	saved, err := store.Comments().Save(ctx, c)
	require.NoError(t, err)
	return saved
}

func saveReply(t *testing.T, store *Store, parent *domain.Comment, authorID domain.Identifier) *domain.CommentResponse {
	content, err := domain.NewCommentContent("reply")
	require.NoError(t, err)
	r, err := domain.CreateCommentResponse(domain.CommentResponseProps{
		Content: content, CommentID: parent.ID(), PostID: parent.PostID(), AuthorID: authorID,
	}, domain.Identifier{})
	require.NoError(t, err)
	saved, err := store.CommentResponses().Save(ctx, r)
	require.NoError(t, err)
	return saved
}

func TestStore_CreateAndGetPost(t *testing.T) {
	store, author, post := newTestStore(t)

	assert.Equal(t, int64(1), post.ID().Value())
	assert.Empty(t, post.PendingEvents())

	retrieved, err := store.Posts().FindByID(ctx, post.ID())
	require.NoError(t, err)
	assert.Equal(t, "Test Post", retrieved.Title().Value())
	assert.True(t, retrieved.AuthorID().Equals(author.ID()))

	missing, err := store.Posts().FindByID(ctx, domain.NewIdentifier(999))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_UpdateDoesNotAffectHeldCopies(t *testing.T) {
	store, _, post := newTestStore(t)

	require.NoError(t, post.UpdateTitle("Renamed"))
	_, err := store.Posts().Save(ctx, post)
	require.NoError(t, err)

	fresh, err := store.Posts().FindByID(ctx, post.ID())
	require.NoError(t, err)
	assert.Equal(t, "Renamed", fresh.Title().Value())

	require.NoError(t, fresh.UpdateTitle("Local only"))
	again, err := store.Posts().FindByID(ctx, post.ID())
	require.NoError(t, err)
	assert.Equal(t, "Renamed", again.Title().Value())
}

func TestStore_SaveUnknownPost(t *testing.T) {
	store, author, _ := newTestStore(t)
	title, _ := domain.NewPostTitle("Ghost")
	ghost, err := domain.CreatePost(domain.PostProps{Title: title, AuthorID: author.ID()}, domain.NewIdentifier(42))
	require.NoError(t, err)

	_, err = store.Posts().Save(ctx, ghost)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestStore_UserEmailIsUnique(t *testing.T) {
	store, _, _ := newTestStore(t)

	e, _ := domain.NewEmail("AUTHOR@example.com")
	dup, err := domain.CreateUser(domain.UserProps{Email: e, Username: "dup", Password: "x"}, domain.Identifier{})
	require.NoError(t, err)

	_, err = store.Users().Save(ctx, dup)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, domain.CodeEmailTaken))

	found, err := store.Users().FindByEmail(ctx, e)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, int64(1), found.ID().Value())
}

func TestStore_CategoryNameIsUnique(t *testing.T) {
	store := New()
	saveCategory(t, store, "Tech")

	n, _ := domain.NewCategoryName("Tech")
	dup, err := domain.CreateCategory(domain.CategoryProps{Name: n}, domain.Identifier{})
	require.NoError(t, err)
	_, err = store.Categories().Save(ctx, dup)
	assert.True(t, apperrors.HasCode(err, domain.CodeCategoryNameTaken))
}

func TestStore_FindPosts_FilterAndPaging(t *testing.T) {
	store, author, _ := newTestStore(t)
	tech := saveCategory(t, store, "Tech")

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		title, _ := domain.NewPostTitle("Post")
		p, err := domain.CreatePost(domain.PostProps{
			Title: title, AuthorID: author.ID(), CategoryIDs: []domain.Identifier{tech.ID()},
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}, domain.Identifier{})
		require.NoError(t, err)
		_, err = store.Posts().Save(ctx, p)
		require.NoError(t, err)
	}

	catID := tech.ID()
	filter := domain.PostFilter{CategoryID: &catID, Skip: 1, Take: 2}
	page, err := store.Posts().Find(ctx, filter)
	require.NoError(t, err)
	require.Len(t, page, 2)
	// от новых к старым: пропускаем самый новый (id 5)
	assert.Equal(t, int64(4), page[0].ID().Value())
	assert.Equal(t, int64(3), page[1].ID().Value())

	total, err := store.Posts().Count(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 4, total)

	published := true
	none, err := store.Posts().Find(ctx, domain.PostFilter{Published: &published})
	require.NoError(t, err)
	assert.Empty(t, none)

	beyond, err := store.Posts().Find(ctx, domain.PostFilter{Skip: 100})
	require.NoError(t, err)
	assert.NotNil(t, beyond)
	assert.Empty(t, beyond)
}

func TestStore_SavePost_UnknownCategory(t *testing.T) {
	store, author, _ := newTestStore(t)
	title, _ := domain.NewPostTitle("Post")
	p, err := domain.CreatePost(domain.PostProps{
		Title: title, AuthorID: author.ID(), CategoryIDs: []domain.Identifier{domain.NewIdentifier(7)},
	}, domain.Identifier{})
	require.NoError(t, err)

	_, err = store.Posts().Save(ctx, p)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestStore_CreateComment_Success(t *testing.T) {
	store, author, post := newTestStore(t)

	first := saveComment(t, store, post.ID(), author.ID())
	second := saveComment(t, store, post.ID(), author.ID())
	assert.NotEqual(t, first.ID(), second.ID())

	comments, err := store.Comments().FindByPostID(ctx, post.ID())
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, first.ID(), comments[0].ID())
	assert.Equal(t, "First comment!", comments[0].Content().Value())
}

func TestStore_CreateComment_PostMissing(t *testing.T) {
	store, author, _ := newTestStore(t)
	content, _ := domain.NewCommentContent("orphan")
	c, err := domain.CreateComment(domain.CommentProps{
		Content: content, PostID: domain.NewIdentifier(404), AuthorID: author.ID(),
	}, domain.Identifier{})
	require.NoError(t, err)

	_, err = store.Comments().Save(ctx, c)
	require.Error(t, err)
	assert.Equal(t, "Post with ID 404 not found.", err.Error())
}

func TestStore_FindRepliesByCommentIDs(t *testing.T) {
	store, author, post := newTestStore(t)
	a := saveComment(t, store, post.ID(), author.ID())
	b := saveComment(t, store, post.ID(), author.ID())
	r1 := saveReply(t, store, a, author.ID())
	saveReply(t, store, b, author.ID())
	r3 := saveReply(t, store, a, author.ID())

	replies, err := store.CommentResponses().FindByCommentIDs(ctx, []domain.Identifier{a.ID()})
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, r1.ID(), replies[0].ID())
	assert.Equal(t, r3.ID(), replies[1].ID())
}

func TestStore_DeleteCascades(t *testing.T) {
	store, author, post := newTestStore(t)
	reader := saveUser(t, store, "reader@example.com")
	comment := saveComment(t, store, post.ID(), reader.ID())
	reply := saveReply(t, store, comment, reader.ID())

	ok, err := store.Posts().Delete(ctx, post.ID())
	require.NoError(t, err)
	assert.True(t, ok)

	gone, err := store.Comments().FindByID(ctx, comment.ID())
	require.NoError(t, err)
	assert.Nil(t, gone)
	goneReply, err := store.CommentResponses().FindByID(ctx, reply.ID())
	require.NoError(t, err)
	assert.Nil(t, goneReply)

	ok, err = store.Posts().Delete(ctx, post.ID())
	require.NoError(t, err)
	assert.False(t, ok)

	// удаление автора уносит его посты
	other := savePost(t, store, author.ID(), "Another")
	ok, err = store.Users().Delete(ctx, author.ID())
	require.NoError(t, err)
	assert.True(t, ok)
	left, err := store.Posts().FindByID(ctx, other.ID())
	require.NoError(t, err)
	assert.Nil(t, left)
}

func TestStore_DeleteCategoryDetachesPosts(t *testing.T) {
	store, author, _ := newTestStore(t)
	tech := saveCategory(t, store, "Tech")
	post := savePost(t, store, author.ID(), "Tagged", tech.ID())

	ok, err := store.Categories().Delete(ctx, tech.ID())
	require.NoError(t, err)
	assert.True(t, ok)

	fresh, err := store.Posts().FindByID(ctx, post.ID())
	require.NoError(t, err)
	assert.Empty(t, fresh.CategoryIDs())
}
