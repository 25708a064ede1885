package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UkralStul/graphql-blog-service/internal/domain"
)

func TestMappers_NilInput(t *testing.T) {
	assert.Nil(t, UserToDTO(nil))
	assert.Nil(t, PostToDTO(nil))
	assert.Nil(t, CategoryToDTO(nil))
	assert.Nil(t, CommentToDTO(nil))
	assert.Nil(t, CommentResponseToDTO(nil))
}

func TestMappers_NilAndEmptySlices(t *testing.T) {
	assert.NotNil(t, UsersToDTOs(nil))
	assert.Empty(t, UsersToDTOs(nil))
	assert.Empty(t, UsersToDTOs([]*domain.User{}))
	assert.NotNil(t, PostsToDTOs(nil))
	assert.NotNil(t, CategoriesToDTOs(nil))
	assert.NotNil(t, CommentsToDTOs(nil))
	assert.NotNil(t, CommentResponsesToDTOs([]*domain.CommentResponse{}))
}

func TestUserToDTO_NoPassword(t *testing.T) {
	email, err := domain.NewEmail("a@b.io")
	require.NoError(t, err)
	u, err := domain.CreateUser(domain.UserProps{Email: email, Username: "ann", Password: "secret-hash"}, domain.NewIdentifier(3))
	require.NoError(t, err)

	d := UserToDTO(u)
	assert.Equal(t, int64(3), d.ID)
	assert.Equal(t, "USER", d.Role)

	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret-hash")
	assert.NotContains(t, string(raw), "password")
}

func TestCommentToDTO_WithReplies(t *testing.T) {
	content, err := domain.NewCommentContent("hello")
	require.NoError(t, err)

	c, err := domain.CreateComment(domain.CommentProps{
		Content: content, PostID: domain.NewIdentifier(1), AuthorID: domain.NewIdentifier(2),
	}, domain.NewIdentifier(5))
	require.NoError(t, err)

	d := CommentToDTO(c)
	assert.NotNil(t, d.Replies)
	assert.Empty(t, d.Replies)

	r, err := domain.CreateCommentResponse(domain.CommentResponseProps{
		Content: content, CommentID: domain.NewIdentifier(5), PostID: domain.NewIdentifier(1), AuthorID: domain.NewIdentifier(3),
	}, domain.NewIdentifier(8))
	require.NoError(t, err)
	require.NoError(t, c.AddResponse(r))

	d = CommentToDTO(c)
	require.Len(t, d.Replies, 1)
	assert.Equal(t, int64(8), d.Replies[0].ID)
	assert.Equal(t, int64(5), d.Replies[0].CommentID)
}

func TestPostToDTO(t *testing.T) {
	title, _ := domain.NewPostTitle("Title")
	content, _ := domain.NewPostContent("Body")
	p, err := domain.CreatePost(domain.PostProps{
		Title: title, Content: content, AuthorID: domain.NewIdentifier(1),
		CategoryIDs: domain.NewIdentifiers([]int64{4, 2}),
	}, domain.NewIdentifier(7))
	require.NoError(t, err)

	d := PostToDTO(p)
	assert.Equal(t, int64(7), d.ID)
	assert.Equal(t, "Title", d.Title)
	assert.False(t, d.Published)
	assert.Equal(t, []int64{4, 2}, d.CategoryIDs)
}
