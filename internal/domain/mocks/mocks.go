// Package mocks содержит testify-моки контрактов домена для тестов обработчиков.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/UkralStul/graphql-blog-service/internal/domain"
)

// === Users ===

type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Save(ctx context.Context, u *domain.User) (*domain.User, error) {
	args := m.Called(ctx, u)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *UserRepository) FindByID(ctx context.Context, id domain.Identifier) (*domain.User, error) {
	args := m.Called(ctx, id)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *UserRepository) FindByEmail(ctx context.Context, email domain.Email) (*domain.User, error) {
	args := m.Called(ctx, email)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *UserRepository) FindByIDs(ctx context.Context, ids []domain.Identifier) ([]*domain.User, error) {
	args := m.Called(ctx, ids)
	users, _ := args.Get(0).([]*domain.User)
	return users, args.Error(1)
}

func (m *UserRepository) FindAll(ctx context.Context) ([]*domain.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]*domain.User)
	return users, args.Error(1)
}

func (m *UserRepository) Delete(ctx context.Context, id domain.Identifier) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func userOrNil(v any) *domain.User {
	u, _ := v.(*domain.User)
	return u
}

// === Posts ===

type PostRepository struct {
	mock.Mock
}

func (m *PostRepository) Save(ctx context.Context, p *domain.Post) (*domain.Post, error) {
	args := m.Called(ctx, p)
	return postOrNil(args.Get(0)), args.Error(1)
}

func (m *PostRepository) FindByID(ctx context.Context, id domain.Identifier) (*domain.Post, error) {
	args := m.Called(ctx, id)
	return postOrNil(args.Get(0)), args.Error(1)
}

func (m *PostRepository) Find(ctx context.Context, f domain.PostFilter) ([]*domain.Post, error) {
	args := m.Called(ctx, f)
	posts, _ := args.Get(0).([]*domain.Post)
	return posts, args.Error(1)
}

func (m *PostRepository) Count(ctx context.Context, f domain.PostFilter) (int, error) {
	args := m.Called(ctx, f)
	return args.Int(0), args.Error(1)
}

func (m *PostRepository) Delete(ctx context.Context, id domain.Identifier) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func postOrNil(v any) *domain.Post {
	p, _ := v.(*domain.Post)
	return p
}

// === Categories ===

type CategoryRepository struct {
	mock.Mock
}

func (m *CategoryRepository) Save(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	args := m.Called(ctx, c)
	return categoryOrNil(args.Get(0)), args.Error(1)
}

func (m *CategoryRepository) FindByID(ctx context.Context, id domain.Identifier) (*domain.Category, error) {
	args := m.Called(ctx, id)
	return categoryOrNil(args.Get(0)), args.Error(1)
}

func (m *CategoryRepository) FindByName(ctx context.Context, name domain.CategoryName) (*domain.Category, error) {
	args := m.Called(ctx, name)
	return categoryOrNil(args.Get(0)), args.Error(1)
}

func (m *CategoryRepository) FindByIDs(ctx context.Context, ids []domain.Identifier) ([]*domain.Category, error) {
	args := m.Called(ctx, ids)
	categories, _ := args.Get(0).([]*domain.Category)
	return categories, args.Error(1)
}

func (m *CategoryRepository) FindAll(ctx context.Context) ([]*domain.Category, error) {
	args := m.Called(ctx)
	categories, _ := args.Get(0).([]*domain.Category)
	return categories, args.Error(1)
}

func (m *CategoryRepository) Delete(ctx context.Context, id domain.Identifier) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func categoryOrNil(v any) *domain.Category {
	c, _ := v.(*domain.Category)
	return c
}

// === Comments ===

type CommentRepository struct {
	mock.Mock
}

func (m *CommentRepository) Save(ctx context.Context, c *domain.Comment) (*domain.Comment, error) {
	args := m.Called(ctx, c)
	return commentOrNil(args.Get(0)), args.Error(1)
}

func (m *CommentRepository) FindByID(ctx context.Context, id domain.Identifier) (*domain.Comment, error) {
	args := m.Called(ctx, id)
	return commentOrNil(args.Get(0)), args.Error(1)
}

func (m *CommentRepository) FindByPostID(ctx context.Context, postID domain.Identifier) ([]*domain.Comment, error) {
	args := m.Called(ctx, postID)
	comments, _ := args.Get(0).([]*domain.Comment)
	return comments, args.Error(1)
}

func (m *CommentRepository) Delete(ctx context.Context, id domain.Identifier) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func commentOrNil(v any) *domain.Comment {
	c, _ := v.(*domain.Comment)
	return c
}

// === Comment responses ===

type CommentResponseRepository struct {
	mock.Mock
}

func (m *CommentResponseRepository) Save(ctx context.Context, r *domain.CommentResponse) (*domain.CommentResponse, error) {
	args := m.Called(ctx, r)
	return responseOrNil(args.Get(0)), args.Error(1)
}

func (m *CommentResponseRepository) FindByID(ctx context.Context, id domain.Identifier) (*domain.CommentResponse, error) {
	args := m.Called(ctx, id)
	return responseOrNil(args.Get(0)), args.Error(1)
}

func (m *CommentResponseRepository) FindByCommentIDs(ctx context.Context, ids []domain.Identifier) ([]*domain.CommentResponse, error) {
	args := m.Called(ctx, ids)
	responses, _ := args.Get(0).([]*domain.CommentResponse)
	return responses, args.Error(1)
}

func (m *CommentResponseRepository) Delete(ctx context.Context, id domain.Identifier) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func responseOrNil(v any) *domain.CommentResponse {
	r, _ := v.(*domain.CommentResponse)
	return r
}

// === Events ===

type EventPublisher struct {
	mock.Mock
}

func (m *EventPublisher) Publish(ctx context.Context, e domain.DomainEvent) error {
	return m.Called(ctx, e).Error(0)
}

func (m *EventPublisher) PublishAll(ctx context.Context, events []domain.DomainEvent) error {
	return m.Called(ctx, events).Error(0)
}

// QueryAsker - мок шины запросов.
type QueryAsker struct {
	mock.Mock
}

func (m *QueryAsker) Ask(ctx context.Context, q any) (any, error) {
	args := m.Called(ctx, q)
	return args.Get(0), args.Error(1)
}
