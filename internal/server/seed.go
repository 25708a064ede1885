package server

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/UkralStul/graphql-blog-service/internal/application/bus"
	"github.com/UkralStul/graphql-blog-service/internal/application/command"
	"github.com/UkralStul/graphql-blog-service/internal/application/dto"
	"github.com/UkralStul/graphql-blog-service/internal/domain"
)

// DemoPassword - пароль всех демонстрационных пользователей.
const DemoPassword = "password123"

// Seed заполняет пустое хранилище демонстрационными данными через шину команд,
// поэтому все инварианты и события проходят обычный путь.
func Seed(ctx context.Context, commands bus.Sender, log *zap.Logger) error {
	// 1. Пользователи. Первый становится администратором.
	admin, err := seedUser(ctx, commands, "admin@example.com", "admin")
	if err != nil {
		return err
	}
	if admin, err = bus.Send[*dto.UserDTO](ctx, commands, command.PromoteUser{Email: admin.Email}); err != nil {
		return fmt.Errorf("promote admin: %w", err)
	}
	alice, err := seedUser(ctx, commands, "alice@example.com", "alice")
	if err != nil {
		return err
	}
	bob, err := seedUser(ctx, commands, "bob@example.com", "bob")
	if err != nil {
		return err
	}
	asAdmin := command.Actor{UserID: admin.ID, Role: domain.RoleAdmin}
	asAlice := command.Actor{UserID: alice.ID, Role: domain.RoleUser}
	asBob := command.Actor{UserID: bob.ID, Role: domain.RoleUser}

	// 2. Категории.
	goCat, err := bus.Send[*dto.CategoryDTO](ctx, commands, command.CreateCategory{Name: "Golang"})
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	gqlCat, err := bus.Send[*dto.CategoryDTO](ctx, commands, command.CreateCategory{Name: "GraphQL"})
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}

	// 3. Опубликованный пост с комментариями и черновик.
	post, err := bus.Send[*dto.PostDTO](ctx, commands, command.CreatePost{
		Actor:       asAlice,
		Title:       "Тестовый пост о GraphQL",
		Content:     "Это содержимое тестового поста. Здесь мы обсуждаем GraphQL и Go.",
		CategoryIDs: []int64{goCat.ID, gqlCat.ID},
	})
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	if _, err := bus.Send[*dto.PostDTO](ctx, commands, command.PublishPost{Actor: asAlice, ID: post.ID}); err != nil {
		return fmt.Errorf("publish post: %w", err)
	}

	c1, err := bus.Send[*dto.CommentDTO](ctx, commands, command.CreateComment{
		Actor: asBob, PostID: post.ID, Content: "Отличный пост! Очень информативно.",
	})
	if err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	if _, err := bus.Send[*dto.CommentResponseDTO](ctx, commands, command.CreateCommentResponse{
		Actor: asAlice, CommentID: c1.ID, Content: "Спасибо! Рад, что вам понравилось.",
	}); err != nil {
		return fmt.Errorf("create reply: %w", err)
	}
	if _, err := bus.Send[*dto.CommentDTO](ctx, commands, command.CreateComment{
		Actor: asAdmin, PostID: post.ID, Content: "А как насчет производительности при большой вложенности?",
	}); err != nil {
		return fmt.Errorf("create comment: %w", err)
	}

	draft, err := bus.Send[*dto.PostDTO](ctx, commands, command.CreatePost{
		Actor: asBob,
		Title: "Черновик",
		// Без содержимого: черновик можно сохранить пустым.
	})
	if err != nil {
		return fmt.Errorf("create draft: %w", err)
	}

	log.Info("mock data filled",
		zap.Int64("post", post.ID),
		zap.Int64("draft", draft.ID),
		zap.Strings("users", []string{admin.Email, alice.Email, bob.Email}),
	)
	return nil
}

func seedUser(ctx context.Context, commands bus.Sender, email, username string) (*dto.UserDTO, error) {
	u, err := bus.Send[*dto.UserDTO](ctx, commands, command.CreateUser{
		Email: email, Username: username, Password: DemoPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("create user %s: %w", username, err)
	}
	return u, nil
}
