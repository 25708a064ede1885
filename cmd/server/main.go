package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/UkralStul/graphql-blog-service/internal/application/bus"
	"github.com/UkralStul/graphql-blog-service/internal/application/command"
	"github.com/UkralStul/graphql-blog-service/internal/application/dto"
	"github.com/UkralStul/graphql-blog-service/internal/config"
	"github.com/UkralStul/graphql-blog-service/internal/server"
	"github.com/UkralStul/graphql-blog-service/internal/storage/postgres"
)

var (
	configPath  string
	storageType string
	port        string
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the GraphQL server",
		RunE:  func(cmd *cobra.Command, _ []string) error { return runServe(cmd.Context()) },
	}
	root := &cobra.Command{
		Use:          "blog",
		Short:        "GraphQL blog service",
		SilenceUsage: true,
		// Без подкоманды запускаем сервер.
		RunE: serve.RunE,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	root.PersistentFlags().StringVar(&storageType, "storage", "", "storage type (in-memory or postgres)")
	root.PersistentFlags().StringVar(&port, "port", "", "HTTP port")

	var email string
	promote := &cobra.Command{
		Use:   "promote-admin",
		Short: "Grant the ADMIN role to a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPromote(cmd.Context(), email)
		},
	}
	promote.Flags().StringVar(&email, "email", "", "email of the user to promote")
	_ = promote.MarkFlagRequired("email")

	root.AddCommand(serve, &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the postgres schema",
		RunE:  func(cmd *cobra.Command, _ []string) error { return runMigrate(cmd.Context()) },
	}, promote)
	return root
}

// loadConfig: файл, окружение, затем флаги.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if storageType != "" {
		cfg.Storage.Type = storageType
	}
	if port != "" {
		cfg.Server.Port = port
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := server.NewLogger(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, logger, nil
}

func runServe(ctx context.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting server", zap.String("storage", cfg.Storage.Type))
	app, err := server.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		if cfg.Server.Playground {
			logger.Info(fmt.Sprintf("connect to http://localhost:%s/ for GraphQL playground", cfg.Server.Port))
		}
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return errors.Join(srv.Shutdown(shutdownCtx), app.Close(shutdownCtx))
}

func runMigrate(ctx context.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	if cfg.Storage.Type != config.StoragePostgres {
		return errors.New("migrate requires postgres storage")
	}
	store, err := postgres.New(cfg.Storage.DSN, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("schema is up to date")
	return nil
}

func runPromote(ctx context.Context, email string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	// Для in-memory хранилища повышение бессмысленно: данные живут в процессе.
	if cfg.Storage.Type != config.StoragePostgres {
		return errors.New("promote-admin requires postgres storage")
	}
	cfg.Storage.Seed = false
	app, err := server.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close(ctx)

	user, err := bus.Send[*dto.UserDTO](ctx, app.Commands, command.PromoteUser{Email: email})
	if err != nil {
		return err
	}
	logger.Info("user promoted", zap.Int64("id", user.ID), zap.String("email", user.Email), zap.String("role", user.Role))
	return nil
}
