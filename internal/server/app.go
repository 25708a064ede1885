// Package server собирает приложение: хранилище, шины, обработчики, схему и HTTP-роутер.
package server

import (
	"context"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/go-chi/chi/v5"
	graphql "github.com/graph-gophers/graphql-go"
	"go.uber.org/zap"

	"github.com/UkralStul/graphql-blog-service/graph"
	"github.com/UkralStul/graphql-blog-service/internal/application/bus"
	"github.com/UkralStul/graphql-blog-service/internal/application/command"
	"github.com/UkralStul/graphql-blog-service/internal/application/query"
	"github.com/UkralStul/graphql-blog-service/internal/auth"
	"github.com/UkralStul/graphql-blog-service/internal/config"
	"github.com/UkralStul/graphql-blog-service/internal/domain"
	"github.com/UkralStul/graphql-blog-service/internal/eventbus"
	"github.com/UkralStul/graphql-blog-service/internal/metrics"
	"github.com/UkralStul/graphql-blog-service/internal/storage"
	"github.com/UkralStul/graphql-blog-service/internal/storage/inmemory"
	"github.com/UkralStul/graphql-blog-service/internal/storage/postgres"
	"github.com/UkralStul/graphql-blog-service/internal/telemetry"
)

// App - собранное приложение. Router готов к обслуживанию запросов.
type App struct {
	Config   *config.Config
	Store    storage.Storage
	Events   *eventbus.Bus
	Commands *bus.CommandBus
	Queries  *bus.QueryBus
	Observer *graph.CommentObserver
	Schema   *graphql.Schema
	Tokens   *auth.TokenService
	Metrics  *metrics.Collector
	Tracing  *telemetry.Provider
	Router   *chi.Mux

	log *zap.Logger
}

// Build собирает приложение по конфигурации.
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	store, err := OpenStorage(cfg.Storage, log)
	if err != nil {
		return nil, err
	}
	app, err := assemble(ctx, cfg, store, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if cfg.Storage.Type == config.StorageInMemory && cfg.Storage.Seed {
		if err := Seed(ctx, app.Commands, log); err != nil {
			_ = app.Close(ctx)
			return nil, fmt.Errorf("seed demo data: %w", err)
		}
	}
	return app, nil
}

// OpenStorage выбирает реализацию хранилища.
func OpenStorage(cfg config.StorageConfig, log *zap.Logger) (storage.Storage, error) {
	switch cfg.Type {
	case config.StorageInMemory, "":
		return inmemory.New(), nil
	case config.StoragePostgres:
		if cfg.DSN == "" {
			return nil, errors.New("DATABASE_URL must be set for postgres storage")
		}
		store, err := postgres.New(cfg.DSN, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

func assemble(ctx context.Context, cfg *config.Config, store storage.Storage, log *zap.Logger) (*App, error) {
	tracing, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}
	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret:   cfg.Auth.JWTSecret,
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
		TTL:      cfg.Auth.TokenTTL,
	})
	if err != nil {
		return nil, err
	}

	collector := metrics.New("blog")
	middlewares := []bus.Middleware{
		tracing.BusMiddleware(),
		collector.BusMiddleware(),
		bus.LoggingMiddleware(log.Named("bus")),
		bus.ValidationMiddleware(nil),
	}
	queries := bus.NewQueryBus(middlewares...)
	commands := bus.NewCommandBus(middlewares...)

	qh := query.NewHandlers(query.Repositories{
		Users:      store.Users(),
		Posts:      store.Posts(),
		Categories: store.Categories(),
		Comments:   store.Comments(),
		Responses:  store.CommentResponses(),
	})
	if err := qh.Register(queries); err != nil {
		return nil, err
	}

	events := eventbus.New()
	observer := graph.NewCommentObserver(queries, log)
	events.SubscribeAll(eventbus.LogHandler(log.Named("events")))
	events.SubscribeAll(collector.EventHandler)
	events.Subscribe(domain.EventCommentCreated, observer.Handle)
	if cfg.Events.BusName != "" {
		forwarder, err := newForwarder(ctx, cfg.Events, log)
		if err != nil {
			return nil, err
		}
		events.SubscribeAll(bestEffort(forwarder.Handle, log))
	}

	ch := command.NewHandlers(command.Dependencies{
		Users:      store.Users(),
		Posts:      store.Posts(),
		Categories: store.Categories(),
		Comments:   store.Comments(),
		Responses:  store.CommentResponses(),
		Events:     events,
		Queries:    queries,
		Hasher:     auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		Tokens:     tokens,
		Logger:     log,
	})
	if err := ch.Register(commands); err != nil {
		return nil, err
	}

	schema := graph.NewSchema(graph.NewResolver(commands, queries, observer, log))

	app := &App{
		Config:   cfg,
		Store:    store,
		Events:   events,
		Commands: commands,
		Queries:  queries,
		Observer: observer,
		Schema:   schema,
		Tokens:   tokens,
		Metrics:  collector,
		Tracing:  tracing,
		log:      log,
	}
	app.Router = NewRouter(app)
	return app, nil
}

func newForwarder(ctx context.Context, cfg config.EventsConfig, log *zap.Logger) (*eventbus.Forwarder, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return eventbus.NewForwarder(eventbridge.NewFromConfig(awsCfg), eventbus.ForwarderConfig{
		BusName: cfg.BusName,
		Source:  cfg.Source,
	}, log.Named("eventbridge")), nil
}

// bestEffort: запись уже сохранена, поэтому сбой внешней доставки только логируется.
func bestEffort(h eventbus.Handler, log *zap.Logger) eventbus.Handler {
	return func(ctx context.Context, event domain.DomainEvent) error {
		if err := h(ctx, event); err != nil {
			log.Warn("event forwarding failed", zap.String("event", event.EventName()), zap.Error(err))
		}
		return nil
	}
}

// Close освобождает хранилище и сбрасывает трассировку.
func (a *App) Close(ctx context.Context) error {
	return errors.Join(a.Tracing.Shutdown(ctx), a.Store.Close())
}
