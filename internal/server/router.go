package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/graph-gophers/graphql-go/relay"
	"go.uber.org/zap"

	"github.com/UkralStul/graphql-blog-service/internal/application/bus"
	"github.com/UkralStul/graphql-blog-service/internal/application/dto"
	"github.com/UkralStul/graphql-blog-service/internal/application/query"
	"github.com/UkralStul/graphql-blog-service/internal/auth"
	"github.com/UkralStul/graphql-blog-service/internal/dataloader"
)

// NewRouter настраивает маршруты и общие middleware.
func NewRouter(app *App) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(accessLog(app.log.Named("http")))
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.Config.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(app.Metrics.HTTPMiddleware)

	verify := auth.Middleware(app.Tokens, app.log.Named("auth"))
	refresh := auth.Refresh(roleLookup(app.Queries), app.log.Named("auth"))
	authenticate := func(next http.Handler) http.Handler { return verify(refresh(next)) }

	if app.Config.Server.Playground {
		router.Handle("/", playground.Handler("GraphQL playground", "/query"))
	}
	router.Handle("/query", authenticate(dataloader.Middleware(app.Queries, &relay.Handler{Schema: app.Schema})))
	router.Handle("/subscriptions", authenticate(newSubscriptionHandler(app.Schema, app.Config.Server.KeepAlive, app.log)))
	router.Handle("/metrics", app.Metrics.Handler())
	router.Get("/healthz", healthz)
	return router
}

// roleLookup читает актуальную роль через шину запросов.
func roleLookup(queries bus.Asker) auth.RoleLookup {
	return func(ctx context.Context, userID int64) (string, bool, error) {
		u, err := bus.Ask[*dto.UserDTO](ctx, queries, query.GetUserByID{ID: userID})
		if err != nil || u == nil {
			return "", false, err
		}
		return u.Role, true, nil
	}
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// accessLog пишет строку на каждый HTTP-запрос.
func accessLog(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("requestID", middleware.GetReqID(r.Context())),
				zap.String("remoteAddr", r.RemoteAddr),
			)
		})
	}
}
