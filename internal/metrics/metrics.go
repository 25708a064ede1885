// Package metrics - метрики Prometheus на собственном реестре.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/UkralStul/graphql-blog-service/internal/apperrors"
	"github.com/UkralStul/graphql-blog-service/internal/application/bus"
	"github.com/UkralStul/graphql-blog-service/internal/domain"
)

const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

type Collector struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	busMessages  *prometheus.CounterVec
	busDuration  *prometheus.HistogramVec
	domainEvents *prometheus.CounterVec
}

// New создает коллектор. Каждый вызов получает свой реестр, поэтому тесты не конфликтуют.
func New(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		busMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bus_messages_total",
			Help:      "Commands and queries handled, by outcome",
		}, []string{"kind", "name", "outcome"}),
		busDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bus_message_duration_seconds",
			Help:      "Command and query handling duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind", "name"}),
		domainEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "domain_events_total",
			Help:      "Domain events published",
		}, []string{"name"}),
	}
	c.registry.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.busMessages,
		c.busDuration,
		c.domainEvents,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler отдает метрики для /metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// HTTPMiddleware считает запросы по шаблону маршрута chi.
func (c *Collector) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		c.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		c.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// BusMiddleware считает команды и запросы.
func (c *Collector) BusMiddleware() bus.Middleware {
	return func(kind string, next bus.Handler) bus.Handler {
		return bus.HandlerFunc(func(ctx context.Context, msg any) (any, error) {
			start := time.Now()
			res, err := next.Handle(ctx, msg)
			name := bus.MessageName(msg)
			c.busMessages.WithLabelValues(kind, name, outcome(err)).Inc()
			c.busDuration.WithLabelValues(kind, name).Observe(time.Since(start).Seconds())
			return res, err
		})
	}
}

// EventHandler подписывается на шину событий.
func (c *Collector) EventHandler(_ context.Context, event domain.DomainEvent) error {
	c.domainEvents.WithLabelValues(event.EventName()).Inc()
	return nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case apperrors.GetAppError(err) != nil && !apperrors.IsInternal(err):
		return OutcomeRejected
	default:
		return OutcomeError
	}
}
