package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/UkralStul/graphql-blog-service/internal/domain"
)

// PutEventsRequestEntry принимает не больше 10 записей за вызов.
const maxBatchSize = 10

// PutEventsAPI - часть клиента EventBridge, нужная форвардеру.
type PutEventsAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

type ForwarderConfig struct {
	BusName string
	Source  string
	// BreakerTimeout - сколько автомат остается разомкнутым.
	BreakerTimeout time.Duration
	// FailureThreshold - число подряд идущих ошибок до размыкания.
	FailureThreshold uint32
}

// Forwarder пересылает события в EventBridge через автомат gobreaker.
type Forwarder struct {
	client  PutEventsAPI
	cfg     ForwarderConfig
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

func NewForwarder(client PutEventsAPI, cfg ForwarderConfig, logger *zap.Logger) *Forwarder {
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	threshold := cfg.FailureThreshold
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "eventbridge",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return &Forwarder{client: client, cfg: cfg, breaker: breaker, logger: logger}
}

// Handle подходит для Bus.SubscribeAll.
func (f *Forwarder) Handle(ctx context.Context, event domain.DomainEvent) error {
	return f.Forward(ctx, []domain.DomainEvent{event})
}

// Forward отправляет события пачками по 10.
func (f *Forwarder) Forward(ctx context.Context, events []domain.DomainEvent) error {
	for start := 0; start < len(events); start += maxBatchSize {
		end := min(start+maxBatchSize, len(events))
		batch := events[start:end]
		_, err := f.breaker.Execute(func() (interface{}, error) {
			return nil, f.put(ctx, batch)
		})
		if err != nil {
			return fmt.Errorf("forward events to %s: %w", f.cfg.BusName, err)
		}
	}
	return nil
}

func (f *Forwarder) put(ctx context.Context, events []domain.DomainEvent) error {
	entries := make([]types.PutEventsRequestEntry, 0, len(events))
	for _, e := range events {
		detail, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", e.EventName(), err)
		}
		entries = append(entries, types.PutEventsRequestEntry{
			EventBusName: aws.String(f.cfg.BusName),
			Source:       aws.String(f.cfg.Source),
			DetailType:   aws.String(e.EventName()),
			Detail:       aws.String(string(detail)),
			Time:         aws.Time(e.OccurredOn()),
		})
	}

	out, err := f.client.PutEvents(ctx, &eventbridge.PutEventsInput{Entries: entries})
	if err != nil {
		return err
	}
	if out.FailedEntryCount > 0 {
		for i, entry := range out.Entries {
			if entry.ErrorCode != nil && i < len(events) {
				f.logger.Error("event rejected by EventBridge",
					zap.String("event", events[i].EventName()),
					zap.String("errorCode", aws.ToString(entry.ErrorCode)),
					zap.String("errorMessage", aws.ToString(entry.ErrorMessage)),
				)
			}
		}
		return fmt.Errorf("%d of %d events failed to publish", out.FailedEntryCount, len(entries))
	}
	f.logger.Debug("events forwarded", zap.Int("count", len(entries)), zap.String("bus", f.cfg.BusName))
	return nil
}
