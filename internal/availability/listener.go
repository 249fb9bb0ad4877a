package availability

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/tapcask-pos/tapcask/internal/stock"
)

// Listener subscribes to stock mutation events and invalidates cached
// availability for the affected product. This is the happens-before edge
// between a committed stock change on another replica and the next cached
// read here.
type Listener struct {
	logger  *slog.Logger
	client  *redis.Client
	service *Service
}

// NewListener constructs Listener.
func NewListener(logger *slog.Logger, client *redis.Client, service *Service) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{logger: logger, client: client, service: service}
}

// Run consumes events until the context is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	if l == nil || l.client == nil {
		return errors.New("availability: listener not initialised")
	}
	sub := l.client.Subscribe(ctx, stock.AdjustedChannel)
	defer func() { _ = sub.Close() }()

	// Fail fast if the subscription could not be established.
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return errors.New("availability: event channel closed")
			}
			l.handle(msg.Payload)
		}
	}
}

func (l *Listener) handle(payload string) {
	var evt stock.AdjustedEvent
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		l.logger.Warn("stock event: malformed payload", slog.Any("error", err))
		return
	}
	if evt.ProductID == 0 {
		l.logger.Warn("stock event: missing product id", slog.String("event_id", evt.EventID))
		return
	}
	affected := l.service.InvalidateCacheForProduct(evt.ProductID)
	l.logger.Info("stock event processed",
		slog.String("event_id", evt.EventID),
		slog.Int64("product_id", evt.ProductID),
		slog.Int("packages_invalidated", len(affected)))
}
