package stock

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// AdjustedChannel is the redis channel carrying stock mutation events. The
// availability cache listens here for invalidation signals.
const AdjustedChannel = "tapcask:stock:adjusted"

// AdjustedEvent signals that a product's stock level changed.
type AdjustedEvent struct {
	EventID    string          `json:"event_id"`
	ProductID  int64           `json:"product_id"`
	QtyChange  decimal.Decimal `json:"qty_change"`
	StockAfter decimal.Decimal `json:"stock_after"`
	Type       MovementType    `json:"type"`
	PostedAt   time.Time       `json:"posted_at"`
}

// EventPublisher broadcasts stock mutation events.
type EventPublisher interface {
	PublishAdjusted(ctx context.Context, evt AdjustedEvent) error
}

// RedisPublisher publishes stock events over redis pub/sub so every API
// replica can invalidate its local availability cache.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher constructs RedisPublisher.
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// PublishAdjusted broadcasts the event on AdjustedChannel.
func (p *RedisPublisher) PublishAdjusted(ctx context.Context, evt AdjustedEvent) error {
	if p == nil || p.client == nil {
		return fmt.Errorf("stock: publisher not initialised")
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("stock: marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, AdjustedChannel, payload).Err(); err != nil {
		return fmt.Errorf("stock: publish event: %w", err)
	}
	return nil
}
