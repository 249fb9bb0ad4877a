package stock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tapcask-pos/tapcask/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// Invalidator evicts availability results for a mutated product. Called
// synchronously after commit so the local cache can never serve availability
// derived from the old stock value.
type Invalidator interface {
	InvalidateCacheForProduct(productID int64) []int64
}

// Service applies stock mutations and emits invalidation events. It is the
// only writer of product stock; the availability engine only reads.
type Service struct {
	logger      *slog.Logger
	repo        RepositoryPort
	idempotency *shared.IdempotencyStore
	publisher   EventPublisher
	invalidator Invalidator
}

// NewService builds Service. idempotency, publisher and invalidator are
// optional.
func NewService(logger *slog.Logger, repo RepositoryPort, idem *shared.IdempotencyStore, publisher EventPublisher, invalidator Invalidator) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger, repo: repo, idempotency: idem, publisher: publisher, invalidator: invalidator}
}

// PostAdjustment applies a stock adjustment. The resulting stock must stay
// non-negative; violations roll the transaction back. On success the local
// availability cache is invalidated before returning, and the event is
// broadcast for other replicas.
func (s *Service) PostAdjustment(ctx context.Context, input AdjustmentInput) (Movement, error) {
	if input.ProductID == 0 {
		return Movement{}, errors.New("stock: product required")
	}
	if input.QtyChange.IsZero() {
		return Movement{}, ErrInvalidQuantity
	}
	if input.Type == "" {
		input.Type = MovementTypeAdjust
	}
	if input.RefID != "" {
		if _, err := uuid.Parse(input.RefID); err != nil {
			return Movement{}, fmt.Errorf("stock: invalid ref id: %w", err)
		}
	}
	now := time.Now().UTC()
	code := input.Code
	if code == "" {
		code = fmt.Sprintf("STK-%d", now.UnixNano())
	}

	key := fmt.Sprintf("%s:%s:%d", input.Type, code, input.ProductID)
	insertedKey := false
	if s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, key, "stock"); err != nil {
			return Movement{}, err
		}
		insertedKey = true
	}

	var movement Movement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetStockForUpdate(ctx, input.ProductID)
		if err != nil {
			return err
		}
		newStock := current.Add(input.QtyChange)
		if newStock.Sign() < 0 {
			return ErrNegativeStock
		}
		if err := tx.UpdateStock(ctx, input.ProductID, newStock); err != nil {
			return err
		}
		movement = Movement{
			Code:       code,
			ProductID:  input.ProductID,
			Type:       input.Type,
			QtyChange:  input.QtyChange,
			StockAfter: newStock,
			Note:       input.Note,
			PostedAt:   now,
			CreatedBy:  input.ActorID,
		}
		id, err := tx.InsertMovement(ctx, movement)
		if err != nil {
			return err
		}
		movement.ID = id
		return nil
	})
	if err != nil {
		if insertedKey {
			_ = s.idempotency.Delete(ctx, key)
		}
		return Movement{}, err
	}

	if s.invalidator != nil {
		s.invalidator.InvalidateCacheForProduct(input.ProductID)
	}
	if s.publisher != nil {
		evt := AdjustedEvent{
			EventID:    uuid.NewString(),
			ProductID:  input.ProductID,
			QtyChange:  input.QtyChange,
			StockAfter: movement.StockAfter,
			Type:       input.Type,
			PostedAt:   now,
		}
		if err := s.publisher.PublishAdjusted(ctx, evt); err != nil {
			// Remote caches stay bounded by TTL; the local one was already
			// invalidated above.
			s.logger.Warn("stock: event publish failed",
				slog.Int64("product_id", input.ProductID),
				slog.Any("error", err))
		}
	}
	return movement, nil
}
