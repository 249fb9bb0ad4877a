package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tapcask-pos/tapcask/internal/platform/db"
	"github.com/tapcask-pos/tapcask/internal/shared"
)

// Repository persists stock mutations in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the service.
type TxRepository interface {
	GetStockForUpdate(ctx context.Context, productID int64) (decimal.Decimal, error)
	UpdateStock(ctx context.Context, productID int64, newStock decimal.Decimal) error
	InsertMovement(ctx context.Context, movement Movement) (int64, error)
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("stock repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *txRepository) GetStockForUpdate(ctx context.Context, productID int64) (decimal.Decimal, error) {
	var stock pgtype.Numeric
	err := r.tx.QueryRow(ctx, `SELECT current_stock FROM products WHERE id=$1 FOR UPDATE`, productID).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("product %d: %w", productID, shared.ErrNotFound)
		}
		return decimal.Zero, err
	}
	if !stock.Valid || stock.Int == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromBigInt(stock.Int, stock.Exp), nil
}

func (r *txRepository) UpdateStock(ctx context.Context, productID int64, newStock decimal.Decimal) error {
	_, err := r.tx.Exec(ctx, `UPDATE products SET current_stock=$2, updated_at=now() WHERE id=$1`,
		productID, newStock.String())
	return err
}

func (r *txRepository) InsertMovement(ctx context.Context, movement Movement) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO stock_movements
(code, product_id, movement_type, qty_change, stock_after, note, posted_at, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`,
		movement.Code, movement.ProductID, string(movement.Type),
		movement.QtyChange.String(), movement.StockAfter.String(),
		movement.Note, movement.PostedAt, nullInt64(movement.CreatedBy)).Scan(&id)
	return id, err
}

func nullInt64(v int64) pgtype.Int8 {
	return pgtype.Int8{Int64: v, Valid: v != 0}
}
