package stock

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// MovementType enumerates supported stock mutations.
type MovementType string

const (
	// MovementTypeSale represents stock consumed by a completed sale.
	MovementTypeSale MovementType = "SALE"
	// MovementTypeReturn represents stock returned to the shelf.
	MovementTypeReturn MovementType = "RETURN"
	// MovementTypeCount represents a manual count correction.
	MovementTypeCount MovementType = "COUNT"
	// MovementTypeAdjust indicates other manual adjustments.
	MovementTypeAdjust MovementType = "ADJUST"
)

// AdjustmentInput describes a request to adjust product stock.
type AdjustmentInput struct {
	Code      string
	ProductID int64
	QtyChange decimal.Decimal
	Type      MovementType
	Note      string
	ActorID   int64
	RefID     string
}

// Movement records one applied stock mutation.
type Movement struct {
	ID         int64           `json:"id"`
	Code       string          `json:"code"`
	ProductID  int64           `json:"product_id"`
	Type       MovementType    `json:"type"`
	QtyChange  decimal.Decimal `json:"qty_change"`
	StockAfter decimal.Decimal `json:"stock_after"`
	Note       string          `json:"note"`
	PostedAt   time.Time       `json:"posted_at"`
	CreatedBy  int64           `json:"created_by"`
}

// ErrNegativeStock is returned when a movement would drive stock below zero.
// Transient negative states are never persisted.
var ErrNegativeStock = errors.New("stock: negative stock not allowed")

// ErrInvalidQuantity indicates a zero quantity change.
var ErrInvalidQuantity = errors.New("stock: quantity change must be non zero")
