package stock

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/tapcask-pos/tapcask/internal/platform/httpx"
)

// Handler wires HTTP endpoints for stock adjustments.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs the stock handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers stock routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/stock/adjustments", h.handleAdjustment)
}

type adjustmentRequest struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	QtyChange string `json:"qty_change" validate:"required"`
	Type      string `json:"type" validate:"omitempty,oneof=SALE RETURN COUNT ADJUST"`
	Note      string `json:"note" validate:"max=500"`
	Code      string `json:"code" validate:"max=64"`
	RefID     string `json:"ref_id" validate:"omitempty,uuid4"`
}

func (h *Handler) handleAdjustment(w http.ResponseWriter, r *http.Request) {
	var req adjustmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	qty, err := decimal.NewFromString(req.QtyChange)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "qty_change must be a decimal number")
		return
	}
	movement, err := h.service.PostAdjustment(r.Context(), AdjustmentInput{
		Code:      req.Code,
		ProductID: req.ProductID,
		QtyChange: qty,
		Type:      MovementType(req.Type),
		Note:      req.Note,
		RefID:     req.RefID,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNegativeStock):
			httpx.Problem(w, http.StatusConflict, "Negative Stock", err.Error())
		case errors.Is(err, ErrInvalidQuantity):
			httpx.Problem(w, http.StatusBadRequest, "Invalid Quantity", err.Error())
		default:
			h.logger.Error("post adjustment", slog.Int64("product_id", req.ProductID), slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusCreated, movement)
}
