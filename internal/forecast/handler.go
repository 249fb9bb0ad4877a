package forecast

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tapcask-pos/tapcask/internal/platform/httpx"
)

// Handler wires HTTP endpoints for reorder forecasting.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the forecast handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers forecast routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/forecast/reorder", h.handleReorder)
}

func (h *Handler) handleReorder(w http.ResponseWriter, r *http.Request) {
	params, err := parseParams(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	recommendations, err := h.service.GetSmartReorderRecommendations(r.Context(), params)
	if err != nil {
		h.logger.Error("reorder recommendations", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"window_start":    params.From,
		"window_end":      params.To,
		"recommendations": recommendations,
	})
}

func parseParams(r *http.Request) (Params, error) {
	q := r.URL.Query()
	from, err := time.Parse("2006-01-02", q.Get("from"))
	if err != nil {
		return Params{}, httpx.ErrValidation
	}
	to, err := time.Parse("2006-01-02", q.Get("to"))
	if err != nil {
		return Params{}, httpx.ErrValidation
	}
	// Window end is exclusive of the following day, so a from/to pair of
	// equal dates still covers that whole day.
	to = to.Add(24 * time.Hour)
	params := Params{From: from, To: to}
	if raw := q.Get("buffer_days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days <= 0 || days > 365 {
			return Params{}, httpx.ErrValidation
		}
		params.BufferDays = days
	}
	return params, nil
}
