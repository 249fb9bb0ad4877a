package snapshot

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tapcask-pos/tapcask/internal/platform/httpx"
)

// Handler serves the current snapshot to syncing clients.
type Handler struct {
	logger *slog.Logger
	store  *Store
}

// NewHandler constructs the snapshot handler.
func NewHandler(logger *slog.Logger, store *Store) *Handler {
	return &Handler{logger: logger, store: store}
}

// MountRoutes registers snapshot routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/snapshot", h.handleCurrent)
}

func (h *Handler) handleCurrent(w http.ResponseWriter, r *http.Request) {
	snap, err := h.store.Current(r.Context())
	if err != nil {
		if errors.Is(err, ErrNoSnapshot) {
			httpx.Problem(w, http.StatusServiceUnavailable, "Snapshot Unavailable",
				"no snapshot has been published yet")
			return
		}
		h.logger.Error("fetch snapshot", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, snap)
}
