package availability

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tapcask-pos/tapcask/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the availability engine.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the availability handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers availability routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/packages/{id}/availability", h.handlePackageAvailability)
	r.Get("/availability", h.handleAllAvailability)
	r.Get("/products/{id}/package-impact", h.handleProductImpact)
	r.Get("/bottlenecks", h.handleBottlenecks)
	r.Get("/bottlenecks/critical", h.handleCriticalBottlenecks)
	r.Post("/availability/invalidate", h.handleInvalidate)
	r.Post("/availability/invalidate-product", h.handleInvalidateProduct)
}

func (h *Handler) handlePackageAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	forceRefresh := r.URL.Query().Get("refresh") == "1"
	availability, err := h.service.CalculatePackageAvailability(r.Context(), id, forceRefresh)
	if err != nil {
		h.logger.Error("calculate availability", slog.Int64("package_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, availability)
}

func (h *Handler) handleAllAvailability(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.CalculateAllPackageAvailability(r.Context())
	if err != nil {
		h.logger.Error("calculate all availability", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"results": results})
}

func (h *Handler) handleProductImpact(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	impact, err := h.service.GetProductPackageImpact(r.Context(), id)
	if err != nil {
		h.logger.Error("product package impact", slog.Int64("product_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, impact)
}

func (h *Handler) handleBottlenecks(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.IdentifyBottlenecks(r.Context())
	if err != nil {
		h.logger.Error("identify bottlenecks", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleCriticalBottlenecks(w http.ResponseWriter, r *http.Request) {
	critical, err := h.service.GetCriticalBottlenecks(r.Context())
	if err != nil {
		h.logger.Error("critical bottlenecks", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"critical_bottlenecks": critical})
}

type invalidateRequest struct {
	PackageID int64 `json:"package_id"`
}

func (h *Handler) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	var req invalidateRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.RespondError(w, httpx.ErrValidation)
			return
		}
	}
	if req.PackageID != 0 {
		h.service.InvalidateCache(req.PackageID)
	} else {
		h.service.InvalidateCache()
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

type invalidateProductRequest struct {
	ProductID int64 `json:"product_id"`
}

func (h *Handler) handleInvalidateProduct(w http.ResponseWriter, r *http.Request) {
	var req invalidateProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || req.ProductID == 0 {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	affected := h.service.InvalidateCacheForProduct(req.ProductID)
	httpx.JSON(w, http.StatusOK, map[string]any{"invalidated_packages": affected})
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, httpx.ErrValidation
	}
	return id, nil
}
