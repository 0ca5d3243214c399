package settings

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/velomart-erp/velomart-erp/internal/platform/httpx"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/stock-alert-level", h.ShowStockAlertLevel)
	r.Put("/stock-alert-level", h.UpdateStockAlertLevel)
	r.Get("/slug-check-include-deleted", h.ShowSlugScope)
	r.Put("/slug-check-include-deleted", h.UpdateSlugScope)
}

func (h *Handler) ShowStockAlertLevel(w http.ResponseWriter, r *http.Request) {
	level, err := h.service.StockAlertLevel(r.Context())
	if err != nil {
		h.logger.Error("read stock alert level failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"stockAlertLevel": level})
}

func (h *Handler) UpdateStockAlertLevel(w http.ResponseWriter, r *http.Request) {
	var body struct {
		StockAlertLevel int `json:"stockAlertLevel"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.service.SetStockAlertLevel(r.Context(), body.StockAlertLevel); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"stockAlertLevel": body.StockAlertLevel})
}

func (h *Handler) ShowSlugScope(w http.ResponseWriter, r *http.Request) {
	include, err := h.service.SlugCheckIncludeDeleted(r.Context())
	if err != nil {
		h.logger.Error("read slug scope failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"slugCheckIncludeDeleted": include})
}

func (h *Handler) UpdateSlugScope(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SlugCheckIncludeDeleted bool `json:"slugCheckIncludeDeleted"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.service.SetSlugCheckIncludeDeleted(r.Context(), body.SlugCheckIncludeDeleted); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"slugCheckIncludeDeleted": body.SlugCheckIncludeDeleted})
}
