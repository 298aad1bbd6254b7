package recon

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fuelbook/fuelbook/internal/platform/httpx"
	"github.com/fuelbook/fuelbook/internal/station"
)

// Handler wires the daily reconciliation report endpoint.
type Handler struct {
	logger  *slog.Logger
	service *Service
	cache   *SnapshotCache
}

// NewHandler constructs Handler. cache may be nil.
func NewHandler(logger *slog.Logger, service *Service, cache *SnapshotCache) *Handler {
	return &Handler{logger: logger, service: service, cache: cache}
}

// MountRoutes registers routes under /stations/{stationID}/days/{date}.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/report", h.dailyReport)
}

func (h *Handler) dailyReport(w http.ResponseWriter, r *http.Request) {
	stationID, date, err := station.PathStationDay(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if r.URL.Query().Get("fresh") == "" {
		if cached, ok, err := h.cache.Get(r.Context(), stationID, date); err == nil && ok {
			httpx.JSON(w, http.StatusOK, cached)
			return
		} else if err != nil {
			h.logger.Warn("report cache read", slog.Any("error", err))
		}
	}
	report, err := h.service.DailyReport(r.Context(), stationID, date)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.cache.Set(r.Context(), report); err != nil {
		h.logger.Warn("report cache write", slog.Any("error", err))
	}
	httpx.JSON(w, http.StatusOK, report)
}
