package report

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fuelbook/fuelbook/internal/platform/httpx"
	"github.com/fuelbook/fuelbook/internal/station"
)

// Handler wires monthly report endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers routes under /stations/{stationID}/reports.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{month}", h.monthly)
	r.Get("/{month}/export", h.export)
}

func (h *Handler) monthly(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.loadSummary(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.loadSummary(w, r)
	if !ok {
		return
	}
	payload, err := BuildMonthlyXLSX(summary)
	if err != nil {
		h.logger.Error("build xlsx", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	filename := fmt.Sprintf("fuelbook-%d-%s.xlsx", summary.StationID, summary.Month.Format("2006-01"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func (h *Handler) loadSummary(w http.ResponseWriter, r *http.Request) (MonthlySummary, bool) {
	stationID, err := station.PathStationID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid station id")
		return MonthlySummary{}, false
	}
	month, err := time.Parse("2006-01", chi.URLParam(r, "month"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid month, want YYYY-MM")
		return MonthlySummary{}, false
	}
	summary, err := h.service.Monthly(r.Context(), stationID, month)
	if err != nil {
		httpx.RespondError(w, err)
		return MonthlySummary{}, false
	}
	return summary, true
}
