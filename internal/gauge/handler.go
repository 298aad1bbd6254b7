package gauge

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fuelbook/fuelbook/internal/identity"
	"github.com/fuelbook/fuelbook/internal/platform/httpx"
	"github.com/fuelbook/fuelbook/internal/station"
)

// Handler wires gauge ledger endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers routes under /stations/{stationID}/days/{date}.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/gauges", h.list)
	r.Put("/gauges", h.save)
}

type saveRequest struct {
	Kind    string  `json:"kind" validate:"required,oneof=start end"`
	Entries []Entry `json:"entries" validate:"required,min=1,dive"`
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	stationID, date, err := station.PathStationDay(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor, _ := identity.ActorFromContext(r.Context())
	var req saveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	readings, err := h.service.SaveReadings(r.Context(), SaveInput{
		StationID: stationID,
		Date:      date,
		Kind:      Kind(req.Kind),
		Entries:   req.Entries,
		Actor:     actor,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, readings)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	stationID, date, err := station.PathStationDay(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	readings, err := h.service.Readings(r.Context(), stationID, date)
	if err != nil {
		h.logger.Error("list gauge readings", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, readings)
}
