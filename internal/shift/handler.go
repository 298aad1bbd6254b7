package shift

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fuelbook/fuelbook/internal/identity"
	"github.com/fuelbook/fuelbook/internal/platform/httpx"
	"github.com/fuelbook/fuelbook/internal/shared"
	"github.com/fuelbook/fuelbook/internal/station"
)

// Handler wires shift lifecycle endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers routes under /shifts.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.open)
	r.Get("/{shiftID}", h.get)
	r.Post("/{shiftID}/close", h.close)
}

// MountDayRoutes registers routes under /stations/{stationID}/days/{date}.
func (h *Handler) MountDayRoutes(r chi.Router) {
	r.Get("/shifts", h.listByDay)
}

type openRequest struct {
	StationID         int64  `json:"station_id" validate:"required"`
	Date              string `json:"date" validate:"required"`
	Number            int    `json:"number" validate:"required,min=1"`
	PullPriorReadings bool   `json:"pull_prior_readings"`
}

func (h *Handler) open(w http.ResponseWriter, r *http.Request) {
	actor, _ := identity.ActorFromContext(r.Context())
	var req openRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	date, err := time.Parse(shared.DateLayout, req.Date)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid date")
		return
	}
	result, err := h.service.Open(r.Context(), OpenInput{
		StationID:         req.StationID,
		Date:              date,
		Number:            req.Number,
		PullPriorReadings: req.PullPriorReadings,
		Actor:             actor,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"shift":           result.Shift,
		"seeded_readings": result.SeededReadings,
	})
}

type closeRequest struct {
	EndReadings []EndEntry `json:"end_readings"`
	Reason      string     `json:"reason"`
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "shiftID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid shift id")
		return
	}
	actor, _ := identity.ActorFromContext(r.Context())
	var req closeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	result, err := h.service.Close(r.Context(), CloseInput{
		ShiftID:     id,
		EndReadings: req.EndReadings,
		Actor:       actor,
		Reason:      req.Reason,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"shift":    result.Shift,
		"readings": result.Readings,
		"warnings": result.Warnings,
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "shiftID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid shift id")
		return
	}
	sh, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sh)
}

func (h *Handler) listByDay(w http.ResponseWriter, r *http.Request) {
	stationID, date, err := station.PathStationDay(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	shifts, err := h.service.ShiftsByDay(r.Context(), stationID, date)
	if err != nil {
		h.logger.Error("list shifts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, shifts)
}
