package station

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
)

// Handler wires station endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers collection routes under /stations.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(identity.RequireAdmin).Post("/", h.create)
	r.Get("/", h.list)
}

// MountStationRoutes registers routes under /stations/{stationID}.
func (h *Handler) MountStationRoutes(r chi.Router) {
	r.Get("/", h.get)
}

// MountDayRoutes registers routes under /stations/{stationID}/days/{date}.
func (h *Handler) MountDayRoutes(r chi.Router) {
	r.Get("/", h.getDay)
	r.Put("/", h.saveDay)
}

type createRequest struct {
	Name      string `json:"name" validate:"required"`
	Kind      string `json:"kind" validate:"required,oneof=FUEL GAS"`
	MaxShifts int    `json:"max_shifts" validate:"required,min=1,max=3"`
	Nozzles   int    `json:"nozzles" validate:"required,min=1,max=4"`
	Tanks     int    `json:"tanks" validate:"min=0,max=3"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	st, err := h.service.Create(r.Context(), CreateInput{
		Name:      req.Name,
		Kind:      Kind(req.Kind),
		MaxShifts: req.MaxShifts,
		Nozzles:   req.Nozzles,
		Tanks:     req.Tanks,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, st)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	stations, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list stations", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stations)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := PathStationID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid station id")
		return
	}
	st, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, st)
}

func (h *Handler) getDay(w http.ResponseWriter, r *http.Request) {
	id, date, err := PathStationDay(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	day, err := h.service.GetDay(r.Context(), id, date)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, day)
}

type saveDayRequest struct {
	RetailPrice    float64  `json:"retail_price" validate:"min=0"`
	WholesalePrice float64  `json:"wholesale_price" validate:"min=0"`
	SpecialPrice   *float64 `json:"special_price"`
	GasPrice       *float64 `json:"gas_price"`
	Reason         string   `json:"reason"`
}

func (h *Handler) saveDay(w http.ResponseWriter, r *http.Request) {
	id, date, err := PathStationDay(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor, _ := identity.ActorFromContext(r.Context())
	var req saveDayRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	day, err := h.service.SaveDay(r.Context(), SaveDayInput{
		StationID:      id,
		Date:           date,
		RetailPrice:    req.RetailPrice,
		WholesalePrice: req.WholesalePrice,
		SpecialPrice:   req.SpecialPrice,
		GasPrice:       req.GasPrice,
		Actor:          actor,
		Reason:         req.Reason,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, day)
}

// PathStationID extracts the station id URL parameter.
func PathStationID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "stationID"), 10, 64)
}

// PathStationDay extracts the station id and date URL parameters.
func PathStationDay(r *http.Request) (int64, time.Time, error) {
	id, err := PathStationID(r)
	if err != nil {
		return 0, time.Time{}, err
	}
	date, err := time.Parse(shared.DateLayout, chi.URLParam(r, "date"))
	if err != nil {
		return 0, time.Time{}, err
	}
	return id, date, nil
}
