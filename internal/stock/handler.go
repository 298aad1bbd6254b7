package stock

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fuelbook/fuelbook/internal/identity"
	"github.com/fuelbook/fuelbook/internal/platform/httpx"
	"github.com/fuelbook/fuelbook/internal/shared"
	"github.com/fuelbook/fuelbook/internal/station"
)

// Handler wires stock ledger endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers routes under /stations/{stationID}.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/supplies", h.record)
	r.Get("/stock-level", h.level)
}

// MountDayRoutes registers routes under /stations/{stationID}/days/{date}.
func (h *Handler) MountDayRoutes(r chi.Router) {
	r.Get("/supplies", h.listByDay)
}

type supplyRequest struct {
	Date      string   `json:"date" validate:"required"`
	Liters    float64  `json:"liters" validate:"min=0"`
	Kilograms *float64 `json:"kilograms"`
	Supplier  string   `json:"supplier"`
	InvoiceNo string   `json:"invoice_no"`
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	stationID, err := station.PathStationID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid station id")
		return
	}
	actor, _ := identity.ActorFromContext(r.Context())
	var req supplyRequest
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
	supply, err := h.service.RecordSupply(r.Context(), SupplyInput{
		StationID: stationID,
		Date:      date,
		Liters:    req.Liters,
		Kilograms: req.Kilograms,
		Supplier:  req.Supplier,
		InvoiceNo: req.InvoiceNo,
		Actor:     actor,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, supply)
}

func (h *Handler) listByDay(w http.ResponseWriter, r *http.Request) {
	stationID, date, err := station.PathStationDay(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	supplies, err := h.service.SuppliesByDay(r.Context(), stationID, date)
	if err != nil {
		h.logger.Error("list supplies", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, supplies)
}

func (h *Handler) level(w http.ResponseWriter, r *http.Request) {
	stationID, err := station.PathStationID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid station id")
		return
	}
	asOf := time.Now()
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := time.Parse(shared.DateLayout, raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid as_of date")
			return
		}
		asOf = parsed
	}
	level, err := h.service.Level(r.Context(), stationID, asOf)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, level)
}
