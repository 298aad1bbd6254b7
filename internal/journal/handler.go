package journal

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fuelbook/fuelbook/internal/identity"
	"github.com/fuelbook/fuelbook/internal/platform/httpx"
	"github.com/fuelbook/fuelbook/internal/station"
)

// Handler wires transaction journal endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers routes under /transactions.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.record)
	r.Get("/{txnID}", h.get)
	r.Patch("/{txnID}", h.update)
	r.Delete("/{txnID}", h.remove)
}

// MountDayRoutes registers routes under /stations/{stationID}/days/{date}.
func (h *Handler) MountDayRoutes(r chi.Router) {
	r.Get("/transactions", h.listByDay)
	r.Get("/transactions/summary", h.summary)
	r.Get("/transactions/bill-check", h.billCheck)
}

type recordRequest struct {
	StationID        int64           `json:"station_id" validate:"required"`
	OccurredAt       time.Time       `json:"occurred_at" validate:"required"`
	LicensePlate     string          `json:"license_plate"`
	OwnerID          *int64          `json:"owner_id"`
	PaymentType      string          `json:"payment_type" validate:"required,oneof=CASH TRANSFER CREDIT"`
	Nozzle           int             `json:"nozzle" validate:"required,min=1,max=4"`
	Liters           decimal.Decimal `json:"liters"`
	PricePerLiter    decimal.Decimal `json:"price_per_liter"`
	Amount           decimal.Decimal `json:"amount"`
	BillBookNo       string          `json:"bill_book_no"`
	BillNo           string          `json:"bill_no"`
	TransferProofRef string          `json:"transfer_proof_ref"`
	Reason           string          `json:"reason"`
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	actor, _ := identity.ActorFromContext(r.Context())
	var req recordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	result, err := h.service.Record(r.Context(), RecordInput{
		StationID:        req.StationID,
		OccurredAt:       req.OccurredAt,
		LicensePlate:     req.LicensePlate,
		OwnerID:          req.OwnerID,
		PaymentType:      PaymentType(req.PaymentType),
		Nozzle:           req.Nozzle,
		Liters:           req.Liters,
		PricePerLiter:    req.PricePerLiter,
		Amount:           req.Amount,
		BillBookNo:       req.BillBookNo,
		BillNo:           req.BillNo,
		TransferProofRef: req.TransferProofRef,
		Actor:            actor,
		Reason:           req.Reason,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"transaction": result.Transaction,
		"bill_dupes":  result.BillDupes,
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "txnID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid transaction id")
		return
	}
	txn, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, txn)
}

type updateRequest struct {
	LicensePlate     *string          `json:"license_plate"`
	PaymentType      *string          `json:"payment_type"`
	Nozzle           *int             `json:"nozzle"`
	Liters           *decimal.Decimal `json:"liters"`
	PricePerLiter    *decimal.Decimal `json:"price_per_liter"`
	BillBookNo       *string          `json:"bill_book_no"`
	BillNo           *string          `json:"bill_no"`
	TransferProofRef *string          `json:"transfer_proof_ref"`
	Reason           string           `json:"reason"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "txnID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid transaction id")
		return
	}
	actor, _ := identity.ActorFromContext(r.Context())
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	in := UpdateInput{
		ID:               id,
		LicensePlate:     req.LicensePlate,
		Nozzle:           req.Nozzle,
		Liters:           req.Liters,
		PricePerLiter:    req.PricePerLiter,
		BillBookNo:       req.BillBookNo,
		BillNo:           req.BillNo,
		TransferProofRef: req.TransferProofRef,
		Actor:            actor,
		Reason:           req.Reason,
	}
	if req.PaymentType != nil {
		payment := PaymentType(*req.PaymentType)
		in.PaymentType = &payment
	}
	txn, err := h.service.Update(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, txn)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "txnID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid transaction id")
		return
	}
	actor, _ := identity.ActorFromContext(r.Context())
	if err := h.service.Delete(r.Context(), id, actor, r.URL.Query().Get("reason")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listByDay(w http.ResponseWriter, r *http.Request) {
	stationID, date, err := station.PathStationDay(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	txns, err := h.service.ListByDay(r.Context(), stationID, date)
	if err != nil {
		h.logger.Error("list transactions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, txns)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	stationID, date, err := station.PathStationDay(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	summary, err := h.service.Summarize(r.Context(), stationID, date, date.AddDate(0, 0, 1).Add(-time.Nanosecond))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) billCheck(w http.ResponseWriter, r *http.Request) {
	stationID, _, err := station.PathStationDay(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	dupes, err := h.service.DuplicateBillCheck(r.Context(), stationID,
		r.URL.Query().Get("book"), r.URL.Query().Get("bill"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"matches": dupes})
}
