package journal

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fuelbook/fuelbook/internal/identity"
	"github.com/fuelbook/fuelbook/internal/shared"
)

// PaymentType enumerates supported payment methods.
type PaymentType string

const (
	PaymentCash     PaymentType = "CASH"
	PaymentTransfer PaymentType = "TRANSFER"
	PaymentCredit   PaymentType = "CREDIT"
)

func validPayment(p PaymentType) bool {
	switch p {
	case PaymentCash, PaymentTransfer, PaymentCredit:
		return true
	default:
		return false
	}
}

// Transaction is one recorded sale. Money fields use decimal arithmetic so
// the amount invariant holds to the configured rounding precision.
type Transaction struct {
	ID               uuid.UUID
	StationID        int64
	OccurredAt       time.Time
	LicensePlate     string
	OwnerID          *int64
	PaymentType      PaymentType
	Nozzle           int
	Liters           decimal.Decimal
	PricePerLiter    decimal.Decimal
	Amount           decimal.Decimal
	BillBookNo       string
	BillNo           string
	RecordedBy       int64
	TransferProofRef string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ExpectedAmount recomputes liters × price at two decimal places.
func ExpectedAmount(liters, price decimal.Decimal) decimal.Decimal {
	return liters.Mul(price).Round(2)
}

// RecordInput captures a new sale. A zero Amount means "compute it"; a
// non-zero Amount must match the recomputed value exactly.
type RecordInput struct {
	StationID        int64
	OccurredAt       time.Time
	LicensePlate     string
	OwnerID          *int64
	PaymentType      PaymentType
	Nozzle           int
	Liters           decimal.Decimal
	PricePerLiter    decimal.Decimal
	Amount           decimal.Decimal
	BillBookNo       string
	BillNo           string
	TransferProofRef string
	Actor            identity.Actor
	Reason           string
}

// Validate enforces the write-time invariants. The amount is always
// recomputed from liters × price; the caller-supplied value is only checked.
func (in RecordInput) Validate() error {
	if in.StationID == 0 {
		return fmt.Errorf("%w: journal: station id required", shared.ErrValidation)
	}
	if in.OccurredAt.IsZero() {
		return fmt.Errorf("%w: journal: transaction time required", shared.ErrValidation)
	}
	if !validPayment(in.PaymentType) {
		return ErrUnknownPayment
	}
	if in.Liters.Sign() <= 0 {
		return ErrInvalidLiters
	}
	if in.PricePerLiter.Sign() <= 0 {
		return ErrInvalidPrice
	}
	if !in.Amount.IsZero() && !in.Amount.Equal(ExpectedAmount(in.Liters, in.PricePerLiter)) {
		return ErrAmountMismatch
	}
	if in.PaymentType == PaymentTransfer && in.TransferProofRef == "" && !in.Actor.IsAdmin() {
		return ErrProofRequired
	}
	return nil
}

// UpdateInput patches an existing transaction. Nil fields are left as-is.
type UpdateInput struct {
	ID               uuid.UUID
	LicensePlate     *string
	PaymentType      *PaymentType
	Nozzle           *int
	Liters           *decimal.Decimal
	PricePerLiter    *decimal.Decimal
	BillBookNo       *string
	BillNo           *string
	TransferProofRef *string
	Actor            identity.Actor
	Reason           string
}

// Line aggregates count, liters and amount for one summary bucket.
type Line struct {
	Count  int             `json:"count"`
	Liters decimal.Decimal `json:"liters"`
	Amount decimal.Decimal `json:"amount"`
}

// Summary aggregates the journal over a window by payment type and nozzle.
type Summary struct {
	TotalLiters decimal.Decimal      `json:"total_liters"`
	TotalAmount decimal.Decimal      `json:"total_amount"`
	ByPayment   map[PaymentType]Line `json:"by_payment"`
	ByNozzle    map[int]Line         `json:"by_nozzle"`
}

// RecordResult returns the stored transaction plus advisory duplicate-bill
// warnings. Warnings never block the write.
type RecordResult struct {
	Transaction Transaction
	BillDupes   []Transaction
}

var (
	ErrInvalidLiters  = fmt.Errorf("%w: journal: liters must be positive", shared.ErrValidation)
	ErrInvalidPrice   = fmt.Errorf("%w: journal: price per liter must be positive", shared.ErrValidation)
	ErrAmountMismatch = fmt.Errorf("%w: journal: amount does not equal liters times price", shared.ErrValidation)
	ErrProofRequired  = fmt.Errorf("%w: journal: bank transfer requires a proof reference", shared.ErrValidation)
	ErrUnknownPayment = fmt.Errorf("%w: journal: unknown payment type", shared.ErrValidation)
	ErrTxnNotFound    = fmt.Errorf("%w: journal: transaction not found", shared.ErrNotFound)
)
