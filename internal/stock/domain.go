package stock

import (
	"fmt"
	"time"

	"github.com/fuelbook/fuelbook/internal/identity"
	"github.com/fuelbook/fuelbook/internal/shared"
)

// Supply is one incoming gas delivery. Rows are immutable once created;
// corrections are recorded as new rows.
type Supply struct {
	ID        int64
	StationID int64
	Date      time.Time
	Liters    float64
	Kilograms *float64
	Supplier  string
	InvoiceNo string
	CreatedBy int64
	CreatedAt time.Time
}

// SupplyInput captures a delivery intake. When Liters is zero and Kilograms
// is set, liters are derived with the configured conversion factor.
type SupplyInput struct {
	StationID int64
	Date      time.Time
	Liters    float64
	Kilograms *float64
	Supplier  string
	InvoiceNo string
	Actor     identity.Actor
}

// Validate ensures the intake is coherent.
func (in SupplyInput) Validate() error {
	if in.StationID == 0 {
		return fmt.Errorf("%w: stock: station id required", shared.ErrValidation)
	}
	if in.Date.IsZero() {
		return fmt.Errorf("%w: stock: date required", shared.ErrValidation)
	}
	if in.Liters < 0 {
		return ErrNegativeLiters
	}
	if in.Kilograms != nil && *in.Kilograms < 0 {
		return fmt.Errorf("%w: stock: kilograms must not be negative", shared.ErrValidation)
	}
	if in.Liters == 0 && (in.Kilograms == nil || *in.Kilograms == 0) {
		return fmt.Errorf("%w: stock: liters or kilograms required", shared.ErrValidation)
	}
	return nil
}

// Level is the derived inventory position of a station as of a date.
// A negative value is surfaced as an anomaly, never clamped.
type Level struct {
	StationID    int64     `json:"station_id"`
	AsOf         time.Time `json:"as_of"`
	SupplyLiters float64   `json:"supply_liters"`
	SoldLiters   float64   `json:"sold_liters"`
	Liters       float64   `json:"liters"`
	Anomaly      bool      `json:"anomaly"`
}

// ErrNegativeLiters rejects negative intake volumes.
var ErrNegativeLiters = fmt.Errorf("%w: stock: liters must not be negative", shared.ErrValidation)
