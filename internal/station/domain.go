package station

import (
	"fmt"
	"time"

	"github.com/fuelbook/fuelbook/internal/identity"
	"github.com/fuelbook/fuelbook/internal/shared"
)

// Kind distinguishes liquid-fuel stations from gas stations. Only gas
// stations carry tank gauge readings.
type Kind string

const (
	KindFuel Kind = "FUEL"
	KindGas  Kind = "GAS"
)

// Station is per-station configuration consumed by the reconciliation core.
type Station struct {
	ID        int64
	Name      string
	Kind      Kind
	MaxShifts int
	Nozzles   int
	Tanks     int
	CreatedAt time.Time
}

// IsGas reports whether the station reconciles against tank gauges.
func (s Station) IsGas() bool {
	return s.Kind == KindGas
}

// HasNozzle reports whether the nozzle number is configured for the station.
func (s Station) HasNozzle(nozzle int) bool {
	return nozzle >= 1 && nozzle <= s.Nozzles
}

// HasTank reports whether the tank number is configured for the station.
func (s Station) HasTank(tank int) bool {
	return tank >= 1 && tank <= s.Tanks
}

// Day holds the per-date price settings owned by a station-day. The day's
// status is never stored here; it is always derived from meter readings.
type Day struct {
	StationID      int64
	Date           time.Time
	RetailPrice    float64
	WholesalePrice float64
	SpecialPrice   *float64
	GasPrice       *float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SellingPrice picks the price used for revenue reconciliation: gas stations
// sell at the gas price when one is set, everything else at retail.
func (d Day) SellingPrice(kind Kind) float64 {
	if kind == KindGas && d.GasPrice != nil && *d.GasPrice > 0 {
		return *d.GasPrice
	}
	return d.RetailPrice
}

// SaveDayInput captures a price settings write for one station-day.
type SaveDayInput struct {
	StationID      int64
	Date           time.Time
	RetailPrice    float64
	WholesalePrice float64
	SpecialPrice   *float64
	GasPrice       *float64
	Actor          identity.Actor
	Reason         string
}

// Validate ensures the day settings are coherent.
func (in SaveDayInput) Validate() error {
	if in.StationID == 0 {
		return fmt.Errorf("%w: station: station id required", shared.ErrValidation)
	}
	if in.Date.IsZero() {
		return fmt.Errorf("%w: station: date required", shared.ErrValidation)
	}
	if in.RetailPrice < 0 || in.WholesalePrice < 0 {
		return ErrNegativePrice
	}
	if in.SpecialPrice != nil && *in.SpecialPrice < 0 {
		return ErrNegativePrice
	}
	if in.GasPrice != nil && *in.GasPrice < 0 {
		return ErrNegativePrice
	}
	return nil
}

var (
	// ErrStationNotFound indicates an unknown station id.
	ErrStationNotFound = fmt.Errorf("%w: station not found", shared.ErrNotFound)
	// ErrDayNotFound indicates no settings exist for the station-day.
	ErrDayNotFound = fmt.Errorf("%w: station day not found", shared.ErrNotFound)
	// ErrNegativePrice indicates a negative price input.
	ErrNegativePrice = fmt.Errorf("%w: station: price must not be negative", shared.ErrValidation)
)
