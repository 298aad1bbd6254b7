package recon

import (
	"time"

	"github.com/fuelbook/fuelbook/internal/journal"
	"github.com/fuelbook/fuelbook/internal/meter"
	"github.com/fuelbook/fuelbook/internal/shift"
	"github.com/fuelbook/fuelbook/internal/stock"
)

// Kind names one of the four daily comparisons.
type Kind string

const (
	KindMeterVsTransactions Kind = "METER_VS_TRANSACTIONS"
	KindGaugeVsMeter        Kind = "GAUGE_VS_METER"
	KindGaugeVsStock        Kind = "GAUGE_VS_STOCK"
	KindRevenue             Kind = "REVENUE"
)

// Thresholds holds the flagging limits per comparison. Values come from
// configuration; zero means the comparison flags on any difference.
type Thresholds struct {
	MeterTxnLiters   float64
	GaugeMeterLiters float64
	StockLiters      float64
	RevenueCurrency  float64
}

// DefaultThresholds returns the stock limits used when configuration is
// silent.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MeterTxnLiters:   1,
		GaugeMeterLiters: 10,
		StockLiters:      10,
		RevenueCurrency:  10,
	}
}

// Discrepancy is one comparison result. Always advisory: a flagged row
// never blocks a close or a save.
type Discrepancy struct {
	Kind      Kind    `json:"kind"`
	Expected  float64 `json:"expected"`
	Actual    float64 `json:"actual"`
	Delta     float64 `json:"delta"`
	Threshold float64 `json:"threshold"`
	Flagged   bool    `json:"flagged"`
}

// ShiftSummary is the slice of a shift shown on the daily report.
type ShiftSummary struct {
	Number      int          `json:"number"`
	Status      shift.Status `json:"status"`
	OpenedAt    time.Time    `json:"opened_at"`
	ClosedAt    *time.Time   `json:"closed_at,omitempty"`
	TotalLiters float64      `json:"total_liters"`
}

// DailyReport is the full reconciliation picture for one station-day.
type DailyReport struct {
	StationID          int64                     `json:"station_id"`
	Date               time.Time                 `json:"date"`
	GeneratedAt        time.Time                 `json:"generated_at"`
	DayStatus          meter.DayStatus           `json:"day_status"`
	Shifts             []ShiftSummary            `json:"shifts"`
	MeterTotalLiters   float64                   `json:"meter_total_liters"`
	Transactions       journal.Summary           `json:"transactions"`
	GaugeEstimate      *float64                  `json:"gauge_estimate_liters,omitempty"`
	StockLevel         *stock.Level              `json:"stock_level,omitempty"`
	ContinuityWarnings []meter.ContinuityWarning `json:"continuity_warnings,omitempty"`
	Discrepancies      []Discrepancy             `json:"discrepancies"`
}
