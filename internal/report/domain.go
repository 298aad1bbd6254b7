package report

import (
	"time"

	"github.com/fuelbook/fuelbook/internal/journal"
	"github.com/fuelbook/fuelbook/internal/meter"
)

// DayLine is one calendar day inside the monthly summary.
type DayLine struct {
	Date         time.Time       `json:"date"`
	DayStatus    meter.DayStatus `json:"day_status"`
	MeterLiters  float64         `json:"meter_liters"`
	TxnLiters    float64         `json:"txn_liters"`
	Revenue      float64         `json:"revenue"`
	SupplyLiters float64         `json:"supply_liters"`
	Flagged      bool            `json:"flagged"`
}

// MonthlySummary aggregates one station over a calendar month.
type MonthlySummary struct {
	StationID    int64                                `json:"station_id"`
	StationName  string                               `json:"station_name"`
	Month        time.Time                            `json:"month"`
	Days         []DayLine                            `json:"days"`
	TotalLiters  float64                              `json:"total_liters"`
	TotalRevenue float64                              `json:"total_revenue"`
	SupplyLiters float64                              `json:"supply_liters"`
	ByPayment    map[journal.PaymentType]journal.Line `json:"by_payment"`
	FlaggedDays  int                                  `json:"flagged_days"`
	GeneratedAt  time.Time                            `json:"generated_at"`
}
