package recon

import (
	"context"
	"errors"
	"time"

	"github.com/fuelbook/fuelbook/internal/gauge"
	"github.com/fuelbook/fuelbook/internal/journal"
	"github.com/fuelbook/fuelbook/internal/meter"
	"github.com/fuelbook/fuelbook/internal/shared"
	"github.com/fuelbook/fuelbook/internal/shift"
	"github.com/fuelbook/fuelbook/internal/station"
	"github.com/fuelbook/fuelbook/internal/stock"
)

// MeterPort is the slice of the meter service the report reads.
type MeterPort interface {
	Readings(ctx context.Context, stationID int64, date time.Time) ([]meter.Reading, error)
	CheckContinuity(ctx context.Context, stationID int64, date time.Time) ([]meter.ContinuityWarning, error)
}

// GaugePort reads tank gauge readings.
type GaugePort interface {
	Readings(ctx context.Context, stationID int64, date time.Time) ([]gauge.Reading, error)
}

// StockPort reads the derived stock level.
type StockPort interface {
	Level(ctx context.Context, stationID int64, asOf time.Time) (stock.Level, error)
}

// JournalPort reads the day's transactions.
type JournalPort interface {
	ListByDay(ctx context.Context, stationID int64, date time.Time) ([]journal.Transaction, error)
}

// StationPort resolves station configuration and day settings.
type StationPort interface {
	Get(ctx context.Context, id int64) (station.Station, error)
	GetDay(ctx context.Context, stationID int64, date time.Time) (station.Day, error)
}

// ShiftPort reads the day's shifts with derived statuses.
type ShiftPort interface {
	ShiftsByDay(ctx context.Context, stationID int64, date time.Time) ([]shift.Shift, error)
}

// MetricsPort counts flagged discrepancies. Optional.
type MetricsPort interface {
	DiscrepancyFlagged(kind string)
}

// Service assembles the daily reconciliation report from the ledger
// services. It only reads; every figure is recomputed from the ledgers on
// each call.
type Service struct {
	meters       MeterPort
	gauges       GaugePort
	stocks       StockPort
	journals     JournalPort
	stations     StationPort
	shifts       ShiftPort
	metrics      MetricsPort
	thresholds   Thresholds
	tankCapacity float64
	now          func() time.Time
}

// NewService builds Service. metrics may be nil.
func NewService(meters MeterPort, gauges GaugePort, stocks StockPort, journals JournalPort,
	stations StationPort, shifts ShiftPort, metrics MetricsPort,
	thresholds Thresholds, tankCapacity float64) *Service {
	return &Service{
		meters:       meters,
		gauges:       gauges,
		stocks:       stocks,
		journals:     journals,
		stations:     stations,
		shifts:       shifts,
		metrics:      metrics,
		thresholds:   thresholds,
		tankCapacity: tankCapacity,
		now:          time.Now,
	}
}

// WithNow overrides the clock. Used by tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// DailyReport computes the reconciliation picture for one station-day.
// Missing day settings only suppress the revenue comparison; everything
// else still reports.
func (s *Service) DailyReport(ctx context.Context, stationID int64, date time.Time) (DailyReport, error) {
	day := shared.Day(date)
	st, err := s.stations.Get(ctx, stationID)
	if err != nil {
		return DailyReport{}, err
	}
	readings, err := s.meters.Readings(ctx, stationID, day)
	if err != nil {
		return DailyReport{}, err
	}
	warnings, err := s.meters.CheckContinuity(ctx, stationID, day)
	if err != nil {
		return DailyReport{}, err
	}
	txns, err := s.journals.ListByDay(ctx, stationID, day)
	if err != nil {
		return DailyReport{}, err
	}
	summary := journal.Summarize(txns)
	shifts, err := s.shifts.ShiftsByDay(ctx, stationID, day)
	if err != nil {
		return DailyReport{}, err
	}

	report := DailyReport{
		StationID:          stationID,
		Date:               day,
		GeneratedAt:        s.now(),
		DayStatus:          meter.DeriveStatus(readings),
		MeterTotalLiters:   meter.Total(readings),
		Transactions:       summary,
		ContinuityWarnings: warnings,
	}
	for _, sh := range shifts {
		report.Shifts = append(report.Shifts, ShiftSummary{
			Number:      sh.Number,
			Status:      sh.Status,
			OpenedAt:    sh.OpenedAt,
			ClosedAt:    sh.ClosedAt,
			TotalLiters: sh.TotalLiters,
		})
	}

	in := EngineInput{
		MeterTotalLiters: report.MeterTotalLiters,
		TxnLiters:        summary.TotalLiters.InexactFloat64(),
		TxnAmount:        summary.TotalAmount.InexactFloat64(),
	}

	if st.IsGas() {
		gaugeReadings, err := s.gauges.Readings(ctx, stationID, day)
		if err != nil {
			return DailyReport{}, err
		}
		if len(gaugeReadings) > 0 {
			estimate := gauge.Estimate(gaugeReadings, s.tankCapacity)
			report.GaugeEstimate = &estimate
			in.GaugeEstimate = &estimate
			if remaining, ok := gauge.RemainingEstimate(gaugeReadings, s.tankCapacity); ok {
				in.GaugeRemaining = &remaining
			}
		}
		level, err := s.stocks.Level(ctx, stationID, day)
		if err != nil {
			return DailyReport{}, err
		}
		report.StockLevel = &level
		in.StockLevel = &level.Liters
	}

	settings, err := s.stations.GetDay(ctx, stationID, day)
	switch {
	case err == nil:
		price := settings.SellingPrice(st.Kind)
		if price > 0 {
			in.SellingPrice = &price
		}
	case errors.Is(err, shared.ErrNotFound):
		// no prices recorded, revenue comparison is skipped
	default:
		return DailyReport{}, err
	}

	report.Discrepancies = Compare(in, s.thresholds)
	if s.metrics != nil {
		for _, d := range report.Discrepancies {
			if d.Flagged {
				s.metrics.DiscrepancyFlagged(string(d.Kind))
			}
		}
	}
	return report, nil
}
