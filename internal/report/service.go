package report

import (
	"context"
	"time"

	"github.com/fuelbook/fuelbook/internal/journal"
	"github.com/fuelbook/fuelbook/internal/recon"
	"github.com/fuelbook/fuelbook/internal/shared"
	"github.com/fuelbook/fuelbook/internal/station"
	"github.com/fuelbook/fuelbook/internal/stock"
)

// ReconPort computes one day's reconciliation picture.
type ReconPort interface {
	DailyReport(ctx context.Context, stationID int64, date time.Time) (recon.DailyReport, error)
}

// JournalPort aggregates transactions over the month window.
type JournalPort interface {
	Summarize(ctx context.Context, stationID int64, from, to time.Time) (journal.Summary, error)
}

// StockPort lists supply intake per day.
type StockPort interface {
	SuppliesByDay(ctx context.Context, stationID int64, date time.Time) ([]stock.Supply, error)
}

// StationPort resolves station master data.
type StationPort interface {
	Get(ctx context.Context, id int64) (station.Station, error)
}

// Service assembles monthly summaries on top of the daily reconciliation.
type Service struct {
	recons   ReconPort
	journals JournalPort
	stocks   StockPort
	stations StationPort
	now      func() time.Time
}

// NewService builds Service.
func NewService(recons ReconPort, journals JournalPort, stocks StockPort, stations StationPort) *Service {
	return &Service{
		recons:   recons,
		journals: journals,
		stocks:   stocks,
		stations: stations,
		now:      time.Now,
	}
}

// WithNow overrides the clock. Used by tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// Monthly walks the calendar days of the month and folds the daily reports
// into one summary. Days after today are skipped.
func (s *Service) Monthly(ctx context.Context, stationID int64, month time.Time) (MonthlySummary, error) {
	st, err := s.stations.Get(ctx, stationID)
	if err != nil {
		return MonthlySummary{}, err
	}
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	next := first.AddDate(0, 1, 0)
	today := shared.Day(s.now())

	summary := MonthlySummary{
		StationID:   stationID,
		StationName: st.Name,
		Month:       first,
		GeneratedAt: s.now(),
	}
	for day := first; day.Before(next); day = day.AddDate(0, 0, 1) {
		if day.After(today) {
			break
		}
		daily, err := s.recons.DailyReport(ctx, stationID, day)
		if err != nil {
			return MonthlySummary{}, err
		}
		supplies, err := s.stocks.SuppliesByDay(ctx, stationID, day)
		if err != nil {
			return MonthlySummary{}, err
		}
		var supplied float64
		for _, sp := range supplies {
			supplied += sp.Liters
		}
		line := DayLine{
			Date:         day,
			DayStatus:    daily.DayStatus,
			MeterLiters:  daily.MeterTotalLiters,
			TxnLiters:    daily.Transactions.TotalLiters.InexactFloat64(),
			Revenue:      daily.Transactions.TotalAmount.InexactFloat64(),
			SupplyLiters: supplied,
		}
		for _, d := range daily.Discrepancies {
			if d.Flagged {
				line.Flagged = true
				break
			}
		}
		summary.Days = append(summary.Days, line)
		summary.TotalLiters += line.MeterLiters
		summary.TotalRevenue += line.Revenue
		summary.SupplyLiters += line.SupplyLiters
		if line.Flagged {
			summary.FlaggedDays++
		}
	}

	monthSummary, err := s.journals.Summarize(ctx, stationID, first, next.Add(-time.Nanosecond))
	if err != nil {
		return MonthlySummary{}, err
	}
	summary.ByPayment = monthSummary.ByPayment
	return summary, nil
}
