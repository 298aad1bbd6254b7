package report

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fuelbook/fuelbook/internal/journal"
	"github.com/fuelbook/fuelbook/internal/meter"
	"github.com/fuelbook/fuelbook/internal/recon"
	"github.com/fuelbook/fuelbook/internal/shared"
	"github.com/fuelbook/fuelbook/internal/station"
	"github.com/fuelbook/fuelbook/internal/stock"
)

type fakeRecons struct {
	reports map[string]recon.DailyReport
}

func (f fakeRecons) DailyReport(_ context.Context, stationID int64, date time.Time) (recon.DailyReport, error) {
	report, ok := f.reports[date.Format(shared.DateLayout)]
	if !ok {
		return recon.DailyReport{StationID: stationID, Date: date, DayStatus: meter.StatusNotStarted}, nil
	}
	return report, nil
}

type fakeJournals struct {
	summary journal.Summary
}

func (f fakeJournals) Summarize(context.Context, int64, time.Time, time.Time) (journal.Summary, error) {
	return f.summary, nil
}

type fakeStocks struct {
	supplies map[string][]stock.Supply
}

func (f fakeStocks) SuppliesByDay(_ context.Context, _ int64, date time.Time) ([]stock.Supply, error) {
	return f.supplies[date.Format(shared.DateLayout)], nil
}

type fakeStations struct{}

func (fakeStations) Get(context.Context, int64) (station.Station, error) {
	return station.Station{ID: 1, Name: "north", Kind: station.KindFuel, Nozzles: 4}, nil
}

func sampleSummary(t *testing.T) MonthlySummary {
	t.Helper()
	day1 := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	recons := fakeRecons{reports: map[string]recon.DailyReport{
		day1.Format(shared.DateLayout): {
			StationID:        1,
			Date:             day1,
			DayStatus:        meter.StatusClosed,
			MeterTotalLiters: 500,
			Transactions: journal.Summary{
				TotalLiters: decimal.NewFromInt(495),
				TotalAmount: decimal.RequireFromString("15513.30"),
			},
			Discrepancies: []recon.Discrepancy{{Kind: recon.KindMeterVsTransactions, Flagged: true}},
		},
		day2.Format(shared.DateLayout): {
			StationID:        1,
			Date:             day2,
			DayStatus:        meter.StatusClosed,
			MeterTotalLiters: 480,
			Transactions: journal.Summary{
				TotalLiters: decimal.NewFromInt(480),
				TotalAmount: decimal.RequireFromString("15043.20"),
			},
		},
	}}
	stocks := fakeStocks{supplies: map[string][]stock.Supply{
		day2.Format(shared.DateLayout): {{StationID: 1, Date: day2, Liters: 1000}},
	}}
	journals := fakeJournals{summary: journal.Summary{
		TotalLiters: decimal.NewFromInt(975),
		TotalAmount: decimal.RequireFromString("30556.50"),
		ByPayment: map[journal.PaymentType]journal.Line{
			journal.PaymentCash:     {Count: 40, Liters: decimal.NewFromInt(900), Amount: decimal.RequireFromString("28206")},
			journal.PaymentTransfer: {Count: 3, Liters: decimal.NewFromInt(75), Amount: decimal.RequireFromString("2350.50")},
		},
	}}

	svc := NewService(recons, journals, stocks, fakeStations{})
	svc.WithNow(func() time.Time { return time.Date(2026, time.June, 3, 12, 0, 0, 0, time.UTC) })

	summary, err := svc.Monthly(context.Background(), 1, day1)
	require.NoError(t, err)
	return summary
}

func TestMonthlyFoldsDays(t *testing.T) {
	summary := sampleSummary(t)

	require.Equal(t, "north", summary.StationName)
	require.Len(t, summary.Days, 3, "only days up to today are walked")
	require.InDelta(t, 980.0, summary.TotalLiters, 0.0001)
	require.InDelta(t, 30556.50, summary.TotalRevenue, 0.0001)
	require.InDelta(t, 1000.0, summary.SupplyLiters, 0.0001)
	require.Equal(t, 1, summary.FlaggedDays)

	require.True(t, summary.Days[0].Flagged)
	require.False(t, summary.Days[1].Flagged)
	require.Equal(t, meter.StatusNotStarted, summary.Days[2].DayStatus)
	require.Equal(t, 40, summary.ByPayment[journal.PaymentCash].Count)
}

func TestBuildMonthlyXLSX(t *testing.T) {
	summary := sampleSummary(t)
	payload, err := BuildMonthlyXLSX(summary)
	require.NoError(t, err)
	require.NotEmpty(t, payload)
	// XLSX files are zip archives.
	require.Equal(t, []byte{'P', 'K'}, payload[:2])
}

func TestFormatAmount(t *testing.T) {
	require.Equal(t, "15,513.30", FormatAmount(15513.3))
	require.Equal(t, "0.00", FormatAmount(0))
	require.Equal(t, "1,000,000.00", FormatAmount(1000000))
}

func TestPaymentOrderSkipsAbsentTypes(t *testing.T) {
	summary := sampleSummary(t)
	order := paymentOrder(summary)
	require.Equal(t, []journal.PaymentType{journal.PaymentCash, journal.PaymentTransfer}, order)
}
