package recon

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fuelbook/fuelbook/internal/journal"
	"github.com/fuelbook/fuelbook/internal/station"
)

type mutableJournals struct {
	txns []journal.Transaction
}

func (m *mutableJournals) ListByDay(context.Context, int64, time.Time) ([]journal.Transaction, error) {
	return m.txns, nil
}

func reportServer(t *testing.T, svc *Service, cache *SnapshotCache) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	r.Route("/stations/{stationID}/days/{date}", NewHandler(logger, svc, cache).MountRoutes)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func getReport(t *testing.T, srv *httptest.Server, path string) DailyReport {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var report DailyReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	return report
}

func TestDailyReportReadReflectsMutations(t *testing.T) {
	journals := &mutableJournals{txns: []journal.Transaction{
		{StationID: 1, OccurredAt: reportDay.Add(9 * time.Hour), PaymentType: journal.PaymentCash,
			Nozzle: 1, Liters: decimal.NewFromInt(495), Amount: decimal.RequireFromString("15513.30")},
	}}
	svc := NewService(
		fakeMeters{readings: fuelReadings()},
		fakeGauges{},
		fakeStocks{},
		journals,
		fakeStations{st: station.Station{ID: 1, Kind: station.KindFuel, Nozzles: 2}, dayErr: station.ErrDayNotFound},
		fakeShifts{},
		nil,
		DefaultThresholds(),
		98,
	)
	cache := newTestCache(t)
	srv := reportServer(t, svc, cache)

	report := getReport(t, srv, "/stations/1/days/2026-06-15/report")
	require.True(t, findRow(t, report.Discrepancies, KindMeterVsTransactions).Flagged)

	// A correcting transaction lands and drops the snapshot, the way every
	// ledger mutation does. The next read recomputes from the ledgers.
	journals.txns = append(journals.txns, journal.Transaction{
		StationID: 1, OccurredAt: reportDay.Add(16 * time.Hour), PaymentType: journal.PaymentCash,
		Nozzle: 2, Liters: decimal.NewFromInt(5), Amount: decimal.RequireFromString("156.70"),
	})
	require.NoError(t, cache.Invalidate(context.Background(), 1, reportDay))

	report = getReport(t, srv, "/stations/1/days/2026-06-15/report")
	row := findRow(t, report.Discrepancies, KindMeterVsTransactions)
	require.InDelta(t, 0.0, row.Delta, 0.0001)
	require.False(t, row.Flagged)
}

func TestDailyReportFreshBypassesSnapshot(t *testing.T) {
	journals := &mutableJournals{}
	svc := NewService(
		fakeMeters{readings: fuelReadings()},
		fakeGauges{},
		fakeStocks{},
		journals,
		fakeStations{st: station.Station{ID: 1, Kind: station.KindFuel, Nozzles: 2}, dayErr: station.ErrDayNotFound},
		fakeShifts{},
		nil,
		DefaultThresholds(),
		98,
	)
	cache := newTestCache(t)
	srv := reportServer(t, svc, cache)

	first := getReport(t, srv, "/stations/1/days/2026-06-15/report")
	require.True(t, first.Transactions.TotalLiters.IsZero())

	journals.txns = []journal.Transaction{
		{StationID: 1, OccurredAt: reportDay.Add(9 * time.Hour), PaymentType: journal.PaymentCash,
			Nozzle: 1, Liters: decimal.NewFromInt(500), Amount: decimal.RequireFromString("15670")},
	}

	cached := getReport(t, srv, "/stations/1/days/2026-06-15/report")
	require.True(t, cached.Transactions.TotalLiters.IsZero(), "without invalidation the snapshot is served")

	fresh := getReport(t, srv, "/stations/1/days/2026-06-15/report?fresh=1")
	require.True(t, fresh.Transactions.TotalLiters.Equal(decimal.NewFromInt(500)))
}
