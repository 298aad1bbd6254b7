package recon

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/fuelbook/fuelbook/internal/meter"
)

func newTestCache(t *testing.T) *SnapshotCache {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSnapshotCache(client, time.Hour)
}

func TestSnapshotCacheRoundTrip(t *testing.T) {
	cache := newTestCache(t)
	day := time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)

	_, found, err := cache.Get(context.Background(), 1, day)
	require.NoError(t, err)
	require.False(t, found)

	report := DailyReport{
		StationID:        1,
		Date:             day,
		DayStatus:        meter.StatusClosed,
		MeterTotalLiters: 500,
		Discrepancies: []Discrepancy{
			{Kind: KindMeterVsTransactions, Expected: 500, Actual: 495, Delta: 5, Threshold: 1, Flagged: true},
		},
	}
	require.NoError(t, cache.Set(context.Background(), report))

	cached, found, err := cache.Get(context.Background(), 1, day)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, report.MeterTotalLiters, cached.MeterTotalLiters)
	require.Equal(t, report.Discrepancies, cached.Discrepancies)

	require.NoError(t, cache.Invalidate(context.Background(), 1, day))
	_, found, err = cache.Get(context.Background(), 1, day)
	require.NoError(t, err)
	require.False(t, found)
}

func TestSnapshotCacheNilSafe(t *testing.T) {
	var cache *SnapshotCache
	_, found, err := cache.Get(context.Background(), 1, time.Now())
	require.NoError(t, err)
	require.False(t, found)
	require.NoError(t, cache.Set(context.Background(), DailyReport{}))
	require.NoError(t, cache.Invalidate(context.Background(), 1, time.Now()))
}

func TestSnapshotCacheIgnoresCorruptPayload(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewSnapshotCache(client, time.Hour)

	day := time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, srv.Set("recon:daily:1:2026-06-15", "{not json"))

	_, found, err := cache.Get(context.Background(), 1, day)
	require.NoError(t, err)
	require.False(t, found, "a corrupt snapshot reads as a miss")
}
