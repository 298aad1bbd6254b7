package recon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fuelbook/fuelbook/internal/shared"
)

// SnapshotCache keeps warmed daily reports in redis. Purely advisory: a
// miss, a decode failure or a dead redis all just mean computing fresh.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotCache builds SnapshotCache. ttl <= 0 defaults to 48 hours.
func NewSnapshotCache(client *redis.Client, ttl time.Duration) *SnapshotCache {
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	return &SnapshotCache{client: client, ttl: ttl}
}

func snapshotKey(stationID int64, date time.Time) string {
	return fmt.Sprintf("recon:daily:%d:%s", stationID, date.Format(shared.DateLayout))
}

// Get returns the cached report for one station-day, if present.
func (c *SnapshotCache) Get(ctx context.Context, stationID int64, date time.Time) (DailyReport, bool, error) {
	if c == nil || c.client == nil {
		return DailyReport{}, false, nil
	}
	payload, err := c.client.Get(ctx, snapshotKey(stationID, shared.Day(date))).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return DailyReport{}, false, nil
		}
		return DailyReport{}, false, err
	}
	var report DailyReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return DailyReport{}, false, nil
	}
	return report, true, nil
}

// Set stores one report under its station-day key.
func (c *SnapshotCache) Set(ctx context.Context, report DailyReport) error {
	if c == nil || c.client == nil {
		return nil
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, snapshotKey(report.StationID, report.Date), payload, c.ttl).Err()
}

// Invalidate drops the cached report for one station-day. Called after
// mutations so stale snapshots do not outlive their inputs.
func (c *SnapshotCache) Invalidate(ctx context.Context, stationID int64, date time.Time) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, snapshotKey(stationID, shared.Day(date))).Err()
}
