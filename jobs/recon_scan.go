package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/fuelbook/fuelbook/internal/recon"
	"github.com/fuelbook/fuelbook/internal/shared"
	"github.com/fuelbook/fuelbook/internal/station"
)

// ReconService computes daily reports for the scan.
type ReconService interface {
	DailyReport(ctx context.Context, stationID int64, date time.Time) (recon.DailyReport, error)
}

// StationLister enumerates stations in scope for the scan.
type StationLister interface {
	List(ctx context.Context) ([]station.Station, error)
}

// ReconScanJob walks stations and warms the daily-report cache. Read-only:
// the scan never mutates ledgers or lock state.
type ReconScanJob struct {
	Recon    ReconService
	Stations StationLister
	Cache    *recon.SnapshotCache
	Logger   *slog.Logger
	clock    func() time.Time
}

// NewReconScanJob wires dependencies for the scan handler.
func NewReconScanJob(reconSvc ReconService, stations StationLister, cache *recon.SnapshotCache, logger *slog.Logger) *ReconScanJob {
	return &ReconScanJob{
		Recon:    reconSvc,
		Stations: stations,
		Cache:    cache,
		Logger:   logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes one scan run.
func (j *ReconScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return nil
	}
	var payload ReconScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	date := payload.Date
	if date.IsZero() {
		date = shared.PrevDay(shared.Day(j.clock()))
	}

	var stations []station.Station
	if payload.StationID != 0 {
		stations = []station.Station{{ID: payload.StationID}}
	} else {
		listed, err := j.Stations.List(ctx)
		if err != nil {
			return err
		}
		stations = listed
	}

	for _, st := range stations {
		report, err := j.Recon.DailyReport(ctx, st.ID, date)
		if err != nil {
			if j.Logger != nil {
				j.Logger.Error("recon scan station failed",
					slog.Int64("station_id", st.ID),
					slog.String("date", date.Format(shared.DateLayout)),
					slog.Any("error", err))
			}
			continue
		}
		if err := j.Cache.Set(ctx, report); err != nil && j.Logger != nil {
			j.Logger.Warn("recon scan cache write", slog.Int64("station_id", st.ID), slog.Any("error", err))
		}
		if j.Logger != nil {
			flagged := 0
			for _, d := range report.Discrepancies {
				if d.Flagged {
					flagged++
				}
			}
			j.Logger.Info("recon scan station done",
				slog.Int64("station_id", st.ID),
				slog.String("date", date.Format(shared.DateLayout)),
				slog.Int("flagged", flagged))
		}
	}
	return nil
}
