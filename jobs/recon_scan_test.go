package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/fuelbook/fuelbook/internal/recon"
	"github.com/fuelbook/fuelbook/internal/station"
)

type fakeRecon struct {
	requested []int64
	dates     []time.Time
	failFor   int64
}

func (f *fakeRecon) DailyReport(_ context.Context, stationID int64, date time.Time) (recon.DailyReport, error) {
	f.requested = append(f.requested, stationID)
	f.dates = append(f.dates, date)
	if stationID == f.failFor {
		return recon.DailyReport{}, errors.New("ledger unavailable")
	}
	return recon.DailyReport{StationID: stationID, Date: date}, nil
}

type fakeStations struct {
	stations []station.Station
}

func (f fakeStations) List(context.Context) ([]station.Station, error) {
	return f.stations, nil
}

func scanTask(t *testing.T, payload ReconScanPayload) *asynq.Task {
	t.Helper()
	task, err := NewReconScanTask(payload)
	require.NoError(t, err)
	return task
}

func TestReconScanWalksAllStations(t *testing.T) {
	reconSvc := &fakeRecon{}
	job := NewReconScanJob(reconSvc, fakeStations{stations: []station.Station{{ID: 1}, {ID: 2}}}, nil, nil)
	job.clock = func() time.Time { return time.Date(2026, time.June, 16, 2, 0, 0, 0, time.UTC) }

	err := job.Handle(context.Background(), scanTask(t, ReconScanPayload{}))
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2}, reconSvc.requested)

	// A zero date defaults to the previous calendar day.
	want := time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)
	require.Equal(t, want, reconSvc.dates[0])
}

func TestReconScanScopedToOneStation(t *testing.T) {
	reconSvc := &fakeRecon{}
	job := NewReconScanJob(reconSvc, fakeStations{}, nil, nil)

	day := time.Date(2026, time.June, 10, 0, 0, 0, 0, time.UTC)
	err := job.Handle(context.Background(), scanTask(t, ReconScanPayload{StationID: 7, Date: day}))
	require.NoError(t, err)
	require.Equal(t, []int64{7}, reconSvc.requested)
	require.Equal(t, day, reconSvc.dates[0])
}

func TestReconScanContinuesPastFailures(t *testing.T) {
	reconSvc := &fakeRecon{failFor: 1}
	job := NewReconScanJob(reconSvc, fakeStations{stations: []station.Station{{ID: 1}, {ID: 2}}}, nil, nil)

	err := job.Handle(context.Background(), scanTask(t, ReconScanPayload{}))
	require.NoError(t, err, "one broken station must not fail the whole run")
	require.Equal(t, []int64{1, 2}, reconSvc.requested)
}

func TestReconScanSkipsRetryOnBadPayload(t *testing.T) {
	job := NewReconScanJob(&fakeRecon{}, fakeStations{}, nil, nil)
	err := job.Handle(context.Background(), asynq.NewTask(TaskReconScan, []byte("{broken")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestReconScanPayloadRoundTrip(t *testing.T) {
	task := scanTask(t, ReconScanPayload{StationID: 3})
	require.Equal(t, TaskReconScan, task.Type())

	var payload ReconScanPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	require.Equal(t, int64(3), payload.StationID)
}
