package meter

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fuelbook/fuelbook/internal/audit"
	"github.com/fuelbook/fuelbook/internal/identity"
	"github.com/fuelbook/fuelbook/internal/shared"
	"github.com/fuelbook/fuelbook/internal/station"
)

type memoryRepo struct {
	rows map[string]Reading
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: map[string]Reading{}}
}

func rowKey(stationID int64, date time.Time, nozzle int) string {
	return fmt.Sprintf("%d/%s/%d", stationID, date.Format(shared.DateLayout), nozzle)
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: m})
}

func (m *memoryRepo) ListByDay(_ context.Context, stationID int64, date time.Time) ([]Reading, error) {
	var readings []Reading
	for _, r := range m.rows {
		if r.StationID == stationID && r.Date.Equal(date) {
			readings = append(readings, r)
		}
	}
	sort.Slice(readings, func(i, j int) bool { return readings[i].Nozzle < readings[j].Nozzle })
	return readings, nil
}

type memoryTx struct {
	repo *memoryRepo
}

func (t *memoryTx) GetForUpdate(_ context.Context, stationID int64, date time.Time, nozzle int) (Reading, bool, error) {
	r, ok := t.repo.rows[rowKey(stationID, date, nozzle)]
	return r, ok, nil
}

func (t *memoryTx) Insert(_ context.Context, reading Reading) error {
	t.repo.rows[rowKey(reading.StationID, reading.Date, reading.Nozzle)] = reading
	return nil
}

func (t *memoryTx) UpdateStart(_ context.Context, stationID int64, date time.Time, nozzle int, value float64, photoRef string) error {
	key := rowKey(stationID, date, nozzle)
	r := t.repo.rows[key]
	r.Start = value
	if photoRef != "" {
		r.StartPhotoRef = photoRef
	}
	t.repo.rows[key] = r
	return nil
}

func (t *memoryTx) UpdateEnd(_ context.Context, stationID int64, date time.Time, nozzle int, value float64, photoRef string) error {
	key := rowKey(stationID, date, nozzle)
	r := t.repo.rows[key]
	r.End = &value
	if photoRef != "" {
		r.EndPhotoRef = photoRef
	}
	t.repo.rows[key] = r
	return nil
}

type stubStations struct {
	st station.Station
}

func (s stubStations) Get(context.Context, int64) (station.Station, error) {
	return s.st, nil
}

type stubAuthorizer struct {
	decision shared.LockDecision
	err      error
}

func (a stubAuthorizer) CanModify(context.Context, int64, time.Time, identity.Actor) (shared.LockDecision, error) {
	return a.decision, a.err
}

type recordingAuditor struct {
	inputs []audit.Input
}

func (a *recordingAuditor) Record(_ context.Context, in audit.Input) (audit.Entry, error) {
	a.inputs = append(a.inputs, in)
	return audit.Entry{}, nil
}

type fakeSnapshots struct {
	dropped []string
}

func (f *fakeSnapshots) Invalidate(_ context.Context, stationID int64, date time.Time) error {
	f.dropped = append(f.dropped, fmt.Sprintf("%d/%s", stationID, date.Format(shared.DateLayout)))
	return nil
}

var (
	testDay   = time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	testActor = identity.Actor{ID: 7, Name: "sari", Role: identity.RoleStaff}
)

func newTestService(repo *memoryRepo, auditor AuditPort) *Service {
	return NewService(repo, stubStations{st: station.Station{ID: 1, Kind: station.KindFuel, MaxShifts: 3, Nozzles: 4}}, stubAuthorizer{}, auditor)
}

func TestSaveStartThenEnd(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, nil)

	_, err := svc.SaveReadings(context.Background(), SaveInput{
		StationID: 1, Date: testDay, Kind: KindStart,
		Entries: []Entry{{Nozzle: 1, Value: 100}, {Nozzle: 2, Value: 250.5}},
		Actor:   testActor,
	})
	require.NoError(t, err)

	result, err := svc.SaveReadings(context.Background(), SaveInput{
		StationID: 1, Date: testDay, Kind: KindEnd,
		Entries: []Entry{{Nozzle: 1, Value: 350}, {Nozzle: 2, Value: 400.5}},
		Actor:   testActor,
	})
	require.NoError(t, err)
	require.Len(t, result.Readings, 2)
	require.InDelta(t, 400.0, Total(result.Readings), 0.0001)

	status, err := svc.Status(context.Background(), 1, testDay)
	require.NoError(t, err)
	require.Equal(t, StatusClosed, status)
}

func TestSaveEndWithoutStart(t *testing.T) {
	svc := newTestService(newMemoryRepo(), nil)
	_, err := svc.SaveReadings(context.Background(), SaveInput{
		StationID: 1, Date: testDay, Kind: KindEnd,
		Entries: []Entry{{Nozzle: 1, Value: 350}},
		Actor:   testActor,
	})
	require.ErrorIs(t, err, ErrStartMissing)
}

func TestSaveEndBelowStart(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, nil)

	_, err := svc.SaveReadings(context.Background(), SaveInput{
		StationID: 1, Date: testDay, Kind: KindStart,
		Entries: []Entry{{Nozzle: 1, Value: 500}},
		Actor:   testActor,
	})
	require.NoError(t, err)

	_, err = svc.SaveReadings(context.Background(), SaveInput{
		StationID: 1, Date: testDay, Kind: KindEnd,
		Entries: []Entry{{Nozzle: 1, Value: 499.9}},
		Actor:   testActor,
	})
	require.ErrorIs(t, err, ErrRegression)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestSaveRejectsUnknownNozzle(t *testing.T) {
	svc := newTestService(newMemoryRepo(), nil)
	_, err := svc.SaveReadings(context.Background(), SaveInput{
		StationID: 1, Date: testDay, Kind: KindStart,
		Entries: []Entry{{Nozzle: 5, Value: 10}},
		Actor:   testActor,
	})
	require.ErrorIs(t, err, ErrUnknownNozzle)
}

func TestSaveCorrectionIsAudited(t *testing.T) {
	repo := newMemoryRepo()
	auditor := &recordingAuditor{}
	svc := newTestService(repo, auditor)

	_, err := svc.SaveReadings(context.Background(), SaveInput{
		StationID: 1, Date: testDay, Kind: KindStart,
		Entries: []Entry{{Nozzle: 1, Value: 100}},
		Actor:   testActor,
	})
	require.NoError(t, err)
	require.Empty(t, auditor.inputs, "first save is not a correction")

	_, err = svc.SaveReadings(context.Background(), SaveInput{
		StationID: 1, Date: testDay, Kind: KindStart,
		Entries: []Entry{{Nozzle: 1, Value: 105}},
		Actor:   testActor,
	})
	require.NoError(t, err)
	require.Len(t, auditor.inputs, 1)
	require.Equal(t, audit.ActionUpdate, auditor.inputs[0].Action)
	require.Equal(t, audit.EntityMeter, auditor.inputs[0].EntityType)
	require.Equal(t, []audit.FieldChange{{Field: "nozzle_1_start_reading", Before: "100.00", After: "105.00"}}, auditor.inputs[0].Changes)
}

func TestSavePostCloseOverrideNeedsReason(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo,
		stubStations{st: station.Station{ID: 1, Kind: station.KindFuel, MaxShifts: 3, Nozzles: 4}},
		stubAuthorizer{decision: shared.LockDecision{PostClose: true, AdminOverride: true}}, nil)

	admin := identity.Actor{ID: 9, Name: "boss", Role: identity.RoleAdmin}
	_, err := svc.SaveReadings(context.Background(), SaveInput{
		StationID: 1, Date: testDay, Kind: KindStart,
		Entries: []Entry{{Nozzle: 1, Value: 100}},
		Actor:   admin,
	})
	require.ErrorIs(t, err, shared.ErrReasonRequired)

	_, err = svc.SaveReadings(context.Background(), SaveInput{
		StationID: 1, Date: testDay, Kind: KindStart,
		Entries: []Entry{{Nozzle: 1, Value: 100}},
		Actor:   admin,
		Reason:  "pump recalibrated after inspection",
	})
	require.NoError(t, err)
}

func TestSaveDropsReportSnapshot(t *testing.T) {
	repo := newMemoryRepo()
	snapshots := &fakeSnapshots{}
	svc := newTestService(repo, nil).WithSnapshots(snapshots)

	_, err := svc.SaveReadings(context.Background(), SaveInput{
		StationID: 1, Date: testDay.Add(5 * time.Hour), Kind: KindStart,
		Entries: []Entry{{Nozzle: 1, Value: 100}},
		Actor:   testActor,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"1/2026-03-10"}, snapshots.dropped, "save invalidates the normalized day")

	// A rejected save leaves the cache alone.
	_, err = svc.SaveReadings(context.Background(), SaveInput{
		StationID: 1, Date: testDay, Kind: KindStart,
		Entries: []Entry{{Nozzle: 1, Value: -5}},
		Actor:   testActor,
	})
	require.ErrorIs(t, err, ErrNegativeValue)
	require.Len(t, snapshots.dropped, 1)
}

func TestContinuityWarning(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, nil)
	prior := shared.PrevDay(testDay)

	_, err := svc.SaveReadings(context.Background(), SaveInput{
		StationID: 1, Date: prior, Kind: KindStart,
		Entries: []Entry{{Nozzle: 1, Value: 100}},
		Actor:   testActor,
	})
	require.NoError(t, err)
	_, err = svc.SaveReadings(context.Background(), SaveInput{
		StationID: 1, Date: prior, Kind: KindEnd,
		Entries: []Entry{{Nozzle: 1, Value: 300}},
		Actor:   testActor,
	})
	require.NoError(t, err)

	result, err := svc.SaveReadings(context.Background(), SaveInput{
		StationID: 1, Date: testDay, Kind: KindStart,
		Entries: []Entry{{Nozzle: 1, Value: 295}},
		Actor:   testActor,
	})
	require.NoError(t, err)
	require.Equal(t, []ContinuityWarning{{Nozzle: 1, PreviousEnd: 300, CurrentStart: 295}}, result.Warnings)
}

func TestSeedFromPriorDay(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, nil)
	prior := shared.PrevDay(testDay)

	_, err := svc.SaveReadings(context.Background(), SaveInput{
		StationID: 1, Date: prior, Kind: KindStart,
		Entries: []Entry{{Nozzle: 1, Value: 100}, {Nozzle: 2, Value: 40}},
		Actor:   testActor,
	})
	require.NoError(t, err)
	_, err = svc.SaveReadings(context.Background(), SaveInput{
		StationID: 1, Date: prior, Kind: KindEnd,
		Entries: []Entry{{Nozzle: 1, Value: 300}},
		Actor:   testActor,
	})
	require.NoError(t, err)

	seeded, err := svc.SeedFromPriorDay(context.Background(), 1, testDay)
	require.NoError(t, err)
	require.Len(t, seeded, 1, "only nozzles with a prior end reading are seeded")
	require.Equal(t, 1, seeded[0].Nozzle)
	require.InDelta(t, 300.0, seeded[0].Start, 0.0001)

	// Seeding again must not clobber an existing start reading.
	_, err = svc.SaveReadings(context.Background(), SaveInput{
		StationID: 1, Date: testDay, Kind: KindStart,
		Entries: []Entry{{Nozzle: 1, Value: 305}},
		Actor:   testActor,
	})
	require.NoError(t, err)
	seeded, err = svc.SeedFromPriorDay(context.Background(), 1, testDay)
	require.NoError(t, err)
	require.InDelta(t, 305.0, seeded[0].Start, 0.0001)
}
