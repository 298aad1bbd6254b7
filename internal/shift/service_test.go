package shift

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fuelbook/fuelbook/internal/identity"
	"github.com/fuelbook/fuelbook/internal/meter"
	"github.com/fuelbook/fuelbook/internal/shared"
	"github.com/fuelbook/fuelbook/internal/station"
)

type memoryRepo struct {
	shifts map[int64]Shift
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{shifts: map[int64]Shift{}}
}

func (m *memoryRepo) Insert(_ context.Context, sh Shift) (Shift, error) {
	for _, existing := range m.shifts {
		if existing.StationID == sh.StationID && existing.Date.Equal(sh.Date) && existing.Number == sh.Number {
			if existing.Status == StatusClosed {
				return Shift{}, ErrAlreadyClosed
			}
			return Shift{}, ErrAlreadyOpen
		}
	}
	m.nextID++
	sh.ID = m.nextID
	m.shifts[sh.ID] = sh
	return sh, nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (Shift, error) {
	sh, ok := m.shifts[id]
	if !ok {
		return Shift{}, ErrShiftNotFound
	}
	return sh, nil
}

func (m *memoryRepo) GetByNumber(_ context.Context, stationID int64, date time.Time, number int) (Shift, error) {
	for _, sh := range m.shifts {
		if sh.StationID == stationID && sh.Date.Equal(date) && sh.Number == number {
			return sh, nil
		}
	}
	return Shift{}, ErrShiftNotFound
}

func (m *memoryRepo) ListByDay(_ context.Context, stationID int64, date time.Time) ([]Shift, error) {
	var shifts []Shift
	for _, sh := range m.shifts {
		if sh.StationID == stationID && sh.Date.Equal(date) {
			shifts = append(shifts, sh)
		}
	}
	sort.Slice(shifts, func(i, j int) bool { return shifts[i].Number < shifts[j].Number })
	return shifts, nil
}

func (m *memoryRepo) Close(_ context.Context, id, closedBy int64, closedAt time.Time, totalLiters float64) (Shift, error) {
	sh, ok := m.shifts[id]
	if !ok {
		return Shift{}, ErrShiftNotFound
	}
	if sh.Status != StatusOpen {
		return Shift{}, ErrAlreadyClosed
	}
	sh.Status = StatusClosed
	sh.ClosedBy = &closedBy
	sh.ClosedAt = &closedAt
	sh.TotalLiters = totalLiters
	m.shifts[id] = sh
	return sh, nil
}

type stubStations struct {
	st station.Station
}

func (s stubStations) Get(context.Context, int64) (station.Station, error) {
	return s.st, nil
}

type fakeMeters struct {
	readings map[string][]meter.Reading
	saved    []meter.SaveInput
	seeded   bool
}

func dayKey(stationID int64, date time.Time) string {
	return date.Format(shared.DateLayout)
}

func (f *fakeMeters) SaveReadings(_ context.Context, in meter.SaveInput) (meter.SaveResult, error) {
	f.saved = append(f.saved, in)
	return meter.SaveResult{Readings: f.readings[dayKey(in.StationID, shared.Day(in.Date))]}, nil
}

func (f *fakeMeters) Readings(_ context.Context, stationID int64, date time.Time) ([]meter.Reading, error) {
	return f.readings[dayKey(stationID, shared.Day(date))], nil
}

func (f *fakeMeters) SeedFromPriorDay(_ context.Context, stationID int64, date time.Time) ([]meter.Reading, error) {
	f.seeded = true
	return f.readings[dayKey(stationID, shared.Day(date))], nil
}

type fakeSnapshots struct {
	dropped []time.Time
}

func (f *fakeSnapshots) Invalidate(_ context.Context, _ int64, date time.Time) error {
	f.dropped = append(f.dropped, date)
	return nil
}

var (
	testDay = time.Date(2026, time.April, 2, 0, 0, 0, 0, time.UTC)
	staff   = identity.Actor{ID: 3, Name: "budi", Role: identity.RoleStaff}
	admin   = identity.Actor{ID: 1, Name: "owner", Role: identity.RoleAdmin}
)

func newTestService(repo *memoryRepo, meters MeterPort) *Service {
	svc := NewService(repo, stubStations{st: station.Station{ID: 1, Kind: station.KindFuel, MaxShifts: 2, Nozzles: 4}}, DefaultLockWindow)
	return svc.WithMeters(meters)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func endPtr(v float64) *float64 { return &v }

func TestOpenAndCloseShift(t *testing.T) {
	repo := newMemoryRepo()
	meters := &fakeMeters{readings: map[string][]meter.Reading{
		dayKey(1, testDay): {
			{StationID: 1, Date: testDay, Nozzle: 1, Start: 100, End: endPtr(350)},
			{StationID: 1, Date: testDay, Nozzle: 2, Start: 40, End: endPtr(190)},
		},
	}}
	svc := newTestService(repo, meters)
	svc.WithNow(fixedClock(testDay.Add(8 * time.Hour)))

	opened, err := svc.Open(context.Background(), OpenInput{StationID: 1, Date: testDay, Number: 1, Actor: staff})
	require.NoError(t, err)
	require.Equal(t, StatusOpen, opened.Shift.Status)
	require.Equal(t, 1, opened.Shift.Number)

	closed, err := svc.Close(context.Background(), CloseInput{
		ShiftID:     opened.Shift.ID,
		EndReadings: []EndEntry{{Nozzle: 1, Value: 350}, {Nozzle: 2, Value: 190}},
		Actor:       staff,
	})
	require.NoError(t, err)
	require.Equal(t, StatusClosed, closed.Shift.Status)
	require.InDelta(t, 400.0, closed.Shift.TotalLiters, 0.0001)
	require.Len(t, meters.saved, 1)
	require.Equal(t, meter.KindEnd, meters.saved[0].Kind)

	_, err = svc.Close(context.Background(), CloseInput{ShiftID: opened.Shift.ID, Actor: staff})
	require.ErrorIs(t, err, ErrAlreadyClosed)
}

func TestOpenNumberOutOfRange(t *testing.T) {
	svc := newTestService(newMemoryRepo(), &fakeMeters{})
	_, err := svc.Open(context.Background(), OpenInput{StationID: 1, Date: testDay, Number: 3, Actor: staff})
	require.ErrorIs(t, err, ErrNumberOutOfRange)
	_, err = svc.Open(context.Background(), OpenInput{StationID: 1, Date: testDay, Number: 0, Actor: staff})
	require.ErrorIs(t, err, ErrNumberOutOfRange)
}

func TestOpenSameNumberTwice(t *testing.T) {
	svc := newTestService(newMemoryRepo(), &fakeMeters{})
	first, err := svc.Open(context.Background(), OpenInput{StationID: 1, Date: testDay, Number: 1, Actor: staff})
	require.NoError(t, err)

	_, err = svc.Open(context.Background(), OpenInput{StationID: 1, Date: testDay, Number: 1, Actor: staff})
	require.ErrorIs(t, err, ErrAlreadyOpen)

	_, err = svc.Close(context.Background(), CloseInput{ShiftID: first.Shift.ID, Actor: staff})
	require.NoError(t, err)
	_, err = svc.Open(context.Background(), OpenInput{StationID: 1, Date: testDay, Number: 1, Actor: staff})
	require.ErrorIs(t, err, ErrAlreadyClosed)
}

func TestOpenPullsPriorReadings(t *testing.T) {
	meters := &fakeMeters{readings: map[string][]meter.Reading{}}
	svc := newTestService(newMemoryRepo(), meters)
	_, err := svc.Open(context.Background(), OpenInput{StationID: 1, Date: testDay, Number: 1, PullPriorReadings: true, Actor: staff})
	require.NoError(t, err)
	require.True(t, meters.seeded)
}

func TestOpenAndCloseDropReportSnapshot(t *testing.T) {
	repo := newMemoryRepo()
	snapshots := &fakeSnapshots{}
	svc := newTestService(repo, &fakeMeters{readings: map[string][]meter.Reading{}}).WithSnapshots(snapshots)

	opened, err := svc.Open(context.Background(), OpenInput{StationID: 1, Date: testDay, Number: 1, Actor: staff})
	require.NoError(t, err)
	_, err = svc.Close(context.Background(), CloseInput{ShiftID: opened.Shift.ID, Actor: staff})
	require.NoError(t, err)
	require.Equal(t, []time.Time{testDay, testDay}, snapshots.dropped)

	// A conflicting open leaves the cache alone.
	_, err = svc.Open(context.Background(), OpenInput{StationID: 1, Date: testDay, Number: 1, Actor: staff})
	require.ErrorIs(t, err, ErrAlreadyClosed)
	require.Len(t, snapshots.dropped, 2)
}

func TestDerivedStatusLocked(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &fakeMeters{readings: map[string][]meter.Reading{}})
	closeTime := testDay.Add(20 * time.Hour)
	svc.WithNow(fixedClock(closeTime))

	opened, err := svc.Open(context.Background(), OpenInput{StationID: 1, Date: testDay, Number: 1, Actor: staff})
	require.NoError(t, err)
	_, err = svc.Close(context.Background(), CloseInput{ShiftID: opened.Shift.ID, Actor: staff})
	require.NoError(t, err)

	svc.WithNow(fixedClock(closeTime.Add(23 * time.Hour)))
	sh, err := svc.Get(context.Background(), opened.Shift.ID)
	require.NoError(t, err)
	require.Equal(t, StatusClosed, sh.Status)

	svc.WithNow(fixedClock(closeTime.Add(25 * time.Hour)))
	sh, err = svc.Get(context.Background(), opened.Shift.ID)
	require.NoError(t, err)
	require.Equal(t, StatusLocked, sh.Status)
}

func TestCanModifyLifecycle(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &fakeMeters{readings: map[string][]meter.Reading{}})
	closeTime := testDay.Add(20 * time.Hour)
	svc.WithNow(fixedClock(closeTime))

	decision, err := svc.CanModify(context.Background(), 1, testDay, staff)
	require.NoError(t, err)
	require.Equal(t, shared.LockDecision{}, decision, "open day carries no restrictions")

	opened, err := svc.Open(context.Background(), OpenInput{StationID: 1, Date: testDay, Number: 1, Actor: staff})
	require.NoError(t, err)
	_, err = svc.Close(context.Background(), CloseInput{ShiftID: opened.Shift.ID, Actor: staff})
	require.NoError(t, err)

	// Inside the lock window staff may still edit; the edit is post-close.
	svc.WithNow(fixedClock(closeTime.Add(2 * time.Hour)))
	decision, err = svc.CanModify(context.Background(), 1, testDay, staff)
	require.NoError(t, err)
	require.Equal(t, shared.LockDecision{PostClose: true}, decision)

	// Past the window staff are refused outright.
	svc.WithNow(fixedClock(closeTime.Add(25 * time.Hour)))
	_, err = svc.CanModify(context.Background(), 1, testDay, staff)
	require.ErrorIs(t, err, ErrDayLocked)
	require.ErrorIs(t, err, shared.ErrLocked)

	// Admins pass, flagged as an override.
	decision, err = svc.CanModify(context.Background(), 1, testDay, admin)
	require.NoError(t, err)
	require.Equal(t, shared.LockDecision{PostClose: true, AdminOverride: true}, decision)
}
