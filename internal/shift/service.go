package shift

import (
	"context"
	"time"

	"github.com/fuelbook/fuelbook/internal/identity"
	"github.com/fuelbook/fuelbook/internal/meter"
	"github.com/fuelbook/fuelbook/internal/shared"
	"github.com/fuelbook/fuelbook/internal/station"
)

// DefaultLockWindow is how long after a shift close staff may still modify
// the day's records without admin intervention.
const DefaultLockWindow = 24 * time.Hour

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	Insert(ctx context.Context, sh Shift) (Shift, error)
	Get(ctx context.Context, id int64) (Shift, error)
	GetByNumber(ctx context.Context, stationID int64, date time.Time, number int) (Shift, error)
	ListByDay(ctx context.Context, stationID int64, date time.Time) ([]Shift, error)
	Close(ctx context.Context, id, closedBy int64, closedAt time.Time, totalLiters float64) (Shift, error)
}

// StationPort resolves station configuration.
type StationPort interface {
	Get(ctx context.Context, id int64) (station.Station, error)
}

// MeterPort is the slice of the meter service used during open and close.
type MeterPort interface {
	SaveReadings(ctx context.Context, in meter.SaveInput) (meter.SaveResult, error)
	Readings(ctx context.Context, stationID int64, date time.Time) ([]meter.Reading, error)
	SeedFromPriorDay(ctx context.Context, stationID int64, date time.Time) ([]meter.Reading, error)
}

// SnapshotPort drops cached derived reports whose inputs changed.
type SnapshotPort interface {
	Invalidate(ctx context.Context, stationID int64, date time.Time) error
}

// Service owns the shift lifecycle and is the single authority on whether a
// station-day accepts modifications. Other services depend on CanModify
// through their own Authorizer ports.
type Service struct {
	repo       RepositoryPort
	stations   StationPort
	meters     MeterPort
	snapshots  SnapshotPort
	lockWindow time.Duration
	now        func() time.Time
}

// NewService builds Service. lockWindow <= 0 falls back to DefaultLockWindow.
// The meter port is attached afterwards with WithMeters: the meter service
// itself authorizes through this service, so one of the two has to be wired
// late.
func NewService(repo RepositoryPort, stations StationPort, lockWindow time.Duration) *Service {
	if lockWindow <= 0 {
		lockWindow = DefaultLockWindow
	}
	return &Service{
		repo:       repo,
		stations:   stations,
		lockWindow: lockWindow,
		now:        time.Now,
	}
}

// WithMeters attaches the meter port.
func (s *Service) WithMeters(meters MeterPort) *Service {
	s.meters = meters
	return s
}

// WithSnapshots attaches the report snapshot invalidator.
func (s *Service) WithSnapshots(snapshots SnapshotPort) *Service {
	s.snapshots = snapshots
	return s
}

// invalidateSnapshot is best effort: a dead cache also fails reads, so a
// snapshot that cannot be dropped cannot be served either.
func (s *Service) invalidateSnapshot(ctx context.Context, stationID int64, date time.Time) {
	if s.snapshots != nil {
		_ = s.snapshots.Invalidate(ctx, stationID, date)
	}
}

// WithNow overrides the clock. Used by tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// OpenResult returns the opened shift plus any meter readings seeded from
// the prior day.
type OpenResult struct {
	Shift          Shift
	SeededReadings []meter.Reading
}

// Open starts a new shift. The shift number must fit the station's limit,
// and the slot must be free; losing the insert race maps to a conflict.
func (s *Service) Open(ctx context.Context, in OpenInput) (OpenResult, error) {
	st, err := s.stations.Get(ctx, in.StationID)
	if err != nil {
		return OpenResult{}, err
	}
	if in.Number < 1 || in.Number > st.MaxShifts {
		return OpenResult{}, ErrNumberOutOfRange
	}
	date := shared.Day(in.Date)
	if _, err := s.CanModify(ctx, in.StationID, date, in.Actor); err != nil {
		return OpenResult{}, err
	}

	sh, err := s.repo.Insert(ctx, Shift{
		StationID: in.StationID,
		Date:      date,
		Number:    in.Number,
		Status:    StatusOpen,
		OpenedBy:  in.Actor.ID,
		OpenedAt:  s.now(),
	})
	if err != nil {
		return OpenResult{}, err
	}
	s.invalidateSnapshot(ctx, in.StationID, date)

	result := OpenResult{Shift: sh}
	if in.PullPriorReadings {
		seeded, err := s.meters.SeedFromPriorDay(ctx, in.StationID, date)
		if err != nil {
			return OpenResult{}, err
		}
		result.SeededReadings = seeded
	}
	return result, nil
}

// CloseResult returns the closed shift and the meter state it was closed
// against, including any continuity warnings from saving end readings.
type CloseResult struct {
	Shift    Shift
	Readings []meter.Reading
	Warnings []meter.ContinuityWarning
}

// Close transitions an OPEN shift to CLOSED. End readings submitted with the
// close are saved first so the stamped total reflects them.
func (s *Service) Close(ctx context.Context, in CloseInput) (CloseResult, error) {
	sh, err := s.repo.Get(ctx, in.ShiftID)
	if err != nil {
		return CloseResult{}, err
	}
	if sh.Status != StatusOpen {
		return CloseResult{}, ErrAlreadyClosed
	}

	var warnings []meter.ContinuityWarning
	if len(in.EndReadings) > 0 {
		entries := make([]meter.Entry, 0, len(in.EndReadings))
		for _, e := range in.EndReadings {
			entries = append(entries, meter.Entry{Nozzle: e.Nozzle, Value: e.Value, PhotoRef: e.PhotoRef})
		}
		saved, err := s.meters.SaveReadings(ctx, meter.SaveInput{
			StationID: sh.StationID,
			Date:      sh.Date,
			Kind:      meter.KindEnd,
			Entries:   entries,
			Actor:     in.Actor,
			Reason:    in.Reason,
		})
		if err != nil {
			return CloseResult{}, err
		}
		warnings = saved.Warnings
	}

	readings, err := s.meters.Readings(ctx, sh.StationID, sh.Date)
	if err != nil {
		return CloseResult{}, err
	}
	closed, err := s.repo.Close(ctx, sh.ID, in.Actor.ID, s.now(), meter.Total(readings))
	if err != nil {
		return CloseResult{}, err
	}
	s.invalidateSnapshot(ctx, sh.StationID, shared.Day(sh.Date))
	return CloseResult{Shift: closed, Readings: readings, Warnings: warnings}, nil
}

// Get loads one shift with its derived status.
func (s *Service) Get(ctx context.Context, id int64) (Shift, error) {
	sh, err := s.repo.Get(ctx, id)
	if err != nil {
		return Shift{}, err
	}
	sh.Status = sh.DerivedStatus(s.now(), s.lockWindow)
	return sh, nil
}

// ShiftsByDay lists a station-day's shifts with derived statuses.
func (s *Service) ShiftsByDay(ctx context.Context, stationID int64, date time.Time) ([]Shift, error) {
	shifts, err := s.repo.ListByDay(ctx, stationID, shared.Day(date))
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range shifts {
		shifts[i].Status = shifts[i].DerivedStatus(now, s.lockWindow)
	}
	return shifts, nil
}

// CanModify evaluates the day lock policy for one station-day. The decision
// is computed fresh from shift close timestamps on every call; nothing is
// stored.
//
// Staff may modify until any of the day's shifts has been closed for longer
// than the lock window. Admins always may; once the window has passed, their
// access is an override and mutations demand a reason.
func (s *Service) CanModify(ctx context.Context, stationID int64, date time.Time, actor identity.Actor) (shared.LockDecision, error) {
	shifts, err := s.repo.ListByDay(ctx, stationID, shared.Day(date))
	if err != nil {
		return shared.LockDecision{}, err
	}
	now := s.now()
	var decision shared.LockDecision
	staffAllowed := true
	for _, sh := range shifts {
		if sh.Status != StatusClosed || sh.ClosedAt == nil {
			continue
		}
		decision.PostClose = true
		if now.Sub(*sh.ClosedAt) > s.lockWindow {
			staffAllowed = false
		}
	}
	if !staffAllowed {
		if !actor.IsAdmin() {
			return shared.LockDecision{}, ErrDayLocked
		}
		decision.AdminOverride = true
	}
	return decision, nil
}
