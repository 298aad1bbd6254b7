package meter

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/fuelbook/fuelbook/internal/audit"
	"github.com/fuelbook/fuelbook/internal/identity"
	"github.com/fuelbook/fuelbook/internal/shared"
	"github.com/fuelbook/fuelbook/internal/station"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListByDay(ctx context.Context, stationID int64, date time.Time) ([]Reading, error)
}

// StationPort resolves station configuration.
type StationPort interface {
	Get(ctx context.Context, id int64) (station.Station, error)
}

// Authorizer decides whether a mutation is permitted under the day lock
// policy. Evaluated fresh on every request; the decision is never cached.
type Authorizer interface {
	CanModify(ctx context.Context, stationID int64, date time.Time, actor identity.Actor) (shared.LockDecision, error)
}

// AuditPort journals meter mutations.
type AuditPort interface {
	Record(ctx context.Context, in audit.Input) (audit.Entry, error)
}

// SnapshotPort drops cached derived reports whose inputs changed.
type SnapshotPort interface {
	Invalidate(ctx context.Context, stationID int64, date time.Time) error
}

// SaveResult returns the persisted readings plus advisory continuity warnings.
type SaveResult struct {
	Readings []Reading
	Warnings []ContinuityWarning
}

// Service owns the meter ledger.
type Service struct {
	repo      RepositoryPort
	stations  StationPort
	authz     Authorizer
	auditor   AuditPort
	snapshots SnapshotPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, stations StationPort, authz Authorizer, auditor AuditPort) *Service {
	return &Service{repo: repo, stations: stations, authz: authz, auditor: auditor}
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

// SaveReadings validates and upserts start or end readings for one
// station-day. Continuity breaks are returned as warnings and never block
// the save.
func (s *Service) SaveReadings(ctx context.Context, in SaveInput) (SaveResult, error) {
	if len(in.Entries) == 0 {
		return SaveResult{}, ErrNoEntries
	}
	if in.Kind != KindStart && in.Kind != KindEnd {
		return SaveResult{}, ErrUnknownKind
	}
	st, err := s.stations.Get(ctx, in.StationID)
	if err != nil {
		return SaveResult{}, err
	}
	for _, entry := range in.Entries {
		if !st.HasNozzle(entry.Nozzle) {
			return SaveResult{}, fmt.Errorf("%w: nozzle %d", ErrUnknownNozzle, entry.Nozzle)
		}
		if entry.Value < 0 {
			return SaveResult{}, fmt.Errorf("%w: nozzle %d", ErrNegativeValue, entry.Nozzle)
		}
	}
	date := shared.Day(in.Date)
	decision, err := s.authz.CanModify(ctx, in.StationID, date, in.Actor)
	if err != nil {
		return SaveResult{}, err
	}
	if decision.PostClose && decision.AdminOverride && in.Reason == "" {
		return SaveResult{}, audit.ErrReasonRequired
	}

	var changes []audit.FieldChange
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for _, entry := range in.Entries {
			existing, found, err := tx.GetForUpdate(ctx, in.StationID, date, entry.Nozzle)
			if err != nil {
				return err
			}
			switch in.Kind {
			case KindStart:
				if !found {
					if err := tx.Insert(ctx, Reading{
						StationID:     in.StationID,
						Date:          date,
						Nozzle:        entry.Nozzle,
						Start:         entry.Value,
						StartPhotoRef: entry.PhotoRef,
					}); err != nil {
						return err
					}
					continue
				}
				if existing.End != nil && entry.Value > *existing.End {
					return fmt.Errorf("%w: nozzle %d", ErrRegression, entry.Nozzle)
				}
				if existing.Start != entry.Value {
					changes = append(changes, fieldChange(entry.Nozzle, "start_reading", existing.Start, entry.Value))
				}
				if err := tx.UpdateStart(ctx, in.StationID, date, entry.Nozzle, entry.Value, entry.PhotoRef); err != nil {
					return err
				}
			case KindEnd:
				if !found {
					return fmt.Errorf("%w: nozzle %d", ErrStartMissing, entry.Nozzle)
				}
				if entry.Value < existing.Start {
					return fmt.Errorf("%w: nozzle %d", ErrRegression, entry.Nozzle)
				}
				if existing.End != nil && *existing.End != entry.Value {
					changes = append(changes, fieldChange(entry.Nozzle, "end_reading", *existing.End, entry.Value))
				}
				if err := tx.UpdateEnd(ctx, in.StationID, date, entry.Nozzle, entry.Value, entry.PhotoRef); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return SaveResult{}, err
	}
	s.invalidateSnapshot(ctx, in.StationID, date)

	if len(changes) > 0 && s.auditor != nil {
		if _, err := s.auditor.Record(ctx, audit.Input{
			Action:     audit.ActionUpdate,
			EntityType: audit.EntityMeter,
			EntityID:   entityID(in.StationID, date),
			Actor:      in.Actor,
			Changes:    changes,
			Lock:       decision,
			Reason:     in.Reason,
		}); err != nil {
			return SaveResult{}, err
		}
	}

	readings, err := s.repo.ListByDay(ctx, in.StationID, date)
	if err != nil {
		return SaveResult{}, err
	}
	warnings, err := s.CheckContinuity(ctx, in.StationID, date)
	if err != nil {
		return SaveResult{}, err
	}
	return SaveResult{Readings: readings, Warnings: warnings}, nil
}

// Readings returns all readings for one station-day.
func (s *Service) Readings(ctx context.Context, stationID int64, date time.Time) ([]Reading, error) {
	return s.repo.ListByDay(ctx, stationID, shared.Day(date))
}

// Status derives the day status from current readings. Recomputed on every
// call; never read from storage.
func (s *Service) Status(ctx context.Context, stationID int64, date time.Time) (DayStatus, error) {
	readings, err := s.repo.ListByDay(ctx, stationID, shared.Day(date))
	if err != nil {
		return "", err
	}
	return DeriveStatus(readings), nil
}

// CheckContinuity compares the prior day's end readings with this day's
// start readings per nozzle. Advisory; never blocks a save.
func (s *Service) CheckContinuity(ctx context.Context, stationID int64, date time.Time) ([]ContinuityWarning, error) {
	day := shared.Day(date)
	prior, err := s.repo.ListByDay(ctx, stationID, shared.PrevDay(day))
	if err != nil {
		return nil, err
	}
	if len(prior) == 0 {
		return nil, nil
	}
	current, err := s.repo.ListByDay(ctx, stationID, day)
	if err != nil {
		return nil, err
	}
	priorEnds := make(map[int]float64, len(prior))
	for _, r := range prior {
		if r.End != nil && *r.End > 0 {
			priorEnds[r.Nozzle] = *r.End
		}
	}
	var warnings []ContinuityWarning
	for _, r := range current {
		prev, ok := priorEnds[r.Nozzle]
		if !ok || r.Start == 0 {
			continue
		}
		if prev != r.Start {
			warnings = append(warnings, ContinuityWarning{Nozzle: r.Nozzle, PreviousEnd: prev, CurrentStart: r.Start})
		}
	}
	return warnings, nil
}

// SeedFromPriorDay copies the prior day's end readings into missing start
// readings for the given day. Called only on an explicit pull during shift
// open, never automatically.
func (s *Service) SeedFromPriorDay(ctx context.Context, stationID int64, date time.Time) ([]Reading, error) {
	day := shared.Day(date)
	prior, err := s.repo.ListByDay(ctx, stationID, shared.PrevDay(day))
	if err != nil {
		return nil, err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for _, r := range prior {
			if r.End == nil || *r.End <= 0 {
				continue
			}
			_, found, err := tx.GetForUpdate(ctx, stationID, day, r.Nozzle)
			if err != nil {
				return err
			}
			if found {
				continue
			}
			if err := tx.Insert(ctx, Reading{
				StationID: stationID,
				Date:      day,
				Nozzle:    r.Nozzle,
				Start:     *r.End,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateSnapshot(ctx, stationID, day)
	return s.repo.ListByDay(ctx, stationID, day)
}

func fieldChange(nozzle int, field string, before, after float64) audit.FieldChange {
	return audit.FieldChange{
		Field:  fmt.Sprintf("nozzle_%d_%s", nozzle, field),
		Before: strconv.FormatFloat(before, 'f', 2, 64),
		After:  strconv.FormatFloat(after, 'f', 2, 64),
	}
}

func entityID(stationID int64, date time.Time) string {
	return fmt.Sprintf("%d/%s", stationID, date.Format(shared.DateLayout))
}
