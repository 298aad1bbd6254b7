package gauge

import (
	"context"
	"fmt"
	"time"

	"github.com/fuelbook/fuelbook/internal/identity"
	"github.com/fuelbook/fuelbook/internal/shared"
	"github.com/fuelbook/fuelbook/internal/station"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	ListByDay(ctx context.Context, stationID int64, date time.Time) ([]Reading, error)
	UpsertStart(ctx context.Context, stationID int64, date time.Time, tank int, value float64) error
	UpsertEnd(ctx context.Context, stationID int64, date time.Time, tank int, value float64) error
}

// StationPort resolves station configuration.
type StationPort interface {
	Get(ctx context.Context, id int64) (station.Station, error)
}

// Authorizer decides whether a mutation is permitted under the day lock policy.
type Authorizer interface {
	CanModify(ctx context.Context, stationID int64, date time.Time, actor identity.Actor) (shared.LockDecision, error)
}

// SnapshotPort drops cached derived reports whose inputs changed.
type SnapshotPort interface {
	Invalidate(ctx context.Context, stationID int64, date time.Time) error
}

// Service owns the gauge ledger.
type Service struct {
	repo      RepositoryPort
	stations  StationPort
	authz     Authorizer
	snapshots SnapshotPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, stations StationPort, authz Authorizer) *Service {
	return &Service{repo: repo, stations: stations, authz: authz}
}

// WithSnapshots attaches the report snapshot invalidator.
func (s *Service) WithSnapshots(snapshots SnapshotPort) *Service {
	s.snapshots = snapshots
	return s
}

// SaveReadings validates and upserts tank percentages for one station-day.
func (s *Service) SaveReadings(ctx context.Context, in SaveInput) ([]Reading, error) {
	if len(in.Entries) == 0 {
		return nil, ErrNoEntries
	}
	st, err := s.stations.Get(ctx, in.StationID)
	if err != nil {
		return nil, err
	}
	if !st.IsGas() || st.Tanks == 0 {
		return nil, ErrNotGasStation
	}
	for _, entry := range in.Entries {
		if !st.HasTank(entry.Tank) {
			return nil, fmt.Errorf("%w: tank %d", ErrUnknownTank, entry.Tank)
		}
		if entry.Value < 0 || entry.Value > 100 {
			return nil, fmt.Errorf("%w: tank %d", ErrPercentOutOfRange, entry.Tank)
		}
	}
	date := shared.Day(in.Date)
	if _, err := s.authz.CanModify(ctx, in.StationID, date, in.Actor); err != nil {
		return nil, err
	}
	for _, entry := range in.Entries {
		switch in.Kind {
		case KindStart:
			err = s.repo.UpsertStart(ctx, in.StationID, date, entry.Tank, entry.Value)
		case KindEnd:
			err = s.repo.UpsertEnd(ctx, in.StationID, date, entry.Tank, entry.Value)
		default:
			err = fmt.Errorf("%w: gauge: reading kind must be start or end", shared.ErrValidation)
		}
		if err != nil {
			return nil, err
		}
	}
	if s.snapshots != nil {
		_ = s.snapshots.Invalidate(ctx, in.StationID, date)
	}
	return s.repo.ListByDay(ctx, in.StationID, date)
}

// Readings returns all gauge readings for one station-day.
func (s *Service) Readings(ctx context.Context, stationID int64, date time.Time) ([]Reading, error) {
	return s.repo.ListByDay(ctx, stationID, shared.Day(date))
}
