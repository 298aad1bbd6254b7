package station

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/fuelbook/fuelbook/internal/audit"
	"github.com/fuelbook/fuelbook/internal/identity"
	"github.com/fuelbook/fuelbook/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	Insert(ctx context.Context, st Station) (Station, error)
	Get(ctx context.Context, id int64) (Station, error)
	List(ctx context.Context) ([]Station, error)
	GetDay(ctx context.Context, stationID int64, date time.Time) (Day, error)
	UpsertDay(ctx context.Context, d Day) (Day, error)
}

// Authorizer decides whether a mutation is permitted under the day lock policy.
type Authorizer interface {
	CanModify(ctx context.Context, stationID int64, date time.Time, actor identity.Actor) (shared.LockDecision, error)
}

// AuditPort journals day-setting mutations.
type AuditPort interface {
	Record(ctx context.Context, in audit.Input) (audit.Entry, error)
}

// SnapshotPort drops cached derived reports whose inputs changed.
type SnapshotPort interface {
	Invalidate(ctx context.Context, stationID int64, date time.Time) error
}

// Service owns station master data and per-day price settings.
type Service struct {
	repo      RepositoryPort
	authz     Authorizer
	auditor   AuditPort
	snapshots SnapshotPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, authz Authorizer, auditor AuditPort) *Service {
	return &Service{repo: repo, authz: authz, auditor: auditor}
}

// WithSnapshots attaches the report snapshot invalidator.
func (s *Service) WithSnapshots(snapshots SnapshotPort) *Service {
	s.snapshots = snapshots
	return s
}

// CreateInput captures a new station.
type CreateInput struct {
	Name      string
	Kind      Kind
	MaxShifts int
	Nozzles   int
	Tanks     int
}

// Validate enforces the configuration bounds.
func (in CreateInput) Validate() error {
	if in.Name == "" {
		return fmt.Errorf("%w: station: name required", shared.ErrValidation)
	}
	if in.Kind != KindFuel && in.Kind != KindGas {
		return fmt.Errorf("%w: station: kind must be FUEL or GAS", shared.ErrValidation)
	}
	if in.MaxShifts < 1 {
		return fmt.Errorf("%w: station: max shifts must be at least 1", shared.ErrValidation)
	}
	if in.Nozzles < 1 {
		return fmt.Errorf("%w: station: at least one nozzle required", shared.ErrValidation)
	}
	if in.Kind == KindGas && in.Tanks < 1 {
		return fmt.Errorf("%w: station: gas station needs at least one tank", shared.ErrValidation)
	}
	return nil
}

// Create registers a new station.
func (s *Service) Create(ctx context.Context, in CreateInput) (Station, error) {
	if err := in.Validate(); err != nil {
		return Station{}, err
	}
	return s.repo.Insert(ctx, Station{
		Name:      in.Name,
		Kind:      in.Kind,
		MaxShifts: in.MaxShifts,
		Nozzles:   in.Nozzles,
		Tanks:     in.Tanks,
	})
}

// Get loads one station.
func (s *Service) Get(ctx context.Context, id int64) (Station, error) {
	return s.repo.Get(ctx, id)
}

// List returns all stations.
func (s *Service) List(ctx context.Context) ([]Station, error) {
	return s.repo.List(ctx)
}

// GetDay loads the price settings for one station-day.
func (s *Service) GetDay(ctx context.Context, stationID int64, date time.Time) (Day, error) {
	return s.repo.GetDay(ctx, stationID, shared.Day(date))
}

// SaveDay writes price settings under the lock policy. Changes to a day that
// already has closed shifts land in the audit trail with before/after pairs.
func (s *Service) SaveDay(ctx context.Context, in SaveDayInput) (Day, error) {
	if err := in.Validate(); err != nil {
		return Day{}, err
	}
	if _, err := s.repo.Get(ctx, in.StationID); err != nil {
		return Day{}, err
	}
	date := shared.Day(in.Date)
	decision, err := s.authz.CanModify(ctx, in.StationID, date, in.Actor)
	if err != nil {
		return Day{}, err
	}
	if decision.PostClose && decision.AdminOverride && in.Reason == "" {
		return Day{}, audit.ErrReasonRequired
	}

	action := audit.ActionUpdate
	existing, err := s.repo.GetDay(ctx, in.StationID, date)
	if err != nil {
		if !isDayNotFound(err) {
			return Day{}, err
		}
		action = audit.ActionCreate
		existing = Day{}
	}

	saved, err := s.repo.UpsertDay(ctx, Day{
		StationID:      in.StationID,
		Date:           date,
		RetailPrice:    in.RetailPrice,
		WholesalePrice: in.WholesalePrice,
		SpecialPrice:   in.SpecialPrice,
		GasPrice:       in.GasPrice,
	})
	if err != nil {
		return Day{}, err
	}
	if s.snapshots != nil {
		_ = s.snapshots.Invalidate(ctx, saved.StationID, date)
	}

	changes := dayChanges(existing, saved)
	if len(changes) > 0 && s.auditor != nil && (action == audit.ActionUpdate || decision.PostClose) {
		if _, err := s.auditor.Record(ctx, audit.Input{
			Action:     action,
			EntityType: audit.EntityDailyRecord,
			EntityID:   fmt.Sprintf("%d/%s", saved.StationID, date.Format(shared.DateLayout)),
			Actor:      in.Actor,
			Changes:    changes,
			Lock:       decision,
			Reason:     in.Reason,
		}); err != nil {
			return Day{}, err
		}
	}
	return saved, nil
}

func isDayNotFound(err error) bool {
	return errors.Is(err, ErrDayNotFound)
}

func dayChanges(before, after Day) []audit.FieldChange {
	var changes []audit.FieldChange
	add := func(field, b, a string) {
		if b != a {
			changes = append(changes, audit.FieldChange{Field: field, Before: b, After: a})
		}
	}
	add("retail_price", formatPrice(&before.RetailPrice), formatPrice(&after.RetailPrice))
	add("wholesale_price", formatPrice(&before.WholesalePrice), formatPrice(&after.WholesalePrice))
	add("special_price", formatPrice(before.SpecialPrice), formatPrice(after.SpecialPrice))
	add("gas_price", formatPrice(before.GasPrice), formatPrice(after.GasPrice))
	return changes
}

func formatPrice(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
