package stock

import (
	"context"
	"time"

	"github.com/fuelbook/fuelbook/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	Insert(ctx context.Context, supply Supply) (Supply, error)
	ListByDay(ctx context.Context, stationID int64, date time.Time) ([]Supply, error)
	SupplyTotal(ctx context.Context, stationID int64, through time.Time) (float64, error)
}

// JournalPort reports cumulative sold liters from the transaction journal.
type JournalPort interface {
	LitersThrough(ctx context.Context, stationID int64, through time.Time) (float64, error)
}

// SnapshotPort drops cached derived reports whose inputs changed.
type SnapshotPort interface {
	Invalidate(ctx context.Context, stationID int64, date time.Time) error
}

// Service owns the stock ledger.
type Service struct {
	repo       RepositoryPort
	journal    JournalPort
	snapshots  SnapshotPort
	kgToLiters float64
}

// NewService builds Service. kgToLiters is the configured conversion factor
// applied when a delivery is weighed rather than metered.
func NewService(repo RepositoryPort, journal JournalPort, kgToLiters float64) *Service {
	return &Service{repo: repo, journal: journal, kgToLiters: kgToLiters}
}

// WithSnapshots attaches the report snapshot invalidator.
func (s *Service) WithSnapshots(snapshots SnapshotPort) *Service {
	s.snapshots = snapshots
	return s
}

// RecordSupply appends a delivery. Supplies are immutable; a wrong intake is
// corrected by a compensating row, never an edit.
func (s *Service) RecordSupply(ctx context.Context, in SupplyInput) (Supply, error) {
	if err := in.Validate(); err != nil {
		return Supply{}, err
	}
	liters := in.Liters
	if liters == 0 && in.Kilograms != nil {
		liters = *in.Kilograms * s.kgToLiters
	}
	supply, err := s.repo.Insert(ctx, Supply{
		StationID: in.StationID,
		Date:      shared.Day(in.Date),
		Liters:    liters,
		Kilograms: in.Kilograms,
		Supplier:  in.Supplier,
		InvoiceNo: in.InvoiceNo,
		CreatedBy: in.Actor.ID,
	})
	if err != nil {
		return Supply{}, err
	}
	if s.snapshots != nil {
		_ = s.snapshots.Invalidate(ctx, supply.StationID, supply.Date)
	}
	return supply, nil
}

// SuppliesByDay lists deliveries received on one station-day.
func (s *Service) SuppliesByDay(ctx context.Context, stationID int64, date time.Time) ([]Supply, error) {
	return s.repo.ListByDay(ctx, stationID, shared.Day(date))
}

// Level derives the running inventory position up to and including asOf.
// A negative result is reported as an anomaly rather than clamped, so the
// caller can see that sales outran recorded supply.
func (s *Service) Level(ctx context.Context, stationID int64, asOf time.Time) (Level, error) {
	day := shared.Day(asOf)
	supplied, err := s.repo.SupplyTotal(ctx, stationID, day)
	if err != nil {
		return Level{}, err
	}
	sold, err := s.journal.LitersThrough(ctx, stationID, day)
	if err != nil {
		return Level{}, err
	}
	level := Level{
		StationID:    stationID,
		AsOf:         day,
		SupplyLiters: supplied,
		SoldLiters:   sold,
		Liters:       supplied - sold,
	}
	level.Anomaly = level.Liters < 0
	return level, nil
}
