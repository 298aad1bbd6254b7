package journal

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/fuelbook/fuelbook/internal/audit"
	"github.com/fuelbook/fuelbook/internal/identity"
	"github.com/fuelbook/fuelbook/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	Insert(ctx context.Context, txn Transaction) error
	Get(ctx context.Context, id uuid.UUID) (Transaction, error)
	Update(ctx context.Context, txn Transaction) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListWindow(ctx context.Context, stationID int64, from, to time.Time) ([]Transaction, error)
	ListByBill(ctx context.Context, stationID int64, bookNo, billNo string) ([]Transaction, error)
	LitersThrough(ctx context.Context, stationID int64, through time.Time) (float64, error)
}

// Authorizer decides whether a mutation is permitted under the day lock policy.
type Authorizer interface {
	CanModify(ctx context.Context, stationID int64, date time.Time, actor identity.Actor) (shared.LockDecision, error)
}

// AuditPort journals transaction mutations.
type AuditPort interface {
	Record(ctx context.Context, in audit.Input) (audit.Entry, error)
}

// SnapshotPort drops cached derived reports whose inputs changed.
type SnapshotPort interface {
	Invalidate(ctx context.Context, stationID int64, date time.Time) error
}

// Service owns the transaction journal. Recording a sale does not cascade
// into meters or stock; those writes are coordinated by the caller because
// meter and transaction entry are decoupled in time.
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

// invalidateSnapshot is best effort: a dead cache also fails reads, so a
// snapshot that cannot be dropped cannot be served either.
func (s *Service) invalidateSnapshot(ctx context.Context, stationID int64, occurredAt time.Time) {
	if s.snapshots != nil {
		_ = s.snapshots.Invalidate(ctx, stationID, shared.Day(occurredAt))
	}
}

// Record validates and appends one sale. Duplicate bill numbers are returned
// as advisory warnings alongside the stored transaction.
func (s *Service) Record(ctx context.Context, in RecordInput) (RecordResult, error) {
	if err := in.Validate(); err != nil {
		return RecordResult{}, err
	}
	decision, err := s.authz.CanModify(ctx, in.StationID, shared.Day(in.OccurredAt), in.Actor)
	if err != nil {
		return RecordResult{}, err
	}
	if decision.PostClose && decision.AdminOverride && in.Reason == "" {
		return RecordResult{}, audit.ErrReasonRequired
	}

	dupes, err := s.DuplicateBillCheck(ctx, in.StationID, in.BillBookNo, in.BillNo)
	if err != nil {
		return RecordResult{}, err
	}

	txn := Transaction{
		ID:               uuid.New(),
		StationID:        in.StationID,
		OccurredAt:       in.OccurredAt,
		LicensePlate:     in.LicensePlate,
		OwnerID:          in.OwnerID,
		PaymentType:      in.PaymentType,
		Nozzle:           in.Nozzle,
		Liters:           in.Liters,
		PricePerLiter:    in.PricePerLiter,
		Amount:           ExpectedAmount(in.Liters, in.PricePerLiter),
		BillBookNo:       in.BillBookNo,
		BillNo:           in.BillNo,
		RecordedBy:       in.Actor.ID,
		TransferProofRef: in.TransferProofRef,
	}
	if err := s.repo.Insert(ctx, txn); err != nil {
		return RecordResult{}, err
	}
	s.invalidateSnapshot(ctx, txn.StationID, txn.OccurredAt)

	if decision.PostClose && s.auditor != nil {
		if _, err := s.auditor.Record(ctx, audit.Input{
			Action:     audit.ActionCreate,
			EntityType: audit.EntityTransaction,
			EntityID:   txn.ID.String(),
			Actor:      in.Actor,
			Changes:    snapshotChanges(Transaction{}, txn),
			Lock:       decision,
			Reason:     in.Reason,
		}); err != nil {
			return RecordResult{}, err
		}
	}
	return RecordResult{Transaction: txn, BillDupes: dupes}, nil
}

// Update patches one transaction under the lock policy and journals the
// field-level diff.
func (s *Service) Update(ctx context.Context, in UpdateInput) (Transaction, error) {
	existing, err := s.repo.Get(ctx, in.ID)
	if err != nil {
		return Transaction{}, err
	}
	decision, err := s.authz.CanModify(ctx, existing.StationID, shared.Day(existing.OccurredAt), in.Actor)
	if err != nil {
		return Transaction{}, err
	}
	if decision.PostClose && decision.AdminOverride && in.Reason == "" {
		return Transaction{}, audit.ErrReasonRequired
	}

	updated := existing
	if in.LicensePlate != nil {
		updated.LicensePlate = *in.LicensePlate
	}
	if in.PaymentType != nil {
		if !validPayment(*in.PaymentType) {
			return Transaction{}, ErrUnknownPayment
		}
		updated.PaymentType = *in.PaymentType
	}
	if in.Nozzle != nil {
		updated.Nozzle = *in.Nozzle
	}
	if in.Liters != nil {
		updated.Liters = *in.Liters
	}
	if in.PricePerLiter != nil {
		updated.PricePerLiter = *in.PricePerLiter
	}
	if in.BillBookNo != nil {
		updated.BillBookNo = *in.BillBookNo
	}
	if in.BillNo != nil {
		updated.BillNo = *in.BillNo
	}
	if in.TransferProofRef != nil {
		updated.TransferProofRef = *in.TransferProofRef
	}
	if updated.Liters.Sign() <= 0 {
		return Transaction{}, ErrInvalidLiters
	}
	if updated.PricePerLiter.Sign() <= 0 {
		return Transaction{}, ErrInvalidPrice
	}
	if updated.PaymentType == PaymentTransfer && updated.TransferProofRef == "" && !in.Actor.IsAdmin() {
		return Transaction{}, ErrProofRequired
	}
	updated.Amount = ExpectedAmount(updated.Liters, updated.PricePerLiter)

	changes := snapshotChanges(existing, updated)
	if len(changes) == 0 {
		return existing, nil
	}
	if err := s.repo.Update(ctx, updated); err != nil {
		return Transaction{}, err
	}
	s.invalidateSnapshot(ctx, updated.StationID, updated.OccurredAt)
	if s.auditor != nil {
		if _, err := s.auditor.Record(ctx, audit.Input{
			Action:     audit.ActionUpdate,
			EntityType: audit.EntityTransaction,
			EntityID:   updated.ID.String(),
			Actor:      in.Actor,
			Changes:    changes,
			Lock:       decision,
			Reason:     in.Reason,
		}); err != nil {
			return Transaction{}, err
		}
	}
	return updated, nil
}

// Delete removes one transaction under the lock policy and journals the
// removed values.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, actor identity.Actor, reason string) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	decision, err := s.authz.CanModify(ctx, existing.StationID, shared.Day(existing.OccurredAt), actor)
	if err != nil {
		return err
	}
	if decision.PostClose && decision.AdminOverride && reason == "" {
		return audit.ErrReasonRequired
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateSnapshot(ctx, existing.StationID, existing.OccurredAt)
	if s.auditor != nil {
		if _, err := s.auditor.Record(ctx, audit.Input{
			Action:     audit.ActionDelete,
			EntityType: audit.EntityTransaction,
			EntityID:   existing.ID.String(),
			Actor:      actor,
			Changes:    snapshotChanges(existing, Transaction{}),
			Lock:       decision,
			Reason:     reason,
		}); err != nil {
			return err
		}
	}
	return nil
}

// Get loads one transaction.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Transaction, error) {
	return s.repo.Get(ctx, id)
}

// DuplicateBillCheck returns prior transactions sharing the (book, bill)
// pair. Advisory: an empty pair never matches and a hit never blocks.
func (s *Service) DuplicateBillCheck(ctx context.Context, stationID int64, bookNo, billNo string) ([]Transaction, error) {
	if bookNo == "" || billNo == "" {
		return nil, nil
	}
	return s.repo.ListByBill(ctx, stationID, bookNo, billNo)
}

// ListByDay returns all transactions for one station-day.
func (s *Service) ListByDay(ctx context.Context, stationID int64, date time.Time) ([]Transaction, error) {
	day := shared.Day(date)
	return s.repo.ListWindow(ctx, stationID, day, day.AddDate(0, 0, 1).Add(-time.Nanosecond))
}

// Summarize folds a window of transactions into totals by payment type and
// nozzle.
func (s *Service) Summarize(ctx context.Context, stationID int64, from, to time.Time) (Summary, error) {
	txns, err := s.repo.ListWindow(ctx, stationID, from, to)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(txns), nil
}

// Summarize is the pure aggregation over a transaction slice.
func Summarize(txns []Transaction) Summary {
	summary := Summary{
		ByPayment: map[PaymentType]Line{},
		ByNozzle:  map[int]Line{},
	}
	for _, txn := range txns {
		summary.TotalLiters = summary.TotalLiters.Add(txn.Liters)
		summary.TotalAmount = summary.TotalAmount.Add(txn.Amount)
		p := summary.ByPayment[txn.PaymentType]
		p.Count++
		p.Liters = p.Liters.Add(txn.Liters)
		p.Amount = p.Amount.Add(txn.Amount)
		summary.ByPayment[txn.PaymentType] = p
		n := summary.ByNozzle[txn.Nozzle]
		n.Count++
		n.Liters = n.Liters.Add(txn.Liters)
		n.Amount = n.Amount.Add(txn.Amount)
		summary.ByNozzle[txn.Nozzle] = n
	}
	return summary
}

// LitersThrough reports cumulative sold liters for the stock ledger.
func (s *Service) LitersThrough(ctx context.Context, stationID int64, through time.Time) (float64, error) {
	return s.repo.LitersThrough(ctx, stationID, through)
}

func snapshotChanges(before, after Transaction) []audit.FieldChange {
	var changes []audit.FieldChange
	add := func(field, b, a string) {
		if b != a {
			changes = append(changes, audit.FieldChange{Field: field, Before: b, After: a})
		}
	}
	add("license_plate", before.LicensePlate, after.LicensePlate)
	add("payment_type", string(before.PaymentType), string(after.PaymentType))
	add("nozzle", strconv.Itoa(before.Nozzle), strconv.Itoa(after.Nozzle))
	add("liters", before.Liters.String(), after.Liters.String())
	add("price_per_liter", before.PricePerLiter.String(), after.PricePerLiter.String())
	add("amount", before.Amount.String(), after.Amount.String())
	add("bill_book_no", before.BillBookNo, after.BillBookNo)
	add("bill_no", before.BillNo, after.BillNo)
	add("transfer_proof_ref", before.TransferProofRef, after.TransferProofRef)
	return changes
}
