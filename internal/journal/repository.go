package journal

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository persists transactions in PostgreSQL. Numeric columns round-trip
// through text so decimal precision survives the driver.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const txnColumns = `id, station_id, occurred_at, license_plate, owner_id, payment_type, nozzle,
liters::text, price_per_liter::text, amount::text, bill_book_no, bill_no, recorded_by, transfer_proof_ref, created_at, updated_at`

func scanTxn(row pgx.Row) (Transaction, error) {
	var txn Transaction
	var payment string
	var liters, price, amount string
	err := row.Scan(&txn.ID, &txn.StationID, &txn.OccurredAt, &txn.LicensePlate, &txn.OwnerID,
		&payment, &txn.Nozzle, &liters, &price, &amount, &txn.BillBookNo, &txn.BillNo,
		&txn.RecordedBy, &txn.TransferProofRef, &txn.CreatedAt, &txn.UpdatedAt)
	if err != nil {
		return Transaction{}, err
	}
	txn.PaymentType = PaymentType(payment)
	if txn.Liters, err = decimal.NewFromString(liters); err != nil {
		return Transaction{}, err
	}
	if txn.PricePerLiter, err = decimal.NewFromString(price); err != nil {
		return Transaction{}, err
	}
	if txn.Amount, err = decimal.NewFromString(amount); err != nil {
		return Transaction{}, err
	}
	return txn, nil
}

// Insert appends one transaction.
func (r *Repository) Insert(ctx context.Context, txn Transaction) error {
	if r == nil {
		return errors.New("journal repository not initialised")
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO transactions (id, station_id, occurred_at, license_plate, owner_id, payment_type, nozzle, liters, price_per_liter, amount, bill_book_no, bill_no, recorded_by, transfer_proof_ref, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,NOW(),NOW())`,
		txn.ID, txn.StationID, txn.OccurredAt, txn.LicensePlate, txn.OwnerID, string(txn.PaymentType),
		txn.Nozzle, txn.Liters.String(), txn.PricePerLiter.String(), txn.Amount.String(),
		txn.BillBookNo, txn.BillNo, txn.RecordedBy, txn.TransferProofRef)
	return err
}

// Get loads one transaction by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Transaction, error) {
	if r == nil {
		return Transaction{}, errors.New("journal repository not initialised")
	}
	txn, err := scanTxn(r.pool.QueryRow(ctx, `SELECT `+txnColumns+` FROM transactions WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrTxnNotFound
	}
	return txn, err
}

// Update rewrites the mutable fields of one transaction.
func (r *Repository) Update(ctx context.Context, txn Transaction) error {
	if r == nil {
		return errors.New("journal repository not initialised")
	}
	tag, err := r.pool.Exec(ctx, `UPDATE transactions SET license_plate=$2, payment_type=$3, nozzle=$4, liters=$5, price_per_liter=$6, amount=$7, bill_book_no=$8, bill_no=$9, transfer_proof_ref=$10, updated_at=NOW()
WHERE id=$1`,
		txn.ID, txn.LicensePlate, string(txn.PaymentType), txn.Nozzle,
		txn.Liters.String(), txn.PricePerLiter.String(), txn.Amount.String(),
		txn.BillBookNo, txn.BillNo, txn.TransferProofRef)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTxnNotFound
	}
	return nil
}

// Delete removes one transaction.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	if r == nil {
		return errors.New("journal repository not initialised")
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTxnNotFound
	}
	return nil
}

// ListWindow returns transactions for a station within [from, to] ordered by time.
func (r *Repository) ListWindow(ctx context.Context, stationID int64, from, to time.Time) ([]Transaction, error) {
	if r == nil {
		return nil, errors.New("journal repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT `+txnColumns+` FROM transactions
WHERE station_id=$1 AND occurred_at >= $2 AND occurred_at <= $3
ORDER BY occurred_at ASC, id ASC`, stationID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	txns := []Transaction{}
	for rows.Next() {
		txn, err := scanTxn(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}

// ListByBill returns transactions sharing a (book, bill) pair for the station.
func (r *Repository) ListByBill(ctx context.Context, stationID int64, bookNo, billNo string) ([]Transaction, error) {
	if r == nil {
		return nil, errors.New("journal repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT `+txnColumns+` FROM transactions
WHERE station_id=$1 AND bill_book_no=$2 AND bill_no=$3
ORDER BY occurred_at ASC`, stationID, bookNo, billNo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	txns := []Transaction{}
	for rows.Next() {
		txn, err := scanTxn(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}

// LitersThrough sums sold liters up to and including the given date.
func (r *Repository) LitersThrough(ctx context.Context, stationID int64, through time.Time) (float64, error) {
	if r == nil {
		return 0, errors.New("journal repository not initialised")
	}
	var total float64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(liters), 0)::float8 FROM transactions
WHERE station_id=$1 AND occurred_at < $2`, stationID, through.AddDate(0, 0, 1)).Scan(&total)
	return total, err
}
