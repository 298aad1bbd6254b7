package stock

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists gas supplies in PostgreSQL. Supplies are append-only;
// there is deliberately no update or delete statement here.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert appends one supply row.
func (r *Repository) Insert(ctx context.Context, supply Supply) (Supply, error) {
	if r == nil {
		return Supply{}, errors.New("stock repository not initialised")
	}
	err := r.pool.QueryRow(ctx, `INSERT INTO gas_supplies (station_id, supply_date, liters, kilograms, supplier, invoice_no, created_by, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())
RETURNING id, created_at`,
		supply.StationID, supply.Date, supply.Liters, supply.Kilograms,
		supply.Supplier, supply.InvoiceNo, supply.CreatedBy).
		Scan(&supply.ID, &supply.CreatedAt)
	return supply, err
}

// ListByDay returns supplies received on one station-day.
func (r *Repository) ListByDay(ctx context.Context, stationID int64, date time.Time) ([]Supply, error) {
	if r == nil {
		return nil, errors.New("stock repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT id, station_id, supply_date, liters, kilograms, supplier, invoice_no, created_by, created_at
FROM gas_supplies
WHERE station_id=$1 AND supply_date=$2
ORDER BY id ASC`, stationID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	supplies := []Supply{}
	for rows.Next() {
		var supply Supply
		if err := rows.Scan(&supply.ID, &supply.StationID, &supply.Date, &supply.Liters,
			&supply.Kilograms, &supply.Supplier, &supply.InvoiceNo, &supply.CreatedBy, &supply.CreatedAt); err != nil {
			return nil, err
		}
		supplies = append(supplies, supply)
	}
	return supplies, rows.Err()
}

// SupplyTotal sums supply liters up to and including the given date.
func (r *Repository) SupplyTotal(ctx context.Context, stationID int64, through time.Time) (float64, error) {
	if r == nil {
		return 0, errors.New("stock repository not initialised")
	}
	var total float64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(liters), 0) FROM gas_supplies WHERE station_id=$1 AND supply_date <= $2`,
		stationID, through).Scan(&total)
	return total, err
}
