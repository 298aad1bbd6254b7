package station

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists stations and station-day settings in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert creates one station.
func (r *Repository) Insert(ctx context.Context, st Station) (Station, error) {
	if r == nil {
		return Station{}, errors.New("station repository not initialised")
	}
	err := r.pool.QueryRow(ctx, `INSERT INTO stations (name, kind, max_shifts, nozzles, tanks, created_at)
VALUES ($1,$2,$3,$4,$5,NOW())
RETURNING id, created_at`,
		st.Name, string(st.Kind), st.MaxShifts, st.Nozzles, st.Tanks).
		Scan(&st.ID, &st.CreatedAt)
	return st, err
}

// Get loads one station by id.
func (r *Repository) Get(ctx context.Context, id int64) (Station, error) {
	if r == nil {
		return Station{}, errors.New("station repository not initialised")
	}
	var st Station
	var kind string
	err := r.pool.QueryRow(ctx, `SELECT id, name, kind, max_shifts, nozzles, tanks, created_at
FROM stations WHERE id=$1`, id).
		Scan(&st.ID, &st.Name, &kind, &st.MaxShifts, &st.Nozzles, &st.Tanks, &st.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Station{}, ErrStationNotFound
	}
	st.Kind = Kind(kind)
	return st, err
}

// List returns all stations ordered by id.
func (r *Repository) List(ctx context.Context) ([]Station, error) {
	if r == nil {
		return nil, errors.New("station repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT id, name, kind, max_shifts, nozzles, tanks, created_at
FROM stations ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	stations := []Station{}
	for rows.Next() {
		var st Station
		var kind string
		if err := rows.Scan(&st.ID, &st.Name, &kind, &st.MaxShifts, &st.Nozzles, &st.Tanks, &st.CreatedAt); err != nil {
			return nil, err
		}
		st.Kind = Kind(kind)
		stations = append(stations, st)
	}
	return stations, rows.Err()
}

// GetDay loads the price settings for one station-day.
func (r *Repository) GetDay(ctx context.Context, stationID int64, date time.Time) (Day, error) {
	if r == nil {
		return Day{}, errors.New("station repository not initialised")
	}
	var d Day
	err := r.pool.QueryRow(ctx, `SELECT station_id, day_date, retail_price, wholesale_price, special_price, gas_price, created_at, updated_at
FROM station_days WHERE station_id=$1 AND day_date=$2`, stationID, date).
		Scan(&d.StationID, &d.Date, &d.RetailPrice, &d.WholesalePrice, &d.SpecialPrice, &d.GasPrice, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Day{}, ErrDayNotFound
	}
	return d, err
}

// UpsertDay writes the price settings for one station-day.
func (r *Repository) UpsertDay(ctx context.Context, d Day) (Day, error) {
	if r == nil {
		return Day{}, errors.New("station repository not initialised")
	}
	err := r.pool.QueryRow(ctx, `INSERT INTO station_days (station_id, day_date, retail_price, wholesale_price, special_price, gas_price, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,NOW(),NOW())
ON CONFLICT (station_id, day_date)
DO UPDATE SET retail_price=EXCLUDED.retail_price, wholesale_price=EXCLUDED.wholesale_price,
special_price=EXCLUDED.special_price, gas_price=EXCLUDED.gas_price, updated_at=NOW()
RETURNING created_at, updated_at`,
		d.StationID, d.Date, d.RetailPrice, d.WholesalePrice, d.SpecialPrice, d.GasPrice).
		Scan(&d.CreatedAt, &d.UpdatedAt)
	return d, err
}
