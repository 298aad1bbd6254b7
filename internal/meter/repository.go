package meter

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists meter readings in PostgreSQL. Rows are keyed by
// (station_id, reading_date, nozzle); the primary key makes the first save
// per nozzle a conditional insert.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the service.
type TxRepository interface {
	GetForUpdate(ctx context.Context, stationID int64, date time.Time, nozzle int) (Reading, bool, error)
	Insert(ctx context.Context, reading Reading) error
	UpdateStart(ctx context.Context, stationID int64, date time.Time, nozzle int, value float64, photoRef string) error
	UpdateEnd(ctx context.Context, stationID int64, date time.Time, nozzle int, value float64, photoRef string) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction so a
// failed save leaves no partial state.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("meter repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// ListByDay returns all readings for one station-day ordered by nozzle.
func (r *Repository) ListByDay(ctx context.Context, stationID int64, date time.Time) ([]Reading, error) {
	if r == nil {
		return nil, errors.New("meter repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT station_id, reading_date, nozzle, start_reading, end_reading, start_photo_ref, end_photo_ref, updated_at
FROM meter_readings
WHERE station_id=$1 AND reading_date=$2
ORDER BY nozzle ASC`, stationID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	readings := []Reading{}
	for rows.Next() {
		var reading Reading
		if err := rows.Scan(&reading.StationID, &reading.Date, &reading.Nozzle, &reading.Start,
			&reading.End, &reading.StartPhotoRef, &reading.EndPhotoRef, &reading.UpdatedAt); err != nil {
			return nil, err
		}
		readings = append(readings, reading)
	}
	return readings, rows.Err()
}

func (r *txRepository) GetForUpdate(ctx context.Context, stationID int64, date time.Time, nozzle int) (Reading, bool, error) {
	var reading Reading
	err := r.tx.QueryRow(ctx, `SELECT station_id, reading_date, nozzle, start_reading, end_reading, start_photo_ref, end_photo_ref, updated_at
FROM meter_readings
WHERE station_id=$1 AND reading_date=$2 AND nozzle=$3 FOR UPDATE`, stationID, date, nozzle).
		Scan(&reading.StationID, &reading.Date, &reading.Nozzle, &reading.Start,
			&reading.End, &reading.StartPhotoRef, &reading.EndPhotoRef, &reading.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Reading{}, false, nil
		}
		return Reading{}, false, err
	}
	return reading, true, nil
}

func (r *txRepository) Insert(ctx context.Context, reading Reading) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO meter_readings (station_id, reading_date, nozzle, start_reading, end_reading, start_photo_ref, end_photo_ref, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())`,
		reading.StationID, reading.Date, reading.Nozzle, reading.Start, reading.End,
		reading.StartPhotoRef, reading.EndPhotoRef)
	return err
}

func (r *txRepository) UpdateStart(ctx context.Context, stationID int64, date time.Time, nozzle int, value float64, photoRef string) error {
	_, err := r.tx.Exec(ctx, `UPDATE meter_readings SET start_reading=$4, start_photo_ref=COALESCE(NULLIF($5,''), start_photo_ref), updated_at=NOW()
WHERE station_id=$1 AND reading_date=$2 AND nozzle=$3`, stationID, date, nozzle, value, photoRef)
	return err
}

func (r *txRepository) UpdateEnd(ctx context.Context, stationID int64, date time.Time, nozzle int, value float64, photoRef string) error {
	_, err := r.tx.Exec(ctx, `UPDATE meter_readings SET end_reading=$4, end_photo_ref=COALESCE(NULLIF($5,''), end_photo_ref), updated_at=NOW()
WHERE station_id=$1 AND reading_date=$2 AND nozzle=$3`, stationID, date, nozzle, value, photoRef)
	return err
}
