package gauge

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists gauge readings in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListByDay returns all gauge readings for one station-day ordered by tank.
func (r *Repository) ListByDay(ctx context.Context, stationID int64, date time.Time) ([]Reading, error) {
	if r == nil {
		return nil, errors.New("gauge repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT station_id, reading_date, tank, start_pct, end_pct, updated_at
FROM gauge_readings
WHERE station_id=$1 AND reading_date=$2
ORDER BY tank ASC`, stationID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	readings := []Reading{}
	for rows.Next() {
		var reading Reading
		if err := rows.Scan(&reading.StationID, &reading.Date, &reading.Tank,
			&reading.StartPct, &reading.EndPct, &reading.UpdatedAt); err != nil {
			return nil, err
		}
		readings = append(readings, reading)
	}
	return readings, rows.Err()
}

// UpsertStart writes the start percentage for one tank.
func (r *Repository) UpsertStart(ctx context.Context, stationID int64, date time.Time, tank int, value float64) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO gauge_readings (station_id, reading_date, tank, start_pct, updated_at)
VALUES ($1,$2,$3,$4,NOW())
ON CONFLICT (station_id, reading_date, tank) DO UPDATE SET start_pct=EXCLUDED.start_pct, updated_at=NOW()`,
		stationID, date, tank, value)
	return err
}

// UpsertEnd writes the end percentage for one tank.
func (r *Repository) UpsertEnd(ctx context.Context, stationID int64, date time.Time, tank int, value float64) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO gauge_readings (station_id, reading_date, tank, end_pct, updated_at)
VALUES ($1,$2,$3,$4,NOW())
ON CONFLICT (station_id, reading_date, tank) DO UPDATE SET end_pct=EXCLUDED.end_pct, updated_at=NOW()`,
		stationID, date, tank, value)
	return err
}
