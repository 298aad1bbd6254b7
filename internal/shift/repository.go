package shift

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fuelbook/fuelbook/internal/platform/db"
)

// Repository persists shifts in PostgreSQL. A unique key on
// (station_id, shift_date, number) makes opening a shift a conditional
// insert: the second opener loses at the database, not in application code.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const shiftColumns = `id, station_id, shift_date, number, status, opened_by, opened_at, closed_by, closed_at, total_liters`

func scanShift(row pgx.Row) (Shift, error) {
	var sh Shift
	var status string
	err := row.Scan(&sh.ID, &sh.StationID, &sh.Date, &sh.Number, &status,
		&sh.OpenedBy, &sh.OpenedAt, &sh.ClosedBy, &sh.ClosedAt, &sh.TotalLiters)
	if err != nil {
		return Shift{}, err
	}
	sh.Status = Status(status)
	return sh, nil
}

// Insert opens a shift. Returns ErrAlreadyOpen or ErrAlreadyClosed when the
// (station, date, number) slot is taken, depending on the holder's status.
func (r *Repository) Insert(ctx context.Context, sh Shift) (Shift, error) {
	if r == nil {
		return Shift{}, errors.New("shift repository not initialised")
	}
	err := r.pool.QueryRow(ctx, `INSERT INTO shifts (station_id, shift_date, number, status, opened_by, opened_at, total_liters)
VALUES ($1,$2,$3,$4,$5,$6,0)
RETURNING id`,
		sh.StationID, sh.Date, sh.Number, string(sh.Status), sh.OpenedBy, sh.OpenedAt).
		Scan(&sh.ID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			existing, lookupErr := r.GetByNumber(ctx, sh.StationID, sh.Date, sh.Number)
			if lookupErr != nil {
				return Shift{}, lookupErr
			}
			if existing.Status == StatusClosed {
				return Shift{}, ErrAlreadyClosed
			}
			return Shift{}, ErrAlreadyOpen
		}
		return Shift{}, err
	}
	return sh, nil
}

// Get loads one shift by id.
func (r *Repository) Get(ctx context.Context, id int64) (Shift, error) {
	if r == nil {
		return Shift{}, errors.New("shift repository not initialised")
	}
	sh, err := scanShift(r.pool.QueryRow(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Shift{}, ErrShiftNotFound
	}
	return sh, err
}

// GetByNumber loads one shift by its (station, date, number) slot.
func (r *Repository) GetByNumber(ctx context.Context, stationID int64, date time.Time, number int) (Shift, error) {
	if r == nil {
		return Shift{}, errors.New("shift repository not initialised")
	}
	sh, err := scanShift(r.pool.QueryRow(ctx, `SELECT `+shiftColumns+` FROM shifts
WHERE station_id=$1 AND shift_date=$2 AND number=$3`, stationID, date, number))
	if errors.Is(err, pgx.ErrNoRows) {
		return Shift{}, ErrShiftNotFound
	}
	return sh, err
}

// ListByDay returns all shifts for one station-day ordered by number.
func (r *Repository) ListByDay(ctx context.Context, stationID int64, date time.Time) ([]Shift, error) {
	if r == nil {
		return nil, errors.New("shift repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT `+shiftColumns+` FROM shifts
WHERE station_id=$1 AND shift_date=$2
ORDER BY number ASC`, stationID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	shifts := []Shift{}
	for rows.Next() {
		sh, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, sh)
	}
	return shifts, rows.Err()
}

// Close transitions one OPEN shift to CLOSED, stamping the close metadata.
// A zero-row update means the shift was not open.
func (r *Repository) Close(ctx context.Context, id, closedBy int64, closedAt time.Time, totalLiters float64) (Shift, error) {
	if r == nil {
		return Shift{}, errors.New("shift repository not initialised")
	}
	tag, err := r.pool.Exec(ctx, `UPDATE shifts SET status=$2, closed_by=$3, closed_at=$4, total_liters=$5
WHERE id=$1 AND status=$6`,
		id, string(StatusClosed), closedBy, closedAt, totalLiters, string(StatusOpen))
	if err != nil {
		return Shift{}, err
	}
	if tag.RowsAffected() == 0 {
		existing, lookupErr := r.Get(ctx, id)
		if lookupErr != nil {
			return Shift{}, lookupErr
		}
		if existing.Status == StatusClosed {
			return Shift{}, ErrAlreadyClosed
		}
		return Shift{}, ErrNotOpen
	}
	return r.Get(ctx, id)
}
