package audit

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists audit entries in PostgreSQL. The table is append-only;
// no update or delete statement exists in this package.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert appends one entry.
func (r *Repository) Insert(ctx context.Context, entry Entry) error {
	if r == nil {
		return errors.New("audit repository not initialised")
	}
	changes, err := json.Marshal(entry.Changes)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO audit_log (id, occurred_at, action, entity_type, entity_id, actor_id, actor_name, changes, post_close, reason)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		entry.ID, entry.At, string(entry.Action), string(entry.EntityType), entry.EntityID,
		entry.ActorID, entry.ActorName, changes, entry.PostClose, entry.Reason)
	return err
}

// TimelineWindow loads a page of entries ordered newest first.
func (r *Repository) TimelineWindow(ctx context.Context, filters TimelineFilters, limit, offset int) ([]Entry, error) {
	if r == nil {
		return nil, errors.New("audit repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT id, occurred_at, action, entity_type, entity_id, actor_id, actor_name, changes, post_close, reason
FROM audit_log
WHERE occurred_at >= COALESCE(NULLIF($1, '0001-01-01T00:00:00Z'::timestamptz), '-infinity')
  AND occurred_at <= COALESCE(NULLIF($2, '0001-01-01T00:00:00Z'::timestamptz), 'infinity')
  AND ($3 = 0 OR actor_id = $3)
  AND ($4 = '' OR entity_type = $4)
  AND ($5 = '' OR action = $5)
ORDER BY occurred_at DESC, id DESC
LIMIT $6 OFFSET $7`,
		filters.From.UTC(), filters.To.UTC(), filters.ActorID,
		strings.ToUpper(strings.TrimSpace(filters.EntityType)),
		strings.ToUpper(strings.TrimSpace(filters.Action)),
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := []Entry{}
	for rows.Next() {
		var entry Entry
		var action, entityType string
		var changes []byte
		var at time.Time
		if err := rows.Scan(&entry.ID, &at, &action, &entityType, &entry.EntityID,
			&entry.ActorID, &entry.ActorName, &changes, &entry.PostClose, &entry.Reason); err != nil {
			return nil, err
		}
		entry.At = at
		entry.Action = Action(action)
		entry.EntityType = EntityType(entityType)
		if len(changes) > 0 {
			if err := json.Unmarshal(changes, &entry.Changes); err != nil {
				return nil, err
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
