package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RepositoryPort abstracts the append-only store behind the service.
type RepositoryPort interface {
	Insert(ctx context.Context, entry Entry) error
	TimelineWindow(ctx context.Context, filters TimelineFilters, limit, offset int) ([]Entry, error)
}

// Service coordinates the audit trail.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService constructs a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Record appends one entry for a mutation. The reason rule is enforced here
// as the last line of defence; mutating services check it before writing so
// a rejection leaves no partial state.
func (s *Service) Record(ctx context.Context, in Input) (Entry, error) {
	if err := in.Validate(); err != nil {
		return Entry{}, err
	}
	entry := Entry{
		ID:         uuid.New(),
		At:         s.now().UTC(),
		Action:     in.Action,
		EntityType: in.EntityType,
		EntityID:   in.EntityID,
		ActorID:    in.Actor.ID,
		ActorName:  in.Actor.Name,
		Changes:    in.Changes,
		PostClose:  in.Lock.PostClose,
		Reason:     in.Reason,
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		return Entry{}, fmt.Errorf("audit: insert entry: %w", err)
	}
	return entry, nil
}

// Timeline returns audit entries with paging.
func (s *Service) Timeline(ctx context.Context, filters TimelineFilters) (Result, error) {
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 50 {
		pageSize = 50
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize
	rows, err := s.repo.TimelineWindow(ctx, filters, pageSize+1, offset)
	if err != nil {
		return Result{}, err
	}
	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Rows: rows, Paging: paging}, nil
}
