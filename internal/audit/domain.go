package audit

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fuelbook/fuelbook/internal/identity"
	"github.com/fuelbook/fuelbook/internal/shared"
)

// Action enumerates audited mutation kinds.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// EntityType enumerates the record families covered by the trail.
type EntityType string

const (
	EntityTransaction EntityType = "TRANSACTION"
	EntityMeter       EntityType = "METER"
	EntityDailyRecord EntityType = "DAILY_RECORD"
)

// FieldChange records a before/after pair for a single changed field.
type FieldChange struct {
	Field  string `json:"field"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// Entry is one append-only audit record. Entries are never edited or deleted.
type Entry struct {
	ID         uuid.UUID
	At         time.Time
	Action     Action
	EntityType EntityType
	EntityID   string
	ActorID    int64
	ActorName  string
	Changes    []FieldChange
	PostClose  bool
	Reason     string
}

// Input describes a mutation to journal. Lock carries the day-lock decision
// evaluated at the moment of the mutation, not retroactively.
type Input struct {
	Action     Action
	EntityType EntityType
	EntityID   string
	Actor      identity.Actor
	Changes    []FieldChange
	Lock       shared.LockDecision
	Reason     string
}

// Validate rejects incomplete inputs and enforces the post-close reason rule.
func (in Input) Validate() error {
	switch in.Action {
	case ActionCreate, ActionUpdate, ActionDelete:
	default:
		return fmt.Errorf("%w: audit: unknown action %q", shared.ErrValidation, in.Action)
	}
	switch in.EntityType {
	case EntityTransaction, EntityMeter, EntityDailyRecord:
	default:
		return fmt.Errorf("%w: audit: unknown entity type %q", shared.ErrValidation, in.EntityType)
	}
	if in.EntityID == "" {
		return fmt.Errorf("%w: audit: entity id required", shared.ErrValidation)
	}
	if in.Actor.ID == 0 {
		return fmt.Errorf("%w: audit: actor required", shared.ErrValidation)
	}
	if in.Lock.PostClose && in.Lock.AdminOverride && in.Reason == "" {
		return ErrReasonRequired
	}
	return nil
}

// TimelineFilters narrows the audit timeline query.
type TimelineFilters struct {
	From       time.Time
	To         time.Time
	ActorID    int64
	EntityType string
	Action     string
	Page       int
	PageSize   int
}

// PagingInfo reports timeline paging state.
type PagingInfo struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasNext  bool `json:"has_next"`
	PrevPage int  `json:"prev_page,omitempty"`
	NextPage int  `json:"next_page,omitempty"`
}

// Result bundles timeline rows with paging information.
type Result struct {
	Rows   []Entry
	Paging PagingInfo
}

// ErrReasonRequired rejects a post-close admin mutation without justification.
var ErrReasonRequired = fmt.Errorf("%w: audit: post-close edit requires a reason", shared.ErrReasonRequired)
