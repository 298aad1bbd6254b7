package shift

import (
	"fmt"
	"time"

	"github.com/fuelbook/fuelbook/internal/identity"
	"github.com/fuelbook/fuelbook/internal/shared"
)

// Status is the stored lifecycle state of a shift. Only OPEN and CLOSED are
// persisted; LOCKED is derived from the close timestamp at read time.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
	// StatusLocked is never written to storage. A shift reports LOCKED once
	// its close timestamp has aged past the lock window.
	StatusLocked Status = "LOCKED"
)

// Shift is one work period on a station-day. Number is the ordinal within
// the day, starting at 1.
type Shift struct {
	ID          int64
	StationID   int64
	Date        time.Time
	Number      int
	Status      Status
	OpenedBy    int64
	OpenedAt    time.Time
	ClosedBy    *int64
	ClosedAt    *time.Time
	TotalLiters float64
}

// DerivedStatus reports the shift status as seen by callers at the given
// instant. Storage keeps CLOSED forever; LOCKED exists only here.
func (s Shift) DerivedStatus(now time.Time, lockWindow time.Duration) Status {
	if s.Status == StatusClosed && s.ClosedAt != nil && now.Sub(*s.ClosedAt) > lockWindow {
		return StatusLocked
	}
	return s.Status
}

// OpenInput opens a new shift. PullPriorReadings copies the previous day's
// end meter readings into missing start readings.
type OpenInput struct {
	StationID         int64
	Date              time.Time
	Number            int
	PullPriorReadings bool
	Actor             identity.Actor
}

// CloseInput closes an open shift. EndReadings, when present, are saved as
// the day's end meter readings in the same operation.
type CloseInput struct {
	ShiftID     int64
	EndReadings []EndEntry
	Actor       identity.Actor
	Reason      string
}

// EndEntry is one nozzle's end reading submitted at close.
type EndEntry struct {
	Nozzle   int     `json:"nozzle"`
	Value    float64 `json:"value"`
	PhotoRef string  `json:"photo_ref,omitempty"`
}

var (
	ErrAlreadyOpen      = fmt.Errorf("%w: shift: shift already open for this day", shared.ErrConflict)
	ErrAlreadyClosed    = fmt.Errorf("%w: shift: shift already closed", shared.ErrConflict)
	ErrNotOpen          = fmt.Errorf("%w: shift: shift is not open", shared.ErrConflict)
	ErrNumberOutOfRange = fmt.Errorf("%w: shift: shift number exceeds station limit", shared.ErrValidation)
	ErrShiftNotFound    = fmt.Errorf("%w: shift: shift not found", shared.ErrNotFound)
	ErrDayLocked        = fmt.Errorf("%w: shift: day is locked for this role", shared.ErrLocked)
)
