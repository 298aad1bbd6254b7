package meter

import (
	"fmt"
	"time"

	"github.com/fuelbook/fuelbook/internal/identity"
	"github.com/fuelbook/fuelbook/internal/shared"
)

// DayStatus classifies a station-day from its meter readings alone.
// It is derived on every read and never persisted.
type DayStatus string

const (
	// StatusNotStarted means no nozzle has a start reading yet.
	StatusNotStarted DayStatus = "not_started"
	// StatusRecording means readings are open and sales are accumulating.
	StatusRecording DayStatus = "recording"
	// StatusClosed means at least one nozzle has an end reading.
	StatusClosed DayStatus = "closed"
)

// Kind distinguishes start-of-day from end-of-day reading saves.
type Kind string

const (
	KindStart Kind = "start"
	KindEnd   Kind = "end"
)

// Reading is the pump meter record for one nozzle on one station-day.
type Reading struct {
	StationID     int64
	Date          time.Time
	Nozzle        int
	Start         float64
	End           *float64
	StartPhotoRef string
	EndPhotoRef   string
	UpdatedAt     time.Time
}

// Entry is a single nozzle value submitted in a save request.
type Entry struct {
	Nozzle   int     `json:"nozzle"`
	Value    float64 `json:"value"`
	PhotoRef string  `json:"photo_ref,omitempty"`
}

// SaveInput bundles one meter save request.
type SaveInput struct {
	StationID int64
	Date      time.Time
	Kind      Kind
	Entries   []Entry
	Actor     identity.Actor
	Reason    string
}

// ContinuityWarning flags a break between the prior day's end reading and
// the current day's start reading for a nozzle. Advisory only.
type ContinuityWarning struct {
	Nozzle       int     `json:"nozzle"`
	PreviousEnd  float64 `json:"previous_end"`
	CurrentStart float64 `json:"current_start"`
}

func (w ContinuityWarning) String() string {
	return fmt.Sprintf("nozzle %d: previous end %.2f does not match today's start %.2f", w.Nozzle, w.PreviousEnd, w.CurrentStart)
}

// DeriveStatus computes the day status from raw readings. Pure and total:
// no reading with a positive start means not started, even when an end
// reading exists; otherwise any positive end reading closes the day and
// anything else is recording.
func DeriveStatus(readings []Reading) DayStatus {
	started := false
	for _, r := range readings {
		if r.Start > 0 {
			started = true
			break
		}
	}
	if !started {
		return StatusNotStarted
	}
	for _, r := range readings {
		if r.End != nil && *r.End > 0 {
			return StatusClosed
		}
	}
	return StatusRecording
}

// Total sums dispensed volume across nozzles. Negative per-nozzle deltas
// contribute zero so they cannot cancel other nozzles' positive deltas.
func Total(readings []Reading) float64 {
	var total float64
	for _, r := range readings {
		if r.End == nil {
			continue
		}
		if delta := *r.End - r.Start; delta > 0 {
			total += delta
		}
	}
	return total
}

// Validation errors surfaced verbatim to the caller.
var (
	ErrRegression    = fmt.Errorf("%w: meter: end reading below start reading", shared.ErrValidation)
	ErrNegativeValue = fmt.Errorf("%w: meter: reading must not be negative", shared.ErrValidation)
	ErrUnknownNozzle = fmt.Errorf("%w: meter: nozzle not configured for station", shared.ErrValidation)
	ErrStartMissing  = fmt.Errorf("%w: meter: start reading missing for nozzle", shared.ErrValidation)
	ErrNoEntries     = fmt.Errorf("%w: meter: no readings submitted", shared.ErrValidation)
	ErrUnknownKind   = fmt.Errorf("%w: meter: reading kind must be start or end", shared.ErrValidation)
)
