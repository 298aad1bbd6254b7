package gauge

import (
	"fmt"
	"time"

	"github.com/fuelbook/fuelbook/internal/identity"
	"github.com/fuelbook/fuelbook/internal/shared"
)

// Reading holds start/end tank fill percentages for one tank on one
// station-day. Gas stations only.
type Reading struct {
	StationID int64
	Date      time.Time
	Tank      int
	StartPct  *float64
	EndPct    *float64
	UpdatedAt time.Time
}

// Entry is a single tank percentage submitted in a save request.
type Entry struct {
	Tank  int     `json:"tank"`
	Value float64 `json:"value"`
}

// Kind distinguishes start-of-day from end-of-day percentage saves.
type Kind string

const (
	KindStart Kind = "start"
	KindEnd   Kind = "end"
)

// SaveInput bundles one gauge save request.
type SaveInput struct {
	StationID int64
	Date      time.Time
	Kind      Kind
	Entries   []Entry
	Actor     identity.Actor
}

// Estimate converts percentage deltas to liters using the fixed tank
// capacity. Tanks missing either percentage contribute nothing.
func Estimate(readings []Reading, tankCapacity float64) float64 {
	var total float64
	for _, r := range readings {
		if r.StartPct == nil || r.EndPct == nil {
			continue
		}
		total += (*r.StartPct - *r.EndPct) / 100 * tankCapacity
	}
	return total
}

// RemainingEstimate converts the end percentages to a current tank volume
// estimate, used for the gauge-vs-stock comparison.
func RemainingEstimate(readings []Reading, tankCapacity float64) (float64, bool) {
	var total float64
	present := false
	for _, r := range readings {
		if r.EndPct == nil {
			continue
		}
		present = true
		total += *r.EndPct / 100 * tankCapacity
	}
	return total, present
}

var (
	// ErrPercentOutOfRange rejects percentages outside 0..100.
	ErrPercentOutOfRange = fmt.Errorf("%w: gauge: percentage must be between 0 and 100", shared.ErrValidation)
	// ErrUnknownTank rejects tanks not configured for the station.
	ErrUnknownTank = fmt.Errorf("%w: gauge: tank not configured for station", shared.ErrValidation)
	// ErrNotGasStation rejects gauge saves for stations without tanks.
	ErrNotGasStation = fmt.Errorf("%w: gauge: station has no tank gauges", shared.ErrValidation)
	// ErrNoEntries rejects empty save requests.
	ErrNoEntries = fmt.Errorf("%w: gauge: no readings submitted", shared.ErrValidation)
)
