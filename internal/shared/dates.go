package shared

import "time"

// DateLayout is the wire format for station-day dates.
const DateLayout = "2006-01-02"

// Day truncates a timestamp to its calendar date in UTC. Station-days are
// keyed by calendar date, so every ledger normalises through this before
// touching storage.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// PrevDay returns the calendar date immediately before the given day.
func PrevDay(day time.Time) time.Time {
	return Day(day).AddDate(0, 0, -1)
}

// LockDecision captures the outcome of the day-lock authorization check.
// PostClose is true when the mutation happens after the owning day or shift
// was closed; AdminOverride is true when the mutation is only permitted
// because the actor is an admin, which makes a justification mandatory.
type LockDecision struct {
	PostClose     bool
	AdminOverride bool
}
