package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDayNormalisesToUTC(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	stamp := time.Date(2026, time.March, 10, 2, 30, 0, 0, jakarta)
	// 02:30 WIB is still 19:30 UTC the previous day.
	require.Equal(t, time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC), Day(stamp))

	utc := time.Date(2026, time.March, 10, 23, 59, 59, 0, time.UTC)
	require.Equal(t, time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC), Day(utc))
}

func TestPrevDay(t *testing.T) {
	day := time.Date(2026, time.March, 1, 15, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC), PrevDay(day))
}
