package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayWindowCoversLocalCalendarDay(t *testing.T) {
	// The query parameter parses as UTC midnight; the window must still span
	// the named day in the server's zone.
	parsed, err := time.Parse("2006-01-02", "2026-06-15")
	require.NoError(t, err)

	east := time.FixedZone("UTC+13", 13*60*60)
	start, end := dayWindow(parsed, east)

	assert.Equal(t, time.Date(2026, 6, 15, 0, 0, 0, 0, east).UTC(), start.UTC())
	assert.Equal(t, time.Date(2026, 6, 16, 0, 0, 0, 0, east).UTC(), end.UTC())
	assert.Equal(t, 24*time.Hour, end.Sub(start))

	// An order placed at 00:30 local on the 15th falls inside the window; the
	// same instant is still the 14th in UTC.
	placed := time.Date(2026, 6, 15, 0, 30, 0, 0, east)
	assert.False(t, placed.Before(start))
	assert.True(t, placed.Before(end))
	assert.Equal(t, "2026-06-14", placed.UTC().Format("2006-01-02"))
}

func TestDayWindowUTC(t *testing.T) {
	parsed, err := time.Parse("2006-01-02", "2026-08-30")
	require.NoError(t, err)

	start, end := dayWindow(parsed, time.UTC)
	assert.Equal(t, parsed, start)
	assert.Equal(t, parsed.AddDate(0, 0, 1), end)
}
