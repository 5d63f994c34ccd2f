package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	got, err := Parse("09:30")
	require.NoError(t, err)
	assert.Equal(t, "09:30", got)

	// Normalized to zero-padded form so string order is time order.
	got, err = Parse("9:30")
	require.NoError(t, err)
	assert.Equal(t, "09:30", got)

	for _, bad := range []string{"24:00", "09:60", "9am", "0930", ""} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, ErrBadClock, bad)
	}
}

func TestCombine(t *testing.T) {
	date := time.Date(2026, 8, 26, 17, 45, 12, 0, time.UTC) // time part ignored
	got, err := Combine(date, "09:30", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 26, 9, 30, 0, 0, time.UTC), got)

	_, err = Combine(date, "25:00", time.UTC)
	assert.ErrorIs(t, err, ErrBadClock)
}

func TestAddMinutes(t *testing.T) {
	got, err := AddMinutes("09:30", 30)
	require.NoError(t, err)
	assert.Equal(t, "10:00", got)

	got, err = AddMinutes("23:45", 30)
	require.NoError(t, err)
	assert.Equal(t, "00:15", got, "wraps past midnight")
}

func TestParseDate(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// The calendar day must survive as written: a clinic west of UTC
	// reading "2026-09-02" means local midnight on the 2nd, not the UTC
	// instant that falls on the evening of the 1st.
	got, err := ParseDate("2026-09-02", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 9, 2, 0, 0, 0, 0, loc), got)
	assert.Equal(t, got, DateOnly(got, loc), "already a clinic-local date")

	for _, bad := range []string{"2026-13-01", "02-09-2026", "2026-09-02T00:00:00Z", ""} {
		_, err := ParseDate(bad, loc)
		assert.ErrorIs(t, err, ErrBadDate, bad)
	}
}

func TestDateOnly(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	// 2026-08-26 20:30 UTC is already 2026-08-27 02:00 in Kolkata.
	instant := time.Date(2026, 8, 26, 20, 30, 0, 0, time.UTC)
	got := DateOnly(instant, loc)
	assert.Equal(t, time.Date(2026, 8, 27, 0, 0, 0, 0, loc), got)
}
