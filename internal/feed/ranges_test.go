package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	for _, r := range Ranges {
		got, err := ParseRange(string(r))
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}

	_, err := ParseRange("forever")
	assert.True(t, IsValidation(err))
}

func TestRangeWindows(t *testing.T) {
	// Wednesday.
	now := time.Date(2025, 3, 12, 15, 4, 5, 0, time.UTC)
	d := func(y int, m time.Month, day int) time.Time { return time.Date(y, m, day, 0, 0, 0, 0, time.UTC) }

	cases := []struct {
		r          Range
		start, end time.Time
	}{
		{RangeToday, d(2025, 3, 12), d(2025, 3, 13)},
		{RangeYesterday, d(2025, 3, 11), d(2025, 3, 12)},
		{RangeThisWeek, d(2025, 3, 10), d(2025, 3, 17)},
		{RangeLastWeek, d(2025, 3, 3), d(2025, 3, 10)},
		{RangeThisMonth, d(2025, 3, 1), d(2025, 4, 1)},
		{RangeLastMonth, d(2025, 2, 1), d(2025, 3, 1)},
		{RangeThisYear, d(2025, 1, 1), d(2026, 1, 1)},
	}
	for _, tc := range cases {
		t.Run(string(tc.r), func(t *testing.T) {
			start, end, err := tc.r.Window(now, time.UTC)
			require.NoError(t, err)
			assert.Equal(t, tc.start, start)
			assert.Equal(t, tc.end, end)
		})
	}
}

func TestRangeTodayExcludesTwentyFiveHoursAgo(t *testing.T) {
	now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)
	start, end, err := RangeToday.Window(now, time.UTC)
	require.NoError(t, err)

	old := now.Add(-25 * time.Hour)
	assert.True(t, old.Before(start))

	recent := now.Add(-time.Hour)
	assert.False(t, recent.Before(start))
	assert.True(t, recent.Before(end))
}

func TestLastMonthFromJanuary(t *testing.T) {
	now := time.Date(2025, 1, 31, 10, 0, 0, 0, time.UTC)
	start, end, err := RangeLastMonth.Window(now, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestRangeWindowUnknown(t *testing.T) {
	_, _, err := Range("decade").Window(time.Now(), time.UTC)
	assert.True(t, IsValidation(err))
}
