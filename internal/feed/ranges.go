package feed

import "time"

// Range names a relative time window for the like leaderboard.
type Range string

const (
	RangeToday     Range = "today"
	RangeYesterday Range = "yesterday"
	RangeThisWeek  Range = "this_week"
	RangeLastWeek  Range = "last_week"
	RangeThisMonth Range = "this_month"
	RangeLastMonth Range = "last_month"
	RangeThisYear  Range = "this_year"
)

// Ranges lists every supported range in display order.
var Ranges = []Range{
	RangeToday, RangeYesterday, RangeThisWeek, RangeLastWeek,
	RangeThisMonth, RangeLastMonth, RangeThisYear,
}

// ParseRange validates a range name.
func ParseRange(s string) (Range, error) {
	for _, r := range Ranges {
		if string(r) == s {
			return r, nil
		}
	}
	return "", invalid("range", "unknown range %q", s)
}

// Window returns the half-open wall-clock interval [start, end) that r
// denotes relative to now, using calendar boundaries in loc. Weeks start
// on Monday.
func (r Range) Window(now time.Time, loc *time.Location) (start, end time.Time, err error) {
	now = now.In(loc)
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	week := WeekStart(now, loc)
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)

	switch r {
	case RangeToday:
		return day, day.AddDate(0, 0, 1), nil
	case RangeYesterday:
		return day.AddDate(0, 0, -1), day, nil
	case RangeThisWeek:
		return week, week.AddDate(0, 0, 7), nil
	case RangeLastWeek:
		return week.AddDate(0, 0, -7), week, nil
	case RangeThisMonth:
		return month, month.AddDate(0, 1, 0), nil
	case RangeLastMonth:
		return month.AddDate(0, -1, 0), month, nil
	case RangeThisYear:
		year := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, loc)
		return year, year.AddDate(1, 0, 0), nil
	}
	return time.Time{}, time.Time{}, invalid("range", "unknown range %q", string(r))
}
