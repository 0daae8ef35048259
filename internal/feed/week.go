package feed

import (
	"sort"
	"time"

	"refto/internal/models"
)

// WeekStart returns Monday 00:00 of the ISO week containing t, in loc.
func WeekStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	// time.Weekday counts from Sunday; shift so Monday is 0.
	back := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-back, 0, 0, 0, 0, loc)
}

// WeekBounds returns the inclusive bounds of the week that lies offset
// weeks before the week containing now: Monday 00:00 through the last
// nanosecond of Sunday.
func WeekBounds(now time.Time, loc *time.Location, offset int) (start, end time.Time) {
	current := WeekStart(now, loc)
	start = current.AddDate(0, 0, -7*offset)
	next := start.AddDate(0, 0, 7)
	return start, next.Add(-time.Nanosecond)
}

// weekSpan returns the half-open interval covering limit weeks starting at
// offset and going back in time: [start of oldest week, start of the week
// after the newest one).
func weekSpan(now time.Time, loc *time.Location, offset, limit int) (from, to time.Time) {
	newest, _ := WeekBounds(now, loc, offset)
	oldest, _ := WeekBounds(now, loc, offset+limit-1)
	return oldest, newest.AddDate(0, 0, 7)
}

// Bucketize distributes items into limit consecutive week groups starting
// at offset. Every week in range is returned, including those with no
// items. Items dated outside the covered weeks are ignored. Within a week,
// items are ordered by like count, then version date, then version id, all
// descending.
func Bucketize(now time.Time, loc *time.Location, offset, limit int, items []models.FeedItem) []models.WeekGroup {
	groups := make([]models.WeekGroup, limit)
	for i := range groups {
		start, end := WeekBounds(now, loc, offset+i)
		groups[i] = models.WeekGroup{
			WeekOffset: offset + i,
			StartDate:  start,
			EndDate:    end,
			IsCurrent:  offset+i == 0,
			Items:      []models.FeedItem{},
		}
	}

	for _, item := range items {
		d := item.Version.VersionDate
		for i := range groups {
			if !d.Before(groups[i].StartDate) && !d.After(groups[i].EndDate) {
				groups[i].Items = append(groups[i].Items, item)
				break
			}
		}
	}

	for i := range groups {
		sortTopOfWeek(groups[i].Items)
	}
	return groups
}

func sortTopOfWeek(items []models.FeedItem) {
	sort.SliceStable(items, func(a, b int) bool {
		x, y := items[a], items[b]
		if x.LikeCount != y.LikeCount {
			return x.LikeCount > y.LikeCount
		}
		if !x.Version.VersionDate.Equal(y.Version.VersionDate) {
			return x.Version.VersionDate.After(y.Version.VersionDate)
		}
		return x.Version.ID.String() > y.Version.ID.String()
	})
}
