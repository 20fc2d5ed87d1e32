package projector

import (
	"fmt"
	"time"
)

// WeekNumber computes the leaderboard week for a given instant: days
// elapsed since January 1 (UTC), shifted by January 1's day of week,
// divided by seven and rounded up. Numbering resets every calendar year,
// so the final days of December and the first days of January can fall
// into weeks that do not line up with ISO-8601. That quirk is part of the
// deployed contract's numbering and is kept as is.
func WeekNumber(now time.Time) int {
	now = now.UTC()
	startOfYear := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	days := int(now.Sub(startOfYear).Hours() / 24)
	return (days + int(startOfYear.Weekday()) + 1 + 6) / 7
}

// WeekID renders a week document id such as "2026-W05". The year comes
// from the supplied instant, not from the week number.
func WeekID(weekNumber int, now time.Time) string {
	return fmt.Sprintf("%d-W%02d", now.UTC().Year(), weekNumber)
}
