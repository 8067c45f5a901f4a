package clanrating

import "time"

// DayStart resolves the most recent day-start boundary at or before now.
// the boundary is a pure function of the instant, the configured hour and
// minute, and the fixed-offset zone, so resolution never depends on where
// the process runs.
func DayStart(now time.Time, boundary HourMinute, loc *time.Location) time.Time {
	local := now.In(loc)
	b := time.Date(
		local.Year(), local.Month(), local.Day(),
		boundary.Hour, boundary.Minute, 0, 0,
		loc,
	)
	if local.Before(b) {
		b = b.AddDate(0, 0, -1)
	}
	return b
}
