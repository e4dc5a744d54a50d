package leave

import "time"

// DateOnly truncates t to midnight UTC of its calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ComputeDays returns the inclusive day count of [start, end], never less than 1.
func ComputeDays(start, end time.Time) int {
	days := int(DateOnly(end).Sub(DateOnly(start)).Hours()/24) + 1
	if days < 1 {
		return 1
	}
	return days
}

// Overlaps reports whether [s1, e1] and [s2, e2] share at least one day.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return !DateOnly(s1).After(DateOnly(e2)) && !DateOnly(e1).Before(DateOnly(s2))
}

// YearStart returns January 1st of the year now falls in.
func YearStart(now time.Time) time.Time {
	return time.Date(now.UTC().Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
}
