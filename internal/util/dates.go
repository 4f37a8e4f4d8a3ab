package util

import "time"

// DayRange returns every calendar day from start to end inclusive, truncated
// to midnight UTC. It returns nil if end is before start.
func DayRange(start, end time.Time) []time.Time {
	start = MidnightUTC(start)
	end = MidnightUTC(end)
	if end.Before(start) {
		return nil
	}

	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// YearsBetween returns each calendar year touched by the interval
// [start, end], in ascending order. Used to enumerate per-year storage
// partitions covering a date range.
func YearsBetween(start, end time.Time) []int {
	if end.Before(start) {
		return nil
	}

	var years []int
	for y := start.Year(); y <= end.Year(); y++ {
		years = append(years, y)
	}
	return years
}

// MidnightUTC truncates t to the start of its UTC day.
func MidnightUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
