// Package analytics computes derived financial snapshots from a user's
// transaction history. Nothing here is persisted; every snapshot is a pure
// function of the stored transactions and the reference instant.
package analytics

import "time"

// Window is a half-open UTC time range [Start, End). Using half-open
// windows means a transaction dated exactly on a month boundary belongs
// to exactly one month.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether ts falls inside the window.
func (w Window) Contains(ts time.Time) bool {
	ts = ts.UTC()
	return !ts.Before(w.Start) && ts.Before(w.End)
}

// MonthStart returns the first instant of ts's calendar month in UTC.
func MonthStart(ts time.Time) time.Time {
	ts = ts.UTC()
	return time.Date(ts.Year(), ts.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthWindow returns the calendar-month window containing ts.
func MonthWindow(ts time.Time) Window {
	start := MonthStart(ts)
	return Window{Start: start, End: start.AddDate(0, 1, 0)}
}

// TrailingMonths returns n consecutive month windows ending with the month
// containing ts, oldest first.
func TrailingMonths(ts time.Time, n int) []Window {
	windows := make([]Window, 0, n)
	start := MonthStart(ts).AddDate(0, -(n - 1), 0)
	for i := 0; i < n; i++ {
		windows = append(windows, Window{Start: start, End: start.AddDate(0, 1, 0)})
		start = start.AddDate(0, 1, 0)
	}
	return windows
}

// Label renders the window's month as a short English label ("Jan").
func (w Window) Label() string {
	return w.Start.Format("Jan")
}
