package engine

import "time"

// addMonths advances a date by n calendar months, clamping to the last day
// of the target month so Jan 31 + 1 month lands on Feb 28/29 rather than
// rolling into March.
func addMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()

	firstOfTarget := time.Date(year, month+time.Month(n), 1, hour, minute, sec, t.Nanosecond(), t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, hour, minute, sec, t.Nanosecond(), t.Location())
}

// monthsBetween returns the number of whole calendar months from one date to
// a later date, respecting end-of-month clamping. Zero when to precedes from.
func monthsBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if months > 0 && addMonths(from, months).After(to) {
		months--
	}
	return months
}

// occurrencesElapsed returns how many interval multiples a due template
// advances in one materialization: the largest k with
// next + k*interval <= now, never less than one. The next occurrence date
// therefore strictly advances by whole interval multiples only.
func occurrencesElapsed(next, now time.Time, intervalMonths int) int {
	k := monthsBetween(next, now) / intervalMonths
	if k < 1 {
		k = 1
	}
	return k
}
