package clock

import "time"

const dayLayout = "2006-01-02"

func Now() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05Z")
}

// DayKey returns the local calendar day of t, used as a map key for
// per-day counters. Quota and analytics roll over when this value changes.
func DayKey(t time.Time) string {
	return t.Format(dayLayout)
}

// NextDay returns local midnight following t.
func NextDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day+1, 0, 0, 0, 0, t.Location())
}

// UntilNextDay returns how long remains until the next local calendar day,
// i.e. until daily quotas reset.
func UntilNextDay(t time.Time) time.Duration {
	return NextDay(t).Sub(t)
}
