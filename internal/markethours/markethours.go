// Package markethours models the FX trading week. Spot FX trades
// around the clock from the Sydney open on Sunday evening UTC to the
// New York close on Friday evening UTC; entries are gated on this
// calendar so the engine never opens into a closed market.
package markethours

import "time"

// Weekly open/close boundaries in UTC.
const (
	OpenHourUTC  = 22 // Sunday 22:00 UTC
	CloseHourUTC = 22 // Friday 22:00 UTC
)

// Days the interbank market effectively closes even mid-week.
var holidays = []struct {
	month time.Month
	day   int
}{
	{time.January, 1},   // New Year's Day
	{time.December, 25}, // Christmas Day
}

// IsHoliday reports whether the UTC date is an FX market holiday.
func IsHoliday(t time.Time) bool {
	u := t.UTC()
	for _, h := range holidays {
		if u.Month() == h.month && u.Day() == h.day {
			return true
		}
	}
	return false
}

// IsMarketOpen reports whether spot FX is trading at t: from Sunday
// 22:00 UTC until Friday 22:00 UTC, excluding holidays.
func IsMarketOpen(t time.Time) bool {
	u := t.UTC()
	if IsHoliday(u) {
		return false
	}
	switch u.Weekday() {
	case time.Saturday:
		return false
	case time.Sunday:
		return u.Hour() >= OpenHourUTC
	case time.Friday:
		return u.Hour() < CloseHourUTC
	default:
		return true
	}
}

// NextOpen returns the next instant the market is open at or after t,
// on hour granularity. During the trading week it returns t itself.
func NextOpen(t time.Time) time.Time {
	u := t.UTC()
	if IsMarketOpen(u) {
		return u
	}
	d := u.Truncate(time.Hour)
	for !IsMarketOpen(d) {
		d = d.Add(time.Hour)
	}
	return d
}

// TimeToClose returns the duration until the Friday close, or zero when
// the market is closed.
func TimeToClose(t time.Time) time.Duration {
	u := t.UTC()
	if !IsMarketOpen(u) {
		return 0
	}
	// Walk forward to the coming Friday 22:00 UTC.
	d := time.Date(u.Year(), u.Month(), u.Day(), CloseHourUTC, 0, 0, 0, time.UTC)
	for d.Weekday() != time.Friday || d.Before(u) {
		d = d.AddDate(0, 0, 1)
	}
	return d.Sub(u)
}
