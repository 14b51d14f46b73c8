// Package market wraps the NYSE trading calendar used for scheduling scans
// and reasoning about expiries.
package market

import (
	"time"

	"github.com/scmhub/calendar"
)

// Calendar answers trading-day questions against the NYSE schedule.
type Calendar struct {
	nyse     *calendar.Calendar
	location *time.Location
}

func NewCalendar(timezone string) *Calendar {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	return &Calendar{
		nyse:     calendar.XNYS(),
		location: loc,
	}
}

// IsTradingDay reports whether t falls on a NYSE business day.
func (c *Calendar) IsTradingDay(t time.Time) bool {
	return c.nyse.IsBusinessDay(t.In(c.location))
}

// TradingDaysUntil counts the business days from now (exclusive) through
// expiry (inclusive). Returns 0 when expiry is not after now.
func (c *Calendar) TradingDaysUntil(now, expiry time.Time) int {
	now = now.In(c.location)
	expiry = expiry.In(c.location)
	if !expiry.After(now) {
		return 0
	}

	days := 0
	for d := now.AddDate(0, 0, 1); !d.After(expiry); d = d.AddDate(0, 0, 1) {
		if c.nyse.IsBusinessDay(d) {
			days++
		}
	}
	return days
}

// Location returns the calendar's timezone.
func (c *Calendar) Location() *time.Location {
	return c.location
}
