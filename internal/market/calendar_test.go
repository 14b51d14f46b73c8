package market

import (
	"testing"
	"time"
)

func TestIsTradingDay(t *testing.T) {
	cal := NewCalendar("America/New_York")

	// 2026-01-05 is a Monday, 2026-01-03 a Saturday.
	monday := time.Date(2026, 1, 5, 12, 0, 0, 0, cal.Location())
	saturday := time.Date(2026, 1, 3, 12, 0, 0, 0, cal.Location())

	if !cal.IsTradingDay(monday) {
		t.Error("regular Monday should be a trading day")
	}
	if cal.IsTradingDay(saturday) {
		t.Error("Saturday should not be a trading day")
	}
}

func TestHolidaysAreNotTradingDays(t *testing.T) {
	cal := NewCalendar("America/New_York")

	// Christmas 2026-12-25 falls on a Friday.
	christmas := time.Date(2026, 12, 25, 12, 0, 0, 0, cal.Location())
	if cal.IsTradingDay(christmas) {
		t.Error("Christmas should not be a trading day")
	}
}

func TestTradingDaysUntil(t *testing.T) {
	cal := NewCalendar("America/New_York")

	// Monday through Friday the same week: Tue, Wed, Thu, Fri = 4.
	monday := time.Date(2026, 1, 5, 12, 0, 0, 0, cal.Location())
	friday := time.Date(2026, 1, 9, 12, 0, 0, 0, cal.Location())

	if got := cal.TradingDaysUntil(monday, friday); got != 4 {
		t.Errorf("expected 4 trading days, got %d", got)
	}

	// Expiry in the past counts zero.
	if got := cal.TradingDaysUntil(friday, monday); got != 0 {
		t.Errorf("expected 0 for past expiry, got %d", got)
	}

	// A full week spans a weekend: Mon -> next Mon = 5 business days.
	nextMonday := time.Date(2026, 1, 12, 12, 0, 0, 0, cal.Location())
	if got := cal.TradingDaysUntil(monday, nextMonday); got != 5 {
		t.Errorf("expected 5 trading days across the weekend, got %d", got)
	}
}

func TestUnknownTimezoneFallsBackToUTC(t *testing.T) {
	cal := NewCalendar("Not/AZone")
	if cal.Location() != time.UTC {
		t.Errorf("expected UTC fallback, got %v", cal.Location())
	}
}
