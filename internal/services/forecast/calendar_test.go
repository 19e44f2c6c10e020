package forecast

import (
	"testing"
	"time"
)

func d(y int, m time.Month, dd int) time.Time {
	return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
}

func TestIsTradingDayWeekend(t *testing.T) {
	if IsTradingDay(d(2026, time.August, 22)) { // Saturday
		t.Fatalf("Saturday must not be a trading day")
	}
	if IsTradingDay(d(2026, time.August, 23)) { // Sunday
		t.Fatalf("Sunday must not be a trading day")
	}
}

func TestIsTradingDayHoliday(t *testing.T) {
	if IsTradingDay(d(2026, time.January, 1)) {
		t.Fatalf("New Year must not be a trading day")
	}
	if !IsTradingDay(d(2026, time.January, 2)) {
		t.Fatalf("Jan 2 2026 is a regular Friday")
	}
}

func TestNextTradingDaysSkipsWeekendAndHoliday(t *testing.T) {
	// Friday before a Tuesday holiday (Aug 25).
	got := NextTradingDays(d(2026, time.August, 21), 5)
	want := []time.Time{
		d(2026, time.August, 24),
		d(2026, time.August, 26),
		d(2026, time.August, 27),
		d(2026, time.August, 28),
		d(2026, time.August, 31),
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d dates, got %d", len(want), len(got))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("date %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestNextTradingDaysStrictlyIncreasing(t *testing.T) {
	got := NextTradingDays(d(2026, time.March, 18), 5)
	for i := 1; i < len(got); i++ {
		if !got[i].After(got[i-1]) {
			t.Fatalf("dates must be strictly increasing: %v then %v", got[i-1], got[i])
		}
	}
	for _, dt := range got {
		if !IsTradingDay(dt) {
			t.Fatalf("%v is not a trading day", dt)
		}
	}
}
