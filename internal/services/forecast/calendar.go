package forecast

import "time"

// Tunis-exchange holidays. Weekends are excluded by weekday, so the list
// only carries the calendar holidays of the forecast year.
var holidays = map[string]struct{}{
	"2026-01-01": {},
	"2026-03-20": {},
	"2026-03-21": {},
	"2026-03-22": {},
	"2026-04-09": {},
	"2026-04-27": {},
	"2026-04-28": {},
	"2026-05-01": {},
	"2026-06-16": {},
	"2026-07-25": {},
	"2026-08-13": {},
	"2026-08-25": {},
	"2026-10-15": {},
	"2026-12-17": {},
}

// IsTradingDay reports whether the exchange is open on the given date.
func IsTradingDay(t time.Time) bool {
	if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	_, holiday := holidays[t.Format("2006-01-02")]
	return !holiday
}

// NextTradingDays walks forward day by day from the session after last,
// skipping weekends and holidays, until n valid dates are collected.
func NextTradingDays(last time.Time, n int) []time.Time {
	dates := make([]time.Time, 0, n)
	candidate := last.AddDate(0, 0, 1)
	for len(dates) < n {
		if IsTradingDay(candidate) {
			dates = append(dates, candidate)
		}
		candidate = candidate.AddDate(0, 0, 1)
	}
	return dates
}
