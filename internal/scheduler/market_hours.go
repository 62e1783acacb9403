package scheduler

import "time"

// US market holidays, YYYY-MM-DD. Covers the scheduling horizon; extend
// yearly. Half days count as trading days for scan purposes.
var usMarketHolidays = map[string]bool{
	"2026-01-01": true, // New Year's Day
	"2026-01-19": true, // Martin Luther King Jr. Day
	"2026-02-16": true, // Washington's Birthday
	"2026-04-03": true, // Good Friday
	"2026-05-25": true, // Memorial Day
	"2026-06-19": true, // Juneteenth
	"2026-07-03": true, // Independence Day (observed)
	"2026-09-07": true, // Labor Day
	"2026-11-26": true, // Thanksgiving
	"2026-12-25": true, // Christmas
	"2027-01-01": true,
	"2027-01-18": true,
	"2027-02-15": true,
	"2027-03-26": true,
	"2027-05-31": true,
	"2027-06-18": true,
	"2027-07-05": true,
	"2027-09-06": true,
	"2027-11-25": true,
	"2027-12-24": true,
}

// MarketHours answers trading-calendar questions for the US session. Jobs
// use it to skip weekends and holidays instead of burning API quota.
type MarketHours struct {
	now func() time.Time
}

// NewMarketHours creates a market hours helper.
func NewMarketHours() *MarketHours {
	return &MarketHours{now: time.Now}
}

// IsTradingDay reports whether the given date is a US trading day.
func (m *MarketHours) IsTradingDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !usMarketHolidays[t.Format("2006-01-02")]
}

// IsTradingDayToday reports whether today is a US trading day.
func (m *MarketHours) IsTradingDayToday() bool {
	return m.IsTradingDay(m.now())
}

// NextTradingDay returns the first trading day strictly after t.
func (m *MarketHours) NextTradingDay(t time.Time) time.Time {
	next := t.AddDate(0, 0, 1)
	for !m.IsTradingDay(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
