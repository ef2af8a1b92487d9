package utils

import (
	"log"
	"time"

	"github.com/scmhub/calendar"
)

// TradingCalendar answers trading-day questions for the Kathmandu exchange
// using scmhub/calendar, falling back to a plain Sunday-Thursday week when
// no calendar data is available for the MIC.
type TradingCalendar struct {
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
}

// -----------------------------------------------------------------------------

func GetTradingCalendar(timezone string) *TradingCalendar {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		log.Printf("WARNING: Failed to load timezone '%s', using fixed +05:45 offset.", timezone)
		loc = time.FixedZone("NPT", 5*3600+45*60)
	}

	// scmhub/calendar.GetCalendar returns a calendar by MIC (ISO 10383)
	cal := calendar.GetCalendar("xnep")
	if cal == nil {
		log.Printf("WARNING: No calendar data for MIC 'xnep'. Using simple fallback (Sun-Thu 11:00-15:00).")
		return &TradingCalendar{Fallback: true, Timezone: loc}
	}

	return &TradingCalendar{Calendar: cal, Fallback: false, Timezone: cal.Loc}
}

// -----------------------------------------------------------------------------

func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	// Normalize to timezone if available
	if tc.Timezone != nil {
		date = date.In(tc.Timezone)
	}

	if tc.Fallback {
		// The trading week runs Sunday through Thursday
		weekday := date.Weekday()
		return weekday != time.Friday && weekday != time.Saturday
	}
	// Library handles IsHoliday / IsBusinessDay
	return tc.Calendar.IsBusinessDay(date)
}

// -----------------------------------------------------------------------------

// IsOpenOnMinute checks if the market is open at a specific minute.
func (tc *TradingCalendar) IsOpenOnMinute(t time.Time) bool {
	// Normalize to timezone if available
	if tc.Timezone != nil {
		t = t.In(tc.Timezone)
	}

	if tc.Fallback {
		if !tc.IsTradingDay(t) {
			return false
		}

		hour := t.Hour()

		// 11:00 - 15:00 Kathmandu time
		return hour >= 11 && hour < 15
	}

	return tc.Calendar.IsOpen(t)
}

// -----------------------------------------------------------------------------

// TradingDate derives the exchange-local calendar date for a moment in time
// by applying the configured UTC offset in minutes.
func TradingDate(now time.Time, utcOffsetMinutes int) string {
	zone := time.FixedZone("exchange", utcOffsetMinutes*60)
	return now.In(zone).Format("2006-01-02")
}
