package utils

import (
	"testing"
	"time"
)

// -----------------------------------------------------------------------------

func TestTradingDateAppliesOffset(t *testing.T) {
	// 19:00 UTC is already the next calendar day at +05:45.
	now := time.Date(2026, 8, 27, 19, 0, 0, 0, time.UTC)
	if got := TradingDate(now, 345); got != "2026-08-28" {
		t.Errorf("expected 2026-08-28, got %s", got)
	}

	// Midday UTC stays on the same day.
	now = time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	if got := TradingDate(now, 345); got != "2026-08-27" {
		t.Errorf("expected 2026-08-27, got %s", got)
	}

	// Zero offset is plain UTC.
	now = time.Date(2026, 8, 27, 23, 59, 0, 0, time.UTC)
	if got := TradingDate(now, 0); got != "2026-08-27" {
		t.Errorf("expected 2026-08-27, got %s", got)
	}
}

// -----------------------------------------------------------------------------

func TestFallbackTradingWeek(t *testing.T) {
	tc := &TradingCalendar{Fallback: true, Timezone: time.FixedZone("NPT", 5*3600+45*60)}

	// 2026-08-28 is a Friday, 2026-08-30 a Sunday.
	friday := time.Date(2026, 8, 28, 12, 0, 0, 0, tc.Timezone)
	sunday := time.Date(2026, 8, 30, 12, 0, 0, 0, tc.Timezone)

	if tc.IsTradingDay(friday) {
		t.Errorf("Friday must not be a trading day")
	}
	if !tc.IsTradingDay(sunday) {
		t.Errorf("Sunday must be a trading day")
	}

	if !tc.IsOpenOnMinute(time.Date(2026, 8, 30, 12, 0, 0, 0, tc.Timezone)) {
		t.Errorf("Sunday noon must be within hours")
	}
	if tc.IsOpenOnMinute(time.Date(2026, 8, 30, 15, 30, 0, 0, tc.Timezone)) {
		t.Errorf("after close must not be within hours")
	}
	if tc.IsOpenOnMinute(friday) {
		t.Errorf("Friday must never be within hours")
	}
}
