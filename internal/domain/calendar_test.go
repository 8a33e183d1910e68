package domain

import (
	"testing"
	"time"
)

func TestDayBounds(t *testing.T) {
	loc := time.FixedZone("ART", -3*60*60)
	// 01:30 UTC on the 10th is still the 9th in ART
	now := time.Date(2024, 3, 10, 1, 30, 0, 0, time.UTC)

	start, next := DayBounds(now, loc)

	wantStart := time.Date(2024, 3, 9, 0, 0, 0, 0, loc)
	wantNext := time.Date(2024, 3, 10, 0, 0, 0, 0, loc)
	if !start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", start, wantStart)
	}
	if !next.Equal(wantNext) {
		t.Errorf("next = %v, want %v", next, wantNext)
	}
	if !now.Equal(time.Date(2024, 3, 10, 1, 30, 0, 0, time.UTC)) {
		t.Errorf("input was mutated: %v", now)
	}
}

func TestStartOfMonth(t *testing.T) {
	loc := time.UTC
	got := StartOfMonth(time.Date(2025, 1, 31, 23, 59, 0, 0, loc), loc)
	want := time.Date(2025, 1, 1, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("StartOfMonth() = %v, want %v", got, want)
	}
}

func TestIsBirthday(t *testing.T) {
	loc := time.UTC

	tests := []struct {
		name  string
		birth time.Time
		now   time.Time
		want  bool
	}{
		{"same day different year", time.Date(1990, 6, 12, 0, 0, 0, 0, loc), time.Date(2024, 6, 12, 18, 0, 0, 0, loc), true},
		{"different day", time.Date(1990, 6, 12, 0, 0, 0, 0, loc), time.Date(2024, 6, 13, 0, 0, 0, 0, loc), false},
		{"same day different month", time.Date(1990, 5, 12, 0, 0, 0, 0, loc), time.Date(2024, 6, 12, 0, 0, 0, 0, loc), false},
		{"leap day on feb 28 of common year", time.Date(2000, 2, 29, 0, 0, 0, 0, loc), time.Date(2023, 2, 28, 0, 0, 0, 0, loc), true},
		{"leap day on feb 28 of leap year", time.Date(2000, 2, 29, 0, 0, 0, 0, loc), time.Date(2024, 2, 28, 0, 0, 0, 0, loc), false},
		{"unknown birth date", time.Time{}, time.Date(2024, 1, 1, 0, 0, 0, 0, loc), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBirthday(tt.birth, tt.now, loc); got != tt.want {
				t.Errorf("IsBirthday() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMonthKey(t *testing.T) {
	if got := MonthKey(2024, time.March); got != "2024-03" {
		t.Errorf("MonthKey() = %q, want %q", got, "2024-03")
	}
}
