package domain

import (
	"fmt"
	"time"
)

// Date-only values (start dates, birth dates) are interpreted in the gym's
// configured location. All helpers below derive fresh values and never
// mutate their inputs.

// StartOfDay returns midnight of the calendar day containing t in loc
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// DayBounds returns the half-open range [start, next) of t's calendar day in loc.
// Both bounds are derived independently from t's date fields.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	lt := t.In(loc)
	start := time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
	next := time.Date(lt.Year(), lt.Month(), lt.Day()+1, 0, 0, 0, 0, loc)
	return start, next
}

// StartOfMonth returns the first instant of t's month in loc
func StartOfMonth(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), 1, 0, 0, 0, 0, loc)
}

// MonthKey formats a year/month pair as "2006-01"
func MonthKey(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

// ParseDate accepts RFC3339 timestamps or plain YYYY-MM-DD dates.
// Plain dates resolve to midnight in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(loc), nil
	}
	return time.ParseInLocation("2006-01-02", value, loc)
}

// IsBirthday reports whether now falls on the anniversary of birth, ignoring
// the year. Feb 29 birthdays are celebrated on Feb 28 in non-leap years.
func IsBirthday(birth, now time.Time, loc *time.Location) bool {
	if birth.IsZero() {
		return false
	}
	b := birth.In(loc)
	n := now.In(loc)
	if b.Month() == n.Month() && b.Day() == n.Day() {
		return true
	}
	return b.Month() == time.February && b.Day() == 29 &&
		n.Month() == time.February && n.Day() == 28 && !isLeapYear(n.Year())
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
