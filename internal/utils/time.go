package utils

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the storage layout of calendar dates (YYYY-MM-DD)
	DateLayout = "2006-01-02"
	// DisplayDateLayout renders dates as dd/MM/yyyy
	DisplayDateLayout = "02/01/2006"
	// DisplayDateTimeLayout renders timestamps as dd/MM/yyyy HH:mm
	DisplayDateTimeLayout = "02/01/2006 15:04"
)

// FormatDate formats a time.Time as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a date string in YYYY-MM-DD format as a calendar date in loc.
// RFC 3339 timestamps are accepted too and converted into loc.
func ParseDate(dateStr string, loc *time.Location) (time.Time, error) {
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if t, err := time.ParseInLocation(DateLayout, dateStr, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is neither YYYY-MM-DD nor RFC 3339", dateStr)
	}
	return t.In(loc), nil
}

// StartOfDay returns midnight of t's calendar day in t's location
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last nanosecond of t's calendar day
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, t.Location())
}

// CalculateDayRange returns the first and last instant of the day containing t
func CalculateDayRange(t time.Time) (start time.Time, end time.Time) {
	return StartOfDay(t), EndOfDay(t)
}

// CalculateWeekRange calculates the Monday (start) and Sunday (end) of the week containing the given date
// If the given date is already a Monday, it returns that Monday and the following Sunday
func CalculateWeekRange(date time.Time) (monday time.Time, sunday time.Time) {
	// Convert Weekday (Sunday = 0) to days since Monday (Sunday = 6)
	weekday := int(date.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	daysFromMonday := weekday - 1

	monday = StartOfDay(date.AddDate(0, 0, -daysFromMonday))
	sunday = EndOfDay(monday.AddDate(0, 0, 6))

	return monday, sunday
}

// CalculateMonthRange returns the first and last instant of the month containing t
func CalculateMonthRange(t time.Time) (start time.Time, end time.Time) {
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	// day 0 of the next month is the last day of this one
	end = EndOfDay(time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()))
	return start, end
}

// InRange reports whether t lies in [start, end], both ends inclusive
func InRange(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}
