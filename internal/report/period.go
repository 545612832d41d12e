package report

import (
	"fmt"
	"strings"
	"time"

	"actionplan-tracker/internal/models"
	"actionplan-tracker/internal/utils"
)

// Period is a reporting granularity
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// Periods lists every supported period
var Periods = []Period{PeriodDaily, PeriodWeekly, PeriodMonthly}

// ParsePeriod converts a user supplied string into a Period
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
}

// Title returns the report heading, e.g. "Weekly Task Report"
func (p Period) Title() string {
	s := string(p)
	if s == "" {
		return "Task Report"
	}
	return strings.ToUpper(s[:1]) + s[1:] + " Task Report"
}

// ResolveWindow returns the inclusive window [start, end] of period p that contains now.
// Boundaries are calendar boundaries in now's location; weeks start on Monday.
func ResolveWindow(p Period, now time.Time) (start time.Time, end time.Time, err error) {
	switch p {
	case PeriodDaily:
		start, end = utils.CalculateDayRange(now)
	case PeriodWeekly:
		start, end = utils.CalculateWeekRange(now)
	case PeriodMonthly:
		start, end = utils.CalculateMonthRange(now)
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrUnknownPeriod, p)
	}
	return start, end, nil
}

// FilterByWindow returns, in input order, the tasks whose planned start lies in [start, end].
// Date-only values are read as calendar dates in start's location.
// The first task with an unreadable planned start fails the call.
func FilterByWindow(tasks []models.Task, start, end time.Time) ([]models.Task, error) {
	loc := start.Location()
	matched := make([]models.Task, 0, len(tasks))
	for _, task := range tasks {
		plannedStart, err := utils.ParseDate(task.PlannedStart, loc)
		if err != nil {
			return nil, &InvalidDateError{TaskID: task.ID, Field: "plannedStart", Value: task.PlannedStart, Err: err}
		}
		if utils.InRange(plannedStart, start, end) {
			matched = append(matched, task)
		}
	}
	return matched, nil
}
