package report

import (
	"fmt"

	"actionplan-tracker/internal/models"
)

// Columns is the fixed column order shared by every renderer
var Columns = []string{"Action", "Responsible", "Planned Start", "Planned End", "Progress"}

// Row is the display-ready projection of a task
type Row struct {
	Action       string
	Responsible  string
	PlannedStart string
	PlannedEnd   string
	Progress     string
}

// Cells returns the row values in column order
func (r Row) Cells() []string {
	return []string{r.Action, r.Responsible, r.PlannedStart, r.PlannedEnd, r.Progress}
}

// Project maps every task to a Row, keeping order and length.
// Any unreadable planned date fails the whole projection.
func Project(tasks []models.Task, f Formatter) ([]Row, error) {
	rows := make([]Row, 0, len(tasks))
	for _, task := range tasks {
		plannedStart, err := f.ParseDate(task.PlannedStart)
		if err != nil {
			return nil, &InvalidDateError{TaskID: task.ID, Field: "plannedStart", Value: task.PlannedStart, Err: err}
		}
		plannedEnd, err := f.ParseDate(task.PlannedEnd)
		if err != nil {
			return nil, &InvalidDateError{TaskID: task.ID, Field: "plannedEnd", Value: task.PlannedEnd, Err: err}
		}
		rows = append(rows, Row{
			Action:       task.Action,
			Responsible:  task.Responsible,
			PlannedStart: f.FormatDate(plannedStart),
			PlannedEnd:   f.FormatDate(plannedEnd),
			Progress:     fmt.Sprintf("%d%%", task.Progress),
		})
	}
	return rows, nil
}
