package main

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"actionplan-tracker/internal/models"
	"actionplan-tracker/internal/utils"

	"gopkg.in/yaml.v3"
)

// loadTasks reads a task export. JSON is a subset of YAML, so one decoder covers both.
func loadTasks(path string) ([]models.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	tasks, err := parseTasks(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tasks, nil
}

// taskRecord is one entry of a task export. Dates stay strings: an unquoted
// YAML date would otherwise resolve to a UTC timestamp.
type taskRecord struct {
	ID           string `yaml:"id"`
	ActionPlanID string `yaml:"actionPlanId"`
	Action       string `yaml:"action"`
	Responsible  string `yaml:"responsible"`
	PlannedStart string `yaml:"plannedStart"`
	PlannedEnd   string `yaml:"plannedEnd"`
	NewDeadline  string `yaml:"newDeadline"`
	ActualEnd    string `yaml:"actualEnd"`
	Progress     int    `yaml:"progress"`
	CreatedBy    string `yaml:"createdBy"`
}

func (r taskRecord) task() models.Task {
	return models.Task{
		ID:           r.ID,
		ActionPlanID: r.ActionPlanID,
		Action:       r.Action,
		Responsible:  r.Responsible,
		PlannedStart: r.PlannedStart,
		PlannedEnd:   r.PlannedEnd,
		NewDeadline:  r.NewDeadline,
		ActualEnd:    r.ActualEnd,
		Progress:     r.Progress,
		CreatedBy:    r.CreatedBy,
	}
}

// parseTasks accepts either a bare list of tasks or an object with a "tasks" list
func parseTasks(data []byte) ([]models.Task, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("task file is empty")
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("task file is empty")
	}

	list := doc.Content[0]
	if list.Kind == yaml.MappingNode {
		var found *yaml.Node
		for i := 0; i+1 < len(list.Content); i += 2 {
			if list.Content[i].Value == "tasks" {
				found = list.Content[i+1]
				break
			}
		}
		if found == nil {
			return nil, fmt.Errorf("expected a list of tasks or a \"tasks\" key")
		}
		list = found
	}
	if list.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("expected a list of tasks")
	}

	var records []taskRecord
	if err := list.Decode(&records); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	tasks := make([]models.Task, len(records))
	for i, r := range records {
		tasks[i] = r.task()
	}
	return tasks, nil
}

// parseNow reads the -now flag. Accepts RFC 3339, a local timestamp, or a calendar date in loc.
func parseNow(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Now().In(loc), nil
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", s, loc); err == nil {
		return t, nil
	}
	t, err := utils.ParseDate(s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid -now %q: %w", s, err)
	}
	return t, nil
}
