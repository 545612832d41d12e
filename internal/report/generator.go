package report

import (
	"time"

	"actionplan-tracker/internal/models"
)

// Clock supplies the current instant
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock
type ClockFunc func() time.Time

// Now implements Clock
func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock reads the wall clock
var SystemClock Clock = ClockFunc(time.Now)

// Artifact is one generated report file
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
	Period      Period
	Format      Format
	WindowStart time.Time
	WindowEnd   time.Time
	GeneratedAt time.Time
	RowCount    int
	// Empty is set when no task fell in the window; Data is still a valid header-only file
	Empty bool
}

// Generator turns a task list into a report file
type Generator struct {
	clock     Clock
	formatter Formatter
}

// NewGenerator creates a Generator. A nil clock means the wall clock.
func NewGenerator(clock Clock, formatter Formatter) *Generator {
	if clock == nil {
		clock = SystemClock
	}
	return &Generator{clock: clock, formatter: formatter}
}

// Formatter returns the formatter used for dates
func (g *Generator) Formatter() Formatter {
	return g.formatter
}

// Now returns the clock's current instant in the reporting timezone
func (g *Generator) Now() time.Time {
	return g.clock.Now().In(g.formatter.Location())
}

// Generate selects the tasks planned to start in the current period window and renders them.
// tasks is not modified.
func (g *Generator) Generate(tasks []models.Task, period Period, format Format) (*Artifact, error) {
	if _, err := ParsePeriod(string(period)); err != nil {
		return nil, err
	}
	renderer, err := NewRenderer(format)
	if err != nil {
		return nil, err
	}

	now := g.Now()
	start, end, err := ResolveWindow(period, now)
	if err != nil {
		return nil, err
	}

	selected, err := FilterByWindow(tasks, start, end)
	if err != nil {
		return nil, err
	}
	rows, err := Project(selected, g.formatter)
	if err != nil {
		return nil, err
	}

	data, err := renderer.Render(rows, Meta{Period: period, GeneratedAt: now, Formatter: g.formatter})
	if err != nil {
		return nil, err
	}

	return &Artifact{
		Filename:    Filename(period, format, now, g.formatter),
		ContentType: format.ContentType(),
		Data:        data,
		Period:      period,
		Format:      format,
		WindowStart: start,
		WindowEnd:   end,
		GeneratedAt: now,
		RowCount:    len(rows),
		Empty:       len(rows) == 0,
	}, nil
}
