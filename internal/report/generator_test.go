package report

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"actionplan-tracker/internal/models"
)

func fixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

// extractRows reads the data rows back out of any rendered artifact
func extractRows(t *testing.T, format Format, data []byte) [][]string {
	t.Helper()
	switch format {
	case FormatExcel:
		return readSpreadsheet(t, data)[1:]
	case FormatWord:
		return readDocument(t, data).rows[1:]
	case FormatPDF:
		var rows [][]string
		for i, page := range readPDF(t, data) {
			texts := page.texts
			if i == 0 {
				texts = texts[2:]
			}
			got, _ := tableRows(t, texts)
			rows = append(rows, got...)
		}
		return rows
	}
	t.Fatalf("no reader for %s", format)
	return nil
}

func TestGenerateWeeklyScenario(t *testing.T) {
	tasks := []models.Task{{
		ID:           "t1",
		Action:       "Draft budget",
		Responsible:  "Ana",
		PlannedStart: "2024-03-04",
		PlannedEnd:   "2024-03-05",
		Progress:     40,
	}}
	gen := NewGenerator(fixedClock(time.Date(2024, 3, 6, 9, 15, 0, 0, time.UTC)), NewFormatter(time.UTC))
	want := [][]string{{"Draft budget", "Ana", "04/03/2024", "05/03/2024", "40%"}}

	for _, format := range Formats {
		t.Run(string(format), func(t *testing.T) {
			artifact, err := gen.Generate(tasks, PeriodWeekly, format)
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			if artifact.Filename != "tasks_weekly_2024-03-06"+format.Extension() {
				t.Errorf("filename = %q", artifact.Filename)
			}
			if artifact.ContentType != format.ContentType() {
				t.Errorf("content type = %q", artifact.ContentType)
			}
			if artifact.RowCount != 1 || artifact.Empty {
				t.Errorf("row count = %d, empty = %v", artifact.RowCount, artifact.Empty)
			}
			if !artifact.WindowStart.Equal(time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)) ||
				!artifact.WindowEnd.Equal(time.Date(2024, 3, 10, 23, 59, 59, 999999999, time.UTC)) {
				t.Errorf("window = [%v, %v]", artifact.WindowStart, artifact.WindowEnd)
			}
			if got := extractRows(t, format, artifact.Data); !reflect.DeepEqual(got, want) {
				t.Errorf("rows = %q, want %q", got, want)
			}
		})
	}
}

func TestGenerateCrossFormatEquivalence(t *testing.T) {
	var tasks []models.Task
	for i, row := range numberedRows(75) {
		day := "2024-03-01"
		if i%3 == 0 {
			day = "2024-04-01" // outside the window
		}
		tasks = append(tasks, models.Task{
			ID:           row.Action,
			Action:       row.Action,
			Responsible:  row.Responsible,
			PlannedStart: day,
			PlannedEnd:   "2024-03-31",
			Progress:     i,
		})
	}
	gen := NewGenerator(fixedClock(time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)), NewFormatter(time.UTC))

	var reference [][]string
	for _, format := range Formats {
		artifact, err := gen.Generate(tasks, PeriodMonthly, format)
		if err != nil {
			t.Fatalf("Generate(%s): %v", format, err)
		}
		got := extractRows(t, format, artifact.Data)
		if len(got) != 50 {
			t.Fatalf("%s: %d rows, want 50", format, len(got))
		}
		if reference == nil {
			reference = got
			continue
		}
		if !reflect.DeepEqual(got, reference) {
			t.Fatalf("%s rows differ from %s rows", format, Formats[0])
		}
	}
}

func TestGenerateEmptyResult(t *testing.T) {
	gen := NewGenerator(fixedClock(time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)), NewFormatter(time.UTC))
	tasks := []models.Task{{ID: "later", PlannedStart: "2025-01-01", PlannedEnd: "2025-01-02"}}

	for _, period := range Periods {
		for _, format := range Formats {
			artifact, err := gen.Generate(tasks, period, format)
			if err != nil {
				t.Fatalf("Generate(%s, %s): %v", period, format, err)
			}
			if !artifact.Empty || artifact.RowCount != 0 || len(artifact.Data) == 0 {
				t.Errorf("%s/%s: empty=%v rows=%d bytes=%d", period, format, artifact.Empty, artifact.RowCount, len(artifact.Data))
			}
			if got := extractRows(t, format, artifact.Data); len(got) != 0 {
				t.Errorf("%s/%s: rows = %q", period, format, got)
			}
		}
	}
}

func TestGenerateFailsOnInvalidDate(t *testing.T) {
	gen := NewGenerator(fixedClock(time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)), NewFormatter(time.UTC))
	tests := []struct {
		name string
		task models.Task
	}{
		{"unparseable start", models.Task{ID: "x", PlannedStart: "next week", PlannedEnd: "2024-03-05"}},
		// the start is fine, the end only fails during projection
		{"unparseable end", models.Task{ID: "x", PlannedStart: "2024-03-05", PlannedEnd: "05.03.2024"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			artifact, err := gen.Generate([]models.Task{tt.task}, PeriodWeekly, FormatPDF)
			var dateErr *InvalidDateError
			if !errors.As(err, &dateErr) {
				t.Fatalf("error = %v, want InvalidDateError", err)
			}
			if artifact != nil {
				t.Fatal("partial artifact returned")
			}
		})
	}
}

func TestGenerateNonLatinText(t *testing.T) {
	gen := NewGenerator(fixedClock(time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)), NewFormatter(time.UTC))
	tasks := []models.Task{{ID: "t1", Action: "Revisar orçamento ✓ 预算", Responsible: "José", PlannedStart: "2024-03-05", PlannedEnd: "2024-03-07", Progress: 20}}
	want := [][]string{{"Revisar orçamento ✓ 预算", "José", "05/03/2024", "07/03/2024", "20%"}}

	for _, format := range []Format{FormatExcel, FormatWord} {
		t.Run(string(format), func(t *testing.T) {
			artifact, err := gen.Generate(tasks, PeriodWeekly, format)
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			if got := extractRows(t, format, artifact.Data); !reflect.DeepEqual(got, want) {
				t.Fatalf("rows = %q, want %q", got, want)
			}
		})
	}

	t.Run(string(FormatPDF), func(t *testing.T) {
		artifact, err := gen.Generate(tasks, PeriodWeekly, FormatPDF)
		var encErr *EncodingError
		if !errors.As(err, &encErr) || encErr.Format != FormatPDF {
			t.Fatalf("error = %v, want EncodingError for pdf", err)
		}
		if artifact != nil {
			t.Fatal("artifact returned for text the PDF fonts cannot draw")
		}
	})
}

func TestGenerateRejectsUnknownInputs(t *testing.T) {
	gen := NewGenerator(nil, Formatter{})
	if _, err := gen.Generate(nil, "yearly", FormatPDF); !errors.Is(err, ErrUnknownPeriod) {
		t.Errorf("period error = %v", err)
	}
	if _, err := gen.Generate(nil, PeriodDaily, "odt"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("format error = %v", err)
	}
}

func TestGenerateUsesReportingTimezone(t *testing.T) {
	// 02:00 UTC on Monday is still Sunday in UTC-3
	loc := time.FixedZone("BRT", -3*60*60)
	gen := NewGenerator(fixedClock(time.Date(2024, 3, 11, 2, 0, 0, 0, time.UTC)), NewFormatter(loc))
	tasks := []models.Task{
		{ID: "sunday", Action: "sunday", PlannedStart: "2024-03-10", PlannedEnd: "2024-03-10"},
		{ID: "monday", Action: "monday", PlannedStart: "2024-03-11", PlannedEnd: "2024-03-11"},
	}
	artifact, err := gen.Generate(tasks, PeriodDaily, FormatExcel)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	rows := extractRows(t, FormatExcel, artifact.Data)
	if len(rows) != 1 || rows[0][0] != "sunday" {
		t.Fatalf("rows = %q, want only the Sunday task", rows)
	}
	if artifact.Filename != "tasks_daily_2024-03-10.xlsx" {
		t.Errorf("filename = %q", artifact.Filename)
	}
}

func TestGenerateConcurrently(t *testing.T) {
	gen := NewGenerator(fixedClock(time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)), NewFormatter(time.UTC))
	tasks := []models.Task{{ID: "1", Action: "Draft budget", Responsible: "Ana", PlannedStart: "2024-03-06", PlannedEnd: "2024-03-07", Progress: 10}}

	var wg sync.WaitGroup
	errs := make(chan error, len(Periods)*len(Formats)*4)
	for i := 0; i < 4; i++ {
		for _, period := range Periods {
			for _, format := range Formats {
				wg.Add(1)
				go func(period Period, format Format) {
					defer wg.Done()
					if _, err := gen.Generate(tasks, period, format); err != nil {
						errs <- err
					}
				}(period, format)
			}
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
