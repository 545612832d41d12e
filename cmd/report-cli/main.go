// Command report-cli renders a period report from a task export without running the server.
//
//	report-cli -tasks tasks.yaml -period weekly -format excel -tz America/Sao_Paulo -out ./reports
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"actionplan-tracker/internal/models"
	"actionplan-tracker/internal/report"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))
	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFB454"))
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

func main() {
	tasksPath := flag.String("tasks", "", "task export to read (JSON or YAML)")
	periodFlag := flag.String("period", string(report.PeriodWeekly), "report period: daily, weekly or monthly")
	formatFlag := flag.String("format", string(report.FormatPDF), "output format: excel, pdf or word")
	nowFlag := flag.String("now", "", "reference instant (RFC 3339, 2006-01-02T15:04:05 or 2006-01-02); defaults to the wall clock")
	tz := flag.String("tz", "UTC", "reporting timezone")
	outDir := flag.String("out", ".", "directory the report is written to")
	quiet := flag.Bool("quiet", false, "print only the written path")
	preview := flag.Bool("preview", false, "also print the selected rows as a table")
	flag.Parse()

	log.SetFlags(0)
	log.SetPrefix("report-cli: ")

	if *tasksPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	loc, err := time.LoadLocation(*tz)
	if err != nil {
		log.Fatalf("invalid -tz %q: %v", *tz, err)
	}
	period, err := report.ParsePeriod(*periodFlag)
	if err != nil {
		log.Fatalf("%v", err)
	}
	format, err := report.ParseFormat(*formatFlag)
	if err != nil {
		log.Fatalf("%v", err)
	}
	now, err := parseNow(*nowFlag, loc)
	if err != nil {
		log.Fatalf("%v", err)
	}

	tasks, err := loadTasks(*tasksPath)
	if err != nil {
		log.Fatalf("%v", err)
	}

	generator := report.NewGenerator(report.ClockFunc(func() time.Time { return now }), report.NewFormatter(loc))
	artifact, err := generator.Generate(tasks, period, format)
	if err != nil {
		log.Fatalf("generate %s report: %v", period, err)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("create %s: %v", *outDir, err)
	}
	path := filepath.Join(*outDir, artifact.Filename)
	if err := os.WriteFile(path, artifact.Data, 0o644); err != nil {
		log.Fatalf("write %s: %v", path, err)
	}

	if *quiet {
		fmt.Println(path)
		return
	}
	fmt.Println(renderSummary(artifact, generator.Formatter(), len(tasks), path))
	if *preview && !artifact.Empty {
		out, err := renderPreview(tasks, artifact, generator.Formatter())
		if err != nil {
			log.Fatalf("preview: %v", err)
		}
		fmt.Println(out)
	}
}

func renderSummary(a *report.Artifact, f report.Formatter, total int, path string) string {
	lines := []string{
		titleStyle.Render(a.Period.Title()),
		labelStyle.Render("Window:    ") + fmt.Sprintf("%s to %s", f.FormatDate(a.WindowStart), f.FormatDate(a.WindowEnd)),
		labelStyle.Render("Generated: ") + f.FormatTimestamp(a.GeneratedAt),
		labelStyle.Render("Rows:      ") + fmt.Sprintf("%d of %d tasks", a.RowCount, total),
		labelStyle.Render("Written:   ") + path,
	}
	if a.Empty {
		lines = append(lines, warnStyle.Render("No tasks are planned to start in this window."))
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// renderPreview lays out the rows of the artifact's window the way the report prints them
func renderPreview(tasks []models.Task, a *report.Artifact, f report.Formatter) (string, error) {
	selected, err := report.FilterByWindow(tasks, a.WindowStart, a.WindowEnd)
	if err != nil {
		return "", err
	}
	rows, err := report.Project(selected, f)
	if err != nil {
		return "", err
	}

	t := table.New().
		Headers(report.Columns...).
		Border(lipgloss.NormalBorder()).
		BorderStyle(labelStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if row < 0 {
				return s.Bold(true)
			}
			if col == len(report.Columns)-1 {
				s = s.AlignHorizontal(lipgloss.Right)
			}
			return s
		})
	for _, r := range rows {
		t.Row(r.Cells()...)
	}
	return t.Render(), nil
}
