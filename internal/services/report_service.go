package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"actionplan-tracker/internal/models"
	"actionplan-tracker/internal/report"
)

// MetricsRecorder receives one point per report generation
type MetricsRecorder interface {
	RecordReport(ctx context.Context, m models.ReportMetric) error
}

// NoopMetrics discards report metrics; used when InfluxDB is not configured
type NoopMetrics struct{}

// RecordReport does nothing
func (NoopMetrics) RecordReport(context.Context, models.ReportMetric) error { return nil }

// ReportRequest selects the tasks and the shape of a report.
// An empty ActionPlanID reports over every task.
type ReportRequest struct {
	ActionPlanID string
	Period       report.Period
	Format       report.Format
}

// ReportService builds task reports and the dashboard summary
type ReportService struct {
	plans     *PlanService
	tasks     *TaskService
	generator *report.Generator
	metrics   MetricsRecorder
}

// NewReportService creates a new report service. A nil recorder disables metrics.
func NewReportService(plans *PlanService, tasks *TaskService, generator *report.Generator, metrics MetricsRecorder) *ReportService {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &ReportService{
		plans:     plans,
		tasks:     tasks,
		generator: generator,
		metrics:   metrics,
	}
}

// Generate renders the tasks of the requested window as a downloadable artifact
func (s *ReportService) Generate(ctx context.Context, req ReportRequest) (*report.Artifact, error) {
	started := time.Now()

	tasks, err := s.sourceTasks(ctx, req.ActionPlanID)
	if err != nil {
		return nil, err
	}

	artifact, err := s.generator.Generate(tasks, req.Period, req.Format)
	metric := models.ReportMetric{
		Period:   string(req.Period),
		Format:   string(req.Format),
		Duration: time.Since(started),
		Failed:   err != nil,
		At:       s.generator.Now(),
	}
	if artifact != nil {
		metric.Rows = artifact.RowCount
		metric.Bytes = len(artifact.Data)
		metric.At = artifact.GeneratedAt
	}
	if recErr := s.metrics.RecordReport(ctx, metric); recErr != nil {
		log.Printf("[REPORT] Failed to record report metric: %v", recErr)
	}

	if err != nil {
		log.Printf("[REPORT] %s %s report failed: %v", req.Period, req.Format, err)
		return nil, fmt.Errorf("failed to generate %s report: %w", req.Period, err)
	}
	log.Printf("[REPORT] Generated %s (%d rows, %d bytes)", artifact.Filename, artifact.RowCount, len(artifact.Data))
	return artifact, nil
}

// Dashboard summarises plan statuses and how many tasks start in the current day, week and month
func (s *ReportService) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	plans, err := s.plans.List(ctx, models.User{}, false)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	now := s.generator.Now()
	dash := &models.Dashboard{
		TotalTasks:  len(tasks),
		GeneratedAt: now,
	}
	for _, p := range plans {
		switch p.Status {
		case models.PlanStatusActive:
			dash.Plans.Active++
		case models.PlanStatusCompleted:
			dash.Plans.Completed++
		case models.PlanStatusCancelled:
			dash.Plans.Cancelled++
		}
	}

	counts := map[report.Period]*int{
		report.PeriodDaily:   &dash.Tasks.Daily,
		report.PeriodWeekly:  &dash.Tasks.Weekly,
		report.PeriodMonthly: &dash.Tasks.Monthly,
	}
	for period, count := range counts {
		start, end, err := report.ResolveWindow(period, now)
		if err != nil {
			return nil, err
		}
		inWindow, err := report.FilterByWindow(tasks, start, end)
		if err != nil {
			return nil, fmt.Errorf("failed to build dashboard: %w", err)
		}
		*count = len(inWindow)
	}
	return dash, nil
}

func (s *ReportService) sourceTasks(ctx context.Context, planID string) ([]models.Task, error) {
	if planID == "" {
		return s.tasks.ListAll(ctx)
	}
	return s.tasks.ListByPlan(ctx, planID)
}
