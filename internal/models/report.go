package models

import "time"

// ReportSubscription asks for a report to be e-mailed on the period's schedule
type ReportSubscription struct {
	ID           string    `bson:"_id" json:"id"`
	Email        string    `bson:"email" json:"email"`
	Period       string    `bson:"period" json:"period"`
	Format       string    `bson:"format" json:"format"`
	ActionPlanID string    `bson:"actionPlanId,omitempty" json:"actionPlanId,omitempty"`
	CreatedBy    string    `bson:"createdBy" json:"createdBy"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}

// PlanStatusCounts counts action plans per status
type PlanStatusCounts struct {
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
}

// PeriodTaskCounts counts tasks whose planned start falls in the current period windows
type PeriodTaskCounts struct {
	Daily   int `json:"daily"`
	Weekly  int `json:"weekly"`
	Monthly int `json:"monthly"`
}

// Dashboard is the management panel summary
type Dashboard struct {
	Plans       PlanStatusCounts `json:"plans"`
	Tasks       PeriodTaskCounts `json:"tasks"`
	TotalTasks  int              `json:"totalTasks"`
	GeneratedAt time.Time        `json:"generatedAt"`
}

// ReportMetric is one report generation, as recorded for observability
type ReportMetric struct {
	Period   string
	Format   string
	Rows     int
	Bytes    int
	Duration time.Duration
	Failed   bool
	At       time.Time
}
