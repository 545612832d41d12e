package models

import "time"

// Role is the permission level of a dashboard user
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

// CanManagePlans reports whether the role may create or change action plans and tasks
func (r Role) CanManagePlans() bool {
	return r == RoleAdmin || r == RoleManager
}

// User is the authenticated caller, as carried in the JWT claims
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

// PlanStatus is the lifecycle status of an action plan
type PlanStatus string

const (
	PlanStatusActive    PlanStatus = "active"
	PlanStatusCompleted PlanStatus = "completed"
	PlanStatusCancelled PlanStatus = "cancelled"
)

// FileAttachment describes a file stored in blob storage
type FileAttachment struct {
	ID        string    `bson:"id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	URL       string    `bson:"url" json:"url"`
	Key       string    `bson:"key" json:"key"` // storage key, used for deletion
	Type      string    `bson:"type" json:"type"`
	Size      int64     `bson:"size" json:"size"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	CreatedBy string    `bson:"createdBy" json:"createdBy"`
}

// ActionPlan groups tasks under a common goal
type ActionPlan struct {
	ID          string           `bson:"_id" json:"id"`
	Title       string           `bson:"title" json:"title"`
	Description string           `bson:"description" json:"description"`
	StartDate   string           `bson:"startDate" json:"startDate"` // YYYY-MM-DD
	EndDate     string           `bson:"endDate" json:"endDate"`     // YYYY-MM-DD
	Status      PlanStatus       `bson:"status" json:"status"`
	CreatedBy   string           `bson:"createdBy" json:"createdBy"`
	CreatedAt   time.Time        `bson:"createdAt" json:"createdAt"`
	Attachments []FileAttachment `bson:"attachments" json:"attachments"`
}

// Task is a unit of work inside an action plan.
// Dates are calendar dates (YYYY-MM-DD); RFC 3339 timestamps are tolerated.
type Task struct {
	ID           string           `bson:"_id" json:"id"`
	ActionPlanID string           `bson:"actionPlanId" json:"actionPlanId"`
	Action       string           `bson:"action" json:"action"`
	Responsible  string           `bson:"responsible" json:"responsible"`
	PlannedStart string           `bson:"plannedStart" json:"plannedStart"`
	PlannedEnd   string           `bson:"plannedEnd" json:"plannedEnd"`
	NewDeadline  string           `bson:"newDeadline" json:"newDeadline"`
	ActualEnd    string           `bson:"actualEnd" json:"actualEnd"`
	Progress     int              `bson:"progress" json:"progress"`
	CreatedBy    string           `bson:"createdBy" json:"createdBy"`
	CreatedAt    time.Time        `bson:"createdAt" json:"createdAt"`
	Attachments  []FileAttachment `bson:"attachments" json:"attachments"`
}

// Comment is a note left on a task
type Comment struct {
	ID        string     `bson:"_id" json:"id"`
	TaskID    string     `bson:"taskId" json:"taskId"`
	Content   string     `bson:"content" json:"content"`
	CreatedBy string     `bson:"createdBy" json:"createdBy"`
	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt *time.Time `bson:"updatedAt" json:"updatedAt"`
	UpdatedBy *string    `bson:"updatedBy" json:"updatedBy"`
}

// PlanUpdate holds the fields of an action plan that may change. Nil fields are left untouched.
type PlanUpdate struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	StartDate   *string     `json:"startDate,omitempty"`
	EndDate     *string     `json:"endDate,omitempty"`
	Status      *PlanStatus `json:"status,omitempty"`
}

// Apply copies the non-nil fields onto plan
func (u PlanUpdate) Apply(plan *ActionPlan) {
	if u.Title != nil {
		plan.Title = *u.Title
	}
	if u.Description != nil {
		plan.Description = *u.Description
	}
	if u.StartDate != nil {
		plan.StartDate = *u.StartDate
	}
	if u.EndDate != nil {
		plan.EndDate = *u.EndDate
	}
	if u.Status != nil {
		plan.Status = *u.Status
	}
}

// TaskUpdate holds the fields of a task that may change. Nil fields are left untouched.
type TaskUpdate struct {
	Action       *string `json:"action,omitempty"`
	Responsible  *string `json:"responsible,omitempty"`
	PlannedStart *string `json:"plannedStart,omitempty"`
	PlannedEnd   *string `json:"plannedEnd,omitempty"`
	NewDeadline  *string `json:"newDeadline,omitempty"`
	ActualEnd    *string `json:"actualEnd,omitempty"`
	Progress     *int    `json:"progress,omitempty"`
}

// Apply copies the non-nil fields onto task
func (u TaskUpdate) Apply(task *Task) {
	if u.Action != nil {
		task.Action = *u.Action
	}
	if u.Responsible != nil {
		task.Responsible = *u.Responsible
	}
	if u.PlannedStart != nil {
		task.PlannedStart = *u.PlannedStart
	}
	if u.PlannedEnd != nil {
		task.PlannedEnd = *u.PlannedEnd
	}
	if u.NewDeadline != nil {
		task.NewDeadline = *u.NewDeadline
	}
	if u.ActualEnd != nil {
		task.ActualEnd = *u.ActualEnd
	}
	if u.Progress != nil {
		task.Progress = *u.Progress
	}
}

// Clone returns a copy that shares no attachment slice with p
func (p ActionPlan) Clone() ActionPlan {
	p.Attachments = append([]FileAttachment{}, p.Attachments...)
	return p
}

// Clone returns a copy that shares no attachment slice with t
func (t Task) Clone() Task {
	t.Attachments = append([]FileAttachment{}, t.Attachments...)
	return t
}

// Clone returns a copy that shares no edit metadata with c
func (c Comment) Clone() Comment {
	if c.UpdatedAt != nil {
		at := *c.UpdatedAt
		c.UpdatedAt = &at
	}
	if c.UpdatedBy != nil {
		by := *c.UpdatedBy
		c.UpdatedBy = &by
	}
	return c
}
