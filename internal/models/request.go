package models

// CreatePlanRequest is the body of POST /api/plans
type CreatePlanRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	StartDate   string     `json:"startDate" binding:"required"` // YYYY-MM-DD
	EndDate     string     `json:"endDate" binding:"required"`   // YYYY-MM-DD
	Status      PlanStatus `json:"status"`                       // defaults to active
}

// CreateTaskRequest is the body of POST /api/plans/:planId/tasks
type CreateTaskRequest struct {
	Action       string `json:"action" binding:"required"`
	Responsible  string `json:"responsible" binding:"required"`
	PlannedStart string `json:"plannedStart" binding:"required"` // YYYY-MM-DD
	PlannedEnd   string `json:"plannedEnd" binding:"required"`   // YYYY-MM-DD
	NewDeadline  string `json:"newDeadline"`
	ActualEnd    string `json:"actualEnd"`
	Progress     int    `json:"progress"`
}

// CommentRequest is the body for creating or editing a comment
type CommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// DevTokenRequest is the body of POST /api/auth/dev-token
type DevTokenRequest struct {
	UserID string `json:"userId" binding:"required"`
	Email  string `json:"email"`
	Name   string `json:"name" binding:"required"`
	Role   Role   `json:"role" binding:"required,oneof=admin manager user"`
}

// TokenResponse carries a signed JWT
type TokenResponse struct {
	Token string `json:"token"`
}

// EmailReportRequest is the body of POST /api/reports/email
type EmailReportRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Period       string `json:"period" binding:"required,oneof=daily weekly monthly"`
	Format       string `json:"format" binding:"required"`
	ActionPlanID string `json:"actionPlanId"`
}

// SubscriptionRequest is the body of POST /api/reports/subscriptions
type SubscriptionRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Period       string `json:"period" binding:"required,oneof=daily weekly monthly"`
	Format       string `json:"format" binding:"required"`
	ActionPlanID string `json:"actionPlanId"`
}
