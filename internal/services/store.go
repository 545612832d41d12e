package services

import (
	"context"
	"errors"

	"actionplan-tracker/internal/database"
	"actionplan-tracker/internal/models"
)

var (
	// ErrNotFound is returned when the requested plan, task, comment or subscription does not exist
	ErrNotFound = database.ErrNotFound
	// ErrForbidden is returned when the caller's role or ownership does not allow the operation
	ErrForbidden = errors.New("operation not permitted")
	// ErrInvalidInput wraps payload validation failures
	ErrInvalidInput = errors.New("invalid input")
)

// PlanStore persists action plans
type PlanStore interface {
	CreatePlan(ctx context.Context, plan *models.ActionPlan) error
	GetPlan(ctx context.Context, id string) (*models.ActionPlan, error)
	ListPlans(ctx context.Context, createdBy string) ([]models.ActionPlan, error)
	UpdatePlan(ctx context.Context, plan *models.ActionPlan) error
	DeletePlan(ctx context.Context, id string) error
}

// TaskStore persists tasks
type TaskStore interface {
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id string) (*models.Task, error)
	ListTasksByPlan(ctx context.Context, planID string) ([]models.Task, error)
	ListTasks(ctx context.Context) ([]models.Task, error)
	UpdateTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, id string) error
	DeleteTasksByPlan(ctx context.Context, planID string) error
}

// CommentStore persists task comments
type CommentStore interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, id string) (*models.Comment, error)
	ListCommentsByTask(ctx context.Context, taskID string) ([]models.Comment, error)
	UpdateComment(ctx context.Context, comment *models.Comment) error
	DeleteComment(ctx context.Context, id string) error
	DeleteCommentsByTask(ctx context.Context, taskID string) error
}

// SubscriptionStore persists report e-mail subscriptions
type SubscriptionStore interface {
	CreateSubscription(ctx context.Context, sub *models.ReportSubscription) error
	ListSubscriptions(ctx context.Context) ([]models.ReportSubscription, error)
	DeleteSubscription(ctx context.Context, id string) error
}

// Store is everything the services persist
type Store interface {
	PlanStore
	TaskStore
	CommentStore
	SubscriptionStore
	Ping(ctx context.Context) error
}

var (
	_ Store = (*database.MongoDBClient)(nil)
	_ Store = (*database.MemoryStore)(nil)
)
