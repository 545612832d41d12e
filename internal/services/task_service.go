package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"actionplan-tracker/internal/models"
	"actionplan-tracker/internal/utils"
)

// TaskService manages tasks through a write-through cache.
// The store is written first; the cache only changes once the store accepted the write.
// Changes to one task are applied one at a time so concurrent edits never overwrite each other.
type TaskService struct {
	tasks    TaskStore
	plans    PlanStore
	comments *CommentService
	events   *EventHub
	cache    *cache[models.Task]
	locks    *keyedMutex
	loc      *time.Location
	now      func() time.Time
}

// NewTaskService creates a new task service. Task dates are validated as calendar dates in loc.
func NewTaskService(tasks TaskStore, plans PlanStore, comments *CommentService, events *EventHub, loc *time.Location) *TaskService {
	if loc == nil {
		loc = time.UTC
	}
	return &TaskService{
		tasks:    tasks,
		plans:    plans,
		comments: comments,
		events:   events,
		cache:    newCache(models.Task.Clone),
		locks:    newKeyedMutex(),
		loc:      loc,
		now:      time.Now,
	}
}

// Get returns one task, from the cache when possible
func (s *TaskService) Get(ctx context.Context, id string) (*models.Task, error) {
	if t, ok := s.cache.get(id); ok {
		return &t, nil
	}
	t, err := s.tasks.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.put(t.ID, *t)
	return t, nil
}

// ListByPlan returns the tasks of a plan ordered by planned start
func (s *TaskService) ListByPlan(ctx context.Context, planID string) ([]models.Task, error) {
	if _, err := s.plans.GetPlan(ctx, planID); err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListTasksByPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	s.remember(tasks)
	return tasks, nil
}

// ListAll returns every task ordered by planned start
func (s *TaskService) ListAll(ctx context.Context) ([]models.Task, error) {
	tasks, err := s.tasks.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	s.remember(tasks)
	return tasks, nil
}

// Create adds a task to a plan. Requires the admin or manager role.
func (s *TaskService) Create(ctx context.Context, user models.User, planID string, req models.CreateTaskRequest) (*models.Task, error) {
	if !user.Role.CanManagePlans() {
		return nil, fmt.Errorf("%w: role %s may not create tasks", ErrForbidden, user.Role)
	}
	if _, err := s.plans.GetPlan(ctx, planID); err != nil {
		return nil, err
	}

	task := models.Task{
		ID:           utils.GenerateUUID(),
		ActionPlanID: planID,
		Action:       strings.TrimSpace(req.Action),
		Responsible:  strings.TrimSpace(req.Responsible),
		PlannedStart: req.PlannedStart,
		PlannedEnd:   req.PlannedEnd,
		NewDeadline:  req.NewDeadline,
		ActualEnd:    req.ActualEnd,
		Progress:     req.Progress,
		CreatedBy:    user.ID,
		CreatedAt:    s.now(),
		Attachments:  []models.FileAttachment{},
	}
	if err := validateTask(task, s.loc); err != nil {
		return nil, err
	}

	if err := s.tasks.CreateTask(ctx, &task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	s.cache.put(task.ID, task)
	s.publish(EventCreated, task)
	return &task, nil
}

// Update applies a partial update to a task. Requires the admin or manager role.
func (s *TaskService) Update(ctx context.Context, user models.User, id string, upd models.TaskUpdate) (*models.Task, error) {
	if !user.Role.CanManagePlans() {
		return nil, fmt.Errorf("%w: role %s may not update tasks", ErrForbidden, user.Role)
	}
	defer s.locks.lock(id)()
	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	upd.Apply(task)
	task.Action = strings.TrimSpace(task.Action)
	task.Responsible = strings.TrimSpace(task.Responsible)
	if err := validateTask(*task, s.loc); err != nil {
		return nil, err
	}
	return s.save(ctx, task)
}

// Delete removes a task together with its comments. Requires the admin or manager role.
func (s *TaskService) Delete(ctx context.Context, user models.User, id string) error {
	if !user.Role.CanManagePlans() {
		return fmt.Errorf("%w: role %s may not delete tasks", ErrForbidden, user.Role)
	}
	defer s.locks.lock(id)()
	task, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.comments.deleteByTask(ctx, id); err != nil {
		return err
	}
	if err := s.tasks.DeleteTask(ctx, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	s.cache.remove(id)
	s.publish(EventDeleted, *task)
	return nil
}

// AddAttachment records an uploaded file on a task
func (s *TaskService) AddAttachment(ctx context.Context, user models.User, taskID string, att models.FileAttachment) (*models.Task, error) {
	if !user.Role.CanManagePlans() {
		return nil, fmt.Errorf("%w: role %s may not attach files to tasks", ErrForbidden, user.Role)
	}
	defer s.locks.lock(taskID)()
	task, err := s.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	task.Attachments = append(task.Attachments, att)
	return s.save(ctx, task)
}

// RemoveAttachment drops a file from a task and returns it so the caller can delete the stored object
func (s *TaskService) RemoveAttachment(ctx context.Context, user models.User, taskID, attachmentID string) (*models.Task, *models.FileAttachment, error) {
	if !user.Role.CanManagePlans() {
		return nil, nil, fmt.Errorf("%w: role %s may not remove task files", ErrForbidden, user.Role)
	}
	defer s.locks.lock(taskID)()
	task, err := s.Get(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	kept, removed := withoutAttachment(task.Attachments, attachmentID)
	if removed == nil {
		return nil, nil, fmt.Errorf("attachment %s: %w", attachmentID, ErrNotFound)
	}
	task.Attachments = kept
	saved, err := s.save(ctx, task)
	if err != nil {
		return nil, nil, err
	}
	return saved, removed, nil
}

// deleteByPlan removes every task of a plan and their comments
func (s *TaskService) deleteByPlan(ctx context.Context, planID string) ([]models.Task, error) {
	tasks, err := s.tasks.ListTasksByPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks of plan %s: %w", planID, err)
	}
	for _, task := range tasks {
		if err := s.comments.deleteByTask(ctx, task.ID); err != nil {
			return nil, err
		}
	}
	if err := s.tasks.DeleteTasksByPlan(ctx, planID); err != nil {
		return nil, fmt.Errorf("failed to delete tasks of plan %s: %w", planID, err)
	}
	s.cache.removeWhere(func(t models.Task) bool { return t.ActionPlanID == planID })
	for _, task := range tasks {
		s.publish(EventDeleted, task)
	}
	log.Printf("[STORE] Deleted %d tasks of plan %s", len(tasks), planID)
	return tasks, nil
}

func (s *TaskService) save(ctx context.Context, task *models.Task) (*models.Task, error) {
	if err := s.tasks.UpdateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	s.cache.put(task.ID, *task)
	s.publish(EventUpdated, *task)
	return task, nil
}

func (s *TaskService) remember(tasks []models.Task) {
	for _, t := range tasks {
		s.cache.put(t.ID, t)
	}
}

func (s *TaskService) publish(t EventType, task models.Task) {
	s.events.Publish(ChangeEvent{
		Type:         t,
		Entity:       EntityTask,
		ID:           task.ID,
		ActionPlanID: task.ActionPlanID,
		At:           s.now(),
	})
}

// validateTask checks the fields a report depends on
func validateTask(t models.Task, loc *time.Location) error {
	if t.Action == "" {
		return fmt.Errorf("%w: action is required", ErrInvalidInput)
	}
	if t.Responsible == "" {
		return fmt.Errorf("%w: responsible is required", ErrInvalidInput)
	}
	if t.Progress < 0 || t.Progress > 100 {
		return fmt.Errorf("%w: progress must be between 0 and 100, got %d", ErrInvalidInput, t.Progress)
	}

	start, err := utils.ParseDate(t.PlannedStart, loc)
	if err != nil {
		return fmt.Errorf("%w: plannedStart: %v", ErrInvalidInput, err)
	}
	end, err := utils.ParseDate(t.PlannedEnd, loc)
	if err != nil {
		return fmt.Errorf("%w: plannedEnd: %v", ErrInvalidInput, err)
	}
	if end.Before(start) {
		return fmt.Errorf("%w: plannedEnd %s is before plannedStart %s", ErrInvalidInput, t.PlannedEnd, t.PlannedStart)
	}

	for field, value := range map[string]string{"newDeadline": t.NewDeadline, "actualEnd": t.ActualEnd} {
		if value == "" {
			continue
		}
		if _, err := utils.ParseDate(value, loc); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidInput, field, err)
		}
	}
	return nil
}

func withoutAttachment(atts []models.FileAttachment, id string) ([]models.FileAttachment, *models.FileAttachment) {
	kept := make([]models.FileAttachment, 0, len(atts))
	var removed *models.FileAttachment
	for i := range atts {
		if removed == nil && atts[i].ID == id {
			att := atts[i]
			removed = &att
			continue
		}
		kept = append(kept, atts[i])
	}
	return kept, removed
}
