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

// PlanService manages action plans through a write-through cache.
// Changes to one plan are applied one at a time.
type PlanService struct {
	plans  PlanStore
	tasks  *TaskService
	events *EventHub
	cache  *cache[models.ActionPlan]
	locks  *keyedMutex
	loc    *time.Location
	now    func() time.Time
}

// NewPlanService creates a new action plan service
func NewPlanService(plans PlanStore, tasks *TaskService, events *EventHub, loc *time.Location) *PlanService {
	if loc == nil {
		loc = time.UTC
	}
	return &PlanService{
		plans:  plans,
		tasks:  tasks,
		events: events,
		cache:  newCache(models.ActionPlan.Clone),
		locks:  newKeyedMutex(),
		loc:    loc,
		now:    time.Now,
	}
}

// List returns action plans newest first. With mine set only the caller's own plans are returned.
func (s *PlanService) List(ctx context.Context, user models.User, mine bool) ([]models.ActionPlan, error) {
	createdBy := ""
	if mine {
		createdBy = user.ID
	}
	plans, err := s.plans.ListPlans(ctx, createdBy)
	if err != nil {
		return nil, fmt.Errorf("failed to list action plans: %w", err)
	}
	for _, p := range plans {
		s.cache.put(p.ID, p)
	}
	return plans, nil
}

// Get returns one action plan, from the cache when possible
func (s *PlanService) Get(ctx context.Context, id string) (*models.ActionPlan, error) {
	if p, ok := s.cache.get(id); ok {
		return &p, nil
	}
	p, err := s.plans.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.put(p.ID, *p)
	return p, nil
}

// Create adds an action plan. Requires the admin or manager role.
func (s *PlanService) Create(ctx context.Context, user models.User, req models.CreatePlanRequest) (*models.ActionPlan, error) {
	if !user.Role.CanManagePlans() {
		return nil, fmt.Errorf("%w: role %s may not create action plans", ErrForbidden, user.Role)
	}

	status := req.Status
	if status == "" {
		status = models.PlanStatusActive
	}
	plan := models.ActionPlan{
		ID:          utils.GenerateUUID(),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Status:      status,
		CreatedBy:   user.ID,
		CreatedAt:   s.now(),
		Attachments: []models.FileAttachment{},
	}
	if err := validatePlan(plan, s.loc); err != nil {
		return nil, err
	}

	if err := s.plans.CreatePlan(ctx, &plan); err != nil {
		return nil, fmt.Errorf("failed to create action plan: %w", err)
	}
	s.cache.put(plan.ID, plan)
	s.publish(EventCreated, plan)
	return &plan, nil
}

// Update applies a partial update to an action plan. Requires the admin or manager role.
func (s *PlanService) Update(ctx context.Context, user models.User, id string, upd models.PlanUpdate) (*models.ActionPlan, error) {
	if !user.Role.CanManagePlans() {
		return nil, fmt.Errorf("%w: role %s may not update action plans", ErrForbidden, user.Role)
	}
	defer s.locks.lock(id)()
	plan, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	upd.Apply(plan)
	plan.Title = strings.TrimSpace(plan.Title)
	if err := validatePlan(*plan, s.loc); err != nil {
		return nil, err
	}
	return s.save(ctx, plan)
}

// Delete removes an action plan with its tasks and their comments. Requires the admin or manager role.
// The attachments of the plan and its tasks are returned so the caller can delete the stored objects.
func (s *PlanService) Delete(ctx context.Context, user models.User, id string) ([]models.FileAttachment, error) {
	if !user.Role.CanManagePlans() {
		return nil, fmt.Errorf("%w: role %s may not delete action plans", ErrForbidden, user.Role)
	}
	defer s.locks.lock(id)()
	plan, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	tasks, err := s.tasks.deleteByPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.plans.DeletePlan(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to delete action plan: %w", err)
	}
	s.cache.remove(id)
	s.publish(EventDeleted, *plan)
	log.Printf("[STORE] Deleted action plan %s", id)

	orphans := append([]models.FileAttachment{}, plan.Attachments...)
	for _, t := range tasks {
		orphans = append(orphans, t.Attachments...)
	}
	return orphans, nil
}

// AddAttachment records an uploaded file on an action plan
func (s *PlanService) AddAttachment(ctx context.Context, user models.User, planID string, att models.FileAttachment) (*models.ActionPlan, error) {
	if !user.Role.CanManagePlans() {
		return nil, fmt.Errorf("%w: role %s may not attach files to action plans", ErrForbidden, user.Role)
	}
	defer s.locks.lock(planID)()
	plan, err := s.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	plan.Attachments = append(plan.Attachments, att)
	return s.save(ctx, plan)
}

// RemoveAttachment drops a file from an action plan and returns it
func (s *PlanService) RemoveAttachment(ctx context.Context, user models.User, planID, attachmentID string) (*models.ActionPlan, *models.FileAttachment, error) {
	if !user.Role.CanManagePlans() {
		return nil, nil, fmt.Errorf("%w: role %s may not remove action plan files", ErrForbidden, user.Role)
	}
	defer s.locks.lock(planID)()
	plan, err := s.Get(ctx, planID)
	if err != nil {
		return nil, nil, err
	}
	kept, removed := withoutAttachment(plan.Attachments, attachmentID)
	if removed == nil {
		return nil, nil, fmt.Errorf("attachment %s: %w", attachmentID, ErrNotFound)
	}
	plan.Attachments = kept
	saved, err := s.save(ctx, plan)
	if err != nil {
		return nil, nil, err
	}
	return saved, removed, nil
}

func (s *PlanService) save(ctx context.Context, plan *models.ActionPlan) (*models.ActionPlan, error) {
	if err := s.plans.UpdatePlan(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to update action plan: %w", err)
	}
	s.cache.put(plan.ID, *plan)
	s.publish(EventUpdated, *plan)
	return plan, nil
}

func (s *PlanService) publish(t EventType, plan models.ActionPlan) {
	s.events.Publish(ChangeEvent{
		Type:         t,
		Entity:       EntityPlan,
		ID:           plan.ID,
		ActionPlanID: plan.ID,
		At:           s.now(),
	})
}

func validatePlan(p models.ActionPlan, loc *time.Location) error {
	if p.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	switch p.Status {
	case models.PlanStatusActive, models.PlanStatusCompleted, models.PlanStatusCancelled:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, p.Status)
	}
	start, err := utils.ParseDate(p.StartDate, loc)
	if err != nil {
		return fmt.Errorf("%w: startDate: %v", ErrInvalidInput, err)
	}
	end, err := utils.ParseDate(p.EndDate, loc)
	if err != nil {
		return fmt.Errorf("%w: endDate: %v", ErrInvalidInput, err)
	}
	if end.Before(start) {
		return fmt.Errorf("%w: endDate %s is before startDate %s", ErrInvalidInput, p.EndDate, p.StartDate)
	}
	return nil
}
