package database

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"actionplan-tracker/internal/models"
)

// MemoryStore keeps every document in process memory.
// It stands in for MongoDB in development and tests and orders results the same way.
type MemoryStore struct {
	mutex         sync.RWMutex
	seq           int64
	plans         map[string]memoryDoc[models.ActionPlan]
	tasks         map[string]memoryDoc[models.Task]
	comments      map[string]memoryDoc[models.Comment]
	subscriptions map[string]memoryDoc[models.ReportSubscription]
}

// memoryDoc remembers insertion order so ties sort stably
type memoryDoc[T any] struct {
	seq int64
	doc T
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		plans:         make(map[string]memoryDoc[models.ActionPlan]),
		tasks:         make(map[string]memoryDoc[models.Task]),
		comments:      make(map[string]memoryDoc[models.Comment]),
		subscriptions: make(map[string]memoryDoc[models.ReportSubscription]),
	}
}

// Ping always succeeds
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Action plans

// CreatePlan inserts a new action plan
func (s *MemoryStore) CreatePlan(ctx context.Context, plan *models.ActionPlan) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return insertDoc(s, s.plans, plan.ID, clonePlan(*plan), "action plan")
}

// GetPlan returns the action plan with the given id
func (s *MemoryStore) GetPlan(ctx context.Context, id string) (*models.ActionPlan, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	d, ok := s.plans[id]
	if !ok {
		return nil, fmt.Errorf("action plan %s: %w", id, ErrNotFound)
	}
	plan := clonePlan(d.doc)
	return &plan, nil
}

// ListPlans returns action plans newest first. A non-empty createdBy keeps only that user's plans.
func (s *MemoryStore) ListPlans(ctx context.Context, createdBy string) ([]models.ActionPlan, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	docs := sortedDocs(s.plans, func(a, b models.ActionPlan) bool {
		return a.CreatedAt.After(b.CreatedAt)
	})
	plans := make([]models.ActionPlan, 0, len(docs))
	for _, plan := range docs {
		if createdBy == "" || plan.CreatedBy == createdBy {
			plans = append(plans, clonePlan(plan))
		}
	}
	return plans, nil
}

// UpdatePlan replaces the stored action plan
func (s *MemoryStore) UpdatePlan(ctx context.Context, plan *models.ActionPlan) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return replaceDoc(s.plans, plan.ID, clonePlan(*plan), "action plan")
}

// DeletePlan removes an action plan
func (s *MemoryStore) DeletePlan(ctx context.Context, id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return deleteDoc(s.plans, id, "action plan")
}

// Tasks

// CreateTask inserts a new task
func (s *MemoryStore) CreateTask(ctx context.Context, task *models.Task) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return insertDoc(s, s.tasks, task.ID, cloneTask(*task), "task")
}

// GetTask returns the task with the given id
func (s *MemoryStore) GetTask(ctx context.Context, id string) (*models.Task, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	d, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	task := cloneTask(d.doc)
	return &task, nil
}

// ListTasksByPlan returns the tasks of one action plan by planned start
func (s *MemoryStore) ListTasksByPlan(ctx context.Context, planID string) ([]models.Task, error) {
	return s.listTasks(func(t models.Task) bool { return t.ActionPlanID == planID }), nil
}

// ListTasks returns every task by planned start
func (s *MemoryStore) ListTasks(ctx context.Context) ([]models.Task, error) {
	return s.listTasks(func(models.Task) bool { return true }), nil
}

func (s *MemoryStore) listTasks(keep func(models.Task) bool) []models.Task {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	docs := sortedDocs(s.tasks, func(a, b models.Task) bool {
		if a.PlannedStart != b.PlannedStart {
			return a.PlannedStart < b.PlannedStart
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	tasks := make([]models.Task, 0, len(docs))
	for _, task := range docs {
		if keep(task) {
			tasks = append(tasks, cloneTask(task))
		}
	}
	return tasks
}

// UpdateTask replaces the stored task
func (s *MemoryStore) UpdateTask(ctx context.Context, task *models.Task) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return replaceDoc(s.tasks, task.ID, cloneTask(*task), "task")
}

// DeleteTask removes a task
func (s *MemoryStore) DeleteTask(ctx context.Context, id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return deleteDoc(s.tasks, id, "task")
}

// DeleteTasksByPlan removes every task of an action plan
func (s *MemoryStore) DeleteTasksByPlan(ctx context.Context, planID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for id, d := range s.tasks {
		if d.doc.ActionPlanID == planID {
			delete(s.tasks, id)
		}
	}
	return nil
}

// Comments

// CreateComment inserts a new comment
func (s *MemoryStore) CreateComment(ctx context.Context, comment *models.Comment) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return insertDoc(s, s.comments, comment.ID, comment.Clone(), "comment")
}

// GetComment returns the comment with the given id
func (s *MemoryStore) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	d, ok := s.comments[id]
	if !ok {
		return nil, fmt.Errorf("comment %s: %w", id, ErrNotFound)
	}
	comment := d.doc.Clone()
	return &comment, nil
}

// ListCommentsByTask returns a task's comments newest first
func (s *MemoryStore) ListCommentsByTask(ctx context.Context, taskID string) ([]models.Comment, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	docs := sortedDocs(s.comments, func(a, b models.Comment) bool {
		return a.CreatedAt.After(b.CreatedAt)
	})
	comments := make([]models.Comment, 0, len(docs))
	for _, comment := range docs {
		if comment.TaskID == taskID {
			comments = append(comments, comment.Clone())
		}
	}
	return comments, nil
}

// UpdateComment replaces the stored comment
func (s *MemoryStore) UpdateComment(ctx context.Context, comment *models.Comment) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return replaceDoc(s.comments, comment.ID, comment.Clone(), "comment")
}

// DeleteComment removes a comment
func (s *MemoryStore) DeleteComment(ctx context.Context, id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return deleteDoc(s.comments, id, "comment")
}

// DeleteCommentsByTask removes every comment of a task
func (s *MemoryStore) DeleteCommentsByTask(ctx context.Context, taskID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for id, d := range s.comments {
		if d.doc.TaskID == taskID {
			delete(s.comments, id)
		}
	}
	return nil
}

// Report subscriptions

// CreateSubscription stores a report subscription
func (s *MemoryStore) CreateSubscription(ctx context.Context, sub *models.ReportSubscription) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return insertDoc(s, s.subscriptions, sub.ID, *sub, "report subscription")
}

// ListSubscriptions returns every report subscription, oldest first
func (s *MemoryStore) ListSubscriptions(ctx context.Context) ([]models.ReportSubscription, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return sortedDocs(s.subscriptions, func(a, b models.ReportSubscription) bool {
		return a.CreatedAt.Before(b.CreatedAt)
	}), nil
}

// DeleteSubscription removes a report subscription
func (s *MemoryStore) DeleteSubscription(ctx context.Context, id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return deleteDoc(s.subscriptions, id, "report subscription")
}

// helpers; callers hold the mutex

func insertDoc[T any](s *MemoryStore, docs map[string]memoryDoc[T], id string, doc T, what string) error {
	if id == "" {
		return fmt.Errorf("failed to insert %s: empty id", what)
	}
	if _, exists := docs[id]; exists {
		return fmt.Errorf("failed to insert %s: duplicate id %s", what, id)
	}
	s.seq++
	docs[id] = memoryDoc[T]{seq: s.seq, doc: doc}
	return nil
}

func replaceDoc[T any](docs map[string]memoryDoc[T], id string, doc T, what string) error {
	d, ok := docs[id]
	if !ok {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	d.doc = doc
	docs[id] = d
	return nil
}

func deleteDoc[T any](docs map[string]memoryDoc[T], id string, what string) error {
	if _, ok := docs[id]; !ok {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	delete(docs, id)
	return nil
}

// sortedDocs orders documents by less, falling back to insertion order
func sortedDocs[T any](docs map[string]memoryDoc[T], less func(a, b T) bool) []T {
	list := make([]memoryDoc[T], 0, len(docs))
	for _, d := range docs {
		list = append(list, d)
	}
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i].doc, list[j].doc
		if less(a, b) {
			return true
		}
		if less(b, a) {
			return false
		}
		return list[i].seq < list[j].seq
	})
	out := make([]T, len(list))
	for i, d := range list {
		out[i] = d.doc
	}
	return out
}

func clonePlan(p models.ActionPlan) models.ActionPlan {
	return p.Clone()
}

func cloneTask(t models.Task) models.Task {
	return t.Clone()
}
