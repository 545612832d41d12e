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

// CommentService manages task comments through a write-through cache
type CommentService struct {
	comments CommentStore
	tasks    TaskStore
	events   *EventHub
	cache    *cache[models.Comment]
	now      func() time.Time
}

// NewCommentService creates a new comment service
func NewCommentService(comments CommentStore, tasks TaskStore, events *EventHub) *CommentService {
	return &CommentService{
		comments: comments,
		tasks:    tasks,
		events:   events,
		cache:    newCache(models.Comment.Clone),
		now:      time.Now,
	}
}

// List returns the comments of a task, newest first
func (s *CommentService) List(ctx context.Context, taskID string) ([]models.Comment, error) {
	if _, err := s.tasks.GetTask(ctx, taskID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListCommentsByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	for _, c := range comments {
		s.cache.put(c.ID, c)
	}
	return comments, nil
}

// Get returns one comment, from the cache when possible
func (s *CommentService) Get(ctx context.Context, id string) (*models.Comment, error) {
	if c, ok := s.cache.get(id); ok {
		return &c, nil
	}
	c, err := s.comments.GetComment(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.put(c.ID, *c)
	return c, nil
}

// Create adds a comment to a task. Any authenticated user may comment.
func (s *CommentService) Create(ctx context.Context, user models.User, taskID, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: comment content is required", ErrInvalidInput)
	}
	if _, err := s.tasks.GetTask(ctx, taskID); err != nil {
		return nil, err
	}

	comment := models.Comment{
		ID:        utils.GenerateUUID(),
		TaskID:    taskID,
		Content:   content,
		CreatedBy: user.ID,
		CreatedAt: s.now(),
	}
	if err := s.comments.CreateComment(ctx, &comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	s.cache.put(comment.ID, comment)
	s.publish(EventCreated, comment)
	return &comment, nil
}

// Update edits a comment's content. Only the author may edit.
func (s *CommentService) Update(ctx context.Context, user models.User, id, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: comment content is required", ErrInvalidInput)
	}
	comment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment.CreatedBy != user.ID {
		return nil, fmt.Errorf("%w: only the author may edit a comment", ErrForbidden)
	}

	updatedAt := s.now()
	updatedBy := user.ID
	comment.Content = content
	comment.UpdatedAt = &updatedAt
	comment.UpdatedBy = &updatedBy
	if err := s.comments.UpdateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}
	s.cache.put(comment.ID, *comment)
	s.publish(EventUpdated, *comment)
	return comment, nil
}

// Delete removes a comment. Only the author may delete.
func (s *CommentService) Delete(ctx context.Context, user models.User, id string) error {
	comment, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if comment.CreatedBy != user.ID {
		return fmt.Errorf("%w: only the author may delete a comment", ErrForbidden)
	}
	if err := s.comments.DeleteComment(ctx, id); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	s.cache.remove(id)
	s.publish(EventDeleted, *comment)
	return nil
}

// deleteByTask removes every comment of a task; used when the task goes away
func (s *CommentService) deleteByTask(ctx context.Context, taskID string) error {
	if err := s.comments.DeleteCommentsByTask(ctx, taskID); err != nil {
		return fmt.Errorf("failed to delete comments of task %s: %w", taskID, err)
	}
	s.cache.removeWhere(func(c models.Comment) bool { return c.TaskID == taskID })
	log.Printf("[STORE] Deleted comments of task %s", taskID)
	return nil
}

func (s *CommentService) publish(t EventType, c models.Comment) {
	s.events.Publish(ChangeEvent{
		Type:   t,
		Entity: EntityComment,
		ID:     c.ID,
		TaskID: c.TaskID,
		At:     s.now(),
	})
}
