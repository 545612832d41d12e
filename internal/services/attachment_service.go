package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"actionplan-tracker/internal/models"
	"actionplan-tracker/internal/utils"
)

// MaxAttachmentSize caps a single uploaded file
const MaxAttachmentSize = 20 << 20

var attachmentTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

func attachmentContentType(name string) string {
	if ct, ok := attachmentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// AttachmentService stores files attached to plans and tasks
type AttachmentService struct {
	storage StorageInterface
	now     func() time.Time
}

// NewAttachmentService creates a new attachment service
func NewAttachmentService(storage StorageInterface) *AttachmentService {
	return &AttachmentService{
		storage: storage,
		now:     time.Now,
	}
}

// Upload stores a PDF or Word file and describes it as an attachment
func (s *AttachmentService) Upload(ctx context.Context, user models.User, name, contentType string, size int64, reader io.Reader) (*models.FileAttachment, error) {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return nil, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := attachmentTypes[ext]; !ok {
		return nil, fmt.Errorf("%w: only .pdf, .doc and .docx files are accepted, got %q", ErrInvalidInput, name)
	}
	if size > MaxAttachmentSize {
		return nil, fmt.Errorf("%w: file is larger than %d bytes", ErrInvalidInput, MaxAttachmentSize)
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = attachmentTypes[ext]
	}

	id := utils.GenerateUUID()
	key := fmt.Sprintf("files/%s-%s", id, name)
	if err := s.storage.Upload(ctx, key, reader, contentType); err != nil {
		return nil, fmt.Errorf("failed to store attachment: %w", err)
	}

	return &models.FileAttachment{
		ID:        id,
		Name:      name,
		URL:       s.storage.GetFileURL(key),
		Key:       key,
		Type:      contentType,
		Size:      size,
		CreatedAt: s.now(),
		CreatedBy: user.ID,
	}, nil
}

// Delete removes the stored object of an attachment
func (s *AttachmentService) Delete(ctx context.Context, att models.FileAttachment) error {
	if att.Key == "" {
		return nil
	}
	if err := s.storage.Delete(ctx, att.Key); err != nil {
		return fmt.Errorf("failed to delete attachment %s: %w", att.ID, err)
	}
	return nil
}

// DeleteAll removes the stored objects of attachments whose document is gone.
// Failures are logged; the documents have already been deleted.
func (s *AttachmentService) DeleteAll(ctx context.Context, atts []models.FileAttachment) {
	for _, att := range atts {
		if err := s.Delete(ctx, att); err != nil {
			log.Printf("[STORAGE] %v", err)
		}
	}
}

// Open returns the content of a stored attachment
func (s *AttachmentService) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	return s.storage.GetObject(ctx, key)
}
