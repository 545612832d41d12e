package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"path"
	"strings"
	"time"

	"actionplan-tracker/internal/middleware"
	"actionplan-tracker/internal/models"
	"actionplan-tracker/internal/report"
	"actionplan-tracker/internal/services"
	"actionplan-tracker/internal/validation"

	"github.com/gin-gonic/gin"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	plans       *services.PlanService
	tasks       *services.TaskService
	comments    *services.CommentService
	attachments *services.AttachmentService
	reports     *services.ReportService
	digests     *services.DigestService
	jwtService  *services.JWTService
	events      *services.EventHub
	tokenTTL    time.Duration
}

// NewHandlers creates a new handlers instance
func NewHandlers(
	plans *services.PlanService,
	tasks *services.TaskService,
	comments *services.CommentService,
	attachments *services.AttachmentService,
	reports *services.ReportService,
	digests *services.DigestService,
	jwtService *services.JWTService,
	events *services.EventHub,
	tokenTTL time.Duration,
) *Handlers {
	return &Handlers{
		plans:       plans,
		tasks:       tasks,
		comments:    comments,
		attachments: attachments,
		reports:     reports,
		digests:     digests,
		jwtService:  jwtService,
		events:      events,
		tokenTTL:    tokenTTL,
	}
}

// respondError maps service errors to HTTP status codes
func respondError(c *gin.Context, err error) {
	var dateErr *report.InvalidDateError
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, validation.ErrInvalid),
		errors.Is(err, report.ErrUnknownPeriod),
		errors.Is(err, report.ErrUnknownFormat),
		errors.As(err, &dateErr):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrEmailDisabled):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		log.Printf("[API] %s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// DevTokenHandler handles POST /api/auth/dev-token
// Issues a token for any user; only routed when DEV_AUTH is enabled
func (h *Handlers) DevTokenHandler(c *gin.Context) {
	var req models.DevTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.jwtService.GenerateToken(models.User{
		ID:    req.UserID,
		Email: req.Email,
		Name:  req.Name,
		Role:  req.Role,
	}, h.tokenTTL)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	log.Printf("[AUTH] Issued development token for user=%s role=%s", req.UserID, req.Role)
	c.JSON(http.StatusOK, models.TokenResponse{Token: token})
}

// Action plans

// ListPlansHandler handles GET /api/plans
// ?mine=true keeps only the caller's own plans
func (h *Handlers) ListPlansHandler(c *gin.Context) {
	plans, err := h.plans.List(c.Request.Context(), middleware.GetUser(c), c.Query("mine") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plans)
}

// GetPlanHandler handles GET /api/plans/:planId
func (h *Handlers) GetPlanHandler(c *gin.Context) {
	plan, err := h.plans.Get(c.Request.Context(), c.Param("planId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// CreatePlanHandler handles POST /api/plans
func (h *Handlers) CreatePlanHandler(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req, err := validation.ParseCreatePlan(body)
	if err != nil {
		respondError(c, err)
		return
	}

	plan, err := h.plans.Create(c.Request.Context(), middleware.GetUser(c), *req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// UpdatePlanHandler handles PATCH /api/plans/:planId
func (h *Handlers) UpdatePlanHandler(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	upd, err := validation.ParsePlanUpdate(body)
	if err != nil {
		respondError(c, err)
		return
	}

	plan, err := h.plans.Update(c.Request.Context(), middleware.GetUser(c), c.Param("planId"), *upd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// DeletePlanHandler handles DELETE /api/plans/:planId
// Removes the plan, its tasks, their comments and every stored file
func (h *Handlers) DeletePlanHandler(c *gin.Context) {
	orphans, err := h.plans.Delete(c.Request.Context(), middleware.GetUser(c), c.Param("planId"))
	if err != nil {
		respondError(c, err)
		return
	}
	h.attachments.DeleteAll(c.Request.Context(), orphans)
	c.Status(http.StatusNoContent)
}

// Tasks

// ListTasksHandler handles GET /api/plans/:planId/tasks
func (h *Handlers) ListTasksHandler(c *gin.Context) {
	tasks, err := h.tasks.ListByPlan(c.Request.Context(), c.Param("planId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// GetTaskHandler handles GET /api/tasks/:taskId
func (h *Handlers) GetTaskHandler(c *gin.Context) {
	task, err := h.tasks.Get(c.Request.Context(), c.Param("taskId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// CreateTaskHandler handles POST /api/plans/:planId/tasks
func (h *Handlers) CreateTaskHandler(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req, err := validation.ParseCreateTask(body)
	if err != nil {
		respondError(c, err)
		return
	}

	task, err := h.tasks.Create(c.Request.Context(), middleware.GetUser(c), c.Param("planId"), *req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// UpdateTaskHandler handles PATCH /api/tasks/:taskId
func (h *Handlers) UpdateTaskHandler(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	upd, err := validation.ParseTaskUpdate(body)
	if err != nil {
		respondError(c, err)
		return
	}

	task, err := h.tasks.Update(c.Request.Context(), middleware.GetUser(c), c.Param("taskId"), *upd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// DeleteTaskHandler handles DELETE /api/tasks/:taskId
func (h *Handlers) DeleteTaskHandler(c *gin.Context) {
	ctx := c.Request.Context()
	user := middleware.GetUser(c)

	task, err := h.tasks.Get(ctx, c.Param("taskId"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.tasks.Delete(ctx, user, task.ID); err != nil {
		respondError(c, err)
		return
	}
	h.attachments.DeleteAll(ctx, task.Attachments)
	c.Status(http.StatusNoContent)
}

// Comments

// ListCommentsHandler handles GET /api/tasks/:taskId/comments
func (h *Handlers) ListCommentsHandler(c *gin.Context) {
	comments, err := h.comments.List(c.Request.Context(), c.Param("taskId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

// CreateCommentHandler handles POST /api/tasks/:taskId/comments
func (h *Handlers) CreateCommentHandler(c *gin.Context) {
	var req models.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.comments.Create(c.Request.Context(), middleware.GetUser(c), c.Param("taskId"), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// UpdateCommentHandler handles PATCH /api/comments/:commentId
func (h *Handlers) UpdateCommentHandler(c *gin.Context) {
	var req models.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.comments.Update(c.Request.Context(), middleware.GetUser(c), c.Param("commentId"), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// DeleteCommentHandler handles DELETE /api/comments/:commentId
func (h *Handlers) DeleteCommentHandler(c *gin.Context) {
	if err := h.comments.Delete(c.Request.Context(), middleware.GetUser(c), c.Param("commentId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Attachments

// uploadAttachment stores the multipart "file" field and hands it to attach.
// The stored object is removed again when attach fails.
func (h *Handlers) uploadAttachment(c *gin.Context, attach func(models.FileAttachment) (interface{}, error)) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field \"file\" is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	ctx := c.Request.Context()
	att, err := h.attachments.Upload(ctx, middleware.GetUser(c), header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		respondError(c, err)
		return
	}

	doc, err := attach(*att)
	if err != nil {
		if delErr := h.attachments.Delete(ctx, *att); delErr != nil {
			log.Printf("[STORAGE] %v", delErr)
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// UploadTaskAttachmentHandler handles POST /api/tasks/:taskId/attachments
func (h *Handlers) UploadTaskAttachmentHandler(c *gin.Context) {
	h.uploadAttachment(c, func(att models.FileAttachment) (interface{}, error) {
		return h.tasks.AddAttachment(c.Request.Context(), middleware.GetUser(c), c.Param("taskId"), att)
	})
}

// UploadPlanAttachmentHandler handles POST /api/plans/:planId/attachments
func (h *Handlers) UploadPlanAttachmentHandler(c *gin.Context) {
	h.uploadAttachment(c, func(att models.FileAttachment) (interface{}, error) {
		return h.plans.AddAttachment(c.Request.Context(), middleware.GetUser(c), c.Param("planId"), att)
	})
}

// DeleteTaskAttachmentHandler handles DELETE /api/tasks/:taskId/attachments/:attachmentId
func (h *Handlers) DeleteTaskAttachmentHandler(c *gin.Context) {
	ctx := c.Request.Context()
	task, removed, err := h.tasks.RemoveAttachment(ctx, middleware.GetUser(c), c.Param("taskId"), c.Param("attachmentId"))
	if err != nil {
		respondError(c, err)
		return
	}
	h.attachments.DeleteAll(ctx, []models.FileAttachment{*removed})
	c.JSON(http.StatusOK, task)
}

// DeletePlanAttachmentHandler handles DELETE /api/plans/:planId/attachments/:attachmentId
func (h *Handlers) DeletePlanAttachmentHandler(c *gin.Context) {
	ctx := c.Request.Context()
	plan, removed, err := h.plans.RemoveAttachment(ctx, middleware.GetUser(c), c.Param("planId"), c.Param("attachmentId"))
	if err != nil {
		respondError(c, err)
		return
	}
	h.attachments.DeleteAll(ctx, []models.FileAttachment{*removed})
	c.JSON(http.StatusOK, plan)
}

// DownloadAttachmentHandler handles GET /api/files/*key
// Streams a stored attachment through the API for private buckets
func (h *Handlers) DownloadAttachmentHandler(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if !strings.HasPrefix(key, "files/") {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	body, contentType, err := h.attachments.Open(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}
	defer body.Close()

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, path.Base(key)))
	c.DataFromReader(http.StatusOK, -1, contentType, body, nil)
}

// Reports

// DownloadReportHandler handles GET /api/reports/:period?format=excel|pdf|word&planId=
// Responds with the report file as an attachment
func (h *Handlers) DownloadReportHandler(c *gin.Context) {
	period, err := report.ParsePeriod(c.Param("period"))
	if err != nil {
		respondError(c, err)
		return
	}
	format, err := report.ParseFormat(c.DefaultQuery("format", string(report.FormatPDF)))
	if err != nil {
		respondError(c, err)
		return
	}

	artifact, err := h.reports.Generate(c.Request.Context(), services.ReportRequest{
		ActionPlanID: c.Query("planId"),
		Period:       period,
		Format:       format,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, artifact.Filename))
	c.Header("X-Report-Rows", fmt.Sprintf("%d", artifact.RowCount))
	if artifact.Empty {
		c.Header("X-Report-Empty", "true")
	}
	c.Data(http.StatusOK, artifact.ContentType, artifact.Data)
}

// EmailReportHandler handles POST /api/reports/email
func (h *Handlers) EmailReportHandler(c *gin.Context) {
	var req models.EmailReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	artifact, err := h.digests.SendNow(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "sent",
		"filename": artifact.Filename,
		"rows":     artifact.RowCount,
		"empty":    artifact.Empty,
	})
}

// ListSubscriptionsHandler handles GET /api/reports/subscriptions
func (h *Handlers) ListSubscriptionsHandler(c *gin.Context) {
	subs, err := h.digests.List(c.Request.Context(), middleware.GetUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, subs)
}

// CreateSubscriptionHandler handles POST /api/reports/subscriptions
func (h *Handlers) CreateSubscriptionHandler(c *gin.Context) {
	var req models.SubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := h.digests.Subscribe(c.Request.Context(), middleware.GetUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

// DeleteSubscriptionHandler handles DELETE /api/reports/subscriptions/:subscriptionId
func (h *Handlers) DeleteSubscriptionHandler(c *gin.Context) {
	if err := h.digests.Unsubscribe(c.Request.Context(), middleware.GetUser(c), c.Param("subscriptionId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DashboardHandler handles GET /api/dashboard
func (h *Handlers) DashboardHandler(c *gin.Context) {
	dash, err := h.reports.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}
