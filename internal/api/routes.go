package api

import (
	"net/http"

	"actionplan-tracker/internal/middleware"
	"actionplan-tracker/internal/models"

	"github.com/gin-gonic/gin"
)

// RouteOptions switches optional routes on
type RouteOptions struct {
	// DevAuth exposes POST /api/auth/dev-token
	DevAuth bool
	// StorageDir is served under /storage when attachments live on local disk
	StorageDir string
	// Ping reports whether the document store is reachable; nil skips the check
	Ping func(c *gin.Context) error
}

// SetupRoutes configures all API routes
func SetupRoutes(handlers *Handlers, opts RouteOptions) *gin.Engine {
	router := gin.Default()

	// Add CORS middleware
	router.Use(corsMiddleware())

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		if opts.Ping != nil {
			if err := opts.Ping(c); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if opts.StorageDir != "" {
		router.Static("/storage", opts.StorageDir)
	}

	// Live change feed; authenticates with $AUTH inside the socket
	router.GET("/ws/events", handlers.EventsWebSocketHandler)

	api := router.Group("/api")

	if opts.DevAuth {
		api.POST("/auth/dev-token", handlers.DevTokenHandler)
	}

	protected := api.Group("/")
	protected.Use(middleware.JWTAuth(handlers.jwtService))
	{
		plans := protected.Group("/plans")
		{
			plans.GET("", handlers.ListPlansHandler)
			plans.POST("", handlers.CreatePlanHandler)
			plans.GET("/:planId", handlers.GetPlanHandler)
			plans.PATCH("/:planId", handlers.UpdatePlanHandler)
			plans.DELETE("/:planId", handlers.DeletePlanHandler)
			plans.GET("/:planId/tasks", handlers.ListTasksHandler)
			plans.POST("/:planId/tasks", handlers.CreateTaskHandler)
			plans.POST("/:planId/attachments", handlers.UploadPlanAttachmentHandler)
			plans.DELETE("/:planId/attachments/:attachmentId", handlers.DeletePlanAttachmentHandler)
		}

		tasks := protected.Group("/tasks")
		{
			tasks.GET("/:taskId", handlers.GetTaskHandler)
			tasks.PATCH("/:taskId", handlers.UpdateTaskHandler)
			tasks.DELETE("/:taskId", handlers.DeleteTaskHandler)
			tasks.GET("/:taskId/comments", handlers.ListCommentsHandler)
			tasks.POST("/:taskId/comments", handlers.CreateCommentHandler)
			tasks.POST("/:taskId/attachments", handlers.UploadTaskAttachmentHandler)
			tasks.DELETE("/:taskId/attachments/:attachmentId", handlers.DeleteTaskAttachmentHandler)
		}

		protected.GET("/files/*key", handlers.DownloadAttachmentHandler)

		comments := protected.Group("/comments")
		{
			comments.PATCH("/:commentId", handlers.UpdateCommentHandler)
			comments.DELETE("/:commentId", handlers.DeleteCommentHandler)
		}

		reports := protected.Group("/reports")
		{
			reports.POST("/email", handlers.EmailReportHandler)
			reports.GET("/subscriptions", handlers.ListSubscriptionsHandler)
			reports.POST("/subscriptions", handlers.CreateSubscriptionHandler)
			reports.DELETE("/subscriptions/:subscriptionId", handlers.DeleteSubscriptionHandler)
			reports.GET("/:period", handlers.DownloadReportHandler)
		}

		protected.GET("/dashboard", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), handlers.DashboardHandler)
	}

	return router
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PATCH, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Report-Rows, X-Report-Empty")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
