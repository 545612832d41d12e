package main

import (
	"context"
	"log"

	"actionplan-tracker/internal/api"
	"actionplan-tracker/internal/config"
	"actionplan-tracker/internal/database"
	"actionplan-tracker/internal/report"
	"actionplan-tracker/internal/services"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	loc, err := cfg.Report.Location()
	if err != nil {
		log.Fatalf("Invalid REPORT_TIMEZONE: %v", err)
	}
	log.Printf("Reporting timezone: %s", loc)

	// Document store: MongoDB when configured, in-memory otherwise
	var store services.Store
	if cfg.MongoDB.Enabled() {
		log.Printf("Initializing MongoDB connection (Host: %s, Port: %s, Database: %s)",
			cfg.MongoDB.Host, cfg.MongoDB.Port, cfg.MongoDB.Database)
		mongoClient, err := database.NewMongoDBClient(cfg.MongoDB)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer mongoClient.Close()
		store = mongoClient
	} else {
		log.Printf("MongoDB not configured (Host and URI are empty), using the in-memory store; data is lost on restart")
		store = database.NewMemoryStore()
	}

	// Attachment storage: S3 when configured, local disk otherwise
	var storage services.StorageInterface
	storageDir := ""
	if cfg.S3.Enabled() {
		s3Service, err := services.NewS3Service(context.Background(), cfg.S3)
		if err != nil {
			log.Fatalf("Failed to initialize S3: %v", err)
		}
		log.Printf("Storing attachments in S3 bucket %s", cfg.S3.Bucket)
		storage = s3Service
	} else {
		localStorage, err := services.NewLocalStorage(cfg.Storage.LocalPath, cfg.Storage.BaseURL)
		if err != nil {
			log.Fatalf("Failed to initialize local storage: %v", err)
		}
		log.Printf("S3 not configured, storing attachments in %s", localStorage.BasePath())
		storage = localStorage
		storageDir = localStorage.BasePath()
	}

	// Report metrics (optional)
	var metrics services.MetricsRecorder
	if cfg.InfluxDB.Enabled() {
		influxClient, err := database.NewInfluxDBClient(cfg.InfluxDB)
		if err != nil {
			log.Printf("WARNING: Failed to connect to InfluxDB (report metrics disabled): %v", err)
		} else {
			defer influxClient.Close()
			metrics = influxClient
		}
	} else {
		log.Printf("InfluxDB not configured, report metrics disabled")
	}

	// Initialize services
	events := services.NewEventHub(64)
	commentService := services.NewCommentService(store, store, events)
	taskService := services.NewTaskService(store, store, commentService, events, loc)
	planService := services.NewPlanService(store, taskService, events, loc)
	attachmentService := services.NewAttachmentService(storage)
	generator := report.NewGenerator(report.SystemClock, report.NewFormatter(loc))
	reportService := services.NewReportService(planService, taskService, generator, metrics)
	jwtService := services.NewJWTService(cfg.JWT.Secret)

	// Email and scheduled digests (optional)
	var mailer services.ReportMailer
	if cfg.Email.Enabled() {
		mailer = services.NewEmailService(cfg.Email, generator.Formatter())
	} else {
		log.Printf("SendGrid API key not configured, report e-mails disabled")
	}
	digestService := services.NewDigestService(store, reportService, mailer, loc)
	if mailer != nil && cfg.Report.DigestEnabled {
		if err := digestService.Start(); err != nil {
			log.Fatalf("Failed to start digest scheduler: %v", err)
		}
		defer digestService.Stop()
	}

	// Initialize handlers
	handlers := api.NewHandlers(
		planService,
		taskService,
		commentService,
		attachmentService,
		reportService,
		digestService,
		jwtService,
		events,
		cfg.JWT.TTL,
	)

	// Setup routes
	router := api.SetupRoutes(handlers, api.RouteOptions{
		DevAuth:    cfg.Server.DevAuth,
		StorageDir: storageDir,
		Ping: func(c *gin.Context) error {
			return store.Ping(c.Request.Context())
		},
	})
	if cfg.Server.DevAuth {
		log.Printf("WARNING: DEV_AUTH is enabled, POST /api/auth/dev-token issues tokens for any user")
	}

	// Start server
	addr := cfg.Server.Host + ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
