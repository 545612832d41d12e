package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // REPORT_TIMEZONE must resolve in images without a zoneinfo database

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	JWT      JWTConfig
	S3       S3Config
	Storage  StorageConfig
	Email    EmailConfig
	InfluxDB InfluxDBConfig
	Report   ReportConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port    string
	Host    string
	DevAuth bool // enables POST /api/auth/dev-token
}

// MongoDBConfig holds MongoDB connection details.
// Leave URI and Host empty to run on the in-memory store.
type MongoDBConfig struct {
	URI        string
	Username   string
	Password   string
	Host       string
	Port       string
	Database   string
	AuthSource string // Database to authenticate against (default: admin)
}

// Enabled reports whether a MongoDB server was configured
func (c MongoDBConfig) Enabled() bool {
	return c.URI != "" || c.Host != ""
}

// JWTConfig holds the token signing secret
type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

// S3Config holds S3 (or S3-compatible) attachment storage settings
type S3Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // MinIO and friends
}

// Enabled reports whether attachments go to S3
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// StorageConfig holds local attachment storage settings, used when S3 is not configured
type StorageConfig struct {
	LocalPath string
	BaseURL   string
}

// EmailConfig holds SendGrid email configuration
type EmailConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// Enabled reports whether reports can be e-mailed
func (c EmailConfig) Enabled() bool {
	return c.APIKey != "" && c.FromEmail != ""
}

// InfluxDBConfig holds the InfluxDB 2.x connection used for report metrics
type InfluxDBConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// Enabled reports whether report metrics are written
func (c InfluxDBConfig) Enabled() bool {
	return c.URL != "" && c.Token != ""
}

// ReportConfig holds report generation settings
type ReportConfig struct {
	Timezone      string
	DigestEnabled bool
}

// Location loads the reporting timezone
func (c ReportConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8085"),
			Host:    getEnv("HOST", "0.0.0.0"),
			DevAuth: getEnvBool("DEV_AUTH", false),
		},
		MongoDB: MongoDBConfig{
			URI:        getEnv("MONGODB_URI", ""),
			Username:   getEnv("MONGODB_USERNAME", ""),
			Password:   getEnv("MONGODB_PASSWORD", ""),
			Host:       getEnv("MONGODB_HOST", ""),
			Port:       getEnv("MONGODB_PORT", "27017"),
			Database:   getEnv("MONGODB_DATABASE", "actionplans"),
			AuthSource: getEnv("MONGODB_AUTH_SOURCE", "admin"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
			TTL:    time.Duration(getEnvInt("JWT_TTL_HOURS", 24)) * time.Hour,
		},
		S3: S3Config{
			Bucket:          getEnv("S3_BUCKET", ""),
			Region:          getEnv("S3_REGION", "us-east-1"),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
		},
		Storage: StorageConfig{
			LocalPath: getEnv("STORAGE_PATH", "./storage"),
			BaseURL:   getEnv("STORAGE_BASE_URL", "http://localhost:8085/storage"),
		},
		Email: EmailConfig{
			APIKey:    getEnv("SENDGRID_API_KEY", ""),
			FromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
			FromName:  getEnv("SENDGRID_FROM_NAME", "Action Plan Tracker"),
		},
		InfluxDB: InfluxDBConfig{
			URL:    getEnv("INFLUXDB2_URL", ""),
			Token:  getEnv("INFLUXDB2_TOKEN", ""),
			Org:    getEnv("INFLUXDB2_ORG", ""),
			Bucket: getEnv("INFLUXDB2_BUCKET", "report_metrics"),
		},
		Report: ReportConfig{
			Timezone:      getEnv("REPORT_TIMEZONE", "UTC"),
			DigestEnabled: getEnvBool("REPORT_DIGEST_ENABLED", true),
		},
	}

	if err := ValidateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// ValidateConfig validates that required configuration values are present
func ValidateConfig(config *Config) error {
	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if _, err := config.Report.Location(); err != nil {
		return fmt.Errorf("REPORT_TIMEZONE %q is not a valid timezone: %w", config.Report.Timezone, err)
	}
	if config.S3.Enabled() && (config.S3.AccessKeyID == "" || config.S3.SecretAccessKey == "") {
		return fmt.Errorf("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY are required when S3_BUCKET is set")
	}
	if config.InfluxDB.Enabled() && config.InfluxDB.Org == "" {
		return fmt.Errorf("INFLUXDB2_ORG is required when INFLUXDB2_URL is set")
	}
	return nil
}

// Helper functions for environment variable access
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
