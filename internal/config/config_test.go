package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		JWT:    JWTConfig{Secret: "secret", TTL: time.Hour},
		Report: ReportConfig{Timezone: "UTC"},
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "minimal", mutate: func(*Config) {}},
		{name: "missing secret", mutate: func(c *Config) { c.JWT.Secret = "" }, wantErr: "JWT_SECRET"},
		{name: "bad timezone", mutate: func(c *Config) { c.Report.Timezone = "Mars/Olympus" }, wantErr: "REPORT_TIMEZONE"},
		{name: "s3 without keys", mutate: func(c *Config) { c.S3.Bucket = "files" }, wantErr: "S3_ACCESS_KEY_ID"},
		{name: "s3 with keys", mutate: func(c *Config) {
			c.S3 = S3Config{Bucket: "files", AccessKeyID: "id", SecretAccessKey: "key"}
		}},
		{name: "influx without org", mutate: func(c *Config) {
			c.InfluxDB = InfluxDBConfig{URL: "http://localhost:8086", Token: "t"}
		}, wantErr: "INFLUXDB2_ORG"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := ValidateConfig(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("REPORT_TIMEZONE", "America/Sao_Paulo")
	t.Setenv("DEV_AUTH", "true")
	t.Setenv("JWT_TTL_HOURS", "2")
	t.Setenv("MONGODB_HOST", "")
	t.Setenv("MONGODB_URI", "")
	t.Setenv("S3_BUCKET", "")
	t.Setenv("INFLUXDB2_URL", "")
	t.Setenv("SENDGRID_API_KEY", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.Server.DevAuth || cfg.JWT.TTL != 2*time.Hour {
		t.Errorf("server/jwt = %+v %+v", cfg.Server, cfg.JWT)
	}
	loc, err := cfg.Report.Location()
	if err != nil || loc.String() != "America/Sao_Paulo" {
		t.Errorf("location = %v, %v", loc, err)
	}
	if cfg.MongoDB.Enabled() || cfg.S3.Enabled() || cfg.InfluxDB.Enabled() || cfg.Email.Enabled() {
		t.Error("optional backends enabled without configuration")
	}
}
