package database

import (
	"context"
	"fmt"
	"log"

	"actionplan-tracker/internal/config"
	"actionplan-tracker/internal/models"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// ReportMeasurement is the InfluxDB measurement holding one point per generated report
const ReportMeasurement = "report_generation"

// InfluxDBClient writes report generation metrics to InfluxDB 2.x
type InfluxDBClient struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	org      string
	bucket   string
}

// NewInfluxDBClient connects to InfluxDB and checks its health
func NewInfluxDBClient(cfg config.InfluxDBConfig) (*InfluxDBClient, error) {
	log.Printf("[INFLUX-INIT] Initializing InfluxDB 2.0 client: url=%s, org=%s, bucket=%s", cfg.URL, cfg.Org, cfg.Bucket)

	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	health, err := client.Health(context.Background())
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to InfluxDB: %w", err)
	}
	if health.Status != "pass" {
		log.Printf("[INFLUX-WARN] InfluxDB health check returned status: %s", health.Status)
	}

	return &InfluxDBClient{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		org:      cfg.Org,
		bucket:   cfg.Bucket,
	}, nil
}

// ReportPoint converts a metric into an InfluxDB point
func ReportPoint(m models.ReportMetric) *write.Point {
	return influxdb2.NewPoint(ReportMeasurement,
		map[string]string{
			"period": m.Period,
			"format": m.Format,
		},
		map[string]interface{}{
			"rows":        m.Rows,
			"bytes":       m.Bytes,
			"duration_ms": m.Duration.Milliseconds(),
			"failed":      m.Failed,
		},
		m.At,
	)
}

// RecordReport writes one report generation point
func (c *InfluxDBClient) RecordReport(ctx context.Context, m models.ReportMetric) error {
	if err := c.writeAPI.WritePoint(ctx, ReportPoint(m)); err != nil {
		return fmt.Errorf("failed to write to InfluxDB (org=%s, bucket=%s): %w", c.org, c.bucket, err)
	}
	return nil
}

// Close closes the InfluxDB client connection
func (c *InfluxDBClient) Close() error {
	if c.client != nil {
		c.client.Close()
	}
	return nil
}
