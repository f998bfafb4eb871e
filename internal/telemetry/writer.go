package telemetry

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/Hampterlab/hampter-bridge/internal/infrastructure/config"
)

const (
	defaultConnectTimeout = 10 * time.Second

	// millisecondsPerSecond converts seconds to milliseconds for the InfluxDB API.
	millisecondsPerSecond = 1000
)

// Logger defines the logging interface used by the Writer.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Writer records port values to InfluxDB.
//
// Writes go through the client's non-blocking batched API: recording a
// value never blocks the transport receive goroutine, and write errors
// surface asynchronously through the error channel as log lines.
type Writer struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	logger   Logger
}

// Connect creates a telemetry writer from config.
//
// Telemetry is optional; callers should skip construction entirely when
// cfg.Enabled is false rather than relying on an error here.
func Connect(cfg config.TelemetryConfig) (*Writer, error) {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	flushInterval := cfg.FlushInterval
	if flushInterval <= 0 {
		flushInterval = 10
	}

	// #nosec G115 -- values validated above to be positive
	client := influxdb2.NewClientWithOptions(
		cfg.URL,
		cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(uint(batchSize)).
			SetFlushInterval(uint(flushInterval)*millisecondsPerSecond),
	)

	ctx, cancel := context.WithTimeout(context.Background(), defaultConnectTimeout)
	defer cancel()

	healthy, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging influxdb: %w", err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("influxdb server not healthy")
	}

	w := &Writer{
		client:   client,
		writeAPI: client.WriteAPI(cfg.Org, cfg.Bucket),
		logger:   noopLogger{},
	}
	go w.handleWriteErrors(w.writeAPI.Errors())

	return w, nil
}

// SetLogger sets the logger for the writer.
func (w *Writer) SetLogger(logger Logger) {
	w.logger = logger
}

// RecordPortValue queues one port value for batched write.
func (w *Writer) RecordPortValue(deviceID, port string, value float64, ts time.Time) {
	point := influxdb2.NewPoint(
		"port_value",
		map[string]string{
			"device_id": deviceID,
			"port":      port,
		},
		map[string]any{
			"value": value,
		},
		ts,
	)
	w.writeAPI.WritePoint(point)
}

// handleWriteErrors logs async write failures from the batched API.
func (w *Writer) handleWriteErrors(errs <-chan error) {
	for err := range errs {
		w.logger.Error("telemetry write failed", "error", err)
	}
}

// Close flushes pending points and releases the client.
func (w *Writer) Close() {
	w.writeAPI.Flush()
	w.client.Close()
}
