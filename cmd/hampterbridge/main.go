// Hampter Bridge - device-to-tool bridge
//
// The bridge exposes MQTT and IPC devices as callable tools: it signs
// and dispatches command envelopes, correlates the asynchronous replies,
// issues per-device claim tokens, and routes port values between
// devices through a configurable connection matrix.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Hampterlab/hampter-bridge/internal/api"
	"github.com/Hampterlab/hampter-bridge/internal/command"
	"github.com/Hampterlab/hampter-bridge/internal/directory"
	"github.com/Hampterlab/hampter-bridge/internal/inbound"
	"github.com/Hampterlab/hampter-bridge/internal/infrastructure/config"
	"github.com/Hampterlab/hampter-bridge/internal/infrastructure/database"
	"github.com/Hampterlab/hampter-bridge/internal/infrastructure/logging"
	"github.com/Hampterlab/hampter-bridge/internal/infrastructure/mqtt"
	"github.com/Hampterlab/hampter-bridge/internal/routing"
	"github.com/Hampterlab/hampter-bridge/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Hampter Bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Device directory, warmed from persisted devices and secrets
	devices := directory.NewStore(directory.NewSQLiteRepository(db))
	devices.SetLogger(log.With("component", "directory"))
	if err := devices.Load(ctx); err != nil {
		return fmt.Errorf("loading device directory: %w", err)
	}

	// Correlation table for in-flight commands
	table := command.NewTable()

	// Connect to MQTT broker
	topics := mqtt.Topics{Namespace: cfg.Bridge.Namespace}
	mqttClient, err := mqtt.Connect(cfg.MQTT, topics)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log.With("component", "mqtt"))
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
		"namespace", cfg.Bridge.Namespace,
	)

	// Local IPC agent. The bridge core treats the agent as an external
	// collaborator; none is bundled, so IPC devices fail dispatch with a
	// config error until one is wired in.
	var agent command.Agent
	log.Info("no IPC agent configured, ipc devices unavailable")

	// Command dispatcher
	dispatcher := command.NewDispatcher(devices, table, mqttClient, agent, cfg.CommandTimeout())
	dispatcher.SetLogger(log.With("component", "dispatch"))

	// Routing matrix, warmed from persisted connections
	matrix := routing.NewMatrix(routing.NewSQLiteRepository(db))
	matrix.SetLogger(log.With("component", "routing"))
	if err := matrix.Load(ctx); err != nil {
		return fmt.Errorf("loading routing matrix: %w", err)
	}

	// Routing engine: synchronous router plus bounded async worker pool
	writer := &portWriter{devices: devices, mqtt: mqttClient, agent: agent}
	router := routing.NewRouter(matrix, writer)
	router.SetLogger(log.With("component", "routing"))

	asyncRouter := routing.NewAsyncRouter(router, cfg.Routing.Workers, cfg.Routing.QueueSize)
	asyncRouter.SetLogger(log.With("component", "routing"))
	asyncRouter.Start()
	defer asyncRouter.Close()

	// Port telemetry (optional)
	var recorder inbound.Recorder
	if cfg.Telemetry.Enabled {
		tw, err := telemetry.Connect(cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing telemetry writer")
			tw.Close()
		}()
		tw.SetLogger(log.With("component", "telemetry"))
		recorder = tw
		log.Info("telemetry enabled", "url", cfg.Telemetry.URL, "bucket", cfg.Telemetry.Bucket)
	} else {
		log.Info("telemetry disabled")
	}

	// Inbound classifier, fed by every transport
	claims := &claimSender{devices: devices, mqtt: mqttClient, agent: agent}
	classifier := inbound.NewClassifier(devices, table, claims, asyncRouter, recorder)
	classifier.SetLogger(log.With("component", "inbound"))

	err = mqttClient.SubscribeInbound(cfg.Bridge.SubscribeAll, byte(cfg.MQTT.QoS),
		func(topic string, payload []byte) error {
			classifier.HandleMessage(topic, payload, directory.ProtocolMQTT)
			return nil
		})
	if err != nil {
		return fmt.Errorf("subscribing to device topics: %w", err)
	}
	log.Info("inbound subscriptions active", "subscribe_all", cfg.Bridge.SubscribeAll)

	// Management API
	server, err := api.New(api.Deps{
		Config:     cfg.API,
		Logger:     log.With("component", "api"),
		Devices:    devices,
		Dispatcher: dispatcher,
		Matrix:     matrix,
		Router:     asyncRouter,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify infrastructure connections are healthy
	if err := healthCheck(ctx, db, mqttClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	// Deferred Close() calls run in reverse order: API, telemetry,
	// routing workers, MQTT, database. In-flight dispatch calls observe
	// the cancelled context and return a shutdown error, never hang.

	log.Info("Hampter Bridge stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses HAMPTER_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("HAMPTER_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies infrastructure connections are healthy.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	return nil
}
