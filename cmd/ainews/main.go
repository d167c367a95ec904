package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/ainewsjp/ainews/internal/app"
	"github.com/ainewsjp/ainews/internal/config"
	"github.com/ainewsjp/ainews/internal/logger"
	"github.com/ainewsjp/ainews/internal/metrics"
)

func main() {
	// Optional local overrides; absence is fine.
	_ = godotenv.Load()
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if os.Getenv("ENABLE_HTTP_MONITORING") == "true" {
		go startMonitoringServer()
	}

	if cfg.Schedule != "" {
		runScheduled(cfg)
		return
	}

	if err := app.Run(context.Background(), cfg); err != nil {
		logger.Error("run failed", "error", err)
		metrics.Global.SetError(err.Error())
		os.Exit(1)
	}
}

// runScheduled keeps the process alive and fires the pipeline on the
// configured cron expression. A failed run is logged and the schedule
// keeps going.
func runScheduled(cfg *config.Config) {
	c := cron.New()
	_, err := c.AddFunc(cfg.Schedule, func() {
		if err := app.Run(context.Background(), cfg); err != nil {
			logger.Error("scheduled run failed", "error", err)
			metrics.Global.SetError(err.Error())
		}
	})
	if err != nil {
		logger.Error("invalid RUN_SCHEDULE", "schedule", cfg.Schedule, "error", err)
		os.Exit(1)
	}

	logger.Info("scheduler started", "schedule", cfg.Schedule)
	c.Run()
}

func startMonitoringServer() {
	port := os.Getenv("MONITORING_PORT")
	if port == "" {
		port = "8080"
	}

	http.HandleFunc("/health", healthHandler)
	http.HandleFunc("/metrics", metricsHandler)

	logger.Info("starting monitoring server", "port", port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		logger.Error("monitoring server error", "error", err)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	status := "ok"
	if !stats["is_healthy"].(bool) {
		status = "error"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	response := map[string]interface{}{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func metricsHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
