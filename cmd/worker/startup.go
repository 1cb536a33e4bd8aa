// cmd/worker/startup.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"inventory-backend/pkg/container"

	"github.com/rs/zerolog/log"
)

// HealthChecker performs startup health checks
type HealthChecker struct {
	c *container.Container
}

// startServices performs health checks and starts the health endpoint
func startServices(c *container.Container) error {
	log.Info().Msg("🚀 Inventory Worker Starting...")

	checker := &HealthChecker{c: c}
	if err := checker.checkAll(); err != nil {
		return err
	}

	go startHealthCheckServer(checker, c.Config.Worker.HealthCheckPort)
	return nil
}

// checkAll runs all health checks
func (h *HealthChecker) checkAll() error {
	checks := []struct {
		name string
		fn   func(ctx context.Context) error
	}{
		{"Redis Connection", h.checkRedis},
		{"PostgreSQL", h.checkDatabase},
		{"MinIO", h.checkStorage},
	}

	for _, check := range checks {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := check.fn(ctx)
		cancel()
		if err != nil {
			log.Error().Err(err).Str("check", check.name).Msg("❌ Health check failed")
			return fmt.Errorf("%s failed: %w", check.name, err)
		}
		log.Info().Str("check", check.name).Msg("✓ OK")
	}

	return nil
}

// checkRedis: worker không chạy được nếu thiếu Redis (asynq)
func (h *HealthChecker) checkRedis(ctx context.Context) error {
	if h.c.Redis == nil {
		return fmt.Errorf("redis is not connected")
	}
	return h.c.Redis.HealthCheck(ctx)
}

func (h *HealthChecker) checkDatabase(ctx context.Context) error {
	return h.c.DB.HealthCheck(ctx)
}

func (h *HealthChecker) checkStorage(ctx context.Context) error {
	if h.c.Storage == nil {
		return fmt.Errorf("minio is not configured")
	}
	return h.c.Storage.HealthCheck(ctx)
}

// startHealthCheckServer starts HTTP server for health checks
func startHealthCheckServer(h *HealthChecker, port string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthCheckHandler)
	mux.HandleFunc("/ready", h.readyCheckHandler)

	log.Info().Str("port", port).Msg("[Health] Starting health check server")
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Error().Err(err).Msg("[Health] Failed to start")
	}
}

// healthCheckHandler handles /health endpoint
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"UP","service":"inventory-worker"}`))
}

// readyCheckHandler handles /ready endpoint (Kubernetes readiness check)
func (h *HealthChecker) readyCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.checkDatabase(ctx); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"NOT_READY"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"READY"}`))
}
