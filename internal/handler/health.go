package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/deppfellow/tours/internal/logger"
	"github.com/deppfellow/tours/internal/middleware"
	"github.com/deppfellow/tours/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// HealthHandler serves the status endpoint used by load balancers and
// uptime monitors.
type HealthHandler struct {
	Handler
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
	}
}

// dependency is one check of the status endpoint. A failing optional
// dependency is reported without making the service unhealthy.
type dependency struct {
	name     string
	optional bool
	ping     func(ctx context.Context) error
}

func (h *HealthHandler) dependencies() []dependency {
	var deps []dependency

	if h.server.DB != nil {
		deps = append(deps, dependency{name: "database", ping: h.server.DB.Ping})
	}

	// Redis backs rate limiting and jobs, both of which degrade without it.
	if h.server.Redis != nil {
		deps = append(deps, dependency{
			name:     "redis",
			optional: true,
			ping:     func(ctx context.Context) error { return h.server.Redis.Ping(ctx).Err() },
		})
	}

	obs := h.server.Config.Observability
	if obs == nil {
		return deps
	}

	enabled := deps[:0]
	for _, d := range deps {
		if obs.ChecksEnabled(d.name) {
			enabled = append(enabled, d)
		}
	}
	return enabled
}

func (h *HealthHandler) timeout() time.Duration {
	if obs := h.server.Config.Observability; obs != nil && obs.HealthChecks.Timeout > 0 {
		return obs.HealthChecks.Timeout
	}
	return 5 * time.Second
}

// CheckHealth answers 200 when every required dependency responds and 503
// otherwise, with one entry per dependency under "checks".
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()

	log := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	checks := make(map[string]interface{})
	isHealthy := true

	for _, dep := range h.dependencies() {
		ok := h.check(c.Request().Context(), &log, dep, checks)
		if !ok && !dep.optional {
			isHealthy = false
		}
	}

	response := map[string]interface{}{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"checks":      checks,
	}

	if !isHealthy {
		response["status"] = "unhealthy"

		log.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("health check failed")

		h.recordEvent(&log, map[string]interface{}{
			"check_type":        "overall",
			"operation":         "health_check",
			"error_type":        "overall_unhealthy",
			"total_duration_ms": time.Since(start).Milliseconds(),
		})

		return c.JSON(http.StatusServiceUnavailable, response)
	}

	log.Info().
		Dur("total_duration", time.Since(start)).
		Msg("health check passed")

	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write JSON response: %w", err)
	}

	return nil
}

func (h *HealthHandler) check(ctx context.Context, log *zerolog.Logger, dep dependency, checks map[string]interface{}) bool {
	ctx, cancel := context.WithTimeout(ctx, h.timeout())
	defer cancel()

	depStart := time.Now()
	err := dep.ping(ctx)
	elapsed := time.Since(depStart)

	if err == nil {
		checks[dep.name] = map[string]interface{}{
			"status":        "healthy",
			"response_time": elapsed.String(),
		}
		log.Debug().Dur("response_time", elapsed).Msgf("%s health check passed", dep.name)
		return true
	}

	checks[dep.name] = map[string]interface{}{
		"status":        "unhealthy",
		"response_time": elapsed.String(),
		"error":         err.Error(),
	}

	log.Error().
		Err(err).
		Dur("response_time", elapsed).
		Msgf("%s health check failed", dep.name)

	h.recordEvent(log, map[string]interface{}{
		"check_type":       dep.name,
		"operation":        "health_check",
		"error_type":       dep.name + "_unhealthy",
		"response_time_ms": elapsed.Milliseconds(),
		"error_message":    err.Error(),
	})

	return false
}

func (h *HealthHandler) recordEvent(log *zerolog.Logger, params map[string]interface{}) {
	err := h.server.LoggerService.RecordEvent("HealthCheckError", params)
	if err != nil && !errors.Is(err, logger.ErrNotConfigured) {
		log.Warn().Err(err).Msg("failed to record health check event")
	}
}
