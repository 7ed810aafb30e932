package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/service"
	"github.com/lsst-sqre/exposurelog/common/logger"
)

// HealthChecker reports whether backing services are reachable
type HealthChecker interface {
	Health(ctx context.Context) error
}

// SystemHandler serves configuration and health
type SystemHandler struct {
	config  *service.ConfigurationService
	health  HealthChecker
	service string
	log     *logger.Logger
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(config *service.ConfigurationService, health HealthChecker, serviceName string, log *logger.Logger) *SystemHandler {
	return &SystemHandler{
		config:  config,
		health:  health,
		service: serviceName,
		log:     log,
	}
}

// GetConfiguration returns the site id and registry URIs
// GET /exposurelog/configuration
func (h *SystemHandler) GetConfiguration(c echo.Context) error {
	return c.JSON(http.StatusOK, h.config.Get())
}

// Health checks the database and redis
// GET /exposurelog/health
func (h *SystemHandler) Health(c echo.Context) error {
	if err := h.health.Health(c.Request().Context()); err != nil {
		h.log.Warn("health check failed", "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":  "unhealthy",
			"service": h.service,
			"error":   err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"service": h.service,
	})
}
