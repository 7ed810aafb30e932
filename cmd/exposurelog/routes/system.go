package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/container"
	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/handlers"
)

// RegisterSystemRoutes registers configuration and health under g
func RegisterSystemRoutes(g *echo.Group, c *container.Container, serviceName string) {
	h := handlers.NewSystemHandler(c.ConfigurationService, c.Components, serviceName, c.Log)

	g.GET("/configuration", h.GetConfiguration)
	g.GET("/health", h.Health)
}
