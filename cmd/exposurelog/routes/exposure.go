package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/container"
	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/handlers"
)

// RegisterExposureRoutes registers the registry routes under g
func RegisterExposureRoutes(g *echo.Group, c *container.Container) {
	h := handlers.NewExposureHandler(c.ExposureService, c.Log)

	g.GET("/exposures", h.FindExposures) // GET /exposurelog/exposures?instrument=LSSTCam
	g.GET("/instruments", h.Instruments) // GET /exposurelog/instruments
}
