package main

import (
	"context"
	"fmt"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/container"
	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/routes"
	"github.com/lsst-sqre/exposurelog/common/bootstrap"
	"github.com/lsst-sqre/exposurelog/common/middleware"
	"github.com/lsst-sqre/exposurelog/common/server"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	// Bootstrap common components (config, logger, DB, redis, cache, telemetry)
	components, err := bootstrap.Setup(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to bootstrap %s: %w", serviceName, err)
	}
	defer components.Shutdown(ctx)

	// Build the process-wide container once
	c, err := container.NewContainer(ctx, components)
	if err != nil {
		return fmt.Errorf("failed to initialize service container: %w", err)
	}

	e := setupEcho()
	setupMiddleware(e)
	registerRoutes(e, c)

	srv := server.New(serviceName, components.Config.Service.Port, e, components.Logger)
	return srv.Start(ctx)
}

// setupEcho initializes the Echo server with basic configuration
func setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	return e
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo) {
	e.Pre(echomiddleware.RemoveTrailingSlash())
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestContext())
	e.Use(middleware.Metrics())
}

// registerRoutes registers all application routes under the path prefix
func registerRoutes(e *echo.Echo, c *container.Container) {
	g := e.Group(c.Components.Config.Service.PathPrefix)
	routes.RegisterMessageRoutes(g, c)
	routes.RegisterExposureRoutes(g, c)
	routes.RegisterSystemRoutes(g, c, serviceName)
}
