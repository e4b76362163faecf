package api

import (
	"context"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/vidar-app/vidar/internal/api/downloads"
	"github.com/vidar-app/vidar/internal/api/medias"
	"github.com/vidar-app/vidar/pkg/logger"
)

var log = logger.Get("API")

type (
	RestConfig struct {
		HostAddr string `yaml:"host_address" env:"API_HOST_ADDR" env-default:"0.0.0.0:8080"`
	}

	controller interface {
		SetRoutes(*echo.Group)
	}

	// The RestGateway is a thin wrapper around the Echo HTTP router. Its sole
	// responsibility is to create the routes Vidar exposes and delegate them
	// straight to the controllers.
	RestGateway struct {
		config              *RestConfig
		ec                  *echo.Echo
		downloadsController controller
		mediasController    controller
	}
)

// NewRestGateway constructs the Echo router and populates it with the routes
// defined by the controllers.
func NewRestGateway(config *RestConfig, downloadService downloads.Service, prober medias.Prober) *RestGateway {
	ec := echo.New()
	ec.OnAddRouteHandler = func(host string, route echo.Route, handler echo.HandlerFunc, middleware []echo.MiddlewareFunc) {
		log.Emit(logger.DEBUG, "Registered new route %s %s\n", route.Method, route.Path)
	}
	ec.HidePort = true
	ec.HideBanner = true

	gateway := &RestGateway{
		config:              config,
		ec:                  ec,
		downloadsController: downloads.New(downloadService),
		mediasController:    medias.New(prober),
	}

	ec.Use(middleware.Logger())
	ec.Use(middleware.Recover())

	downloadsGroup := ec.Group("/api/vidar/v1/downloads")
	gateway.downloadsController.SetRoutes(downloadsGroup)

	mediasGroup := ec.Group("/api/vidar/v1/media")
	gateway.mediasController.SetRoutes(mediasGroup)

	return gateway
}

// Run starts the HTTP server and blocks until the provided context is
// cancelled or the server fails.
func (gateway *RestGateway) Run(parentCtx context.Context) error {
	ctx, ctxCancel := context.WithCancelCause(parentCtx)
	wg := &sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := gateway.ec.Start(gateway.config.HostAddr); err != nil {
			ctxCancel(err)
		}
	}()

	go func(ec *echo.Echo) {
		<-ctx.Done()
		ec.Close()
	}(gateway.ec)

	wg.Wait()

	// Return cancellation cause if any; parent context cancellation is not an
	// error case we should report.
	if cause := context.Cause(ctx); cause != ctx.Err() {
		return cause
	}

	return nil
}
