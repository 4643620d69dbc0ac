// Package httpimpl serves the operational HTTP endpoints: liveness, health, metrics
// and pprof.
package httpimpl

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/atomledger/atomengine/errors"
	"github.com/atomledger/atomengine/ulogger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HealthFunc func(ctx context.Context, checkLiveness bool) (int, string, error)

type HTTP struct {
	logger    ulogger.Logger
	e         *echo.Echo
	startTime time.Time
}

func New(logger ulogger.Logger, health HealthFunc) *HTTP {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())

	h := &HTTP{
		logger:    logger,
		e:         e,
		startTime: time.Now(),
	}

	e.GET("/alive", func(c echo.Context) error {
		return c.String(http.StatusOK, fmt.Sprintf("atomengine is alive. Uptime: %s\n", time.Since(h.startTime)))
	})

	// ?liveness=true skips the dependency checks
	e.GET("/health", func(c echo.Context) error {
		status, details, err := health(c.Request().Context(), c.QueryParam("liveness") == "true")
		if err != nil {
			logger.Warnf("[HTTP] health check failed: %v", err)

			if details == "" {
				details = err.Error()
			}
		}

		return c.String(status, details)
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/debug/pprof/*", echo.WrapHandler(http.DefaultServeMux))

	return h
}

// Start serves on addr until Stop is called.
func (h *HTTP) Start(addr string) error {
	h.logger.Infof("[HTTP] listening on %s", addr)

	if err := h.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.NewServiceError("http server on %s failed", addr, err)
	}

	return nil
}

func (h *HTTP) Stop(ctx context.Context) error {
	return h.e.Shutdown(ctx)
}

func (h *HTTP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.e.ServeHTTP(w, r)
}
