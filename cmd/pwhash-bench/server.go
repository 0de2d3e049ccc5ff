package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/fx"

	"github.com/MrEthical07/pwhash"
	"github.com/MrEthical07/pwhash/metrics/export/prometheus"
)

const shutdownTimeout = 5 * time.Second

type httpServer struct {
	addr   string
	logger *slog.Logger
	server *echo.Echo
}

func newExporter(svc *pwhash.Service) *prometheus.PrometheusExporter {
	return prometheus.NewPrometheusExporter(svc)
}

// newHTTPServer serves /metrics and /healthz. It only listens when
// cfg.MetricsAddr is set.
func newHTTPServer(lc fx.Lifecycle, cfg benchConfig, logger *slog.Logger, exporter *prometheus.PrometheusExporter) *httpServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	e.GET("/metrics", echo.WrapHandler(exporter.Handler()))
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	s := &httpServer{addr: cfg.MetricsAddr, logger: logger, server: e}
	if s.addr == "" {
		return s
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go s.serve()
			return nil
		},
		OnStop: s.stop,
	})
	return s
}

func (s *httpServer) serve() {
	s.logger.Info("Starting metrics server", slog.String("addr", s.addr))
	if err := s.server.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("Metrics server failed", slog.Any("error", err))
	}
}

func (s *httpServer) stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	s.logger.Info("Shutting down metrics server")
	return errors.WithStack(s.server.Shutdown(shutdownCtx))
}

// ServeHTTP lets tests exercise the routes without a listener.
func (s *httpServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.server.ServeHTTP(w, r)
}
