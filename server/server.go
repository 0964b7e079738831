// Package server hosts the HTTP surface of the docent service.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hrygo/docent/internal/profile"
	apiv1 "github.com/hrygo/docent/server/router/api/v1"
	"github.com/hrygo/docent/store"
)

// Server is the docent HTTP server plus its background workers: the index
// builder, the persona watcher, and the deferred conversation updater.
type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer   *echo.Echo
	apiV1Service *apiv1.APIV1Service
}

// NewServer creates the server and wires all services.
func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	e := echo.New()
	e.Debug = profile.IsDev()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	apiV1Service, err := apiv1.NewAPIV1Service(profile, store)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create API v1 service")
	}

	s := &Server{
		Profile:      profile,
		Store:        store,
		echoServer:   e,
		apiV1Service: apiV1Service,
	}

	e.GET("/", s.serviceInfo)
	e.GET("/healthz", s.healthz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	apiV1Service.RegisterRoutes(e.Group("/api/v1"))

	return s, nil
}

// Start launches the listener and the background workers. Non-blocking;
// listener failures surface through the logger.
func (s *Server) Start(ctx context.Context) error {
	// The index build runs in the background so a large document tree does
	// not delay startup; unindexed exhibits answer without references until
	// their collection is built.
	go func() {
		if err := s.apiV1Service.Indexer.BuildAll(ctx, s.Profile.DocumentsDir, s.Profile.Reindex); err != nil {
			slog.Error("index build failed", "error", err)
		}
	}()

	if s.Profile.PersonaWatch {
		go func() {
			if err := s.apiV1Service.Personas.Watch(ctx, s.Profile.PersonaDir); err != nil {
				slog.Warn("persona hot reload disabled", "error", err)
			}
		}()
	}

	go func() {
		address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
		if err := s.echoServer.Start(address); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
		}
	}()

	return nil
}

// Shutdown stops the listener, flushes the deferred update queue, and
// closes the store.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	// Flush queued conversation updates before the store goes away.
	s.apiV1Service.Stop()

	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}

	slog.Info("docent stopped properly")
}

func (s *Server) serviceInfo(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"service": "docent",
		"version": s.Profile.Version,
		"mode":    s.Profile.Mode,
	})
}

func (s *Server) healthz(c echo.Context) error {
	return c.String(http.StatusOK, "Service ready.")
}
