// Package server exposes parsing, layout and rendering over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"erd/config"
	"erd/document"
	"erd/metrics"
)

// Deps are the collaborators the handlers share.
type Deps struct {
	Layouter document.Layouter
	Fonts    *metrics.Registry
	Logger   *slog.Logger
}

// New builds the router. Every request works on a fresh document, so
// handlers hold no state between calls.
func New(cfg *config.Config, deps Deps) *gin.Engine {
	if deps.Fonts == nil {
		deps.Fonts = metrics.Default()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	h := &handlers{cfg: cfg, deps: deps}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/healthz", h.health)
	api := r.Group("/api")
	{
		api.POST("/parse", h.parse)
		api.POST("/layout", h.layout)
		api.POST("/render", h.render)
		api.GET("/formats", h.formats)
		api.GET("/fonts", h.fonts)
	}
	return r
}

// Run serves handler on addr until ctx is cancelled, then shuts down.
func Run(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
