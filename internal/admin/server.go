// Package admin exposes health, readiness and prometheus metrics over HTTP.
// It only observes the listener; the feed connection is never touched here.
package admin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"feed-listener/config"
	"feed-listener/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StateFunc reports whether the listener loop is still running.
type StateFunc func() bool

type Server struct {
	srv *http.Server
}

// NewRouter builds the admin routes. A nil gatherer serves the default
// prometheus registry.
func NewRouter(running StateFunc, gatherer prometheus.Gatherer) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/ready", func(c *gin.Context) {
		if running() {
			c.JSON(http.StatusOK, gin.H{"status": "ready", "listener": "running"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "listener": "terminated"})
	})

	metrics := config.MetricsHandler()
	if gatherer != nil {
		metrics = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	}
	router.GET("/metrics", gin.WrapH(metrics))

	return router
}

func NewServer(port string, running StateFunc) *Server {
	return &Server{srv: &http.Server{
		Addr:              ":" + port,
		Handler:           NewRouter(running, nil),
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

// Start serves in the background. Serve errors are logged, never fatal: the
// admin surface must not take the listener down.
func (s *Server) Start() {
	log := logger.WithComponent("admin")
	go func() {
		log.Info().Str("addr", s.srv.Addr).Msg("Admin server starting")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Admin server failed")
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
