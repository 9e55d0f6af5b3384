// Package api exposes the playground pipeline over HTTP for editor
// frontends: run, transform, and detection endpoints plus Prometheus
// metrics. Execution per session is last-request-wins; a run request
// carrying a session id cancels the session's outstanding run.
package api

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sandkit/playground/internal/api/middleware"
	"github.com/sandkit/playground/internal/infrastructure/config"
	"github.com/sandkit/playground/internal/infrastructure/logging"
	"github.com/sandkit/playground/internal/infrastructure/monitoring"
	"github.com/sandkit/playground/internal/runner"
)

// Server wraps the HTTP server and the run pipeline.
type Server struct {
	router *gin.Engine
	http   *http.Server
	runner *runner.Runner
	log    *logging.Logger

	mu       sync.Mutex
	sessions map[string]*sessionSlot
}

type sessionSlot struct {
	cancel context.CancelFunc
}

// New creates a server around a fresh pipeline. A nil config uses defaults.
func New(cfg *config.Config, log *logging.Logger) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logging.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))

	reg := prometheus.NewRegistry()
	s := &Server{
		router:   router,
		runner:   runner.New(cfg, log, monitoring.NewMetricsWith(reg)),
		log:      log.Named("api"),
		sessions: map[string]*sessionSlot{},
	}

	router.GET("/", s.root)
	router.GET("/health", s.health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	v1 := router.Group("/v1")
	v1.POST("/run", s.run)
	v1.POST("/run/cancel", s.cancel)
	v1.POST("/transform", s.transform)
	v1.POST("/detect", s.detect)
	v1.PUT("/env", s.setEnv)

	return s
}

// Run starts serving on addr and blocks until the listener fails or Close
// is called.
func (s *Server) Run(addr string) error {
	s.http = &http.Server{Addr: addr, Handler: s.router}
	s.log.Info("listening", zap.String("addr", addr))
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Close shuts the listener down and cancels every outstanding execution.
func (s *Server) Close() error {
	s.mu.Lock()
	for id, slot := range s.sessions {
		slot.cancel()
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(context.Background())
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.router }
