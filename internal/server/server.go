// Package server exposes the FNA document endpoint and the agent dashboard.
package server

import (
	"context"
	"errors"
	"html/template"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"fnaterm/internal/fna"
	"fnaterm/internal/monitoring"
)

// Renderer produces a complete PDF for a session id.
type Renderer interface {
	Render(ctx context.Context, id string) ([]byte, error)
}

// Config carries the settings the HTTP layer needs.
type Config struct {
	Addr       string
	AuthURL    string
	AnonKey    string
	Location   *time.Location
	Production bool
	// TokenTTL bounds cookies set by the auth entry point.
	TokenTTL time.Duration
}

// Server is the HTTP surface of fna-term.
type Server struct {
	cfg      Config
	sessions fna.SessionSource
	renderer Renderer
	metrics  *monitoring.Metrics
	logger   *log.Logger
	engine   *gin.Engine
}

// New wires routes and middleware. metrics and logger may be nil.
func New(cfg Config, sessions fna.SessionSource, renderer Renderer, metrics *monitoring.Metrics, logger *log.Logger) *Server {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = "/auth"
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 12 * time.Hour
	}
	if metrics == nil {
		metrics = monitoring.NewMetrics()
	}
	if logger == nil {
		logger = log.New(os.Stderr, "FNA: ", log.LstdFlags)
	}
	s := &Server{cfg: cfg, sessions: sessions, renderer: renderer, metrics: metrics, logger: logger}
	s.engine = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.LoggerWithWriter(s.logger.Writer()), gin.Recovery())
	r.Use(SentryMiddleware(), PrometheusMetrics(s.metrics), s.ErrorHandler())
	r.SetHTMLTemplate(template.Must(template.New("pages").Funcs(s.templateFuncs()).Parse(pageTemplates)))

	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	r.GET("/auth", s.handleAuth)

	guarded := r.Group("/")
	guarded.Use(RequireSession(s.cfg.AnonKey, s.cfg.AuthURL))
	guarded.GET("/dashboard", s.handleDashboard)
	guarded.GET("/dashboard/:id", s.handleDashboardDetail)
	guarded.GET("/fna/:id/pdf", s.handlePDF)
	guarded.GET("/export/sessions.xlsx", s.handleExportSessions)
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("Server is running on %s", s.cfg.Addr)
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
		s.logger.Printf("Shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
