// Package server sets up the HTTP server exposing the decision pipeline.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/jlowen/riskgate/internal/circuitbreaker"
	"github.com/jlowen/riskgate/internal/config"
	"github.com/jlowen/riskgate/internal/decision"
	"github.com/jlowen/riskgate/internal/feature"
	"github.com/jlowen/riskgate/internal/idgen"
	"github.com/jlowen/riskgate/internal/logging"
	"github.com/jlowen/riskgate/internal/metrics"
	"github.com/jlowen/riskgate/internal/model"
	"github.com/jlowen/riskgate/internal/narrative"
	"github.com/jlowen/riskgate/internal/ratelimit"
	"github.com/jlowen/riskgate/internal/security"
	"github.com/jlowen/riskgate/internal/store"
)

// maxRequestBytes limits request body size (1MB).
const maxRequestBytes = 1 << 20

// Server wraps the HTTP server and pipeline dependencies.
type Server struct {
	cfg     *config.Config
	engine  *decision.Engine
	store   store.Store
	db      *sql.DB // nil if using in-memory
	router  *gin.Engine
	httpSrv *http.Server
	logger  *slog.Logger
	limiter *ratelimit.Limiter // nil if rate limiting is disabled

	// Health state
	ready   atomic.Bool
	healthy atomic.Bool
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithEngine overrides the decision engine (used in tests to inject
// capability doubles).
func WithEngine(engine *decision.Engine) Option {
	return func(s *Server) {
		s.engine = engine
	}
}

// WithStore overrides the decision store.
func WithStore(st store.Store) Option {
	return func(s *Server) {
		s.store = st
	}
}

// New creates a server with the pipeline wired from configuration.
// Screening, model, and narrative capabilities default to the deterministic
// stubs; swap them by constructing the engine yourself and passing WithEngine.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	if s.store == nil {
		if cfg.DatabaseURL != "" {
			db, err := sql.Open("postgres", cfg.DatabaseURL)
			if err != nil {
				return nil, fmt.Errorf("open database: %w", err)
			}
			if err := db.Ping(); err != nil {
				return nil, fmt.Errorf("connect to database: %w", err)
			}
			s.db = db
			s.store = store.NewPostgresStore(db)
			s.logger.Info("using postgres decision store")
		} else {
			s.store = store.NewMemoryStore()
			s.logger.Info("using in-memory decision store (set DATABASE_URL for persistence)")
		}
	}

	if s.engine == nil {
		engine, err := buildEngine(cfg, s.store, s.logger)
		if err != nil {
			return nil, fmt.Errorf("build engine: %w", err)
		}
		s.engine = engine
	}

	s.router = gin.New()
	s.setupMiddleware()
	s.setupRoutes()
	s.healthy.Store(true)

	return s, nil
}

// buildEngine wires the default capability stack for a configuration.
func buildEngine(cfg *config.Config, recorder decision.Recorder, logger *slog.Logger) (*decision.Engine, error) {
	breaker := circuitbreaker.New(5, 30*time.Second)

	features := feature.ZeroProviders().
		WithRetry(cfg.RetryAttempts, cfg.RetryBaseDelay).
		WithLogger(logger)

	fraud := narrative.Guard(
		narrative.NewStubEvaluator(cfg.FraudModel, "fraud"),
		decision.CapabilityFraudEval, cfg.AllowedCorridors).
		WithRetry(cfg.RetryAttempts, cfg.RetryBaseDelay).
		WithBreaker(breaker)

	aml := narrative.Guard(
		narrative.NewStubEvaluator(cfg.AMLModel, "AML"),
		decision.CapabilityAMLEval, cfg.AllowedCorridors).
		WithRetry(cfg.RetryAttempts, cfg.RetryBaseDelay).
		WithBreaker(breaker)

	explainer := narrative.GuardExplainer(
		narrative.NewStubExplainer(cfg.ExplainModel), cfg.AllowedCorridors).
		WithRetry(cfg.RetryAttempts, cfg.RetryBaseDelay).
		WithBreaker(breaker)

	return decision.NewEngine(decision.Deps{
		Features:  features,
		Scorer:    model.NewStubScorer(""),
		Fraud:     fraud,
		AML:       aml,
		Explainer: explainer,
		Recorder:  recorder,
		Versions: decision.Versions{
			Rules:    cfg.RulesVersion,
			Policy:   cfg.PolicyVersion,
			Features: cfg.FeaturesVersion,
		},
		Logger:            logger,
		CapabilityTimeout: cfg.CapabilityTimeout,
		RetryAttempts:     cfg.RetryAttempts,
		RetryBaseDelay:    cfg.RetryBaseDelay,
	})
}

// BuildEngine exposes the default capability wiring for the batch CLI.
func BuildEngine(cfg *config.Config, recorder decision.Recorder, logger *slog.Logger) (*decision.Engine, error) {
	return buildEngine(cfg, recorder, logger)
}

func (s *Server) setupMiddleware() {
	// Recovery with logging
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logging.L(c.Request.Context()).Error("panic recovered",
			"error", recovered,
			"path", c.Request.URL.Path,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "An unexpected error occurred",
		})
	}))

	// Security headers
	s.router.Use(security.HeadersMiddleware())

	// Request size limit (1MB)
	s.router.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBytes)
		c.Next()
	})

	// Rate limiting
	if s.cfg.RateLimitRPM > 0 {
		s.limiter = ratelimit.New(ratelimit.Config{
			RequestsPerMinute: s.cfg.RateLimitRPM,
			BurstSize:         s.cfg.RateLimitBurst,
			CleanupInterval:   time.Minute,
		})
		s.router.Use(s.limiter.Middleware())
	}

	// Prometheus metrics
	s.router.Use(metrics.Middleware())

	// Request trace ID
	s.router.Use(s.traceIDMiddleware())

	// Logging
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) traceIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Honor an upstream trace ID (from load balancer, etc.)
		traceID := c.GetHeader("X-Trace-ID")
		if traceID == "" {
			traceID = idgen.WithPrefix("trace_")
		}

		ctx := logging.WithTraceID(c.Request.Context(), traceID)
		ctx = logging.WithLogger(ctx, s.logger)
		c.Request = c.Request.WithContext(ctx)

		c.Header("X-Trace-ID", traceID)
		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		logger := logging.L(c.Request.Context())

		// Log level based on status code
		switch {
		case status >= 500:
			logger.Error("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
				"client_ip", c.ClientIP(),
			)
		case status >= 400:
			logger.Warn("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		default:
			logger.Info("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		}
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthHandler)
	s.router.GET("/health/live", s.livenessHandler)
	s.router.GET("/health/ready", s.readinessHandler)
	s.router.GET("/metrics", metrics.Handler())

	v1 := s.router.Group("/v1")
	{
		v1.POST("/decisions", s.scoreHandler)
		v1.GET("/decisions/:transaction_id", s.listDecisionsHandler)
	}
}

// Run starts the server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("starting server", "port", s.cfg.Port, "env", s.cfg.Env)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Mark as ready after brief delay for startup
	go func() {
		time.Sleep(100 * time.Millisecond)
		s.ready.Store(true)
		s.logger.Info("server ready")
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		s.logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	s.ready.Store(false)
	s.logger.Info("starting graceful shutdown")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	if s.limiter != nil {
		s.limiter.Stop()
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("database close error", "error", err)
		} else {
			s.logger.Info("database connection closed")
		}
	}

	s.logger.Info("server stopped")
	return nil
}

// Router returns the gin router for testing.
func (s *Server) Router() *gin.Engine {
	return s.router
}
