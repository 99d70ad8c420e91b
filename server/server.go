// Package server exposes a workflow session over HTTP for dashboards: agent
// listing, message and task polling, prompt submission, reset and metrics.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/agentcrew/logging"
	"github.com/hupe1980/agentcrew/session"
	"github.com/hupe1980/agentcrew/workspace"
)

// Options configures a Server.
type Options struct {
	Addr       string
	EnableCORS bool
	Debug      bool
	// Gatherer backs /metrics; defaults to the Prometheus default gatherer.
	Gatherer     prometheus.Gatherer
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Logger       logging.Logger
}

// Server is the HTTP bridge.
type Server struct {
	store  *session.InMemoryStore
	ws     *workspace.Workspace
	engine *gin.Engine
	opts   Options

	// runCtx outlives requests so workflows started by a request keep running.
	runCtx    context.Context
	cancelRun context.CancelFunc
	startTime time.Time
}

// New creates the server and registers its routes.
func New(store *session.InMemoryStore, ws *workspace.Workspace, optFns ...func(o *Options)) *Server {
	opts := Options{
		Addr:         ":8000",
		EnableCORS:   true,
		Gatherer:     prometheus.DefaultGatherer,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	if !opts.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(opts.Logger))

	if opts.EnableCORS {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Requested-With"}
		engine.Use(cors.New(corsConfig))
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		store:     store,
		ws:        ws,
		engine:    engine,
		opts:      opts,
		runCtx:    ctx,
		cancelRun: cancel,
		startTime: time.Now(),
	}
	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/agents", s.handleAgents)
	s.engine.GET("/messages", s.handleMessages)
	s.engine.GET("/tasks", s.handleTasks)
	s.engine.GET("/files", s.handleFiles)
	s.engine.GET("/status", s.handleStatus)
	s.engine.POST("/submit-prompt", s.handleSubmitPrompt)
	s.engine.POST("/reset", s.handleReset)
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{})))
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// ListenAndServe serves until ctx is done, then shuts down gracefully and
// cancels running workflows.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.opts.Logger.Info("server.start", "addr", s.opts.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		s.cancelRun()
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.cancelRun()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.opts.Logger.Info("server.shutdown")
	return srv.Shutdown(shutdownCtx)
}

func requestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http.request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
