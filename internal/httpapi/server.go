// Package httpapi exposes the dispatch and tool-orchestration engine over
// HTTP: the streaming agent endpoint and conversation management.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ragagent/ragagent/internal/agent"
	"github.com/ragagent/ragagent/internal/agent/routing"
	"github.com/ragagent/ragagent/internal/observability"
	"github.com/ragagent/ragagent/internal/storage"
	"github.com/ragagent/ragagent/internal/stream"
)

// Config configures the HTTP surface.
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	ContextWindow   int
	StreamPace      time.Duration
}

// Server wires the HTTP surface to the model router, tool registry,
// conversation store, and agent loop. A fresh *agent.Loop is built per
// request because the router selects the provider per request (C7); the
// loop itself is cheap to construct and carries no state across turns.
type Server struct {
	config     Config
	auth       Authenticator
	store      storage.MessageStore
	router     *routing.Router
	tools      *agent.ToolRegistry
	loopConfig agent.LoopConfig
	logger     *observability.Logger
	metrics    *observability.Metrics

	httpServer   *http.Server
	httpListener net.Listener
}

// NewServer constructs a Server. metrics may be nil, in which case
// instrumentation is simply skipped.
func NewServer(cfg Config, auth Authenticator, store storage.MessageStore, router *routing.Router, tools *agent.ToolRegistry, loopConfig agent.LoopConfig, logger *observability.Logger, metrics *observability.Metrics) *Server {
	if cfg.ContextWindow <= 0 {
		cfg.ContextWindow = 10
	}
	if cfg.StreamPace <= 0 {
		cfg.StreamPace = stream.DefaultPace
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 15 * time.Second
	}
	router.SetMetrics(metrics)
	tools.SetMetrics(metrics)
	return &Server{config: cfg, auth: auth, store: store, router: router, tools: tools, loopConfig: loopConfig, logger: logger, metrics: metrics}
}

// Handler builds the routed mux. Exposed separately from Start so tests can
// exercise handlers with httptest without binding a socket.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", s.instrument("/healthz", s.handleHealthz))
	mux.HandleFunc("POST /agent/stream", s.instrument("/agent/stream", s.handleStream))
	mux.HandleFunc("GET /agent/history/{conversationId}", s.instrument("/agent/history/{conversationId}", s.handleHistory))
	mux.HandleFunc("GET /agent/conversations", s.instrument("/agent/conversations", s.handleListConversations))
	mux.HandleFunc("DELETE /agent/conversations/{conversationId}", s.instrument("/agent/conversations/{conversationId}", s.handleDeleteConversation))
	return mux
}

// instrument wraps a handler with request logging and metrics, recording
// the route pattern rather than the raw path so conversation/request ids
// never become a metric label (unbounded cardinality).
func (s *Server) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusCapturingWriter{ResponseWriter: w, status: http.StatusOK}
		next(sw, r)
		duration := time.Since(start)

		status := strconv.Itoa(sw.status)
		s.metrics.RecordHTTPRequest(r.Method, route, status, duration.Seconds())
		if s.logger != nil {
			s.logger.Info(r.Context(), "http request", "method", r.Method, "route", route, "status", sw.status, "duration_ms", duration.Milliseconds())
		}
	}
}

// statusCapturingWriter records the status code passed to WriteHeader so it
// can be attached to the request-duration metric and log line after the
// handler returns.
type statusCapturingWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusCapturingWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Flush lets the wrapped writer still satisfy http.Flusher, which
// stream.NewWriter requires for SSE responses.
func (w *statusCapturingWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Start binds a listener and serves in the background. Errors encountered
// after Serve begins are logged rather than returned, matching the
// fire-and-forget lifecycle of a long-running server goroutine.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("http listen: %w", err)
	}

	s.httpServer = &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.httpListener = listener

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			if s.logger != nil {
				s.logger.Error(ctx, "http server error", "error", err)
			}
		}
	}()

	if s.logger != nil {
		s.logger.Info(ctx, "http server started", "addr", s.config.Addr)
	}
	return nil
}

// Stop gracefully drains in-flight requests within the configured timeout.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
