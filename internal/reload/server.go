// Package reload implements the live-reload signaling channel: a WebSocket
// accept loop feeding a shared connection registry, and a refresh consumer
// that closes every registered connection when a task pipeline finishes.
// Closing the connection is the whole protocol; the injected browser script
// treats an unexpected close as "reload the page".
package reload

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LukasKalbertodt/watchboi/internal/metrics"
)

// Server owns the reload listener and the refresh consumer.
type Server struct {
	httpServer *http.Server
	registry   *Registry
	upgrader   websocket.Upgrader

	// backendAddr, when non-empty, is polled for availability before each
	// reload signal so browsers do not reload into a still-restarting
	// backend.
	backendAddr string

	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewServer constructs the reload server. When m is non-nil and serveMetrics
// is set, the listener additionally exposes /metrics; the proxy port cannot
// carry that endpoint because every proxy request is forwarded verbatim.
func NewServer(
	addr, backendAddr string,
	registry *Registry,
	logger *slog.Logger,
	m *metrics.Metrics,
	serveMetrics bool,
) *Server {
	s := &Server{
		registry:    registry,
		backendAddr: backendAddr,
		logger:      logger,
		metrics:     m,
		upgrader: websocket.Upgrader{
			// The proxy and the reload listener are on different ports, so
			// every connection from an injected page is cross-origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleConnect)
	if serveMetrics && m != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}))
	}

	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
	return s
}

// Start begins accepting reload connections. It blocks until the listener
// fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("reload server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// handleConnect upgrades one inbound connection and registers it. A failed
// handshake only affects that connection.
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket handshake failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	s.registry.Add(conn)
	if s.metrics != nil {
		s.metrics.ReloadClients.Set(float64(s.registry.Len()))
	}
	s.logger.Debug("reload client connected", "remote", r.RemoteAddr)
}

// ConsumeRefresh processes refresh triggers one at a time, in arrival order.
// For each trigger it waits for the backend to come up (if configured) and
// then drops every registered connection. Draining an empty registry is a
// cheap no-op, so bursts of triggers coalesce harmlessly.
func (s *Server) ConsumeRefresh(ctx context.Context, refresh <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-refresh:
			if !ok {
				return
			}

			if s.backendAddr != "" {
				WaitForBackend(s.backendAddr, s.logger)
			}

			n := s.registry.DrainAndClose()
			if s.metrics != nil {
				s.metrics.ReloadSignals.Inc()
				s.metrics.ReloadClients.Set(0)
			}
			s.logger.Info("reload signal sent", "connections", n)
		}
	}
}
