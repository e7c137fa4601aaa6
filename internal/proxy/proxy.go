// Package proxy implements the HTTP server that forwards every request to
// the backend application and injects the live-reload client script into
// HTML responses.
package proxy

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/LukasKalbertodt/watchboi/internal/metrics"
)

// Server forwards all inbound requests to a fixed backend address. It is
// stateless across requests: only the target address and the reload settings
// are captured at construction.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	client     *http.Client
	target     string
	reloadPort int
	autoReload bool
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewServer constructs the proxy server. target is the backend host:port;
// reloadPort is embedded into the injected client script.
func NewServer(
	addr, target string,
	reloadPort int,
	autoReload bool,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:     router,
		target:     target,
		reloadPort: reloadPort,
		autoReload: autoReload,
		logger:     logger,
		metrics:    m,
		client: &http.Client{
			// Redirects are passed through to the browser untouched.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
	router.Handle("/*", http.HandlerFunc(s.handleProxy))

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins serving. It blocks until the listener fails or Shutdown is
// called.
func (s *Server) Start() error {
	s.logger.Info("proxy listening", "addr", s.httpServer.Addr, "target", s.target)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	targetURL := &url.URL{
		Scheme:   "http",
		Host:     s.target,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, targetURL.String(), r.Body)
	if err != nil {
		s.respondBadGateway(w, targetURL, err)
		return
	}
	req.Header = r.Header.Clone()

	resp, err := s.client.Do(req)
	if err != nil {
		s.respondBadGateway(w, targetURL, err)
		return
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if s.autoReload && strings.HasPrefix(contentType, "text/html") {
		s.forwardInjected(w, resp, targetURL)
		return
	}

	copyHeader(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		s.logger.Debug("copying response body aborted", "uri", targetURL, "err", err)
	}
	s.countRequest(resp.StatusCode)
}

// forwardInjected buffers the full HTML body, embeds the reload script and
// corrects the Content-Length header to the new byte length.
func (s *Server) forwardInjected(w http.ResponseWriter, resp *http.Response, targetURL *url.URL) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		s.respondBadGateway(w, targetURL, err)
		return
	}

	injected := Inject(body, s.reloadPort)

	copyHeader(w.Header(), resp.Header)
	w.Header().Set("Content-Length", strconv.Itoa(len(injected)))
	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(injected); err != nil {
		s.logger.Debug("writing injected body aborted", "uri", targetURL, "err", err)
	}

	if s.metrics != nil {
		s.metrics.Injections.Inc()
	}
	s.countRequest(resp.StatusCode)
}

func (s *Server) respondBadGateway(w http.ResponseWriter, targetURL *url.URL, err error) {
	s.logger.Warn("failed to reach backend", "uri", targetURL.String(), "err", err)

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusBadGateway)
	fmt.Fprintf(w, "failed to reach %s\nError:\n\n%v\n", targetURL, err)
	s.countRequest(http.StatusBadGateway)
}

func (s *Server) countRequest(code int) {
	if s.metrics != nil {
		s.metrics.ProxyRequests.WithLabelValues(strconv.Itoa(code)).Inc()
	}
}

func copyHeader(dst, src http.Header) {
	for key, values := range src {
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}
