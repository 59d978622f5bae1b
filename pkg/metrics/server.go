package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
)

// DefaultAddr is the default listen address for the metrics endpoint.
const DefaultAddr = ":9108"

// Handler serves the registry at GET /metrics in the Prometheus text
// format. Any other path or method gets a 404.
func Handler(registry *Registry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/metrics" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		fmt.Fprint(w, registry.PrometheusText())
	})
}

// Server exposes a Registry over HTTP in the background.
type Server struct {
	srv *http.Server
	log hclog.Logger
}

// NewServer builds a metrics server on addr. An empty addr uses
// DefaultAddr.
func NewServer(registry *Registry, addr string, log hclog.Logger) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           Handler(registry),
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log.Named("metrics"),
	}
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	s.log.Info("starting metrics endpoint", "addr", s.srv.Addr)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("metrics server stopped", "error", err)
		}
	}()
}

// Stop shuts the server down, waiting for in-flight scrapes.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("stopping metrics endpoint")
	return s.srv.Shutdown(ctx)
}
