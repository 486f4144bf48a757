package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
)

// Server exposes a Set on /metrics.
type Server struct {
	srv *http.Server
}

// NewServer builds a listener for addr. It does not start listening.
func NewServer(addr string, set *Set) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", set.Handler())
	return &Server{srv: &http.Server{Addr: addr, Handler: mux}}
}

// Start begins serving in the background. Listener errors are logged;
// a failed metrics endpoint must not take the monitor down with it.
func (s *Server) Start() {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "[clusterpulse] warning: metrics listener: %v\n", err)
		}
	}()
}

// Stop shuts the listener down, honoring the context deadline.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
