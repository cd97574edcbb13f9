package panel

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/autopeer-io/transitpanel/pkg/log"
)

// ReadinessFunc reports whether the panel can currently reach the network.
type ReadinessFunc func() bool

// Server exposes health probes and metrics over HTTP.
type Server struct {
	server          *http.Server
	shutdownTimeout time.Duration
}

func NewServer(addr string, shutdownTimeout time.Duration, metrics *Metrics, ready ReadinessFunc) *Server {
	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(metrics, ready),
			ReadHeaderTimeout: 5 * time.Second,
		},
		shutdownTimeout: shutdownTimeout,
	}
}

// NewRouter builds the /healthz, /readyz and /metrics routes.
func NewRouter(metrics *Metrics, ready ReadinessFunc) *mux.Router {
	r := mux.NewRouter()

	// Liveness: the process is up.
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	// Readiness: the WLAN association is up.
	r.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if ready != nil && !ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("wlan disconnected"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	if metrics != nil {
		r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	}
	return r
}

// Start serves until ctx is canceled, then shuts the server down.
func (s *Server) Start(ctx context.Context) error {
	log.Info("Starting HTTP Server", "addr", s.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}
