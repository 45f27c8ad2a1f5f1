package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler returns an HTTP handler exposing the registry in Prometheus text
// format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Endpoint serves /metrics on a dedicated admin listener, separate from the
// educational TCP server so scrapes never compete with pooled connections.
type Endpoint struct {
	srv *http.Server
}

// NewEndpoint creates an Endpoint listening on addr once started.
func (m *Metrics) NewEndpoint(addr string) *Endpoint {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return &Endpoint{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start serves the endpoint; it blocks until Shutdown is called or the
// listener fails. A clean shutdown returns nil.
func (e *Endpoint) Start() error {
	err := e.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the endpoint gracefully.
func (e *Endpoint) Shutdown(ctx context.Context) error {
	return e.srv.Shutdown(ctx)
}
