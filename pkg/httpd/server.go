// Package httpd implements a deliberately minimal HTTP-over-TCP server: an
// accept loop that hands every connection to a bounded worker pool, and a
// handler that serves canned responses keyed on the request line. It exists
// to demonstrate the pool, not to be a production HTTP server.
package httpd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fluxorio/poolserve/pkg/logging"
	"github.com/fluxorio/poolserve/pkg/metrics"
	"github.com/fluxorio/poolserve/pkg/pool"
)

// ServerConfig configures the server.
type ServerConfig struct {
	Addr string

	// Workers is the fixed worker pool size; QueueSize bounds how many
	// accepted connections may wait for a free worker before new ones are
	// rejected.
	Workers   int
	QueueSize int

	// Per-connection deadlines, measured from the moment a worker picks the
	// connection up.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultServerConfig returns a sensible default configuration.
func DefaultServerConfig(addr string) *ServerConfig {
	if addr == "" {
		addr = ":7878"
	}
	return &ServerConfig{
		Addr:         addr,
		Workers:      4,
		QueueSize:    64,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// ServerCounters is a snapshot of the server's connection counters.
type ServerCounters struct {
	TotalAccepted       int64
	RejectedConnections int64
	HandledConnections  int64
	ErrorConnections    int64
	Pool                pool.Stats
}

// Server accepts TCP connections and submits each one as a task to a bounded
// worker pool. Data flow: accept loop -> pool queue -> worker -> connection
// handler -> response write -> close.
type Server struct {
	addr   string
	config *ServerConfig

	mu       sync.RWMutex
	listener net.Listener
	stopping int32

	pool   pool.Pool
	logger logging.Logger

	handler     ConnectionHandler
	middlewares []Middleware
	effective   ConnectionHandler
	metrics     *metrics.Metrics

	// Counters (atomic for thread-safety)
	totalAccepted       int64
	rejectedConnections int64
	handledConnections  int64
	errorConnections    int64
}

func defaultConnectionHandler(cctx *ConnContext) error {
	// Default: do nothing. Connection is closed by the server.
	return nil
}

// NewServer creates a Server and its worker pool. All pool workers are live
// before NewServer returns; construction fails with pool.ErrInvalidConfig
// when cfg.Workers < 1.
func NewServer(cfg *ServerConfig, logger logging.Logger) (*Server, error) {
	if cfg == nil {
		cfg = DefaultServerConfig("")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":7878"
	}
	if logger == nil {
		logger = logging.New(logging.LevelInfo)
	}

	p, err := pool.New(pool.Config{
		Workers:   cfg.Workers,
		QueueSize: cfg.QueueSize,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	s := &Server{
		addr:    cfg.Addr,
		config:  cfg,
		pool:    p,
		logger:  logger,
		handler: defaultConnectionHandler,
	}
	s.effective = s.handler
	return s, nil
}

// SetHandler sets the connection handler (fail-fast on nil).
func (s *Server) SetHandler(handler ConnectionHandler) {
	if handler == nil {
		panic("httpd: handler cannot be nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = handler
	s.rebuildHandlerLocked()
}

// Use adds middleware. Call before Start; fail-fast on nil middleware.
func (s *Server) Use(mw ...Middleware) {
	if len(mw) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range mw {
		if m == nil {
			panic("httpd: middleware cannot be nil")
		}
		s.middlewares = append(s.middlewares, m)
	}
	s.rebuildHandlerLocked()
}

func (s *Server) rebuildHandlerLocked() {
	h := s.handler
	// Last added runs outermost.
	for i := len(s.middlewares) - 1; i >= 0; i-- {
		h = s.middlewares[i](h)
	}
	s.effective = h
}

// SetMetrics enables Prometheus connection counters.
func (s *Server) SetMetrics(m *metrics.Metrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = m
}

// Pool exposes the worker pool, e.g. for metrics observation.
func (s *Server) Pool() pool.Pool {
	return s.pool
}

// ListeningAddr returns the actual listening address (useful when Addr is
// ":0"). Empty when not listening.
func (s *Server) ListeningAddr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start binds the listener and runs the accept loop. It blocks until Stop is
// called or the listener fails; a stop-initiated exit returns nil.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.logger.Infof("listening on %s with %d workers (queue %d)",
		ln.Addr(), s.pool.Workers(), s.config.QueueSize)

	for {
		conn, err := ln.Accept()
		if err != nil {
			// Stop closes the listener to break Accept; treat that as a
			// clean shutdown.
			if atomic.LoadInt32(&s.stopping) == 1 {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		atomic.AddInt64(&s.totalAccepted, 1)
		s.countAccepted()
		s.enqueueConn(conn)
	}
}

// enqueueConn wraps the connection in a task owning it and submits it to the
// pool. A rejected submission (queue full or pool stopped) closes the
// connection immediately; the client observes a closed connection, never a
// hang.
func (s *Server) enqueueConn(conn net.Conn) {
	task := pool.NewNamedTask("conn-"+conn.RemoteAddr().String(), func(ctx context.Context) error {
		return s.handleConn(conn)
	})

	if err := s.pool.Submit(task); err != nil {
		atomic.AddInt64(&s.rejectedConnections, 1)
		s.countRejected()
		s.logger.Warnf("connection from %s rejected: %v", conn.RemoteAddr(), err)
		_ = conn.Close()
	}
}

// handleConn runs on a pool worker. Errors returned here are the contained
// per-task failures of the pool contract: the worker logs them and moves on.
func (s *Server) handleConn(conn net.Conn) error {
	defer conn.Close()

	if s.config.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	}
	if s.config.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	}

	cctx := &ConnContext{
		ID:         NewConnID(),
		Conn:       conn,
		RemoteAddr: conn.RemoteAddr(),
		Start:      time.Now(),
	}

	s.mu.RLock()
	h := s.effective
	s.mu.RUnlock()

	atomic.AddInt64(&s.handledConnections, 1)
	s.countHandled()

	if err := h(cctx); err != nil {
		atomic.AddInt64(&s.errorConnections, 1)
		return fmt.Errorf("conn %s from %s: %w", cctx.ID, cctx.RemoteAddr, err)
	}
	return nil
}

// Stop closes the listener, then drains the pool: queued connections are
// still served, no new ones are accepted, and Stop returns once every worker
// has exited (up to ctx deadline). Stop is idempotent.
func (s *Server) Stop(ctx context.Context) error {
	atomic.StoreInt32(&s.stopping, 1)

	s.mu.Lock()
	ln := s.listener
	s.listener = nil
	s.mu.Unlock()

	if ln != nil {
		_ = ln.Close()
	}

	return s.pool.Shutdown(ctx)
}

// Counters returns a snapshot of the server's connection counters.
func (s *Server) Counters() ServerCounters {
	return ServerCounters{
		TotalAccepted:       atomic.LoadInt64(&s.totalAccepted),
		RejectedConnections: atomic.LoadInt64(&s.rejectedConnections),
		HandledConnections:  atomic.LoadInt64(&s.handledConnections),
		ErrorConnections:    atomic.LoadInt64(&s.errorConnections),
		Pool:                s.pool.Stats(),
	}
}

func (s *Server) countAccepted() {
	s.mu.RLock()
	m := s.metrics
	s.mu.RUnlock()
	if m != nil {
		m.ConnectionsAccepted.Inc()
	}
}

func (s *Server) countRejected() {
	s.mu.RLock()
	m := s.metrics
	s.mu.RUnlock()
	if m != nil {
		m.ConnectionsRejected.Inc()
	}
}

func (s *Server) countHandled() {
	s.mu.RLock()
	m := s.metrics
	s.mu.RUnlock()
	if m != nil {
		m.ConnectionsHandled.Inc()
	}
}
