package httpd

import (
	"net"
	"time"

	"github.com/google/uuid"
)

// ConnContext carries per-connection state through the handler chain.
// The handler owns the connection for its full lifetime; the server closes
// it after the chain returns.
type ConnContext struct {
	// ID uniquely identifies the connection in logs.
	ID string

	// Conn is the accepted connection.
	Conn net.Conn

	// RemoteAddr is the peer address.
	RemoteAddr net.Addr

	// Start is when the worker began handling the connection.
	Start time.Time

	// Path and Status are filled in by the HTTP handler for middleware
	// (access logging, metrics) to read after the handler returns.
	Path   string
	Status string
}

// NewConnID generates a unique connection identifier.
func NewConnID() string {
	return uuid.New().String()
}
