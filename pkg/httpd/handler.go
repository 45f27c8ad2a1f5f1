package httpd

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"
)

// ConnectionHandler handles one accepted connection. It owns the connection
// for its full lifetime; a returned error is contained by the worker that
// ran it (logged, counted) and never propagates further.
type ConnectionHandler func(*ConnContext) error

// Middleware wraps a ConnectionHandler.
type Middleware func(ConnectionHandler) ConnectionHandler

// NewHTTPHandler returns the connection handler of the educational server:
// read one HTTP request line, resolve it against the route table, write the
// canned response, done. No headers beyond Content-Length, no keep-alive;
// the connection is closed after a single response.
func NewHTTPHandler(router *Router) ConnectionHandler {
	return func(cctx *ConnContext) error {
		reader := bufio.NewReader(cctx.Conn)
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read request line: %w", err)
		}
		line = strings.TrimRight(line, "\r\n")

		method, path, ok := parseRequestLine(line)
		if !ok {
			return fmt.Errorf("malformed request line %q", line)
		}
		cctx.Path = path

		// Only GET is served; anything else falls through to the 404 route,
		// same as an unknown path.
		var route Route
		if method == "GET" {
			route = router.Resolve(path)
		} else {
			route = router.NotFound()
		}
		cctx.Status = route.Status

		if route.Delay > 0 {
			time.Sleep(route.Delay)
		}

		return writeResponse(cctx.Conn, route.Status, route.Body)
	}
}

// parseRequestLine splits "METHOD PATH VERSION" into its parts.
func parseRequestLine(line string) (method, path string, ok bool) {
	parts := strings.Fields(line)
	if len(parts) != 3 {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// writeResponse writes the full response in one Write call so a concurrent
// read on the client side never observes a partial status line.
func writeResponse(w io.Writer, status string, body []byte) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "HTTP/1.1 %s\r\nContent-Length: %d\r\n\r\n", status, len(body))
	buf.Write(body)

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}
