package transport

import (
	"context"
	"io"
	"net"
	"time"
)

// SocketFetcher sends a query line to the HAProxy unix control socket and
// reads until the peer closes the connection.
type SocketFetcher struct {
	path    string
	timeout time.Duration
}

// NewSocketFetcher returns a fetcher for the socket at path.
func NewSocketFetcher(path string, timeout time.Duration) *SocketFetcher {
	return &SocketFetcher{path: path, timeout: timeout}
}

func (f *SocketFetcher) Fetch(ctx context.Context, query string) (string, error) {
	dialer := net.Dialer{Timeout: f.timeout}
	conn, err := dialer.DialContext(ctx, "unix", f.path)
	if err != nil {
		return "", &Error{Op: "dial", Endpoint: f.path, Err: err}
	}
	defer conn.Close()

	deadline := time.Now().Add(f.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return "", &Error{Op: "deadline", Endpoint: f.path, Err: err}
	}

	if _, err := io.WriteString(conn, query+"\n"); err != nil {
		return "", &Error{Op: "write", Endpoint: f.path, Err: err}
	}

	data, err := io.ReadAll(conn)
	if err != nil {
		return "", &Error{Op: "read", Endpoint: f.path, Err: err}
	}

	return string(data), nil
}
