package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
	"time"
)

// DefaultTimeout bounds one client round trip.
const DefaultTimeout = 220 * time.Millisecond

// MaxResponseBytes bounds one response line; transcripts travel in Data.
const MaxResponseBytes = 4 << 20

// ErrNoOwner reports that no process is listening on the socket.
var ErrNoOwner = errors.New("no owner listening")

// Client sends one request per connection to the owner listening on Path.
type Client struct {
	Path    string
	Timeout time.Duration
}

// Call writes req and reads a single response line.
func (c Client) Call(ctx context.Context, req Request) (Response, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", c.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ECONNREFUSED) {
			return Response{}, fmt.Errorf("%w at %s", ErrNoOwner, c.Path)
		}
		return Response{}, fmt.Errorf("dial %s: %w", c.Path, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return Response{}, fmt.Errorf("set deadline: %w", err)
		}
	}

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return Response{}, fmt.Errorf("encode request: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), MaxResponseBytes)
	if !scanner.Scan() {
		err := scanner.Err()
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return Response{}, fmt.Errorf("read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}

// Alive reports whether a responsive owner holds the socket. An owner that
// accepts but never answers is an error, not a dead owner.
func (c Client) Alive(ctx context.Context) (bool, error) {
	_, err := c.Call(ctx, Request{Command: "status"})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNoOwner):
		return false, nil
	default:
		return false, fmt.Errorf("probe socket: %w", err)
	}
}
