package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/rbright/rehearse/internal/logging"
)

// MaxRequestBytes bounds one request line.
const MaxRequestBytes = 64 << 10

// Handler processes one IPC command request.
type Handler interface {
	Handle(context.Context, Request) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// Server answers one request per connection.
type Server struct {
	Handler Handler
	Logger  *slog.Logger
}

// Serve runs a Server without request logging.
func Serve(ctx context.Context, listener net.Listener, handler Handler) error {
	return Server{Handler: handler}.Serve(ctx, listener)
}

// Serve accepts clients until ctx is cancelled or the listener is closed,
// then waits for in-flight requests to finish writing.
func (s Server) Serve(ctx context.Context, listener net.Listener) error {
	logger := logging.OrDiscard(s.Logger)

	stop := context.AfterFunc(ctx, func() { _ = listener.Close() })
	defer stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept IPC connection: %w", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer conn.Close()

			resp := s.respond(ctx, conn, logger)
			if err := json.NewEncoder(conn).Encode(resp); err != nil {
				logger.Debug("ipc write response failed", "error", err.Error())
			}
		}()
	}
}

func (s Server) respond(ctx context.Context, conn net.Conn, logger *slog.Logger) Response {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 1024), MaxRequestBytes)
	if !scanner.Scan() {
		err := scanner.Err()
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return Response{OK: false, Error: fmt.Sprintf("read request: %v", err)}
	}

	var req Request
	if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
		return Response{OK: false, Error: fmt.Sprintf("decode request: %v", err)}
	}

	started := time.Now()
	resp := s.Handler.Handle(ctx, req)
	logger.Debug("ipc request",
		"command", req.Command,
		"ok", resp.OK,
		"state", resp.State,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return resp
}
