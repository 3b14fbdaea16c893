package ipc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, srv Server) (string, func()) {
	t.Helper()

	socketPath := filepath.Join(t.TempDir(), "rehearse.sock")
	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, listener) }()

	return socketPath, func() {
		cancel()
		require.NoError(t, <-done)
	}
}

func TestCallRoundTrip(t *testing.T) {
	socketPath, stop := startServer(t, Server{Handler: HandlerFunc(func(_ context.Context, req Request) Response {
		require.Equal(t, "status", req.Command)
		return Response{OK: true, State: "greeting", Message: "ok"}
	})})
	defer stop()

	resp, err := Client{Path: socketPath}.Call(context.Background(), Request{Command: "status"})
	require.NoError(t, err)
	require.True(t, resp.OK)
	require.Equal(t, "greeting", resp.State)
	require.Equal(t, "ok", resp.Message)
}

func TestCallCarriesTextArgsAndData(t *testing.T) {
	socketPath, stop := startServer(t, Server{Handler: HandlerFunc(func(_ context.Context, req Request) Response {
		return Response{OK: true, State: "awaiting_answer"}.WithData(map[string]string{
			"text": req.Text,
			"type": req.Arg("type"),
			"none": req.Arg("missing"),
		})
	})})
	defer stop()

	resp, err := Client{Path: socketPath, Timeout: time.Second}.Call(context.Background(), Request{
		Command: "answer",
		Text:    "i led the migration",
		Args:    map[string]string{"type": "hr"},
	})
	require.NoError(t, err)
	require.True(t, resp.OK)

	var payload map[string]string
	require.NoError(t, resp.DecodeData(&payload))
	require.Equal(t, "i led the migration", payload["text"])
	require.Equal(t, "hr", payload["type"])
	require.Empty(t, payload["none"])
}

func TestCallCarriesLargeTranscripts(t *testing.T) {
	long := strings.Repeat("a", 256<<10)
	socketPath, stop := startServer(t, Server{Handler: HandlerFunc(func(_ context.Context, _ Request) Response {
		return Response{OK: true}.WithData([]string{long})
	})})
	defer stop()

	resp, err := Client{Path: socketPath, Timeout: time.Second}.Call(context.Background(), Request{Command: "transcript"})
	require.NoError(t, err)

	var got []string
	require.NoError(t, resp.DecodeData(&got))
	require.Equal(t, []string{long}, got)
}

func TestCallReportsNoOwner(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "rehearse.sock")
	_, err := Client{Path: missing}.Call(context.Background(), Request{Command: "status"})
	require.ErrorIs(t, err, ErrNoOwner)

	stale := filepath.Join(t.TempDir(), "rehearse.sock")
	require.NoError(t, os.WriteFile(stale, []byte("stale"), 0o600))
	_, err = Client{Path: stale}.Call(context.Background(), Request{Command: "status"})
	require.ErrorIs(t, err, ErrNoOwner)
}

func TestCallDecodeResponseError(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "rehearse.sock")
	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	go func() {
		conn, acceptErr := listener.Accept()
		if acceptErr != nil {
			return
		}
		defer conn.Close()
		_, _ = bufio.NewReader(conn).ReadBytes('\n')
		_, _ = conn.Write([]byte("not-json\n"))
	}()

	_, err = Client{Path: socketPath}.Call(context.Background(), Request{Command: "status"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode response")
	require.NotErrorIs(t, err, ErrNoOwner)
}

func TestCallReadResponseError(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "rehearse.sock")
	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	go func() {
		conn, acceptErr := listener.Accept()
		if acceptErr != nil {
			return
		}
		_, _ = bufio.NewReader(conn).ReadBytes('\n')
		_ = conn.Close()
	}()

	_, err = Client{Path: socketPath}.Call(context.Background(), Request{Command: "status"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "read response")
}

func TestServeRejectsMalformedRequests(t *testing.T) {
	socketPath, stop := startServer(t, Server{Handler: HandlerFunc(func(_ context.Context, _ Request) Response {
		return Response{OK: true}
	})})
	defer stop()

	cases := map[string]struct {
		payload []byte
		want    string
	}{
		"not json":  {payload: []byte("not-json\n"), want: "decode request"},
		"too large": {payload: append(bytes.Repeat([]byte("x"), MaxRequestBytes+1), '\n'), want: "read request"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			conn, err := net.Dial("unix", socketPath)
			require.NoError(t, err)
			defer conn.Close()

			go func() { _, _ = conn.Write(tc.payload) }()

			line, err := bufio.NewReader(conn).ReadBytes('\n')
			require.NoError(t, err)

			var resp Response
			require.NoError(t, json.Unmarshal(line, &resp))
			require.False(t, resp.OK)
			require.Contains(t, resp.Error, tc.want)
		})
	}
}

func TestServeLogsHandledCommands(t *testing.T) {
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	socketPath, stop := startServer(t, Server{
		Logger: logger,
		Handler: HandlerFunc(func(_ context.Context, req Request) Response {
			return Response{OK: false, State: "idle", Error: "unknown command: " + req.Command}
		}),
	})

	resp, err := Client{Path: socketPath}.Call(context.Background(), Request{Command: "dance"})
	require.NoError(t, err)
	require.False(t, resp.OK)
	stop()

	require.Contains(t, logBuf.String(), `"msg":"ipc request"`)
	require.Contains(t, logBuf.String(), `"command":"dance"`)
	require.Contains(t, logBuf.String(), `"ok":false`)
}

func TestServeStopsOnListenerClose(t *testing.T) {
	listener, err := net.Listen("unix", filepath.Join(t.TempDir(), "rehearse.sock"))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- Serve(context.Background(), listener, HandlerFunc(func(context.Context, Request) Response {
			return Response{OK: true}
		}))
	}()

	require.NoError(t, listener.Close())
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after listener close")
	}
}

func TestAlive(t *testing.T) {
	socketPath, stop := startServer(t, Server{Handler: HandlerFunc(func(_ context.Context, req Request) Response {
		if req.Command == "status" {
			return Response{OK: true, State: "idle"}
		}
		return Response{OK: false, Error: "bad"}
	})})

	client := Client{Path: socketPath, Timeout: 200 * time.Millisecond}
	alive, err := client.Alive(context.Background())
	require.NoError(t, err)
	require.True(t, alive)

	stop()

	alive, err = client.Alive(context.Background())
	require.NoError(t, err)
	require.False(t, alive)
}

func TestResponseWithDataEncodingFailure(t *testing.T) {
	resp := Response{OK: true}.WithData(make(chan int))
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "encode response data")

	var v any
	require.NoError(t, Response{}.DecodeData(&v))
	require.Nil(t, v)
}
