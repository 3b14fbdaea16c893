package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

var ErrAlreadyRunning = errors.New("rehearse session already running")

// RuntimeSocketPath is the owner socket under XDG_RUNTIME_DIR.
func RuntimeSocketPath() (string, error) {
	runtimeDir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR"))
	if runtimeDir == "" {
		return "", errors.New("XDG_RUNTIME_DIR is not set")
	}
	return filepath.Join(runtimeDir, "rehearse.sock"), nil
}

// ClaimOptions tunes how Claim treats a socket file that is already present.
type ClaimOptions struct {
	ProbeTimeout time.Duration
	Retries      int
}

// Claim listens on path with owner-only permissions. A socket left behind
// by a dead owner is removed and the listen retried; a live owner yields
// ErrAlreadyRunning and the file is left alone.
func Claim(ctx context.Context, path string, opts ClaimOptions) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("ensure runtime socket dir: %w", err)
	}
	probe := Client{Path: path, Timeout: opts.ProbeTimeout}

	for attempt := 0; attempt <= opts.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 25 * time.Millisecond):
			}
		}

		listener, err := net.Listen("unix", path)
		if err == nil {
			if err := os.Chmod(path, 0o600); err != nil {
				_ = listener.Close()
				return nil, fmt.Errorf("restrict socket %s: %w", path, err)
			}
			return listener, nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, fmt.Errorf("listen unix %s: %w", path, err)
		}

		alive, err := probe.Alive(ctx)
		if alive {
			return nil, ErrAlreadyRunning
		}
		if err != nil {
			return nil, fmt.Errorf("probe existing socket %s: %w", path, err)
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale socket %s: %w", path, err)
		}
	}

	return nil, fmt.Errorf("socket %s still busy after %d retries", path, opts.Retries)
}
