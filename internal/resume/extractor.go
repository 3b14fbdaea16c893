package resume

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	// ErrNotText indicates a file that cannot be read as plain text.
	ErrNotText = errors.New("resume is not plain text")
	// ErrEmptyText indicates extraction produced no usable text.
	ErrEmptyText = errors.New("resume text is empty")
)

const defaultExtractTimeout = 10 * time.Second

// Extractor turns a resume file into plain text.
type Extractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// PlainText reads the file directly and rejects binary content.
type PlainText struct{}

func (PlainText) ExtractText(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read resume %q: %w", path, err)
	}
	if bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data) {
		return "", fmt.Errorf("%q: %w", path, ErrNotText)
	}
	return string(data), nil
}

// Command runs an external converter such as pdftotext and reads its stdout.
// A {path} placeholder in Argv is replaced with the file path; without one,
// the path is appended as the last argument.
type Command struct {
	Argv    []string
	Timeout time.Duration
}

func (c Command) ExtractText(ctx context.Context, path string) (string, error) {
	if len(c.Argv) == 0 {
		return "", fmt.Errorf("extract command argv cannot be empty")
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultExtractTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	argv := expandPath(c.Argv, path)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("run %s: %w: %s", argv[0], err, msg)
		}
		return "", fmt.Errorf("run %s: %w", argv[0], err)
	}
	if !utf8.Valid(stdout.Bytes()) {
		return "", fmt.Errorf("%s output: %w", argv[0], ErrNotText)
	}
	return stdout.String(), nil
}

func expandPath(argv []string, path string) []string {
	out := make([]string, 0, len(argv)+1)
	replaced := false
	for _, arg := range argv {
		if strings.Contains(arg, "{path}") {
			arg = strings.ReplaceAll(arg, "{path}", path)
			replaced = true
		}
		out = append(out, arg)
	}
	if !replaced {
		out = append(out, path)
	}
	return out
}

// Load extracts and parses the resume at path. Any failure is logged and
// the demo profile is returned instead; fellBack reports which happened.
func Load(ctx context.Context, extractor Extractor, path string, logger *slog.Logger) (profile Profile, fellBack bool) {
	if extractor == nil {
		extractor = PlainText{}
	}

	text, err := extractor.ExtractText(ctx, path)
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrEmptyText
	}
	if err != nil {
		if logger != nil {
			logger.Warn("resume extraction failed; using demo profile", "path", path, "error", err.Error())
		}
		return Demo(), true
	}

	return Extract(text), false
}
