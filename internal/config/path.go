package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const appName = "rehearse"

// ResolvePath applies CLI/XDG/home fallback rules for config.jsonc location.
func ResolvePath(explicit string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return explicit, nil
	}

	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, appName, "config.jsonc"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("unable to resolve user home for config fallback")
	}

	return filepath.Join(home, ".config", appName, "config.jsonc"), nil
}

// StateDir resolves the directory holding persisted identity data.
func StateDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("unable to resolve user home for state directory")
	}
	return filepath.Join(home, ".local", "state", appName), nil
}

// IdentityPath returns the configured identity store path, or a backend-specific
// default under StateDir.
func IdentityPath(cfg IdentityConfig) (string, error) {
	if cfg.Path != "" {
		return cfg.Path, nil
	}
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	if strings.EqualFold(cfg.Backend, IdentityBackendSQLite) {
		return filepath.Join(dir, "identity.db"), nil
	}
	return filepath.Join(dir, "identity.json"), nil
}
