// Package kv is the small key-value store behind persisted identity.
package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rbright/rehearse/internal/config"
)

// ErrNotFound indicates the key has no value.
var ErrNotFound = errors.New("key not found")

// Store is a string-keyed byte store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open builds the backend selected by cfg.
func Open(ctx context.Context, cfg config.IdentityConfig) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case config.IdentityBackendFile, "":
		path, err := config.IdentityPath(cfg)
		if err != nil {
			return nil, err
		}
		return NewFileStore(path), nil
	case config.IdentityBackendSQLite:
		path, err := config.IdentityPath(cfg)
		if err != nil {
			return nil, err
		}
		return OpenSQLite(ctx, path)
	case config.IdentityBackendRedis:
		return OpenRedis(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
	default:
		return nil, fmt.Errorf("unknown kv backend %q", cfg.Backend)
	}
}
