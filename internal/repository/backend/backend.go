// Package backend picks the snapshot store named by configuration.
package backend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/flocktracker/internal/config"
	"github.com/mamadbah2/flocktracker/internal/repository"
	"github.com/mamadbah2/flocktracker/internal/repository/memory"
	"github.com/mamadbah2/flocktracker/internal/repository/mongodb"
	"github.com/mamadbah2/flocktracker/internal/repository/sqlite"
)

// Type names a storage backend.
type Type string

const (
	SQLite  Type = "sqlite"
	MongoDB Type = "mongodb"
	Memory  Type = "memory"
)

// IsValid reports whether t is a known backend.
func (t Type) IsValid() bool {
	switch t {
	case SQLite, MongoDB, Memory:
		return true
	}
	return false
}

// Config holds the settings of every backend. Only the ones of Type are read.
type Config struct {
	Type       Type
	SQLitePath string
	MongoURI   string
	MongoDB    string
}

// FromAppConfig converts the application config to backend config.
func FromAppConfig(cfg *config.Config) (Config, error) {
	if cfg == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	t := Type(cfg.Storage.Backend)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", cfg.Storage.Backend)
	}
	return Config{
		Type:       t,
		SQLitePath: cfg.Storage.SQLitePath,
		MongoURI:   cfg.MongoDB.URI,
		MongoDB:    cfg.MongoDB.DBName,
	}, nil
}

// Open returns the configured store.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (repository.Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %q", cfg.Type)
	}

	named := logger.Named("store." + string(cfg.Type))
	switch cfg.Type {
	case SQLite:
		s, err := sqlite.Open(cfg.SQLitePath, named)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sqlite store: %w", err)
		}
		return s, nil
	case MongoDB:
		s, err := mongodb.NewStore(ctx, cfg.MongoURI, cfg.MongoDB, named)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize mongodb store: %w", err)
		}
		return s, nil
	default:
		named.Warn("using in-memory store, snapshots are lost on exit")
		return memory.NewStore(), nil
	}
}
