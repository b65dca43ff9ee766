package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/flocktracker/internal/config"
	"github.com/mamadbah2/flocktracker/internal/repository/memory"
	"github.com/mamadbah2/flocktracker/internal/repository/sqlite"
)

func TestTypeIsValid(t *testing.T) {
	assert.True(t, SQLite.IsValid())
	assert.True(t, MongoDB.IsValid())
	assert.True(t, Memory.IsValid())
	assert.False(t, Type("postgres").IsValid())
}

func TestOpenSelectsBackend(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Config{Type: Memory}, nil)
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, s)

	s, err = Open(ctx, Config{Type: SQLite, SQLitePath: filepath.Join(t.TempDir(), "flock.db")}, nil)
	require.NoError(t, err)
	defer s.Close(ctx)
	assert.IsType(t, &sqlite.Store{}, s)
}

func TestOpenRejectsUnknownType(t *testing.T) {
	_, err := Open(context.Background(), Config{Type: "postgres"}, nil)
	assert.ErrorContains(t, err, "invalid backend type")
}

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{
		Storage: config.StorageConfig{Backend: "mongodb", SQLitePath: "ignored.db"},
		MongoDB: config.MongoDBConfig{URI: "mongodb://localhost:27017", DBName: "flock"},
	}
	got, err := FromAppConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, Config{Type: MongoDB, SQLitePath: "ignored.db", MongoURI: "mongodb://localhost:27017", MongoDB: "flock"}, got)

	cfg.Storage.Backend = "csv"
	_, err = FromAppConfig(cfg)
	assert.Error(t, err)

	_, err = FromAppConfig(nil)
	assert.Error(t, err)
}
