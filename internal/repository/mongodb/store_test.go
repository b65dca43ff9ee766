package mongodb

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/flocktracker/internal/repository"
	"github.com/mamadbah2/flocktracker/internal/repository/storetest"
)

// Needs a replica set, e.g. mongodb://localhost:27017/?replicaSet=rs0
const uriEnv = "FLOCK_TEST_MONGODB_URI"

func TestStoreContract(t *testing.T) {
	uri := os.Getenv(uriEnv)
	if uri == "" {
		t.Skipf("%s not set", uriEnv)
	}

	storetest.Run(t, func(t *testing.T) repository.Store {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		name := "flock_test_" + strings.ReplaceAll(repository.NewID(), "-", "")[16:]
		s, err := NewStore(ctx, uri, name, nil)
		require.NoError(t, err)
		t.Cleanup(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = s.db.Drop(ctx)
			_ = s.Close(ctx)
		})
		return s
	})
}
