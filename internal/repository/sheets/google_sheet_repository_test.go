package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

type recorded struct {
	method string
	path   string
	body   map[string]interface{}
}

func fakeSheets(t *testing.T) (*GoogleSheetRepository, *[]recorded) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []recorded
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path}
		_ = json.NewDecoder(r.Body).Decode(&rec.body)
		mu.Lock()
		reqs = append(reqs, rec)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`{"range":"Snapshot!A1:B2","values":[["Date","Breed"],["2024-05-01","Silkie"]]}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	repo, err := NewWithOptions(context.Background(), "sheet-123", nil,
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return repo, &reqs
}

func TestReplaceRangeClearsThenUpdates(t *testing.T) {
	repo, reqs := fakeSheets(t)

	err := repo.ReplaceRange(context.Background(), "Snapshot!A1:J", [][]interface{}{
		{"Date", "Breed"},
		{"2024-05-01", "Silkie"},
	})
	require.NoError(t, err)

	require.Len(t, *reqs, 2)
	clearReq, update := (*reqs)[0], (*reqs)[1]
	assert.Equal(t, http.MethodPost, clearReq.method)
	assert.True(t, strings.HasSuffix(clearReq.path, ":clear"), clearReq.path)
	assert.Contains(t, clearReq.path, "/spreadsheets/sheet-123/")

	assert.Equal(t, http.MethodPut, update.method)
	values, ok := update.body["values"].([]interface{})
	require.True(t, ok)
	assert.Len(t, values, 2)
}

func TestReplaceRangeWithNoRowsOnlyClears(t *testing.T) {
	repo, reqs := fakeSheets(t)
	require.NoError(t, repo.ReplaceRange(context.Background(), "Snapshot!A1:J", nil))
	assert.Len(t, *reqs, 1)
}

func TestReadRange(t *testing.T) {
	repo, _ := fakeSheets(t)
	rows, err := repo.ReadRange(context.Background(), "Snapshot!A1:B2")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Silkie", rows[1][1])
}

func TestEmptyRangeRejected(t *testing.T) {
	repo, reqs := fakeSheets(t)
	ctx := context.Background()
	assert.Error(t, repo.ReplaceRange(ctx, "", nil))
	assert.Error(t, repo.AppendRows(ctx, "", nil))
	_, err := repo.ReadRange(ctx, "")
	assert.Error(t, err)
	assert.Empty(t, *reqs)
}

func TestMissingSpreadsheetID(t *testing.T) {
	_, err := NewWithOptions(context.Background(), "", nil, option.WithoutAuthentication())
	assert.Error(t, err)
}
