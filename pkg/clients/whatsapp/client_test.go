package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/flocktracker/internal/config"
)

func testClient(t *testing.T, handler http.HandlerFunc) *APIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(config.WhatsAppConfig{
		AccessToken:   "secret",
		PhoneNumberID: "12345",
		BaseURL:       srv.URL + "/",
		APIVersion:    "v20.0",
	})
	c.httpClient.SetRetryCount(0)
	return c
}

func TestSendTextMessage(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v20.0/12345/messages", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "224600000000", body["to"])
		assert.Equal(t, "hello", body["text"].(map[string]any)["body"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	})

	resp, err := c.SendTextMessage(context.Background(), SendTextMessageRequest{To: "224600000000", Body: "hello"})
	require.NoError(t, err)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "wamid.1", resp.Messages[0].ID)
}

func TestSendTextMessageAPIError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid recipient","code":131030}}`))
	})

	_, err := c.SendTextMessage(context.Background(), SendTextMessageRequest{To: "1", Body: "hello"})
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 131030, apiErr.Err.Code)
	assert.Contains(t, err.Error(), "invalid recipient")
}

func TestSendTextMessageValidates(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	_, err := c.SendTextMessage(context.Background(), SendTextMessageRequest{Body: "hello"})
	assert.Error(t, err)
	_, err = c.SendTextMessage(context.Background(), SendTextMessageRequest{To: "1", Body: strings.Repeat("x", MaxBodyLength+1)})
	assert.Error(t, err)
}

func TestNotifierSplitsLongReports(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid"}]}`))
	})

	line := strings.Repeat("a", 100)
	text := strings.TrimSuffix(strings.Repeat(line+"\n", 60), "\n")
	require.NoError(t, NewNotifier(c, "224600000000", nil).Notify(context.Background(), text))
	assert.Equal(t, int32(2), calls.Load())
}

func TestSplit(t *testing.T) {
	assert.Nil(t, Split("  ", 10))
	assert.Equal(t, []string{"ab\ncd"}, Split("ab\ncd", 10))
	assert.Equal(t, []string{"abcd", "efgh"}, Split("abcd\nefgh", 6))
	assert.Equal(t, []string{"abcde", "fg"}, Split("abcdefg", 5))

	for _, p := range Split(strings.Repeat("word ", 2000), 100) {
		assert.LessOrEqual(t, len(p), 100)
	}
}
