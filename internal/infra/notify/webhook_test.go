package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestNotifier(url string) *WebhookNotifier {
	return NewWebhookNotifier(WebhookConfig{
		URL:          url,
		UserAgent:    "arcmon-test/1.0",
		RetryMax:     3,
		RetryBackoff: time.Millisecond,
	}, zap.NewNop())
}

func TestWebhookNotifier_Dispatch(t *testing.T) {
	var got webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	thumb := "https://cdn.example.com/atom.jpg"
	err := newTestNotifier(server.URL).Dispatch(context.Background(), "🔔 Restock\nline", &thumb)
	require.NoError(t, err)

	require.Len(t, got.Embeds, 1)
	require.Equal(t, "🔔 Restock\nline", got.Embeds[0].Description)
	require.Equal(t, embedColor, got.Embeds[0].Color)
	require.Equal(t, thumb, got.Embeds[0].Thumbnail.URL)
}

func TestWebhookNotifier_NoThumbnailOmitted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NotContains(t, string(body), "thumbnail")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	require.NoError(t, newTestNotifier(server.URL).Dispatch(context.Background(), "msg", nil))
}

func TestWebhookNotifier_RetriesThenFails(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	err := newTestNotifier(server.URL).Dispatch(context.Background(), "msg", nil)
	require.Error(t, err)
	require.Equal(t, 3, attempts)
}

func TestWebhookNotifier_RecoversOnRetry(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	require.NoError(t, newTestNotifier(server.URL).Dispatch(context.Background(), "msg", nil))
	require.Equal(t, 2, attempts)
}

func TestWebhookNotifier_EmptyURLIsTestMode(t *testing.T) {
	require.NoError(t, newTestNotifier("").Dispatch(context.Background(), "msg", nil))
}
