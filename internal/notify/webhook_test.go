package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookDelivers(t *testing.T) {
	var got Event
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	wh := Webhook{URL: srv.URL, Timeout: 5 * time.Second}
	err := wh.Notify(context.Background(), Event{
		Cluster:  "prod-eu",
		Category: CategoryProblem,
		Lines:    []string{"Node worker-2 down"},
		At:       time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, "prod-eu", got.Cluster)
	assert.Equal(t, CategoryProblem, got.Category)
	assert.Equal(t, []string{"Node worker-2 down"}, got.Lines)
}

func TestWebhookRetriesThenSucceeds(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	wh := Webhook{URL: srv.URL, Retries: 3, Backoff: time.Millisecond}
	err := wh.Notify(context.Background(), Event{Cluster: "prod-eu", Category: CategoryProblem})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWebhookExhaustsRetries(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	wh := Webhook{URL: srv.URL, Retries: 2, Backoff: time.Millisecond}
	err := wh.Notify(context.Background(), Event{Cluster: "prod-eu", Category: CategoryProblem})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 attempts")
	assert.Contains(t, err.Error(), "503")
	assert.Equal(t, 3, calls)
}

func TestWebhookHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	wh := Webhook{URL: srv.URL, Retries: 1, Backoff: time.Hour}
	err := wh.Notify(ctx, Event{Cluster: "prod-eu", Category: CategoryProblem})

	require.ErrorIs(t, err, context.Canceled)
}
