package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Webhook posts events as JSON to a configured endpoint.
type Webhook struct {
	URL     string
	Timeout time.Duration // per attempt; defaults to 10s
	Retries int           // extra attempts after the first
	Backoff time.Duration // pause between attempts; defaults to 1s
}

// Notify posts the event, retrying transient failures. The URL is kept
// out of error messages since webhook URLs often embed credentials.
func (w Webhook) Notify(ctx context.Context, ev Event) error {
	if w.Timeout <= 0 {
		w.Timeout = 10 * time.Second
	}
	if w.Backoff <= 0 {
		w.Backoff = time.Second
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	httpClient := &http.Client{Timeout: w.Timeout}

	attempts := w.Retries + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.Backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http do: %w", err)
			continue
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		lastErr = fmt.Errorf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	return fmt.Errorf("webhook after %d attempts: %w", attempts, lastErr)
}
