package server

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// WaitForHealthy polls the /health endpoint until it returns 200 OK or the
// context is cancelled. baseURL may use an http or ws scheme.
func WaitForHealthy(ctx context.Context, baseURL string) error {
	healthURL := HTTPURL(baseURL) + "/health"
	client := &http.Client{Timeout: 1 * time.Second}

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// HTTPURL converts a ws:// or wss:// base URL to http(s) and strips a
// trailing /ws path.
func HTTPURL(base string) string {
	base = strings.TrimSuffix(base, "/ws")
	switch {
	case strings.HasPrefix(base, "ws://"):
		return "http://" + strings.TrimPrefix(base, "ws://")
	case strings.HasPrefix(base, "wss://"):
		return "https://" + strings.TrimPrefix(base, "wss://")
	default:
		return base
	}
}
