// Package trivia fetches short number facts used to decorate the
// expense-saved confirmation. The lookup is strictly best effort: every
// failure mode degrades to FallbackFact and never reaches the caller as
// an error.
package trivia

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"spendbot/internal/cache"
)

// FallbackFact is returned whenever the lookup cannot produce a fact.
const FallbackFact = "No fun fact this time."

const maxFactBytes = 1024

type Client struct {
	baseURL string
	http    *http.Client
	facts   cache.Cache[string]
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		facts:   cache.NewLRUCache[string](256, time.Hour),
	}
}

// Fact returns a short fact about n, or FallbackFact.
func (c *Client) Fact(ctx context.Context, n int64) string {
	key := strconv.FormatInt(n, 10)
	if fact, ok := c.facts.Get(key); ok {
		return fact
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%d", c.baseURL, n), nil)
	if err != nil {
		slog.WarnContext(ctx, "Trivia request build failed", "number", n, "error", err)
		return FallbackFact
	}

	resp, err := c.http.Do(req)
	if err != nil {
		slog.WarnContext(ctx, "Trivia lookup failed", "number", n, "error", err)
		return FallbackFact
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.WarnContext(ctx, "Trivia lookup non-200", "number", n, "status", resp.StatusCode)
		return FallbackFact
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFactBytes))
	if err != nil || len(body) == 0 {
		slog.WarnContext(ctx, "Trivia body read failed", "number", n, "error", err)
		return FallbackFact
	}

	fact := string(body)
	c.facts.Set(key, fact)
	return fact
}
