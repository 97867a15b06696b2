package ical

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"siena/rdx"
	"time"
)

// ErrFeedUnavailable means the transport itself failed: network error,
// timeout, or a non-2xx status. A well-formed feed with zero events is NOT
// this error.
var ErrFeedUnavailable = errors.New("calendar feed unavailable")

const (
	fetchTimeout = 10 * time.Second
	cacheTTL     = 5 * time.Minute
	maxFeedBytes = 1 << 20
)

var httpClient = &http.Client{Timeout: fetchTimeout}

// Fetch returns the raw iCalendar text for one feed URL. Results are cached
// in Redis for a few minutes so opening the booking wizard repeatedly does
// not hammer the upstream calendar host.
func Fetch(ctx context.Context, url string) (string, error) {
	cacheKey := "ical:" + url
	if cached := rdx.RdxGet(ctx, cacheKey); cached != "" {
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: status %d", ErrFeedUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}

	raw := string(body)
	if err := rdx.RdxSet(ctx, cacheKey, raw, cacheTTL); err != nil {
		log.Printf("ical: cache write for %s failed: %v", url, err)
	}
	return raw, nil
}
