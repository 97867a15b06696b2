package content

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"siena/models"
	"siena/rdx"
	"time"
)

// The content collaborator is a spreadsheet-backed API serving one sheet of
// key/value rows per site page. It is read-only and eventually consistent;
// this client caches bundles briefly and fails open to an empty bundle so a
// content outage never breaks the site.

const (
	fetchTimeout = 8 * time.Second
	cacheTTL     = 10 * time.Minute
)

var httpClient = &http.Client{Timeout: fetchTimeout}

type row struct {
	Section string `json:"Section"`
	Key     string `json:"Key"`
	Value   string `json:"Value"`
}

// GetPage returns the content bundle for one page key. Any upstream failure
// yields an empty bundle, never an error the guest sees.
func GetPage(ctx context.Context, page string) models.ContentBundle {
	cacheKey := "content:" + page
	if cached := rdx.RdxGet(ctx, cacheKey); cached != "" {
		var bundle models.ContentBundle
		if err := json.Unmarshal([]byte(cached), &bundle); err == nil {
			return bundle
		}
	}

	bundle, err := fetchPage(ctx, page)
	if err != nil {
		log.Printf("content: fetching page %q failed, serving empty bundle: %v", page, err)
		return models.ContentBundle{}
	}

	if data, err := json.Marshal(bundle); err == nil {
		if err := rdx.RdxSet(ctx, cacheKey, string(data), cacheTTL); err != nil {
			log.Printf("content: cache write for %q failed: %v", page, err)
		}
	}
	return bundle
}

func fetchPage(ctx context.Context, page string) (models.ContentBundle, error) {
	base := os.Getenv("CONTENT_SHEET_URL")
	if base == "" {
		return nil, fmt.Errorf("CONTENT_SHEET_URL not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/"+page, nil)
	if err != nil {
		return nil, err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var rows []row
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, err
	}

	bundle := make(models.ContentBundle)
	for _, r := range rows {
		if r.Section == "" || r.Key == "" {
			continue
		}
		if bundle[r.Section] == nil {
			bundle[r.Section] = make(map[string]string)
		}
		bundle[r.Section][r.Key] = r.Value
	}
	return bundle, nil
}
