// Package fetcher downloads RSS/Atom feeds and converts their entries into
// catalog items.
package fetcher

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mmcdole/gofeed"

	"catalog_bot/internal/model"
)

// DefaultCategory is used for feed entries that carry no category.
const DefaultCategory = "Uncategorized"

const maxDescription = 300

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher downloads and parses feeds.
type Fetcher struct {
	client  HTTPClient
	timeout time.Duration
}

// New creates a Fetcher with the given HTTP client.
func New(client HTTPClient) *Fetcher {
	return &Fetcher{
		client:  client,
		timeout: 30 * time.Second,
	}
}

// Fetch downloads and parses a feed from the given URL.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*gofeed.Feed, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "CatalogBot/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	parser := gofeed.NewParser()
	feed, err := parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

// ItemID derives a short, stable catalog ID for a feed entry from its GUID,
// or from title and link when the entry has no GUID.
func ItemID(item *gofeed.Item) string {
	key := item.GUID
	if key == "" {
		key = item.Title + "|" + item.Link
	}
	h := sha256.Sum256([]byte(key))
	return fmt.Sprintf("f%x", h[:8])
}

// ItemsFromFeed converts feed entries into catalog items. The first entry
// category becomes the item category and the rest become tags. Entries with
// a repeated ID are dropped.
func ItemsFromFeed(feed *gofeed.Feed) []model.Item {
	var items []model.Item
	seen := make(map[string]bool)
	for _, entry := range feed.Items {
		id := ItemID(entry)
		if seen[id] {
			continue
		}
		seen[id] = true

		var cats []string
		for _, c := range entry.Categories {
			if c = strings.TrimSpace(c); c != "" {
				cats = append(cats, c)
			}
		}
		category := DefaultCategory
		var tags []string
		if len(cats) > 0 {
			category = cats[0]
		}
		if len(cats) > 1 {
			tags = cats[1:]
		}

		desc := truncate(strings.TrimSpace(entry.Description), maxDescription)

		items = append(items, model.Item{
			ID:          id,
			Name:        strings.TrimSpace(entry.Title),
			Description: desc,
			Category:    category,
			Tags:        tags,
		})
	}
	return items
}

// truncate cuts s to at most n bytes on a rune boundary and marks the cut.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
