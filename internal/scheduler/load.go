package scheduler

import (
	"context"
	"fmt"

	"catalog_bot/internal/catalog"
	"catalog_bot/internal/fetcher"
	"catalog_bot/internal/storage"
)

// ImportFeed fetches url, converts its entries to catalog items and replaces
// the stored catalog with them. Nothing is stored when the feed is empty or
// invalid.
func ImportFeed(ctx context.Context, store storage.Storage, f *fetcher.Fetcher, url string) (*catalog.Catalog, error) {
	feed, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}

	items := fetcher.ItemsFromFeed(feed)
	if len(items) == 0 {
		return nil, ErrEmptyFeed
	}

	cat, err := catalog.New(items, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}

	if err := store.ReplaceCatalog(ctx, url, cat.Items(), cat.Categories()); err != nil {
		return nil, fmt.Errorf("store catalog: %w", err)
	}
	return cat, nil
}

// ImportFile loads a catalog file and replaces the stored catalog with it.
func ImportFile(ctx context.Context, store storage.Storage, path string) (*catalog.Catalog, error) {
	cat, err := catalog.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := store.ReplaceCatalog(ctx, path, cat.Items(), cat.Categories()); err != nil {
		return nil, fmt.Errorf("store catalog: %w", err)
	}
	return cat, nil
}

// LoadStored builds a catalog from the stored snapshot. An empty store gives
// an empty catalog.
func LoadStored(ctx context.Context, store storage.Storage) (*catalog.Catalog, *storage.Snapshot, error) {
	snap, err := store.LoadCatalog(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load catalog: %w", err)
	}
	if len(snap.Items) == 0 {
		return catalog.Empty(), snap, nil
	}
	cat, err := catalog.New(snap.Items, snap.Categories)
	if err != nil {
		return nil, nil, fmt.Errorf("stored catalog: %w", err)
	}
	return cat, snap, nil
}
