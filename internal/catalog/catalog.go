// Package catalog holds validated, immutable snapshots of the item table and
// its category enumeration.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"catalog_bot/internal/model"
)

// MaxIDLen bounds item identifiers so they fit into Telegram callback data.
const MaxIDLen = 48

// Validation errors returned by New.
var (
	ErrEmptyID           = errors.New("item id is empty")
	ErrIDTooLong         = errors.New("item id is too long")
	ErrDuplicateID       = errors.New("duplicate item id")
	ErrRatingOutOfRange  = errors.New("rating out of range [0,5]")
	ErrMissingAll        = errors.New("categories must include " + model.AllCategories)
	ErrUnlistedCategory  = errors.New("item category missing from categories")
	ErrDuplicateCategory = errors.New("duplicate category")
)

// Catalog is a read-only snapshot of the item table. It is safe for
// concurrent use.
type Catalog struct {
	items      []model.Item
	categories []string
	byID       map[string]int
	known      map[string]bool
}

// New validates items and categories and builds a Catalog. When categories
// is nil, the enumeration is derived from the items.
func New(items []model.Item, categories []string) (*Catalog, error) {
	if categories == nil {
		categories = DeriveCategories(items)
	}

	c := &Catalog{
		items:      append([]model.Item(nil), items...),
		categories: append([]string(nil), categories...),
		byID:       make(map[string]int, len(items)),
		known:      make(map[string]bool, len(categories)),
	}

	for _, name := range categories {
		if c.known[name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateCategory, name)
		}
		c.known[name] = true
	}
	if !c.known[model.AllCategories] {
		return nil, ErrMissingAll
	}

	for i, item := range items {
		switch {
		case item.ID == "":
			return nil, fmt.Errorf("item #%d: %w", i+1, ErrEmptyID)
		case len(item.ID) > MaxIDLen:
			return nil, fmt.Errorf("item %q: %w", item.ID, ErrIDTooLong)
		case item.Rating < 0 || item.Rating > 5:
			return nil, fmt.Errorf("item %q: %w: %v", item.ID, ErrRatingOutOfRange, item.Rating)
		case !c.known[item.Category]:
			return nil, fmt.Errorf("item %q: %w: %q", item.ID, ErrUnlistedCategory, item.Category)
		}
		if _, dup := c.byID[item.ID]; dup {
			return nil, fmt.Errorf("item %q: %w", item.ID, ErrDuplicateID)
		}
		c.byID[item.ID] = i
	}

	return c, nil
}

// Empty returns a catalog with no items and only the All category.
func Empty() *Catalog {
	c, _ := New(nil, nil)
	return c
}

// DeriveCategories returns All followed by the distinct item categories in
// order of first appearance.
func DeriveCategories(items []model.Item) []string {
	out := []string{model.AllCategories}
	seen := map[string]bool{model.AllCategories: true}
	for _, item := range items {
		if seen[item.Category] {
			continue
		}
		seen[item.Category] = true
		out = append(out, item.Category)
	}
	return out
}

// Items returns the items in catalog order. Callers must not modify the
// returned slice.
func (c *Catalog) Items() []model.Item {
	return c.items
}

// Categories returns the category enumeration, All included.
func (c *Catalog) Categories() []string {
	return c.categories
}

// Item looks up an item by ID.
func (c *Catalog) Item(id string) (model.Item, bool) {
	i, ok := c.byID[id]
	if !ok {
		return model.Item{}, false
	}
	return c.items[i], true
}

// HasCategory reports whether name is part of the enumeration.
func (c *Catalog) HasCategory(name string) bool {
	return c.known[name]
}

// Len returns the number of items.
func (c *Catalog) Len() int {
	return len(c.items)
}

// MatchCategory finds the category named by input. An exact match wins over
// a case-insensitive one.
func (c *Catalog) MatchCategory(input string) (string, bool) {
	for _, name := range c.categories {
		if name == input {
			return name, true
		}
	}
	for _, name := range c.categories {
		if strings.EqualFold(name, input) {
			return name, true
		}
	}
	return "", false
}
