// Package filter implements the catalog matching engine.
package filter

import (
	"strings"

	"catalog_bot/internal/model"
)

// Match checks whether an item passes the category and search query.
// Category "All" matches every item; any other category must equal the
// item's category exactly. An empty query matches everything, otherwise the
// query must be a case-insensitive substring of the name, the description,
// or at least one tag. The query is used as is, whitespace included.
func Match(item model.Item, category, query string) bool {
	if category != model.AllCategories && item.Category != category {
		return false
	}
	if query == "" {
		return true
	}
	return matchesQuery(item, strings.ToLower(query))
}

// Apply returns the items that pass Match, preserving their order.
// The input slice is never modified.
func Apply(items []model.Item, category, query string) []model.Item {
	needle := strings.ToLower(query)

	var matched []model.Item
	for _, item := range items {
		if category != model.AllCategories && item.Category != category {
			continue
		}
		if needle != "" && !matchesQuery(item, needle) {
			continue
		}
		matched = append(matched, item)
	}
	return matched
}

func matchesQuery(item model.Item, needle string) bool {
	if strings.Contains(strings.ToLower(item.Name), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(item.Description), needle) {
		return true
	}
	for _, tag := range item.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}
