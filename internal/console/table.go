package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"catalog_bot/internal/model"
)

const (
	idWidth       = 6
	nameWidth     = 30
	categoryWidth = 20
	priceWidth    = 8
)

// WriteTable prints items as aligned columns. Wide runes count as two
// columns.
func WriteTable(w io.Writer, items []model.Item) {
	fmt.Fprintf(w, "%s  %s  %s  %s  %s\n",
		cell("ID", idWidth), cell("NAME", nameWidth), cell("CATEGORY", categoryWidth), cell("PRICE", priceWidth), "RATING")
	for _, it := range items {
		rating := "-"
		if it.Rating > 0 {
			rating = fmt.Sprintf("%.1f", it.Rating)
		}
		fmt.Fprintf(w, "%s  %s  %s  %s  %s\n",
			cell(it.ID, idWidth), cell(it.Name, nameWidth), cell(it.Category, categoryWidth), cell(it.Price, priceWidth), rating)
	}
}

// WriteItem prints the details of one item.
func WriteItem(w io.Writer, it model.Item) {
	fmt.Fprintf(w, "#%s %s\n", it.ID, it.Name)
	fmt.Fprintf(w, "  Category:   %s\n", it.Category)
	if it.Price != "" {
		fmt.Fprintf(w, "  Price:      %s", it.Price)
		if it.OriginalPrice != "" && it.OriginalPrice != it.Price {
			fmt.Fprintf(w, " (was %s)", it.OriginalPrice)
		}
		fmt.Fprintln(w)
	}
	if it.Rating > 0 {
		fmt.Fprintf(w, "  Rating:     %.1f\n", it.Rating)
	}
	if it.Downloads != "" {
		fmt.Fprintf(w, "  Downloads:  %s\n", it.Downloads)
	}
	if it.Difficulty != "" {
		fmt.Fprintf(w, "  Difficulty: %s\n", it.Difficulty)
	}
	if len(it.Tags) > 0 {
		fmt.Fprintf(w, "  Tags:       %s\n", strings.Join(it.Tags, ", "))
	}
	if it.Description != "" {
		fmt.Fprintf(w, "\n  %s\n", it.Description)
	}
	for _, f := range it.Features {
		fmt.Fprintf(w, "  - %s\n", f)
	}
}

// cell truncates s to width display columns and pads it on the right.
func cell(s string, width int) string {
	s = runewidth.Truncate(s, width, "...")
	if pad := width - runewidth.StringWidth(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}
