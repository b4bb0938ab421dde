package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"

	"catalog_bot/internal/model"
)

// fileFormat is the on-disk catalog layout. Categories may be omitted.
type fileFormat struct {
	Categories []string     `json:"categories,omitempty"`
	Items      []model.Item `json:"items"`
}

// Parse decodes a catalog document. Comments and trailing commas are allowed.
func Parse(data []byte) (*Catalog, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog syntax: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(standardized))
	dec.DisallowUnknownFields()

	var f fileFormat
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	return New(f.Items, f.Categories)
}

// LoadFile reads and parses a catalog file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Encode renders the catalog as indented JSON that Parse accepts.
func Encode(c *Catalog) ([]byte, error) {
	data, err := json.MarshalIndent(fileFormat{Categories: c.categories, Items: c.items}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode catalog: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteFile atomically replaces path with the encoded catalog.
func WriteFile(path string, c *Catalog) error {
	data, err := Encode(c)
	if err != nil {
		return err
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	return nil
}
