package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"catalog_bot/internal/model"
	"catalog_bot/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// ReplaceCatalog atomically swaps the stored catalog for the given items and
// categories, recording where they came from.
func (s *SQLite) ReplaceCatalog(ctx context.Context, source string, items []model.Item, categories []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"item_tags", "item_features", "items", "categories"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i, name := range categories {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO categories (position, name) VALUES (?, ?)`, i, name,
		); err != nil {
			return fmt.Errorf("insert category %q: %w", name, err)
		}
	}

	for i, it := range items {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO items (id, position, name, description, category, price, original_price, rating, downloads, difficulty)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			it.ID, i, it.Name, it.Description, it.Category, it.Price, it.OriginalPrice, it.Rating, it.Downloads, it.Difficulty,
		)
		if err != nil {
			return fmt.Errorf("insert item %q: %w", it.ID, err)
		}
		if err := insertValues(ctx, tx, "item_features", it.ID, it.Features); err != nil {
			return err
		}
		if err := insertValues(ctx, tx, "item_tags", it.ID, it.Tags); err != nil {
			return err
		}
	}

	now := time.Now().UTC().Format(timeLayout)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO catalog_meta (id, source, imported_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET source = excluded.source, imported_at = excluded.imported_at`,
		source, now,
	); err != nil {
		return fmt.Errorf("update catalog meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func insertValues(ctx context.Context, tx *sql.Tx, table, itemID string, values []string) error {
	for pos, v := range values {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO `+table+` (item_id, position, value) VALUES (?, ?, ?)`, itemID, pos, v,
		); err != nil {
			return fmt.Errorf("insert %s for %q: %w", table, itemID, err)
		}
	}
	return nil
}

// LoadCatalog returns the stored catalog in its original order. An empty
// database yields an empty snapshot.
func (s *SQLite) LoadCatalog(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}

	var imported string
	err := s.db.QueryRowContext(ctx,
		`SELECT source, imported_at FROM catalog_meta WHERE id = 1`,
	).Scan(&snap.Source, &imported)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("query catalog meta: %w", err)
	default:
		snap.ImportedAt, _ = time.Parse(timeLayout, imported)
	}

	cats, err := s.db.QueryContext(ctx, `SELECT name FROM categories ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer func() { _ = cats.Close() }()
	for cats.Next() {
		var name string
		if err := cats.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		snap.Categories = append(snap.Categories, name)
	}
	if err := cats.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, category, price, original_price, rating, downloads, difficulty
		 FROM items ORDER BY position`,
	)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	index := make(map[string]int)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		index[it.ID] = len(snap.Items)
		snap.Items = append(snap.Items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}

	if err := s.attachValues(ctx, "item_features", nil, func(id, v string) {
		if i, ok := index[id]; ok {
			snap.Items[i].Features = append(snap.Items[i].Features, v)
		}
	}); err != nil {
		return nil, err
	}
	if err := s.attachValues(ctx, "item_tags", nil, func(id, v string) {
		if i, ok := index[id]; ok {
			snap.Items[i].Tags = append(snap.Items[i].Tags, v)
		}
	}); err != nil {
		return nil, err
	}

	return snap, nil
}

// GetItem returns a single item by its ID, or ErrNotFound.
func (s *SQLite) GetItem(ctx context.Context, id string) (*model.Item, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, category, price, original_price, rating, downloads, difficulty
		 FROM items WHERE id = ?`, id,
	)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if err := s.attachValues(ctx, "item_features", &id, func(_, v string) {
		it.Features = append(it.Features, v)
	}); err != nil {
		return nil, err
	}
	if err := s.attachValues(ctx, "item_tags", &id, func(_, v string) {
		it.Tags = append(it.Tags, v)
	}); err != nil {
		return nil, err
	}
	return it, nil
}

// CountItems returns the number of stored items.
func (s *SQLite) CountItems(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}

// attachValues streams (item_id, value) pairs of an ordered value table,
// optionally restricted to one item.
func (s *SQLite) attachValues(ctx context.Context, table string, itemID *string, fn func(id, v string)) error {
	query := `SELECT item_id, value FROM ` + table
	var args []any
	if itemID != nil {
		query += ` WHERE item_id = ?`
		args = append(args, *itemID)
	}
	query += ` ORDER BY item_id, position`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id, v string
		if err := rows.Scan(&id, &v); err != nil {
			return fmt.Errorf("scan %s: %w", table, err)
		}
		fn(id, v)
	}
	return rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanItem(row scannable) (*model.Item, error) {
	var it model.Item
	err := row.Scan(&it.ID, &it.Name, &it.Description, &it.Category, &it.Price,
		&it.OriginalPrice, &it.Rating, &it.Downloads, &it.Difficulty)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan item: %w", err)
	}
	return &it, nil
}
