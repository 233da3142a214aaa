package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/matthewbaird/inplace/internal/types"
)

// ErrNotFound is returned when a record has no stored attributes.
var ErrNotFound = errors.New("record not found")

// Store keeps records as (model, id, attribute) → value rows. A NULL value
// is an absent attribute value.
type Store struct {
	db *sql.DB
}

// NewStore creates a new Store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateTable creates the attributes table.
func (s *Store) CreateTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS attributes (
			model     TEXT NOT NULL,
			record_id TEXT NOT NULL,
			attribute TEXT NOT NULL,
			value     TEXT,
			PRIMARY KEY (model, record_id, attribute)
		)
	`)
	return err
}

// Get returns every attribute of one record.
func (s *Store) Get(ctx context.Context, model, id string) (map[string]types.Value, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT attribute, value FROM attributes WHERE model = ? AND record_id = ?`, model, id)
	if err != nil {
		return nil, fmt.Errorf("querying %s %s: %w", model, id, err)
	}
	defer rows.Close()

	out := make(map[string]types.Value)
	for rows.Next() {
		var (
			attr  string
			value sql.NullString
		)
		if err := rows.Scan(&attr, &value); err != nil {
			return nil, fmt.Errorf("scanning %s %s: %w", model, id, err)
		}
		if value.Valid {
			out[attr] = types.Some(value.String)
		} else {
			out[attr] = types.Nil
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s %s: %w", model, id, ErrNotFound)
	}
	return out, nil
}

// Set stores one attribute value.
func (s *Store) Set(ctx context.Context, model, id, attribute string, value types.Value) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attributes (model, record_id, attribute, value) VALUES (?, ?, ?, ?)
		ON CONFLICT (model, record_id, attribute) DO UPDATE SET value = excluded.value`,
		model, id, attribute, sql.NullString{String: value.Text, Valid: value.Valid})
	if err != nil {
		return fmt.Errorf("storing %s %s %s: %w", model, id, attribute, err)
	}
	return nil
}

// Seed stores attrs for a record unless it already exists.
func (s *Store) Seed(ctx context.Context, model, id string, attrs map[string]types.Value) error {
	if _, err := s.Get(ctx, model, id); err == nil {
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	for attr, v := range attrs {
		if err := s.Set(ctx, model, id, attr, v); err != nil {
			return err
		}
	}
	return nil
}
