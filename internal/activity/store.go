package activity

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/matthewbaird/inplace/internal/event"
	"github.com/matthewbaird/inplace/internal/types"
)

// Store is the interface for reading and writing field history.
type Store interface {
	// Write appends events. Writing an event id twice is a no-op.
	Write(ctx context.Context, events ...event.Event) error

	// QueryByField returns the events of one field, newest first.
	QueryByField(ctx context.Context, fieldID string, opts QueryOptions) (events []event.Event, nextCursor string, totalCount int, err error)

	// Search performs a case-insensitive substring search across summaries.
	Search(ctx context.Context, query string, opts SearchOptions) (events []event.Event, totalCount int, err error)
}

// summaryText is the one-line text an event is searched by.
func summaryText(e event.Event) string { return e.String() }

// SQLStore implements Store on a database/sql handle. The queries are
// written for SQLite.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a new SQLStore.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// CreateTable creates the field_events table.
func (s *SQLStore) CreateTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS field_events (
			seq            INTEGER PRIMARY KEY AUTOINCREMENT,
			event_id       TEXT NOT NULL UNIQUE,
			name           TEXT NOT NULL,
			field_id       TEXT NOT NULL,
			occurred_at    INTEGER NOT NULL,
			previous_value TEXT,
			new_value      TEXT,
			errors         TEXT NOT NULL DEFAULT '[]',
			summary        TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_field_events_field_time
			ON field_events (field_id, occurred_at DESC);
	`)
	return err
}

// Write inserts events in one statement.
func (s *SQLStore) Write(ctx context.Context, events ...event.Event) error {
	if len(events) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString(`INSERT OR IGNORE INTO field_events (
		event_id, name, field_id, occurred_at, previous_value, new_value, errors, summary
	) VALUES `)

	args := make([]any, 0, len(events)*8)
	for i, e := range events {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(?, ?, ?, ?, ?, ?, ?, ?)")

		errs := e.Errors
		if errs == nil {
			errs = []string{}
		}
		errsJSON, err := json.Marshal(errs)
		if err != nil {
			return fmt.Errorf("encoding errors of %s: %w", e.ID, err)
		}
		args = append(args,
			e.ID, string(e.Name), e.FieldID, e.OccurredAt.UnixNano(),
			nullable(e.PreviousValue), nullable(e.NewValue), string(errsJSON), summaryText(e),
		)
	}

	_, err := s.db.ExecContext(ctx, b.String(), args...)
	return err
}

// QueryByField returns the events of one field with filtering and pagination.
func (s *SQLStore) QueryByField(ctx context.Context, fieldID string, opts QueryOptions) ([]event.Event, string, int, error) {
	limit := queryLimit(opts.Limit)

	conditions := []string{"field_id = ?"}
	args := []any{fieldID}

	if opts.Since != nil {
		conditions = append(conditions, "occurred_at >= ?")
		args = append(args, opts.Since.UnixNano())
	}
	if opts.Until != nil {
		conditions = append(conditions, "occurred_at <= ?")
		args = append(args, opts.Until.UnixNano())
	}
	if len(opts.Names) > 0 {
		conditions, args = inNames(conditions, args, opts.Names)
	}
	if opts.Cursor != "" {
		// Cursor is the occurred_at timestamp of the last result.
		if cursorTime, err := time.Parse(time.RFC3339Nano, opts.Cursor); err == nil {
			conditions = append(conditions, "occurred_at < ?")
			args = append(args, cursorTime.UnixNano())
		}
	}

	where := strings.Join(conditions, " AND ")
	query := fmt.Sprintf(`SELECT %s FROM field_events WHERE %s ORDER BY occurred_at DESC, seq DESC LIMIT ?`, columns, where)

	events, err := s.query(ctx, query, append(args, limit+1)...) // fetch one extra for cursor
	if err != nil {
		return nil, "", 0, fmt.Errorf("querying field events: %w", err)
	}

	var nextCursor string
	if len(events) > limit {
		events = events[:limit]
		nextCursor = events[len(events)-1].OccurredAt.Format(time.RFC3339Nano)
	}

	var totalCount int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM field_events WHERE "+where, args...).Scan(&totalCount); err != nil {
		return nil, "", 0, fmt.Errorf("counting field events: %w", err)
	}
	return events, nextCursor, totalCount, nil
}

// Search performs a substring search across event summaries.
func (s *SQLStore) Search(ctx context.Context, q string, opts SearchOptions) ([]event.Event, int, error) {
	conditions := []string{"summary LIKE '%' || ? || '%'"}
	args := []any{q}

	if opts.FieldPrefix != "" {
		conditions = append(conditions, "substr(field_id, 1, ?) = ?")
		args = append(args, len(opts.FieldPrefix), opts.FieldPrefix)
	}
	if opts.Since != nil {
		conditions = append(conditions, "occurred_at >= ?")
		args = append(args, opts.Since.UnixNano())
	}
	if len(opts.Names) > 0 {
		conditions, args = inNames(conditions, args, opts.Names)
	}

	where := strings.Join(conditions, " AND ")
	query := fmt.Sprintf(`SELECT %s FROM field_events WHERE %s ORDER BY occurred_at DESC, seq DESC LIMIT ?`, columns, where)

	events, err := s.query(ctx, query, append(args, searchLimit(opts.Limit))...)
	if err != nil {
		return nil, 0, fmt.Errorf("searching field events: %w", err)
	}

	var totalCount int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM field_events WHERE "+where, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("counting field events: %w", err)
	}
	return events, totalCount, nil
}

const columns = `event_id, name, field_id, occurred_at, previous_value, new_value, errors`

func (s *SQLStore) query(ctx context.Context, query string, args ...any) ([]event.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		var (
			e          event.Event
			name       string
			occurredAt int64
			prev, next sql.NullString
			errsJSON   string
		)
		if err := rows.Scan(&e.ID, &name, &e.FieldID, &occurredAt, &prev, &next, &errsJSON); err != nil {
			return nil, fmt.Errorf("scanning field event: %w", err)
		}
		e.Name = event.Name(name)
		e.OccurredAt = time.Unix(0, occurredAt)
		e.PreviousValue = fromNullable(prev)
		e.NewValue = fromNullable(next)
		if err := json.Unmarshal([]byte(errsJSON), &e.Errors); err != nil {
			return nil, fmt.Errorf("decoding errors of %s: %w", e.ID, err)
		}
		if len(e.Errors) == 0 {
			e.Errors = nil
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func inNames(conditions []string, args []any, names []event.Name) ([]string, []any) {
	placeholders := make([]string, len(names))
	for i, n := range names {
		placeholders[i] = "?"
		args = append(args, string(n))
	}
	return append(conditions, fmt.Sprintf("name IN (%s)", strings.Join(placeholders, ", "))), args
}

func nullable(v types.Value) sql.NullString {
	return sql.NullString{String: v.Text, Valid: v.Valid}
}

func fromNullable(ns sql.NullString) types.Value {
	if !ns.Valid {
		return types.Nil
	}
	return types.Some(ns.String)
}
