package activity

import (
	"context"
	"testing"
	"time"

	"github.com/matthewbaird/inplace/internal/event"
	"github.com/matthewbaird/inplace/internal/types"
)

func testEvent(name event.Name, fieldID, value string, minutesAgo int) event.Event {
	return event.Event{
		ID:            "test-" + fieldID + "-" + string(name) + "-" + value,
		Name:          name,
		FieldID:       fieldID,
		OccurredAt:    time.Now().Add(-time.Duration(minutesAgo) * time.Minute),
		PreviousValue: types.Some("old"),
		NewValue:      types.Some(value),
	}
}

func TestMemoryStore_WriteAndQuery(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	events := []event.Event{
		testEvent(event.Activate, "inplace_user_1_email", "a", 10),
		testEvent(event.Update, "inplace_user_1_email", "b", 5),
		testEvent(event.Update, "inplace_user_1_name", "c", 5),
	}
	if err := store.Write(ctx, events...); err != nil {
		t.Fatalf("Write: %v", err)
	}

	results, _, total, err := store.QueryByField(ctx, "inplace_user_1_email", DefaultQueryOptions())
	if err != nil {
		t.Fatalf("QueryByField: %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
	if len(results) != 2 || results[0].Name != event.Update {
		t.Errorf("expected newest first, got %v", results)
	}
}

func TestMemoryStore_WriteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	e := testEvent(event.Update, "f", "x", 1)
	store.Write(ctx, e)
	store.Write(ctx, e)

	_, _, total, _ := store.QueryByField(ctx, "f", DefaultQueryOptions())
	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
}

func TestMemoryStore_QueryByField_FilterNames(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	store.Write(ctx,
		testEvent(event.Update, "f", "ok", 10),
		testEvent(event.Error, "f", "bad", 5),
	)

	opts := DefaultQueryOptions()
	opts.Names = []event.Name{event.Error}
	results, _, total, err := store.QueryByField(ctx, "f", opts)
	if err != nil {
		t.Fatalf("QueryByField: %v", err)
	}
	if total != 1 || len(results) != 1 {
		t.Fatalf("total = %d, results = %d, want 1", total, len(results))
	}
	if results[0].Name != event.Error {
		t.Errorf("name = %q, want error", results[0].Name)
	}
}

func TestMemoryStore_QueryByField_TimeWindow(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	store.Write(ctx,
		testEvent(event.Update, "f", "recent", 5),
		testEvent(event.Update, "f", "old", 200),
	)

	since := time.Now().Add(-30 * time.Minute)
	opts := DefaultQueryOptions()
	opts.Since = &since
	results, _, total, err := store.QueryByField(ctx, "f", opts)
	if err != nil {
		t.Fatalf("QueryByField: %v", err)
	}
	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
	if len(results) != 1 || results[0].NewValue.Text != "recent" {
		t.Errorf("expected only 'recent' event")
	}
}

func TestMemoryStore_QueryByField_Cursor(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for i, v := range []string{"a", "b", "c"} {
		store.Write(ctx, testEvent(event.Update, "f", v, 10-i))
	}

	opts := DefaultQueryOptions()
	opts.Limit = 2
	page, cursor, total, _ := store.QueryByField(ctx, "f", opts)
	if total != 3 || len(page) != 2 || cursor == "" {
		t.Fatalf("first page: total=%d len=%d cursor=%q", total, len(page), cursor)
	}
	if page[0].NewValue.Text != "c" || page[1].NewValue.Text != "b" {
		t.Errorf("unexpected first page %v", page)
	}

	opts.Cursor = cursor
	page, cursor, _, _ = store.QueryByField(ctx, "f", opts)
	if len(page) != 1 || page[0].NewValue.Text != "a" || cursor != "" {
		t.Errorf("unexpected second page %v (cursor %q)", page, cursor)
	}
}

func TestMemoryStore_Search(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	store.Write(ctx,
		testEvent(event.Update, "inplace_user_1_email", "new@email.com", 5),
		testEvent(event.Update, "inplace_user_1_name", "Lucia", 10),
		testEvent(event.Update, "inplace_user_2_email", "other@email.com", 3),
	)

	results, total, err := store.Search(ctx, "EMAIL.COM", DefaultSearchOptions())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if total != 2 || len(results) != 2 {
		t.Errorf("total = %d, results = %d, want 2", total, len(results))
	}

	opts := DefaultSearchOptions()
	opts.FieldPrefix = "inplace_user_1_"
	results, total, _ = store.Search(ctx, "email", opts)
	if total != 1 || results[0].FieldID != "inplace_user_1_email" {
		t.Errorf("expected only user 1, got %v", results)
	}
}

func TestMemoryStore_EmptyStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	results, _, total, err := store.QueryByField(ctx, "nobody", DefaultQueryOptions())
	if err != nil {
		t.Fatalf("QueryByField: %v", err)
	}
	if total != 0 || len(results) != 0 {
		t.Errorf("expected empty results from empty store")
	}
}
