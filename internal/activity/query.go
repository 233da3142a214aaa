// Package activity keeps the history of field events: every activate,
// update, error, deactivate and destroy a controller emits.
package activity

import (
	"time"

	"github.com/matthewbaird/inplace/internal/event"
)

// QueryOptions controls filtering and pagination for field history queries.
type QueryOptions struct {
	Since  *time.Time   // inclusive lower bound
	Until  *time.Time   // inclusive upper bound
	Names  []event.Name // filter to specific event names
	Limit  int          // max results (default: 100, max: 500)
	Cursor string       // occurred_at of the last result of the previous page
}

// SearchOptions controls filtering for text search over event summaries.
type SearchOptions struct {
	FieldPrefix string       // e.g. "inplace_user_1_" for one object
	Since       *time.Time   // filter by time
	Names       []event.Name // filter to specific event names
	Limit       int          // max results (default: 20)
}

// DefaultQueryOptions returns QueryOptions with sensible defaults.
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{Limit: 100}
}

// DefaultSearchOptions returns SearchOptions with sensible defaults.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{Limit: 20}
}

func queryLimit(n int) int {
	if n <= 0 || n > 500 {
		return 100
	}
	return n
}

func searchLimit(n int) int {
	if n <= 0 {
		return 20
	}
	return n
}

func hasName(names []event.Name, n event.Name) bool {
	for _, s := range names {
		if s == n {
			return true
		}
	}
	return false
}
