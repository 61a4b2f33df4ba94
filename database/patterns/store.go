// Package patterns implements the detection store: idempotent upsert keyed
// by (ticker, pattern, as_of) and cursor-paginated retrieval over the
// total order (as_of DESC, ticker ASC).
package patterns

import (
	"context"
	"errors"
	"time"

	models "legend-scanner/database/models_pkg"
)

var (
	// ErrUnavailable marks storage-layer failures. Callers retry with
	// bounded backoff; exhaustion is systemic and aborts the batch run.
	ErrUnavailable = errors.New("pattern store unavailable")

	// ErrInvalidCursor marks malformed or tampered pagination tokens. It is
	// a client error and never silently resets to page one.
	ErrInvalidCursor = errors.New("invalid cursor")
)

// Store is the detection store contract shared by the Postgres repository
// and the in-memory mock-mode store.
type Store interface {
	// Upsert writes a detection keyed by (ticker, pattern, as_of). An
	// existing key has its non-key fields fully replaced; concurrent
	// writers for one key serialize to a single surviving row.
	Upsert(ctx context.Context, row *models.PatternDetection) error

	// Page returns up to limit detections ordered by as_of DESC, ticker
	// ASC, starting after the position encoded in cursor (empty cursor =
	// first page). The returned token is empty at the end of the set.
	Page(ctx context.Context, cursor string, limit int) ([]models.PatternDetection, string, error)

	// Status aggregates store-wide metadata for the status endpoint.
	Status(ctx context.Context) (*Status, error)
}

// Status summarizes the store contents.
type Status struct {
	LastAsOf  *time.Time `json:"last_as_of,omitempty"`
	FirstAsOf *time.Time `json:"first_as_of,omitempty"`
	Total     int64      `json:"total"`
}

// SpanDays is the calendar span between the oldest and newest detection,
// or nil when the store holds fewer than one row.
func (s *Status) SpanDays() *int {
	if s.FirstAsOf == nil || s.LastAsOf == nil {
		return nil
	}
	days := int(s.LastAsOf.Sub(*s.FirstAsOf).Hours() / 24)
	return &days
}
