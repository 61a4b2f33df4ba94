package patterns

import (
	"context"
	"sort"
	"sync"
	"time"

	models "legend-scanner/database/models_pkg"
)

// MemoryStore is an in-memory detection store used in mock mode (no
// DATABASE configured) and by tests. It honors the same business-key
// idempotence and ordering semantics as the Postgres repository; a mutex
// serializes concurrent upserts per the last-committed-wins rule.
type MemoryStore struct {
	mu    sync.Mutex
	rows  map[string]models.PatternDetection
	codec *CursorCodec
	seq   int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(codec *CursorCodec) *MemoryStore {
	return &MemoryStore{
		rows:  make(map[string]models.PatternDetection),
		codec: codec,
	}
}

func businessKey(row *models.PatternDetection) string {
	return row.Ticker + "|" + row.Pattern + "|" + row.AsOf.UTC().Format(time.RFC3339Nano)
}

// Upsert replaces the non-key fields of an existing key or inserts a new
// row. Exactly one row per key survives.
func (m *MemoryStore) Upsert(_ context.Context, row *models.PatternDetection) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := businessKey(row)
	now := time.Now()

	stored := *row
	if prev, ok := m.rows[key]; ok {
		stored.ID = prev.ID
		stored.CreatedAt = prev.CreatedAt
	} else {
		m.seq++
		stored.ID = m.seq
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	m.rows[key] = stored

	return nil
}

// Page returns a snapshot page ordered by as_of DESC, ticker ASC.
func (m *MemoryStore) Page(_ context.Context, cursor string, limit int) ([]models.PatternDetection, string, error) {
	var afterAsOf time.Time
	var afterTicker string
	usingCursor := cursor != ""
	if usingCursor {
		asOf, ticker, err := m.codec.Decode(cursor)
		if err != nil {
			return nil, "", err
		}
		afterAsOf, afterTicker = asOf, ticker
	}

	m.mu.Lock()
	all := make([]models.PatternDetection, 0, len(m.rows))
	for _, row := range m.rows {
		all = append(all, row)
	}
	m.mu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].AsOf.Equal(all[j].AsOf) {
			return all[i].AsOf.After(all[j].AsOf)
		}
		return all[i].Ticker < all[j].Ticker
	})

	page := make([]models.PatternDetection, 0, limit)
	for _, row := range all {
		if usingCursor {
			// Same keyset predicate as the SQL path: strictly after the
			// cursor position in the total order.
			if row.AsOf.After(afterAsOf) {
				continue
			}
			if row.AsOf.Equal(afterAsOf) && row.Ticker <= afterTicker {
				continue
			}
		}
		page = append(page, row)
		if len(page) == limit+1 {
			break
		}
	}

	next := ""
	if len(page) > limit {
		page = page[:limit]
		last := page[len(page)-1]
		next = m.codec.Encode(last.AsOf, last.Ticker)
	}

	return page, next, nil
}

// Status aggregates over the snapshot.
func (m *MemoryStore) Status(_ context.Context) (*Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := &Status{Total: int64(len(m.rows))}
	for _, row := range m.rows {
		if status.LastAsOf == nil || row.AsOf.After(*status.LastAsOf) {
			asOf := row.AsOf
			status.LastAsOf = &asOf
		}
		if status.FirstAsOf == nil || row.AsOf.Before(*status.FirstAsOf) {
			asOf := row.AsOf
			status.FirstAsOf = &asOf
		}
	}

	return status, nil
}

// Len reports the number of stored rows.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}
