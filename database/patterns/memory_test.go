package patterns

import (
	"context"
	"fmt"
	"testing"
	"time"

	models "legend-scanner/database/models_pkg"
)

func testDetection(ticker string, asOf time.Time, confidence float64) *models.PatternDetection {
	return &models.PatternDetection{
		Ticker:     ticker,
		Pattern:    "VCP",
		AsOf:       asOf,
		Confidence: confidence,
		RS:         82,
		Price:      84.0,
		Meta:       `{"triggered":true}`,
	}
}

func TestMemoryStoreUpsertIdempotence(t *testing.T) {
	store := NewMemoryStore(NewCursorCodec(""))
	ctx := context.Background()
	asOf := time.Date(2024, 3, 15, 21, 0, 0, 0, time.UTC)

	det := testDetection("AAPL", asOf, 0.81)
	if err := store.Upsert(ctx, det); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := store.Upsert(ctx, det); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if store.Len() != 1 {
		t.Fatalf("expected exactly one row for the key, got %d", store.Len())
	}

	rows, _, err := store.Page(ctx, "", 10)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if rows[0].Confidence != 0.81 || rows[0].Price != 84.0 {
		t.Errorf("idempotent upsert changed field values: %+v", rows[0])
	}
}

func TestMemoryStoreUpsertReplacesFields(t *testing.T) {
	store := NewMemoryStore(NewCursorCodec(""))
	ctx := context.Background()
	asOf := time.Date(2024, 3, 15, 21, 0, 0, 0, time.UTC)

	if err := store.Upsert(ctx, testDetection("AAPL", asOf, 0.55)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := store.Upsert(ctx, testDetection("AAPL", asOf, 0.90)); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	rows, _, err := store.Page(ctx, "", 10)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("re-detection duplicated the key: %d rows", len(rows))
	}
	if rows[0].Confidence != 0.90 {
		t.Errorf("confidence = %.2f, want replacement value 0.90", rows[0].Confidence)
	}
}

func TestMemoryStorePaginationStability(t *testing.T) {
	store := NewMemoryStore(NewCursorCodec(""))
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 21, 0, 0, 0, time.UTC)

	// 23 rows across 5 distinct as_of days with ticker ties on each day.
	total := 0
	for day := 0; day < 5; day++ {
		for i := 0; i < 5; i++ {
			if day == 4 && i >= 3 {
				break
			}
			ticker := fmt.Sprintf("SYM%d%c", day, 'A'+i)
			if err := store.Upsert(ctx, testDetection(ticker, base.AddDate(0, 0, day), 0.8)); err != nil {
				t.Fatalf("upsert: %v", err)
			}
			total++
		}
	}

	for _, limit := range []int{1, 3, 5, 7, total} {
		t.Run(fmt.Sprintf("limit=%d", limit), func(t *testing.T) {
			seen := make(map[string]bool)
			cursor := ""
			fetched := 0
			for {
				rows, next, err := store.Page(ctx, cursor, limit)
				if err != nil {
					t.Fatalf("page: %v", err)
				}
				for _, row := range rows {
					key := businessKey(&row)
					if seen[key] {
						t.Fatalf("duplicate row across pages: %s", key)
					}
					seen[key] = true
					fetched++
				}
				if next == "" {
					break
				}
				cursor = next
			}
			if fetched != total {
				t.Errorf("walked %d rows via cursor, want %d (no skips)", fetched, total)
			}
		})
	}
}

func TestMemoryStoreOrderingTotal(t *testing.T) {
	store := NewMemoryStore(NewCursorCodec(""))
	ctx := context.Background()
	day := time.Date(2024, 3, 10, 21, 0, 0, 0, time.UTC)

	store.Upsert(ctx, testDetection("MSFT", day, 0.8))
	store.Upsert(ctx, testDetection("AAPL", day, 0.8))
	store.Upsert(ctx, testDetection("NVDA", day.AddDate(0, 0, 1), 0.8))

	rows, _, err := store.Page(ctx, "", 10)
	if err != nil {
		t.Fatalf("page: %v", err)
	}

	want := []string{"NVDA", "AAPL", "MSFT"} // as_of DESC, then ticker ASC
	for i, ticker := range want {
		if rows[i].Ticker != ticker {
			t.Errorf("row %d = %s, want %s", i, rows[i].Ticker, ticker)
		}
	}
}

func TestMemoryStoreHasMoreSemantics(t *testing.T) {
	store := NewMemoryStore(NewCursorCodec(""))
	ctx := context.Background()
	day := time.Date(2024, 3, 10, 21, 0, 0, 0, time.UTC)

	store.Upsert(ctx, testDetection("AAPL", day, 0.8))
	store.Upsert(ctx, testDetection("MSFT", day, 0.8))

	rows, next, err := store.Page(ctx, "", 2)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected full page, got %d", len(rows))
	}
	if next != "" {
		t.Error("exact final page must not advertise a next cursor")
	}
}

func TestMemoryStatus(t *testing.T) {
	store := NewMemoryStore(NewCursorCodec(""))
	ctx := context.Background()

	status, err := store.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Total != 0 || status.SpanDays() != nil {
		t.Errorf("empty store status = %+v", status)
	}

	first := time.Date(2024, 3, 1, 21, 0, 0, 0, time.UTC)
	last := time.Date(2024, 3, 11, 21, 0, 0, 0, time.UTC)
	store.Upsert(ctx, testDetection("AAPL", first, 0.8))
	store.Upsert(ctx, testDetection("MSFT", last, 0.8))

	status, err = store.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Total != 2 {
		t.Errorf("total = %d, want 2", status.Total)
	}
	if span := status.SpanDays(); span == nil || *span != 10 {
		t.Errorf("span days = %v, want 10", span)
	}
}
