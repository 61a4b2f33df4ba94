package patterns

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	models "legend-scanner/database/models_pkg"
)

// Repository is the Postgres-backed detection store.
type Repository struct {
	db    *gorm.DB
	codec *CursorCodec
}

// NewRepository creates a new patterns repository
func NewRepository(db *gorm.DB, codec *CursorCodec) *Repository {
	return &Repository{db: db, codec: codec}
}

// InitSchema migrates the patterns table and enforces the uniqueness
// constraint on the business key. The index is mandatory at the storage
// layer regardless of in-process upsert logic, to guard multi-process races.
func (r *Repository) InitSchema() error {
	if err := r.db.AutoMigrate(&models.PatternDetection{}); err != nil {
		return fmt.Errorf("failed to migrate patterns table: %w", err)
	}

	if err := r.db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_patterns_business_key
		ON patterns (ticker, pattern, as_of)
	`).Error; err != nil {
		return fmt.Errorf("failed to create patterns business key index: %w", err)
	}

	return nil
}

// Upsert writes a detection. On a business-key conflict the non-key fields
// are replaced wholesale (last-committed-wins), never appended or merged.
func (r *Repository) Upsert(ctx context.Context, row *models.PatternDetection) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "ticker"}, {Name: "pattern"}, {Name: "as_of"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"confidence", "rs", "price", "base_depth_pct", "meta", "updated_at",
		}),
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("%w: upsert %s/%s: %v", ErrUnavailable, row.Ticker, row.Pattern, err)
	}
	return nil
}

// Page implements keyset pagination over (as_of DESC, ticker ASC). One
// extra row is fetched to decide whether a next cursor exists.
func (r *Repository) Page(ctx context.Context, cursor string, limit int) ([]models.PatternDetection, string, error) {
	query := r.db.WithContext(ctx).
		Order("as_of DESC, ticker ASC").
		Limit(limit + 1)

	if cursor != "" {
		asOf, ticker, err := r.codec.Decode(cursor)
		if err != nil {
			return nil, "", err
		}
		query = query.Where("(as_of < ?) OR (as_of = ? AND ticker > ?)", asOf, asOf, ticker)
	}

	var rows []models.PatternDetection
	if err := query.Find(&rows).Error; err != nil {
		return nil, "", fmt.Errorf("%w: page: %v", ErrUnavailable, err)
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = r.codec.Encode(last.AsOf, last.Ticker)
	}

	return rows, next, nil
}

// Status aggregates last/first as_of and the row total.
func (r *Repository) Status(ctx context.Context) (*Status, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.PatternDetection{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("%w: status: %v", ErrUnavailable, err)
	}

	status := &Status{Total: total}
	if total > 0 {
		var first, last models.PatternDetection
		if err := r.db.WithContext(ctx).Order("as_of ASC").First(&first).Error; err != nil {
			return nil, fmt.Errorf("%w: status: %v", ErrUnavailable, err)
		}
		if err := r.db.WithContext(ctx).Order("as_of DESC").First(&last).Error; err != nil {
			return nil, fmt.Errorf("%w: status: %v", ErrUnavailable, err)
		}
		status.FirstAsOf = &first.AsOf
		status.LastAsOf = &last.AsOf
	}

	return status, nil
}
