// Package models defines the persisted data models for the legend-scanner
// detection pipeline. Models live in their own package to avoid circular
// imports between the database facade and the per-entity repositories.
package models

import "time"

// PatternDetection is one persisted VCP detection row.
//
// Key Fields:
//   - Ticker/Pattern/AsOf: the business key; unique at the storage layer so
//     re-detections upsert instead of duplicating, even across processes
//   - Confidence: classifier score in [0,1]
//   - RS: externally supplied relative-strength rating (0-100)
//   - Price: the pivot/breakout trigger price
//   - Meta: free-form JSON with auxiliary measurements (triggered flag,
//     sub-scores, contraction depths, dry-up state)
//
// Rows are immutable from the detector's point of view: a newer evaluation
// for the same ticker supersedes through a newer AsOf or replaces the
// non-key fields of the same key, never mutates in place.
type PatternDetection struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Ticker       string    `gorm:"size:12;not null;uniqueIndex:idx_patterns_business_key,priority:1" json:"ticker"`
	Pattern      string    `gorm:"size:16;not null;uniqueIndex:idx_patterns_business_key,priority:2" json:"pattern"`
	AsOf         time.Time `gorm:"not null;index;uniqueIndex:idx_patterns_business_key,priority:3" json:"as_of"`
	Confidence   float64   `gorm:"type:decimal(5,4);not null" json:"confidence"`
	RS           float64   `gorm:"column:rs;type:decimal(6,2)" json:"rs"`
	Price        float64   `gorm:"type:decimal(15,4)" json:"price"`
	BaseDepthPct float64   `gorm:"type:decimal(6,2)" json:"base_depth_pct"`
	Meta         string    `gorm:"type:jsonb;default:'{}'" json:"meta"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for PatternDetection
func (PatternDetection) TableName() string {
	return "patterns"
}

// ScanRun records one batch scan over the ticker universe: when it ran and
// how many tickers succeeded, failed (data anomalies) or were skipped
// (provider failures, timeouts).
type ScanRun struct {
	ID            string     `gorm:"primaryKey;size:36" json:"id"`
	StartedAt     time.Time  `gorm:"index;not null" json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	TotalTickers  int        `json:"total_tickers"`
	SuccessCount  int        `json:"success_count"`
	FailedCount   int        `json:"failed_count"`
	SkippedCount  int        `json:"skipped_count"`
	DetectedCount int        `json:"detected_count"`
}

// TableName specifies the table name for ScanRun
func (ScanRun) TableName() string {
	return "scan_runs"
}
