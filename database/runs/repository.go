// Package runs persists batch scan run summaries.
package runs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"

	models "legend-scanner/database/models_pkg"
)

// Store is the scan-run bookkeeping contract.
type Store interface {
	Create(ctx context.Context, run *models.ScanRun) error
	Finish(ctx context.Context, run *models.ScanRun) error
	Latest(ctx context.Context) (*models.ScanRun, error)
}

// Repository handles database operations for scan runs
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new runs repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// InitSchema migrates the scan_runs table.
func (r *Repository) InitSchema() error {
	if err := r.db.AutoMigrate(&models.ScanRun{}); err != nil {
		return fmt.Errorf("failed to migrate scan_runs table: %w", err)
	}
	return nil
}

// Create records the start of a batch run.
func (r *Repository) Create(ctx context.Context, run *models.ScanRun) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("create scan run: %w", err)
	}
	return nil
}

// Finish persists the final counters of a completed run.
func (r *Repository) Finish(ctx context.Context, run *models.ScanRun) error {
	if err := r.db.WithContext(ctx).Save(run).Error; err != nil {
		return fmt.Errorf("finish scan run: %w", err)
	}
	return nil
}

// Latest returns the most recently started run, or nil when none exist.
func (r *Repository) Latest(ctx context.Context) (*models.ScanRun, error) {
	var run models.ScanRun
	err := r.db.WithContext(ctx).Order("started_at DESC").First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest scan run: %w", err)
	}
	return &run, nil
}

// MemoryStore keeps run summaries in memory for mock mode and tests.
type MemoryStore struct {
	mu   sync.Mutex
	runs []models.ScanRun
}

// NewMemoryStore creates an empty in-memory run store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Create appends a new run record.
func (m *MemoryStore) Create(_ context.Context, run *models.ScanRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, *run)
	return nil
}

// Finish replaces the stored run with its final counters.
func (m *MemoryStore) Finish(_ context.Context, run *models.ScanRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.runs {
		if m.runs[i].ID == run.ID {
			m.runs[i] = *run
			return nil
		}
	}
	m.runs = append(m.runs, *run)
	return nil
}

// Latest returns the most recently started run, or nil when none exist.
func (m *MemoryStore) Latest(_ context.Context) (*models.ScanRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.runs) == 0 {
		return nil, nil
	}
	latest := m.runs[0]
	for _, run := range m.runs[1:] {
		if run.StartedAt.After(latest.StartedAt) {
			latest = run
		}
	}
	return &latest, nil
}
