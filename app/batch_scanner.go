package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"legend-scanner/config"
	models "legend-scanner/database/models_pkg"
	"legend-scanner/database/patterns"
	"legend-scanner/database/runs"
	"legend-scanner/marketdata"
	"legend-scanner/realtime"
	"legend-scanner/scanner"
)

// BatchScanner runs the detector across the ticker universe with a bounded
// worker pool and records each run's summary.
type BatchScanner struct {
	fetcher  marketdata.Fetcher
	store    patterns.Store
	runStore runs.Store
	hub      *realtime.Hub
	universe []string
	scanCfg  config.ScanConfig
	detCfg   scanner.Config

	mu      sync.Mutex
	running bool
}

// NewBatchScanner wires a scanner over the given universe.
func NewBatchScanner(fetcher marketdata.Fetcher, store patterns.Store, runStore runs.Store, hub *realtime.Hub, universe []string, scanCfg config.ScanConfig, detCfg scanner.Config) *BatchScanner {
	return &BatchScanner{
		fetcher:  fetcher,
		store:    store,
		runStore: runStore,
		hub:      hub,
		universe: universe,
		scanCfg:  scanCfg,
		detCfg:   detCfg,
	}
}

// scanSummary aggregates per-ticker outcomes across the worker pool.
type scanSummary struct {
	mu       sync.Mutex
	success  int
	failed   int
	skipped  int
	detected int
}

// TriggerScan starts a scan in the background. Returns the run ID, or an
// error when a scan is already in progress.
func (b *BatchScanner) TriggerScan() (string, error) {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return "", errors.New("scan already in progress")
	}
	b.running = true
	b.mu.Unlock()

	runID := uuid.NewString()
	go func() {
		defer func() {
			b.mu.Lock()
			b.running = false
			b.mu.Unlock()
		}()
		if _, err := b.run(context.Background(), runID); err != nil {
			log.Printf("⚠️  Scan %s aborted: %v", runID, err)
		}
	}()

	return runID, nil
}

// Scan runs one full pass synchronously. Used by the cron schedule.
func (b *BatchScanner) Scan(ctx context.Context) (*models.ScanRun, error) {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return nil, errors.New("scan already in progress")
	}
	b.running = true
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.running = false
		b.mu.Unlock()
	}()

	return b.run(ctx, uuid.NewString())
}

func (b *BatchScanner) run(ctx context.Context, runID string) (*models.ScanRun, error) {
	run := &models.ScanRun{
		ID:           runID,
		StartedAt:    time.Now().UTC(),
		TotalTickers: len(b.universe),
	}
	if err := b.runStore.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("record scan start: %w", err)
	}

	log.Printf("🔍 Scan %s started: %d tickers, %d workers", runID, len(b.universe), b.scanCfg.Workers)

	// Any worker hitting an unrecoverable store failure cancels the run.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		summary  scanSummary
		abortMu  sync.Mutex
		abortErr error
	)
	abort := func(err error) {
		abortMu.Lock()
		if abortErr == nil {
			abortErr = err
		}
		abortMu.Unlock()
		cancel()
	}

	jobs := make(chan string)
	var wg sync.WaitGroup

	workers := b.scanCfg.Workers
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ticker := range jobs {
				b.scanTicker(runCtx, ticker, &summary, abort)
			}
		}()
	}

	for _, ticker := range b.universe {
		select {
		case jobs <- ticker:
		case <-runCtx.Done():
		}
	}
	close(jobs)
	wg.Wait()

	now := time.Now().UTC()
	run.FinishedAt = &now
	run.SuccessCount = summary.success
	run.FailedCount = summary.failed
	run.SkippedCount = summary.skipped
	run.DetectedCount = summary.detected
	if err := b.runStore.Finish(ctx, run); err != nil {
		log.Printf("⚠️  Failed to record scan %s summary: %v", runID, err)
	}

	abortMu.Lock()
	err := abortErr
	abortMu.Unlock()
	if err != nil {
		return run, err
	}

	log.Printf("✅ Scan %s finished in %v: %d ok, %d detected, %d failed, %d skipped",
		runID, now.Sub(run.StartedAt).Round(time.Millisecond),
		run.SuccessCount, run.DetectedCount, run.FailedCount, run.SkippedCount)
	return run, nil
}

func (b *BatchScanner) scanTicker(ctx context.Context, ticker string, summary *scanSummary, abort func(error)) {
	if ctx.Err() != nil {
		summary.mu.Lock()
		summary.skipped++
		summary.mu.Unlock()
		return
	}

	tickerCtx, cancel := context.WithTimeout(ctx, time.Duration(b.scanCfg.TickerTimeout)*time.Second)
	defer cancel()

	candles, err := b.fetchWithRetry(tickerCtx, ticker)
	if err != nil {
		log.Printf("⚠️  %s: fetch failed, skipping: %v", ticker, err)
		summary.mu.Lock()
		summary.skipped++
		summary.mu.Unlock()
		return
	}

	detection, err := scanner.Detect(ticker, candles, relativeStrength(candles), b.detCfg)
	if err != nil {
		// Data anomalies fail the ticker, not the run.
		log.Printf("⚠️  %s: %v", ticker, err)
		summary.mu.Lock()
		summary.failed++
		summary.mu.Unlock()
		return
	}

	if detection != nil {
		if err := b.persist(tickerCtx, detection); err != nil {
			abort(fmt.Errorf("persist %s: %w", ticker, err))
			return
		}
		summary.mu.Lock()
		summary.detected++
		summary.mu.Unlock()

		if b.hub != nil {
			b.hub.Broadcast("pattern_detected", detection)
		}
	}

	summary.mu.Lock()
	summary.success++
	summary.mu.Unlock()
}

// fetchWithRetry attempts the fetch up to FetchRetries times with a short
// linear backoff. Context expiry stops retrying immediately.
func (b *BatchScanner) fetchWithRetry(ctx context.Context, ticker string) ([]scanner.Candle, error) {
	attempts := b.scanCfg.FetchRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		candles, err := b.fetcher.FetchDailyCandles(ctx, ticker, b.scanCfg.LookbackDays)
		if err == nil {
			return candles, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt < attempts {
			select {
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, lastErr
}

// persist upserts a detection, retrying transient store failures. An
// exhausted retry budget is treated as a systemic outage.
func (b *BatchScanner) persist(ctx context.Context, d *scanner.Detection) error {
	row, err := detectionRow(d)
	if err != nil {
		return err
	}

	attempts := b.scanCfg.StoreRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := b.store.Upsert(ctx, row)
		if err == nil {
			return nil
		}
		if !errors.Is(err, patterns.ErrUnavailable) {
			return err
		}
		lastErr = err

		if attempt < attempts {
			select {
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return lastErr
}

// detectionMeta is the auxiliary measurement payload stored alongside the
// row's indexed columns.
type detectionMeta struct {
	Triggered       bool      `json:"triggered"`
	VolumeDryUp     bool      `json:"volume_dry_up"`
	TrendStrength   float64   `json:"trend_strength"`
	SymmetryScore   float64   `json:"symmetry_score"`
	BaseLengthScore float64   `json:"base_length_score"`
	LiquidityScore  float64   `json:"liquidity_score"`
	Depths          []float64 `json:"contraction_depths"`
}

func detectionRow(d *scanner.Detection) (*models.PatternDetection, error) {
	depths := make([]float64, len(d.Contractions))
	for i, c := range d.Contractions {
		depths[i] = c.DepthPct
	}

	meta, err := json.Marshal(detectionMeta{
		Triggered:       d.Triggered,
		VolumeDryUp:     d.VolumeDryUp,
		TrendStrength:   d.TrendStrength,
		SymmetryScore:   d.SymmetryScore,
		BaseLengthScore: d.BaseLengthScore,
		LiquidityScore:  d.LiquidityScore,
		Depths:          depths,
	})
	if err != nil {
		return nil, fmt.Errorf("encode detection meta: %w", err)
	}

	return &models.PatternDetection{
		Ticker:       d.Ticker,
		Pattern:      "VCP",
		AsOf:         d.AsOf,
		Confidence:   d.Confidence,
		RS:           d.RS,
		Price:        d.PivotPrice,
		BaseDepthPct: d.BaseDepthPct,
		Meta:         string(meta),
	}, nil
}

// relativeStrength derives a 0-100 momentum rating from weighted trailing
// returns (most recent quarter double-weighted), squashed so that a flat
// series scores 50 and strong sustained uptrends approach 100.
func relativeStrength(candles []scanner.Candle) float64 {
	n := len(candles)
	if n < 2 {
		return 50
	}

	ret := func(bars int) float64 {
		if bars >= n {
			bars = n - 1
		}
		past := candles[n-1-bars].Close
		if past <= 0 {
			return 0
		}
		return (candles[n-1].Close - past) / past
	}

	weighted := 0.4*ret(63) + 0.2*ret(126) + 0.2*ret(189) + 0.2*ret(252)

	// Map [-50%, +100%] roughly onto [0, 100].
	score := 50 + weighted*66
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}
