package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"aw-insights/internal/dataset"
	"aw-insights/internal/models"
)

const defaultCacheDir = ".cache"

// Snapshot is everything the dashboard and the report serve, computed
// once per load. Readers get the whole struct atomically.
type Snapshot struct {
	Summary         models.Summary             `json:"summary"`
	Monthly         []models.MonthlyPoint      `json:"monthly"`
	Trend           models.TrendLine           `json:"trend"`
	Forecast        []models.ForecastPoint     `json:"forecast"`
	Seasonal        []models.SeasonalPoint     `json:"seasonal"`
	Countries       []models.CountrySales      `json:"countries"`
	Regions         []models.RegionSales       `json:"regions"`
	Groups          []models.GroupMetrics      `json:"groups"`
	Categories      []models.CategorySales     `json:"categories"`
	Products        []models.ProductSales      `json:"products"`
	Colors          []models.ColorSales        `json:"colors"`
	PricePoints     []models.PricePoint        `json:"price_points"`
	Segments        []models.SegmentCell       `json:"segments"`
	Churn           []models.ChurnBucket       `json:"churn"`
	Cities          []models.CitySales         `json:"cities"`
	Channels        []models.ChannelMetrics    `json:"channels"`
	BusinessTypes   []models.BusinessTypeSales `json:"business_types"`
	Resellers       []models.ResellerSales     `json:"resellers"`
	Opportunities   []models.OpportunityPoint  `json:"opportunities"`
	Recommendations []models.Recommendation    `json:"recommendations"`

	RecordCount int64     `json:"record_count"`
	SkippedRows int       `json:"skipped_rows"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"created_at"`
}

type Analytics struct {
	mu               sync.RWMutex
	snapshot         *Snapshot
	cacheDir         string
	recordsProcessed atomic.Int64
	logger           *slog.Logger
}

func NewAnalytics() *Analytics {
	return &Analytics{
		snapshot: &Snapshot{},
		cacheDir: defaultCacheDir,
		logger:   slog.Default(),
	}
}

// SetCacheDir overrides where gob snapshots are written. An empty dir
// disables the cache.
func (a *Analytics) SetCacheDir(dir string) {
	a.cacheDir = dir
}

// SetData computes a snapshot directly from sales records, bypassing
// loaders and cache. Used by tests and by callers that already hold
// the joined rows.
func (a *Analytics) SetData(sales []models.Sale) {
	snap := compute(sales)
	snap.Source = "memory"
	a.setSnapshot(snap)
}

// LoadWorkbook ingests the AdventureWorks .xlsx and precomputes all
// aggregates.
func (a *Analytics) LoadWorkbook(ctx context.Context, path string) error {
	return a.load(ctx, path, func() (*dataset.Result, error) {
		return dataset.LoadWorkbook(ctx, path, a.logger)
	})
}

// LoadCSV ingests a flattened export of the joined sales table.
func (a *Analytics) LoadCSV(ctx context.Context, path string) error {
	return a.load(ctx, path, func() (*dataset.Result, error) {
		return dataset.LoadCSV(ctx, path, a.logger)
	})
}

func (a *Analytics) load(ctx context.Context, path string, read func() (*dataset.Result, error)) error {
	if snap, err := a.loadFromCache(path); err == nil && cacheFresh(path, snap) {
		a.setSnapshot(snap)
		a.logger.Info("loaded snapshot from cache", "source", path, "records", snap.RecordCount)
		return nil
	}

	start := time.Now()
	a.logger.Info("processing sales data", "source", path)

	result, err := read()
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}

	snap := compute(result.Sales)
	snap.SkippedRows = result.Skipped
	snap.Source = path
	a.setSnapshot(snap)

	if err := a.saveToCache(path); err != nil {
		a.logger.Warn("failed to save snapshot cache", "error", err)
	}

	duration := time.Since(start)
	count := a.recordsProcessed.Load()
	a.logger.Info("sales data processed",
		"records", count,
		"skipped", result.Skipped,
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(count)/duration.Seconds()))

	return nil
}

func (a *Analytics) setSnapshot(snap *Snapshot) {
	a.mu.Lock()
	a.snapshot = snap
	a.mu.Unlock()
	a.recordsProcessed.Store(snap.RecordCount)
}

// Snapshot returns the current precomputed snapshot. The returned
// value must be treated as read-only.
func (a *Analytics) Snapshot() *Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshot
}

// Ready reports whether a dataset has been loaded and computed.
func (a *Analytics) Ready() bool {
	return !a.Snapshot().CreatedAt.IsZero()
}

// Fast query methods - O(1) reads of precomputed data.

func (a *Analytics) Summary() models.Summary {
	return a.Snapshot().Summary
}

func (a *Analytics) MonthlySales() []models.MonthlyPoint {
	return a.Snapshot().Monthly
}

func (a *Analytics) Trend() models.TrendLine {
	return a.Snapshot().Trend
}

func (a *Analytics) Forecast() []models.ForecastPoint {
	return a.Snapshot().Forecast
}

func (a *Analytics) Seasonal() []models.SeasonalPoint {
	return a.Snapshot().Seasonal
}

func (a *Analytics) CountrySales() []models.CountrySales {
	return a.Snapshot().Countries
}

func (a *Analytics) RegionSales() []models.RegionSales {
	return a.Snapshot().Regions
}

func (a *Analytics) GroupMetrics() []models.GroupMetrics {
	return a.Snapshot().Groups
}

func (a *Analytics) CategorySales() []models.CategorySales {
	return a.Snapshot().Categories
}

func (a *Analytics) TopProducts(limit int) []models.ProductSales {
	return head(a.Snapshot().Products, limit)
}

func (a *Analytics) ColorSales(limit int) []models.ColorSales {
	return head(a.Snapshot().Colors, limit)
}

func (a *Analytics) PricePoints() []models.PricePoint {
	return a.Snapshot().PricePoints
}

func (a *Analytics) CustomerSegments() []models.SegmentCell {
	return a.Snapshot().Segments
}

func (a *Analytics) ChurnRisk() []models.ChurnBucket {
	return a.Snapshot().Churn
}

func (a *Analytics) TopCities(limit int) []models.CitySales {
	return head(a.Snapshot().Cities, limit)
}

func (a *Analytics) ChannelMetrics() []models.ChannelMetrics {
	return a.Snapshot().Channels
}

func (a *Analytics) BusinessTypes() []models.BusinessTypeSales {
	return a.Snapshot().BusinessTypes
}

func (a *Analytics) TopResellers(limit int) []models.ResellerSales {
	return head(a.Snapshot().Resellers, limit)
}

func (a *Analytics) Opportunities() []models.OpportunityPoint {
	return a.Snapshot().Opportunities
}

func (a *Analytics) Recommendations() []models.Recommendation {
	return a.Snapshot().Recommendations
}

// Stats reports snapshot counts for the admin endpoint.
func (a *Analytics) Stats() map[string]any {
	snap := a.Snapshot()
	return map[string]any{
		"record_count":  snap.RecordCount,
		"skipped_rows":  snap.SkippedRows,
		"source":        snap.Source,
		"computed_at":   snap.CreatedAt,
		"countries":     len(snap.Countries),
		"regions":       len(snap.Regions),
		"categories":    len(snap.Categories),
		"products":      len(snap.Products),
		"months":        len(snap.Monthly),
		"resellers":     len(snap.Resellers),
		"channels":      len(snap.Channels),
	}
}

func head[T any](s []T, limit int) []T {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	return s[:limit]
}
