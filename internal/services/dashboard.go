package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"sales-dashboard/internal/ingest"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/summary"
	"sales-dashboard/internal/taxonomy"
)

// ErrNotReady is returned by queries until both the sales rows and the
// taxonomy are loaded.
var ErrNotReady = errors.New("dashboard data not loaded")

type Options struct {
	CacheDir string
	Sheet    string
	Location *time.Location
	Logger   *slog.Logger
}

// Dashboard owns the current row snapshot and taxonomy. Loads replace them
// wholesale, queries aggregate over an immutable snapshot outside the lock.
type Dashboard struct {
	mu       sync.RWMutex
	rows     []models.Transaction
	taxonomy *taxonomy.Config
	stats    ingest.Stats
	source   string
	loadedAt time.Time

	cacheDir string
	sheet    string
	loc      *time.Location
	logger   *slog.Logger
}

func NewDashboard(opts Options) *Dashboard {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	return &Dashboard{
		cacheDir: opts.CacheDir,
		sheet:    opts.Sheet,
		loc:      loc,
		logger:   logger,
	}
}

func (d *Dashboard) Location() *time.Location {
	return d.loc
}

func (d *Dashboard) SetData(rows []models.Transaction) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rows = rows
	d.stats = ingest.Stats{Rows: len(rows)}
	d.source = "memory"
	d.loadedAt = time.Now()
}

func (d *Dashboard) SetTaxonomy(cfg *taxonomy.Config) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.taxonomy = cfg
}

func (d *Dashboard) LoadTaxonomy(path string) error {
	cfg, err := taxonomy.Load(path)
	if err != nil {
		return err
	}
	d.SetTaxonomy(cfg)
	d.logger.Info("taxonomy loaded", "path", path, "products", cfg.Len())
	return nil
}

// LoadFromExcel reads the export at path, or its gob cache when the cache
// was written for the same file modification time.
func (d *Dashboard) LoadFromExcel(ctx context.Context, path string) error {
	if entry, err := d.loadFromCache(path); err == nil {
		d.replace(entry.Rows, entry.Stats, path)
		d.logger.Info("loaded from cache", "path", path, "records", len(entry.Rows))
		return nil
	}

	start := time.Now()
	d.logger.Info("processing excel file", "path", path, "sheet", d.sheet)

	rows, stats, err := ingest.LoadExcel(ctx, path, ingest.Options{Sheet: d.sheet, Location: d.loc})
	if err != nil {
		return fmt.Errorf("load excel: %w", err)
	}
	d.replace(rows, stats, path)

	if err := d.saveToCache(path, rows, stats); err != nil {
		d.logger.Warn("failed to save cache", "error", err)
	}

	duration := time.Since(start)
	d.logger.Info("excel processing complete",
		"records", stats.Rows,
		"skipped", stats.Skipped,
		"duplicates", stats.Duplicates,
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(stats.Rows)/duration.Seconds()))
	return nil
}

func (d *Dashboard) replace(rows []models.Transaction, stats ingest.Stats, source string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rows = rows
	d.stats = stats
	d.source = source
	d.loadedAt = time.Now()
}

func (d *Dashboard) Ready() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.rows != nil && d.taxonomy != nil
}

func (d *Dashboard) snapshot() ([]models.Transaction, *taxonomy.Config, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.rows == nil || d.taxonomy == nil {
		return nil, nil, ErrNotReady
	}
	return d.rows, d.taxonomy, nil
}

func (d *Dashboard) Summary(ctx context.Context, q summary.Query) (summary.Result, error) {
	rows, cfg, err := d.snapshot()
	if err != nil {
		return summary.Result{}, err
	}
	_, span := observability.StartSpan(ctx, "dashboard.summary")
	defer span.End(d.logger)
	span.SetTag("order", orderTag(q.Order))

	return summary.Summarize(rows, cfg, q), nil
}

func (d *Dashboard) Compare(ctx context.Context, q summary.Query, sel summary.Selector) (summary.Comparison, error) {
	rows, cfg, err := d.snapshot()
	if err != nil {
		return summary.Comparison{}, err
	}
	_, span := observability.StartSpan(ctx, "dashboard.compare")
	defer span.End(d.logger)
	span.SetTag("mode", string(sel.Mode))

	cmp, err := summary.Compare(rows, cfg, q, sel)
	if err != nil {
		span.SetError(err)
		return summary.Comparison{}, err
	}
	return cmp, nil
}

func (d *Dashboard) Warehouses(ctx context.Context, filters summary.Filters) ([]summary.WarehouseRow, summary.GrandTotal, error) {
	rows, cfg, err := d.snapshot()
	if err != nil {
		return nil, summary.GrandTotal{}, err
	}
	_, span := observability.StartSpan(ctx, "dashboard.warehouses")
	defer span.End(d.logger)

	out, total := summary.WarehouseSummary(rows, cfg, filters)
	return out, total, nil
}

func (d *Dashboard) HeadToHead(ctx context.Context, end time.Time, days int, filters summary.Filters) (summary.HeadToHeadTable, error) {
	rows, cfg, err := d.snapshot()
	if err != nil {
		return summary.HeadToHeadTable{}, err
	}
	_, span := observability.StartSpan(ctx, "dashboard.head_to_head")
	defer span.End(d.logger)

	return summary.HeadToHead(rows, cfg, end.In(d.loc), days, filters), nil
}

// Stats is the monitoring view served on /admin/stats.
func (d *Dashboard) Stats() map[string]any {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return map[string]any{
		"ready":             d.rows != nil && d.taxonomy != nil,
		"record_count":      len(d.rows),
		"skipped_rows":      d.stats.Skipped,
		"duplicate_rows":    d.stats.Duplicates,
		"source":            d.source,
		"last_processed":    d.loadedAt,
		"taxonomy_products": d.taxonomy.Len(),
	}
}

func orderTag(order []summary.Dimension) string {
	names := make([]string, len(order))
	for i, dim := range order {
		names[i] = dim.String()
	}
	return strings.Join(names, ",")
}
