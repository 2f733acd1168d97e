// Package store archives one executive summary row per data load so
// the dashboard can show how the headline figures move between loads.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"aw-insights/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS load_snapshots (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	loaded_at TEXT NOT NULL,
	source TEXT NOT NULL,
	records INTEGER NOT NULL,
	total_revenue REAL NOT NULL,
	total_profit REAL NOT NULL,
	customers INTEGER NOT NULL,
	products INTEGER NOT NULL,
	avg_order_value REAL NOT NULL,
	avg_profit_margin REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_load_snapshots_loaded_at ON load_snapshots(loaded_at);
`

type Store struct {
	db *sql.DB
}

// SnapshotRow is one archived load.
type SnapshotRow struct {
	ID              int64     `json:"id"`
	LoadedAt        time.Time `json:"loaded_at"`
	Source          string    `json:"source"`
	Records         int64     `json:"records"`
	TotalRevenue    float64   `json:"total_revenue"`
	TotalProfit     float64   `json:"total_profit"`
	Customers       int       `json:"customers"`
	Products        int       `json:"products"`
	AvgOrderValue   float64   `json:"avg_order_value"`
	AvgProfitMargin float64   `json:"avg_profit_margin"`
}

// Open opens (or creates) the archive at path and bootstraps the
// schema. Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY on concurrent saves.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSummary archives the executive summary of a completed load.
func (s *Store) SaveSummary(ctx context.Context, source string, records int64, summary models.Summary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO load_snapshots
			(loaded_at, source, records, total_revenue, total_profit,
			 customers, products, avg_order_value, avg_profit_margin)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339),
		source,
		records,
		summary.TotalRevenue,
		summary.TotalProfit,
		summary.UniqueCustomers,
		summary.UniqueProducts,
		summary.AvgOrderValue,
		summary.AvgProfitMargin,
	)
	if err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	return nil
}

// History returns the most recent archived loads, newest first.
func (s *Store) History(ctx context.Context, limit int) ([]SnapshotRow, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, loaded_at, source, records, total_revenue, total_profit,
		       customers, products, avg_order_value, avg_profit_margin
		FROM load_snapshots
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var history []SnapshotRow
	for rows.Next() {
		var row SnapshotRow
		var loadedAt string
		if err := rows.Scan(&row.ID, &loadedAt, &row.Source, &row.Records,
			&row.TotalRevenue, &row.TotalProfit, &row.Customers, &row.Products,
			&row.AvgOrderValue, &row.AvgProfitMargin); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, loadedAt); err == nil {
			row.LoadedAt = t
		}
		history = append(history, row)
	}
	return history, rows.Err()
}
