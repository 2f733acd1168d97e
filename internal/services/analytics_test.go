package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"aw-insights/internal/models"
)

const salesCSVHeader = "SalesOrderLineKey,OrderDate,FiscalYear,FiscalQuarter,Channel,Region,Country,Group,ProductKey,Product,Category,Subcategory,Color,ListPrice,StandardCost,CustomerKey,City,CustomerCountry,OrderQuantity,UnitPrice,TotalProductCost,SalesAmount\n"

const validSalesCSV = salesCSVHeader +
	`1,2020-01-15,FY2020,FY2020 Q3,Internet,Northwest,United States,North America,310,"Road-150 Red, 62",Bikes,Road Bikes,Red,3578.27,2171.29,11001,Seattle,United States,1,3578.27,2171.29,3578.27
2,2020-02-10,FY2020,FY2020 Q3,Internet,Canada,Canada,North America,477,Water Bottle - 30 oz.,Accessories,Bottles and Cages,,4.99,1.87,11002,Toronto,Canada,2,4.99,3.74,9.98
3,2021-01-20,FY2021,FY2021 Q3,Internet,Australia,Australia,Pacific,528,"Mountain-200 Silver, 38",Bikes,Mountain Bikes,Silver,2319.99,1265.62,11003,Sydney,Australia,1,2319.99,1265.62,2319.99`

func createTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewAnalytics(t *testing.T) {
	a := NewAnalytics()
	if a == nil {
		t.Fatal("NewAnalytics() returned nil")
	}
	if a.Ready() {
		t.Error("fresh Analytics should not report ready")
	}
	if a.logger == nil {
		t.Error("logger should be initialized")
	}
}

func TestAnalytics_SetData(t *testing.T) {
	a := NewAnalytics()
	a.SetData([]models.Sale{
		{
			OrderDate: time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC),
			Channel:   models.ChannelInternet, Country: "United States", Group: "North America",
			ProductKey: 310, Product: "Road-150 Red, 62", Category: "Bikes",
			CustomerKey: 11001, ResellerKey: models.NoKey,
			Quantity: 1, TotalCost: 2171.29, Amount: 3578.27,
		},
		{
			OrderDate: time.Date(2020, 2, 10, 0, 0, 0, 0, time.UTC),
			Channel:   models.ChannelInternet, Country: "Canada", Group: "North America",
			ProductKey: 477, Product: "Water Bottle - 30 oz.", Category: "Accessories",
			CustomerKey: 11002, ResellerKey: models.NoKey,
			Quantity: 2, TotalCost: 3.74, Amount: 9.98,
		},
	})

	if !a.Ready() {
		t.Fatal("Analytics should be ready after SetData")
	}

	snap := a.Snapshot()
	if snap.RecordCount != 2 {
		t.Errorf("expected RecordCount = 2, got %d", snap.RecordCount)
	}
	if snap.Source != "memory" {
		t.Errorf("expected source 'memory', got %q", snap.Source)
	}

	summary := a.Summary()
	if summary.Transactions != 2 {
		t.Errorf("expected 2 transactions, got %d", summary.Transactions)
	}
	if summary.UniqueCustomers != 2 {
		t.Errorf("expected 2 customers, got %d", summary.UniqueCustomers)
	}
	if len(a.CountrySales()) != 2 {
		t.Error("CountrySales() should return both countries")
	}
	if len(a.MonthlySales()) != 2 {
		t.Error("MonthlySales() should return both months")
	}
	if len(a.TopProducts(20)) != 2 {
		t.Error("TopProducts() should return both products")
	}
}

func TestAnalytics_LoadCSV(t *testing.T) {
	path := createTempCSV(t, validSalesCSV)

	a := NewAnalytics()
	a.SetCacheDir("")

	if err := a.LoadCSV(context.Background(), path); err != nil {
		t.Fatalf("LoadCSV() with valid data should not error, got: %v", err)
	}

	snap := a.Snapshot()
	if snap.RecordCount != 3 {
		t.Errorf("expected 3 records, got %d", snap.RecordCount)
	}
	if snap.Source != path {
		t.Errorf("expected source %q, got %q", path, snap.Source)
	}

	countries := a.CountrySales()
	if len(countries) != 3 {
		t.Fatalf("expected 3 countries, got %d", len(countries))
	}
	if countries[0].Country != "United States" {
		t.Errorf("expected United States first by revenue, got %q", countries[0].Country)
	}
}

func TestAnalytics_LoadCSV_SkipsMalformedRows(t *testing.T) {
	csv := validSalesCSV + "\n" +
		"4,not-a-date,FY2021,FY2021 Q3,Internet,,,,1,P,,,,,,,,,1,1.0,1.0,1.0\n" +
		"5,2021-02-01,FY2021,FY2021 Q3,,,,,1,P,,,,,,,,,1,1.0,1.0,1.0"

	path := createTempCSV(t, csv)

	a := NewAnalytics()
	a.SetCacheDir("")
	if err := a.LoadCSV(context.Background(), path); err != nil {
		t.Fatalf("LoadCSV() should tolerate bad rows, got: %v", err)
	}

	snap := a.Snapshot()
	if snap.RecordCount != 3 {
		t.Errorf("expected 3 valid records, got %d", snap.RecordCount)
	}
	if snap.SkippedRows != 2 {
		t.Errorf("expected 2 skipped rows, got %d", snap.SkippedRows)
	}
}

func TestAnalytics_LoadCSV_MissingFile(t *testing.T) {
	a := NewAnalytics()
	a.SetCacheDir("")
	if err := a.LoadCSV(context.Background(), "/nonexistent/sales.csv"); err == nil {
		t.Error("LoadCSV() should error for a missing file")
	}
}

func TestAnalytics_LoadCSV_NoValidRecords(t *testing.T) {
	path := createTempCSV(t, salesCSVHeader)

	a := NewAnalytics()
	a.SetCacheDir("")
	if err := a.LoadCSV(context.Background(), path); err == nil {
		t.Error("LoadCSV() should error when no rows parse")
	}
}

func TestAnalytics_SnapshotCache(t *testing.T) {
	path := createTempCSV(t, validSalesCSV)
	cacheDir := t.TempDir()

	a := NewAnalytics()
	a.SetCacheDir(cacheDir)
	if err := a.LoadCSV(context.Background(), path); err != nil {
		t.Fatalf("first load failed: %v", err)
	}
	want := a.Snapshot().Summary

	// Corrupt the source but backdate it, so a second load can only
	// succeed through the cache.
	if err := os.WriteFile(path, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(path, past, past); err != nil {
		t.Fatal(err)
	}

	b := NewAnalytics()
	b.SetCacheDir(cacheDir)
	if err := b.LoadCSV(context.Background(), path); err != nil {
		t.Fatalf("cached load failed: %v", err)
	}

	got := b.Snapshot().Summary
	if got.TotalRevenue != want.TotalRevenue {
		t.Errorf("cached revenue = %v, want %v", got.TotalRevenue, want.TotalRevenue)
	}
	if got.Transactions != want.Transactions {
		t.Errorf("cached transactions = %v, want %v", got.Transactions, want.Transactions)
	}
}

func TestAnalytics_CacheDisabled(t *testing.T) {
	path := createTempCSV(t, validSalesCSV)

	a := NewAnalytics()
	a.SetCacheDir("")
	if err := a.LoadCSV(context.Background(), path); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if _, err := a.loadFromCache(path); err == nil {
		t.Error("loadFromCache should fail when the cache is disabled")
	}
}

func TestAnalytics_Stats(t *testing.T) {
	path := createTempCSV(t, validSalesCSV)

	a := NewAnalytics()
	a.SetCacheDir("")
	if err := a.LoadCSV(context.Background(), path); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	stats := a.Stats()
	if stats["record_count"] != int64(3) {
		t.Errorf("expected record_count 3, got %v", stats["record_count"])
	}
	if stats["countries"] != 3 {
		t.Errorf("expected 3 countries, got %v", stats["countries"])
	}
}
