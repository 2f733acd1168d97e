package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"aw-insights/internal/models"
	"aw-insights/internal/services"
)

func testSales() []models.Sale {
	return []models.Sale{
		{
			OrderLineKey: 1,
			OrderDate:    time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC),
			FiscalYear:   "FY2020", FiscalQuarter: "FY2020 Q3",
			Channel: models.ChannelInternet,
			Region:  "Northwest", Country: "United States", Group: "North America",
			ProductKey: 310, Product: "Road-150 Red, 62", Category: "Bikes",
			Subcategory: "Road Bikes", Color: "Red", ListPrice: 3578.27, StandardCost: 2171.29,
			CustomerKey: 11001, City: "Seattle", CustomerCountry: "United States",
			ResellerKey: models.NoKey,
			Quantity:    1, UnitPrice: 3578.27, TotalCost: 2171.29, Amount: 3578.27,
		},
		{
			OrderLineKey: 2,
			OrderDate:    time.Date(2020, 2, 10, 0, 0, 0, 0, time.UTC),
			FiscalYear:   "FY2020", FiscalQuarter: "FY2020 Q3",
			Channel: models.ChannelInternet,
			Region:  "Canada", Country: "Canada", Group: "North America",
			ProductKey: 477, Product: "Water Bottle - 30 oz.", Category: "Accessories",
			Subcategory: "Bottles and Cages", ListPrice: 4.99, StandardCost: 1.87,
			CustomerKey: 11002, City: "Toronto", CustomerCountry: "Canada",
			ResellerKey: models.NoKey,
			Quantity:    2, UnitPrice: 4.99, TotalCost: 3.74, Amount: 9.98,
		},
		{
			OrderLineKey: 3,
			OrderDate:    time.Date(2021, 1, 20, 0, 0, 0, 0, time.UTC),
			FiscalYear:   "FY2021", FiscalQuarter: "FY2021 Q3",
			Channel: models.ChannelReseller,
			Region:  "United Kingdom", Country: "United Kingdom", Group: "Europe",
			ProductKey: 528, Product: "Mountain-200 Silver, 38", Category: "Bikes",
			Subcategory: "Mountain Bikes", Color: "Silver", ListPrice: 2319.99, StandardCost: 1265.62,
			CustomerKey: models.NoKey,
			ResellerKey: 501, Reseller: "Brakes and Gears", BusinessType: "Value Added Reseller",
			Quantity: 2, UnitPrice: 1391.99, TotalCost: 2531.24, Amount: 2783.98,
		},
	}
}

func createTestAnalytics() *services.Analytics {
	a := services.NewAnalytics()
	a.SetCacheDir("")
	a.SetData(testSales())
	return a
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var response map[string]any
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	return response
}

func TestNewAPIHandlers(t *testing.T) {
	analytics := createTestAnalytics()
	h := NewAPIHandlers(analytics, nil, slog.Default())

	if h == nil {
		t.Fatal("NewAPIHandlers() returned nil")
	}
	if h.analytics != analytics {
		t.Error("NewAPIHandlers() should set analytics field")
	}
}

func TestAPIHandlers_HandleSummary(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), nil, slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	w := httptest.NewRecorder()

	h.HandleSummary(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected content-type 'application/json', got %q", ct)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=300" {
		t.Errorf("expected cache-control 'public, max-age=300', got %q", cc)
	}

	response := decodeEnvelope(t, w)
	if success, ok := response["success"].(bool); !ok || !success {
		t.Error("expected success=true in response")
	}

	data, ok := response["data"].(map[string]any)
	if !ok {
		t.Fatal("expected summary object in data field")
	}
	wantRevenue := 3578.27 + 9.98 + 2783.98
	if got := data["total_revenue"].(float64); got < wantRevenue-0.01 || got > wantRevenue+0.01 {
		t.Errorf("expected total_revenue %.2f, got %.2f", wantRevenue, got)
	}
	if got := data["transactions"].(float64); got != 3 {
		t.Errorf("expected 3 transactions, got %v", got)
	}
	if got := data["unique_customers"].(float64); got != 2 {
		t.Errorf("expected 2 customers, got %v", got)
	}
}

func TestAPIHandlers_HandleMonthlySales(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), nil, slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/api/monthly-sales", nil)
	w := httptest.NewRecorder()

	h.HandleMonthlySales(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	response := decodeEnvelope(t, w)
	data, ok := response["data"].(map[string]any)
	if !ok {
		t.Fatal("expected data object in response")
	}
	for _, key := range []string{"monthly", "trend", "forecast"} {
		if _, ok := data[key]; !ok {
			t.Errorf("expected %q field in monthly-sales data", key)
		}
	}

	monthly, ok := data["monthly"].([]any)
	if !ok || len(monthly) != 3 {
		t.Fatalf("expected 3 monthly points, got %v", data["monthly"])
	}
}

func TestAPIHandlers_NotReady(t *testing.T) {
	h := NewAPIHandlers(services.NewAnalytics(), nil, slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	w := httptest.NewRecorder()

	h.HandleSummary(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d before first load, got %d", http.StatusServiceUnavailable, w.Code)
	}

	response := decodeEnvelope(t, w)
	if success, ok := response["success"].(bool); !ok || success {
		t.Error("expected success=false in error response")
	}
}

func TestAPIHandlers_LimitParam(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), nil, slog.Default())

	tests := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{"default", "", http.StatusOK},
		{"explicit", "?limit=5", http.StatusOK},
		{"not a number", "?limit=abc", http.StatusBadRequest},
		{"zero", "?limit=0", http.StatusBadRequest},
		{"too large", "?limit=1000", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/top-products"+tt.query, nil)
			w := httptest.NewRecorder()

			h.HandleTopProducts(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestAPIHandlers_HandleHistoryDisabled(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), nil, slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	w := httptest.NewRecorder()

	h.HandleHistory(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status %d with no archive, got %d", http.StatusNotFound, w.Code)
	}
}

func TestAPIHandlers_HandleHealth(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), nil, slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	h.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "" {
		t.Errorf("health endpoint should not set cache-control, got %q", cc)
	}

	response := decodeEnvelope(t, w)
	data, ok := response["data"].(map[string]any)
	if !ok {
		t.Fatal("expected health data in response")
	}
	if status := data["status"]; status != "healthy" {
		t.Errorf("expected status 'healthy', got %q", status)
	}
	if ts, ok := data["timestamp"].(string); !ok || ts == "" {
		t.Error("expected non-empty timestamp")
	} else if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("invalid timestamp format: %v", err)
	}
}

func TestAPIHandlers_HandleHealthLoading(t *testing.T) {
	h := NewAPIHandlers(services.NewAnalytics(), nil, slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	h.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	response := decodeEnvelope(t, w)
	data := response["data"].(map[string]any)
	if status := data["status"]; status != "loading" {
		t.Errorf("expected status 'loading' before first load, got %q", status)
	}
}

func TestAPIHandlers_HandleStats(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), nil, slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	w := httptest.NewRecorder()

	h.HandleStats(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	response := decodeEnvelope(t, w)
	data, ok := response["data"].(map[string]any)
	if !ok {
		t.Fatal("expected stats object in response")
	}
	if got := data["record_count"].(float64); got != 3 {
		t.Errorf("expected record_count 3, got %v", got)
	}
	if got := data["countries"].(float64); got != 3 {
		t.Errorf("expected 3 countries, got %v", got)
	}
}

// Every aggregate endpoint writes the same success envelope and cache
// headers.
func TestAPIHandlers_HeaderConsistency(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), nil, slog.Default())

	endpoints := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"summary", h.HandleSummary},
		{"monthly-sales", h.HandleMonthlySales},
		{"seasonal", h.HandleSeasonal},
		{"country-sales", h.HandleCountrySales},
		{"region-sales", h.HandleRegionSales},
		{"group-metrics", h.HandleGroupMetrics},
		{"category-sales", h.HandleCategorySales},
		{"top-products", h.HandleTopProducts},
		{"color-sales", h.HandleColorSales},
		{"price-points", h.HandlePricePoints},
		{"customer-segments", h.HandleCustomerSegments},
		{"churn-risk", h.HandleChurnRisk},
		{"top-cities", h.HandleTopCities},
		{"channel-metrics", h.HandleChannelMetrics},
		{"business-types", h.HandleBusinessTypes},
		{"top-resellers", h.HandleTopResellers},
		{"opportunities", h.HandleOpportunities},
		{"recommendations", h.HandleRecommendations},
	}

	for _, endpoint := range endpoints {
		t.Run(endpoint.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			w := httptest.NewRecorder()

			endpoint.handler(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected content-type 'application/json', got %q", ct)
			}
			if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=300" {
				t.Errorf("expected cache-control 'public, max-age=300', got %q", cc)
			}

			response := decodeEnvelope(t, w)
			if success, ok := response["success"].(bool); !ok || !success {
				t.Error("expected success=true in response")
			}
			if _, ok := response["data"]; !ok {
				t.Error("expected data field in response")
			}
		})
	}
}
