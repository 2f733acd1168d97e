package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"aw-insights/internal/services"
)

const (
	maxCountryRows  = 25
	maxChartEntries = 20
)

var countryTableTemplate = template.Must(template.New("countryTable").Parse(`
<div id="country-content">
<table class="modern-table">
<thead><tr><th>Country</th><th>Revenue</th><th>Share</th><th>Profit</th><th>Customers</th><th>Avg Order</th></tr></thead>
<tbody>
{{range .}}<tr>
<td>{{.Country}}</td>
<td><strong>${{printf "%.2f" .Revenue}}</strong></td>
<td>{{printf "%.1f" .Share}}%</td>
<td>${{printf "%.2f" .Profit}}</td>
<td>{{.Customers}}</td>
<td>${{printf "%.2f" .AvgOrderValue}}</td>
</tr>{{end}}
</tbody>
</table>
</div>`))

// SSEHandlers streams dashboard fragments and chart signals over
// server-sent events using the datastar protocol.
type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

func (h *SSEHandlers) renderCountryTable() (string, error) {
	countries := h.analytics.CountrySales()
	if len(countries) > maxCountryRows {
		countries = countries[:maxCountryRows]
	}

	var buf strings.Builder
	err := countryTableTemplate.Execute(&buf, countries)
	return buf.String(), err
}

// HandleCountrySales replaces the country table fragment in place.
func (h *SSEHandlers) HandleCountrySales(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	html, err := h.renderCountryTable()
	if err != nil {
		h.logger.Error("render country table", "error", err)
		return
	}

	sse.PatchElements(html)
	flush(w)
}

// HandleMonthlySales pushes the monthly series, trend line and
// forecast as signals for the client-side chart.
func (h *SSEHandlers) HandleMonthlySales(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	h.patchSignals(sse, map[string]any{
		"monthlyData":  h.analytics.MonthlySales(),
		"trendData":    h.analytics.Trend(),
		"forecastData": h.analytics.Forecast(),
	})
	sse.PatchElements(`<div id="monthly-content">Monthly sales chart data loaded</div>`)
	flush(w)
}

func (h *SSEHandlers) HandleCategorySales(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	h.patchSignals(sse, map[string]any{
		"categoryData": h.analytics.CategorySales(),
	})
	sse.PatchElements(`<div id="category-content">Category chart data loaded</div>`)
	flush(w)
}

func (h *SSEHandlers) HandleTopProducts(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	h.patchSignals(sse, map[string]any{
		"productsData": h.analytics.TopProducts(maxChartEntries),
	})
	sse.PatchElements(`<div id="products-content">Products chart data loaded</div>`)
	flush(w)
}

func (h *SSEHandlers) HandleChannelMetrics(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	h.patchSignals(sse, map[string]any{
		"channelData": h.analytics.ChannelMetrics(),
	})
	sse.PatchElements(`<div id="channel-content">Channel chart data loaded</div>`)
	flush(w)
}

// HandleRefreshAll refreshes every dashboard panel in a single stream.
func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	html, err := h.renderCountryTable()
	if err != nil {
		h.logger.Error("render country table", "error", err)
		return
	}
	sse.PatchElements(html)

	h.patchSignals(sse, map[string]any{
		"monthlyData":  h.analytics.MonthlySales(),
		"trendData":    h.analytics.Trend(),
		"forecastData": h.analytics.Forecast(),
		"categoryData": h.analytics.CategorySales(),
		"productsData": h.analytics.TopProducts(maxChartEntries),
		"channelData":  h.analytics.ChannelMetrics(),
	})
	flush(w)
}

func (h *SSEHandlers) patchSignals(sse *datastar.ServerSentEventGenerator, signals map[string]any) {
	data, err := json.Marshal(signals)
	if err != nil {
		h.logger.Error("marshal signals", "error", err)
		return
	}
	sse.PatchSignals(data)
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
