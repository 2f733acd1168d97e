// Package ui renders the dashboard shell. Panels are empty on first
// paint; datastar fills them over SSE once the page loads.
package ui

import (
	"context"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"aw-insights/internal/models"
	"aw-insights/internal/services"
)

var pageTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>AdventureWorks Sales Insights</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0/bundles/datastar.js"></script>
<style>
body { font-family: system-ui, sans-serif; margin: 0; background: #f5f6f8; color: #1f2430; }
header { background: #1f2430; color: #fff; padding: 1rem 2rem; }
main { padding: 1.5rem 2rem; display: grid; gap: 1.5rem; }
.kpi-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(180px, 1fr)); gap: 1rem; }
.kpi { background: #fff; border-radius: 8px; padding: 1rem; box-shadow: 0 1px 3px rgba(0,0,0,.08); }
.kpi .value { font-size: 1.5rem; font-weight: 700; }
.kpi .label { color: #6b7280; font-size: .85rem; }
.panel { background: #fff; border-radius: 8px; padding: 1rem; box-shadow: 0 1px 3px rgba(0,0,0,.08); }
.modern-table { width: 100%; border-collapse: collapse; }
.modern-table th, .modern-table td { padding: .5rem .75rem; text-align: left; border-bottom: 1px solid #e5e7eb; }
button { background: #2563eb; color: #fff; border: 0; border-radius: 6px; padding: .5rem 1rem; cursor: pointer; }
</style>
</head>
<body data-signals='{"monthlyData":[],"trendData":{},"forecastData":[],"categoryData":[],"productsData":[],"channelData":[]}'>
<header>
<h1>AdventureWorks Sales Insights</h1>
</header>
<main data-on-load="@get('/sse/refresh-all')">
<div class="kpi-grid">
<div class="kpi"><div class="value">${{printf "%.0f" .TotalRevenue}}</div><div class="label">Total Revenue</div></div>
<div class="kpi"><div class="value">{{.Transactions}}</div><div class="label">Transactions</div></div>
<div class="kpi"><div class="value">{{.UniqueCustomers}}</div><div class="label">Customers</div></div>
<div class="kpi"><div class="value">${{printf "%.2f" .AvgOrderValue}}</div><div class="label">Avg Order Value</div></div>
<div class="kpi"><div class="value">{{printf "%.1f" .AvgProfitMargin}}%</div><div class="label">Avg Margin</div></div>
<div class="kpi"><div class="value">{{printf "%.1f" .YoYGrowth}}%</div><div class="label">YoY Growth</div></div>
</div>
<div class="panel">
<h2>Markets</h2>
<div id="country-content">Loading country data…</div>
<button data-on-click="@get('/sse/country-sales')">Refresh</button>
</div>
<div class="panel">
<h2>Monthly Revenue</h2>
<div id="monthly-content">Loading monthly data…</div>
</div>
<div class="panel">
<h2>Product Categories</h2>
<div id="category-content">Loading category data…</div>
</div>
<div class="panel">
<h2>Top Products</h2>
<div id="products-content">Loading product data…</div>
</div>
<div class="panel">
<h2>Sales Channels</h2>
<div id="channel-content">Loading channel data…</div>
</div>
</main>
</body>
</html>`))

// Dashboard returns the page component. The KPI cards render from the
// current snapshot; a zero Summary renders when no data is loaded yet.
func Dashboard(analytics *services.Analytics) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var summary models.Summary
		if analytics.Ready() {
			summary = analytics.Summary()
		}
		return pageTemplate.Execute(w, summary)
	})
}
