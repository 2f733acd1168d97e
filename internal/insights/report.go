// Package insights renders the narrative sales report and checks the
// arithmetic consistency of the published figures.
package insights

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"aw-insights/internal/services"
)

const topProducts = 12
const topResellers = 10

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"money":   services.FormatMoney,
	"count":   count,
	"percent": func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	"date":    func(t time.Time) string { return t.Format("2006-01-02") },
	"title":   titleCase,
}).Parse(`# AdventureWorks Sales Insights

Generated {{date .GeneratedAt}} from {{.Source}} ({{count .Snapshot.RecordCount}} transactions, {{date .Snapshot.Summary.FirstSale}} to {{date .Snapshot.Summary.LastSale}}).

## Executive Summary

| Metric | Value |
|---|---|
| Total Revenue | {{money .Snapshot.Summary.TotalRevenue}} |
| Total Profit | {{money .Snapshot.Summary.TotalProfit}} |
| Transactions | {{count .Snapshot.RecordCount}} |
| Unique Customers | {{.Snapshot.Summary.UniqueCustomers}} |
| Unique Products | {{.Snapshot.Summary.UniqueProducts}} |
| Countries | {{.Snapshot.Summary.Countries}} |
| Average Order Value | {{money .Snapshot.Summary.AvgOrderValue}} |
| Average Profit Margin | {{percent .Snapshot.Summary.AvgProfitMargin}} |
| Customer Lifetime Value | {{money .Snapshot.Summary.CustomerLTV}} |
| YoY Growth (fiscal) | {{percent .Snapshot.Summary.YoYGrowth}} |

## Channel Performance

| Channel | Revenue | Margin | Transactions | Avg Transaction | Customers |
|---|---|---|---|---|---|
{{range .Snapshot.Channels}}| {{.Channel}} | {{money .Revenue}} | {{percent .Margin}} | {{.Transactions}} | {{money .AvgTransaction}} | {{.Customers}} |
{{end}}
## Product Categories

| Category | Revenue | Share | Margin | Products |
|---|---|---|---|---|
{{range .Snapshot.Categories}}| {{.Category}} | {{money .Revenue}} | {{percent .Share}} | {{percent .Margin}} | {{.Products}} |
{{end}}
## Markets

| Country | Revenue | Share | Customers | Avg Order |
|---|---|---|---|---|
{{range .Snapshot.Countries}}| {{.Country}} | {{money .Revenue}} | {{percent .Share}} | {{.Customers}} | {{money .AvgOrderValue}} |
{{end}}
## Top Products

| Product | Category | Revenue | Profit |
|---|---|---|---|
{{range .TopProducts}}| {{.Product}} | {{.Category}} | {{money .Revenue}} | {{money .Profit}} |
{{end}}
{{if .TopResellers}}## Top Resellers

| Reseller | Business Type | Revenue | Profit |
|---|---|---|---|
{{range .TopResellers}}| {{.Reseller}} | {{.BusinessType}} | {{money .Revenue}} | {{money .Profit}} |
{{end}}
{{end}}{{if .Snapshot.Churn}}## Customer Retention

| Risk | Customers | Share |
|---|---|---|
{{range .Snapshot.Churn}}| {{.Bucket}} | {{.Customers}} | {{percent .Share}} |
{{end}}
{{end}}## Strategic Recommendations
{{range .Snapshot.Recommendations}}
- **[{{title .Priority}}] {{.Category}}**: {{.Recommendation}} _(Impact: {{.Impact}})_
{{end}}`))

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// WriteReport renders the markdown insights report for a snapshot.
func WriteReport(w io.Writer, snap *services.Snapshot) error {
	source := snap.Source
	if source == "" {
		source = "unknown source"
	}

	data := struct {
		Snapshot     *services.Snapshot
		Source       string
		GeneratedAt  time.Time
		TopProducts  any
		TopResellers any
	}{
		Snapshot:     snap,
		Source:       source,
		GeneratedAt:  time.Now(),
		TopProducts:  limitProducts(snap),
		TopResellers: limitResellers(snap),
	}

	return reportTemplate.Execute(w, data)
}

func limitProducts(snap *services.Snapshot) any {
	if len(snap.Products) > topProducts {
		return snap.Products[:topProducts]
	}
	return snap.Products
}

func limitResellers(snap *services.Snapshot) any {
	if len(snap.Resellers) > topResellers {
		return snap.Resellers[:topResellers]
	}
	return snap.Resellers
}

// count formats an integer with thousands separators.
func count(v int64) string {
	s := fmt.Sprintf("%d", v)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
