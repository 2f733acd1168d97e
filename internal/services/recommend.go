package services

import (
	"fmt"
	"sort"

	"aw-insights/internal/models"
)

// recommend derives the prioritized action list from a finished
// snapshot plus the per-customer lifetime spends. Each rule only
// fires when the data it needs is present.
func recommend(snap *Snapshot, customerSpends []float64) []models.Recommendation {
	recs := make([]models.Recommendation, 0, 6)

	if len(snap.Countries) > 1 {
		top := snap.Countries[0]
		low := snap.Countries[len(snap.Countries)-1]
		recs = append(recs, models.Recommendation{
			Category: "Geographic Expansion",
			Priority: models.PriorityHigh,
			Recommendation: fmt.Sprintf("Focus expansion efforts on the %s market - currently only %s vs %s in %s",
				low.Country, FormatMoney(low.Revenue), FormatMoney(top.Revenue), top.Country),
			Impact: fmt.Sprintf("%s revenue opportunity", FormatMoney(top.Revenue-low.Revenue)),
		})
	}

	if p := topByProfit(snap.Products); p != nil {
		recs = append(recs, models.Recommendation{
			Category: "Product Strategy",
			Priority: models.PriorityHigh,
			Recommendation: fmt.Sprintf("Expand inventory and marketing for %q - highest profit generator at %s",
				p.Product, FormatMoney(p.Profit)),
			Impact: "Increase focus on the top products driving the bulk of profits",
		})
	}

	if rec, ok := retentionRule(customerSpends); ok {
		recs = append(recs, rec)
	}

	if len(snap.Channels) > 1 {
		top := snap.Channels[0]
		recs = append(recs, models.Recommendation{
			Category: "Channel Strategy",
			Priority: models.PriorityMedium,
			Recommendation: fmt.Sprintf("Optimize the %s channel - currently generating %s",
				top.Channel, FormatMoney(top.Revenue)),
			Impact: "Balance channel mix for maximum reach and efficiency",
		})
	}

	if len(snap.Seasonal) > 1 {
		peak, low := snap.Seasonal[0], snap.Seasonal[0]
		for _, p := range snap.Seasonal[1:] {
			if p.AvgRevenue > peak.AvgRevenue {
				peak = p
			}
			if p.AvgRevenue < low.AvgRevenue {
				low = p
			}
		}
		recs = append(recs, models.Recommendation{
			Category: "Seasonal Planning",
			Priority: models.PriorityMedium,
			Recommendation: fmt.Sprintf("Prepare for peak season in %s and boost marketing in %s",
				peak.Month, low.Month),
			Impact: fmt.Sprintf("Level seasonal variations - %s average order gap between peak and trough",
				FormatMoney(peak.AvgRevenue-low.AvgRevenue)),
		})
	}

	recs = append(recs, models.Recommendation{
		Category: "Profitability",
		Priority: models.PriorityHigh,
		Recommendation: fmt.Sprintf("Focus on products with >20%% profit margin (current average: %.1f%%)",
			snap.Summary.AvgProfitMargin),
		Impact: fmt.Sprintf("Improve overall profitability from %s current profit", FormatMoney(snap.Summary.TotalProfit)),
	})

	return recs
}

// retentionRule flags the top quintile of customers by lifetime spend
// for a VIP program.
func retentionRule(spends []float64) (models.Recommendation, bool) {
	if len(spends) == 0 {
		return models.Recommendation{}, false
	}

	sorted := make([]float64, len(spends))
	copy(sorted, spends)
	sort.Float64s(sorted)

	p80 := quantile(sorted, 0.8)
	highValue := 0
	for _, s := range spends {
		if s > p80 {
			highValue++
		}
	}
	if highValue == 0 {
		return models.Recommendation{}, false
	}

	return models.Recommendation{
		Category: "Customer Retention",
		Priority: models.PriorityMedium,
		Recommendation: fmt.Sprintf("Implement a VIP program for the top %d customers (top 20%% by value)",
			highValue),
		Impact: fmt.Sprintf("Protect %s in high-value customer revenue", FormatMoney(p80*float64(highValue))),
	}, true
}

func topByProfit(products []models.ProductSales) *models.ProductSales {
	var best *models.ProductSales
	for i := range products {
		if best == nil || products[i].Profit > best.Profit {
			best = &products[i]
		}
	}
	return best
}

// FormatMoney renders an amount with a unit suited to its size.
// Amounts under $10K keep exact cents so published figures stay
// auditable against the raw data.
func FormatMoney(v float64) string {
	switch {
	case v >= 1_000_000 || v <= -1_000_000:
		return fmt.Sprintf("$%.1fM", v/1_000_000)
	case v >= 10_000 || v <= -10_000:
		return fmt.Sprintf("$%.0fK", v/1_000)
	default:
		return fmt.Sprintf("$%.2f", v)
	}
}
