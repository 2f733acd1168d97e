package models

import "time"

// Summary holds the executive-level metrics shown at the top of the
// dashboard and the insights report.
type Summary struct {
	TotalRevenue    float64   `json:"total_revenue"`
	TotalProfit     float64   `json:"total_profit"`
	Transactions    int64     `json:"transactions"`
	UniqueCustomers int       `json:"unique_customers"`
	UniqueProducts  int       `json:"unique_products"`
	Countries       int       `json:"countries"`
	AvgOrderValue   float64   `json:"avg_order_value"`
	AvgProfitMargin float64   `json:"avg_profit_margin"`
	CustomerLTV     float64   `json:"customer_ltv"`
	YoYGrowth       float64   `json:"yoy_growth"`
	FirstSale       time.Time `json:"first_sale"`
	LastSale        time.Time `json:"last_sale"`
}

// MonthlyPoint is one calendar month of the sales time series.
type MonthlyPoint struct {
	Month           string  `json:"month"` // 2006-01
	Revenue         float64 `json:"revenue"`
	Orders          int     `json:"orders"`
	ActiveCustomers int     `json:"active_customers"`
}

// TrendLine is a least-squares fit over the monthly revenue series,
// x being the month index.
type TrendLine struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	R2        float64 `json:"r2"`
}

type ForecastPoint struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
}

// SeasonalPoint is the average order-line amount for one calendar month
// across all years, Jan..Dec.
type SeasonalPoint struct {
	Month      string  `json:"month"`
	AvgRevenue float64 `json:"avg_revenue"`
}

type CountrySales struct {
	Country       string  `json:"country"`
	Revenue       float64 `json:"revenue"`
	Share         float64 `json:"share"`
	Profit        float64 `json:"profit"`
	Customers     int     `json:"customers"`
	AvgOrderValue float64 `json:"avg_order_value"`
}

type RegionSales struct {
	Region    string  `json:"region"`
	Revenue   float64 `json:"revenue"`
	ItemsSold int     `json:"items_sold"`
}

// GroupMetrics aggregates a sales-territory group (North America,
// Europe, Pacific).
type GroupMetrics struct {
	Group          string  `json:"group"`
	Revenue        float64 `json:"revenue"`
	Profit         float64 `json:"profit"`
	AvgTransaction float64 `json:"avg_transaction"`
	Transactions   int     `json:"transactions"`
	Customers      int     `json:"customers"`
}

type CategorySales struct {
	Category string  `json:"category"`
	Revenue  float64 `json:"revenue"`
	Share    float64 `json:"share"`
	Profit   float64 `json:"profit"`
	Margin   float64 `json:"margin"`
	Quantity int     `json:"quantity"`
	Products int     `json:"products"`
}

type ProductSales struct {
	Product  string  `json:"product"`
	Category string  `json:"category"`
	Revenue  float64 `json:"revenue"`
	Profit   float64 `json:"profit"`
	Quantity int     `json:"quantity"`
}

type ColorSales struct {
	Color    string  `json:"color"`
	Revenue  float64 `json:"revenue"`
	Quantity int     `json:"quantity"`
}

// PricePoint relates a product's list price to its realized sales,
// one point per product.
type PricePoint struct {
	Product   string  `json:"product"`
	ListPrice float64 `json:"list_price"`
	Revenue   float64 `json:"revenue"`
	Quantity  int     `json:"quantity"`
}

// SegmentCell is one cell of the spending x frequency segmentation
// matrix.
type SegmentCell struct {
	Spending  string `json:"spending"`  // Low, Medium, High, Premium
	Frequency string `json:"frequency"` // Occasional, Regular, Frequent
	Customers int    `json:"customers"`
}

type ChurnBucket struct {
	Bucket    string  `json:"bucket"` // Active, At Risk, High Risk, Churned
	Customers int     `json:"customers"`
	Share     float64 `json:"share"`
}

type CitySales struct {
	City      string  `json:"city"`
	Revenue   float64 `json:"revenue"`
	Customers int     `json:"customers"`
}

type ChannelMetrics struct {
	Channel         string  `json:"channel"`
	Revenue         float64 `json:"revenue"`
	Profit          float64 `json:"profit"`
	Margin          float64 `json:"margin"`
	AvgTransaction  float64 `json:"avg_transaction"`
	Transactions    int     `json:"transactions"`
	Customers       int     `json:"customers"`
	Quantity        int     `json:"quantity"`
	RevenuePerUnit  float64 `json:"revenue_per_unit"`
	CostPerUnit     float64 `json:"cost_per_unit"`
	EfficiencyRatio float64 `json:"efficiency_ratio"`
}

type BusinessTypeSales struct {
	BusinessType string  `json:"business_type"`
	Revenue      float64 `json:"revenue"`
	Share        float64 `json:"share"`
	Profit       float64 `json:"profit"`
	Resellers    int     `json:"resellers"`
}

type ResellerSales struct {
	Reseller     string  `json:"reseller"`
	BusinessType string  `json:"business_type"`
	Revenue      float64 `json:"revenue"`
	Profit       float64 `json:"profit"`
	Quantity     int     `json:"quantity"`
}

// OpportunityPoint positions a country on the market-opportunity
// matrix: penetration (share of all customers, percent) against
// revenue per customer.
type OpportunityPoint struct {
	Country            string  `json:"country"`
	Revenue            float64 `json:"revenue"`
	RevenuePerCustomer float64 `json:"revenue_per_customer"`
	Penetration        float64 `json:"penetration"`
}

// Recommendation priorities.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

type Recommendation struct {
	Category       string `json:"category"`
	Priority       string `json:"priority"`
	Recommendation string `json:"recommendation"`
	Impact         string `json:"impact"`
}
