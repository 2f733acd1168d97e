package models

import "time"

// Channel names as they appear in the Sales Order dimension.
const (
	ChannelInternet = "Internet"
	ChannelReseller = "Reseller"
)

// NoKey marks a dimension key that is not applicable for a sale,
// e.g. the reseller key of an internet order.
const NoKey = -1

// Sale is one sales order line joined with its dimension tables
// (date, territory, product, customer, order, reseller).
type Sale struct {
	OrderLineKey  int
	OrderDate     time.Time
	FiscalYear    string
	FiscalQuarter string
	Channel       string

	Region  string
	Country string
	Group   string

	ProductKey   int
	Product      string
	Category     string
	Subcategory  string
	Color        string
	ListPrice    float64
	StandardCost float64

	CustomerKey     int
	City            string
	CustomerCountry string

	ResellerKey  int
	Reseller     string
	BusinessType string

	Quantity  int
	UnitPrice float64
	TotalCost float64
	Amount    float64
}

func (s Sale) Profit() float64 {
	return s.Amount - s.TotalCost
}

// ProfitMargin returns the margin in percent, 0 for zero-amount lines.
func (s Sale) ProfitMargin() float64 {
	if s.Amount == 0 {
		return 0
	}
	return s.Profit() / s.Amount * 100
}
