package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"aw-insights/internal/models"
)

// Sheet names in the AdventureWorks Sales workbook.
const (
	sheetSales     = "Sales_data"
	sheetDate      = "Date_data"
	sheetTerritory = "Sales Territory_data"
	sheetProduct   = "Product_data"
	sheetCustomer  = "Customer_data"
	sheetOrder     = "Sales Order_data"
	sheetReseller  = "Reseller_data"
)

// Result is the outcome of loading a data source: the joined sales
// fact rows plus the number of malformed rows that were skipped.
type Result struct {
	Sales   []models.Sale
	Skipped int
}

type dateInfo struct {
	date          time.Time
	fiscalYear    string
	fiscalQuarter string
}

type territoryInfo struct {
	region  string
	country string
	group   string
}

type productInfo struct {
	name         string
	category     string
	subcategory  string
	color        string
	listPrice    float64
	standardCost float64
}

type customerInfo struct {
	city    string
	country string
}

type resellerInfo struct {
	name         string
	businessType string
}

// LoadWorkbook reads the seven-sheet AdventureWorks workbook and joins
// the Sales fact rows with every dimension table. Rows that fail to
// parse are skipped and counted; a missing sheet is an error.
func LoadWorkbook(ctx context.Context, path string, logger *slog.Logger) (*Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	dates, err := loadDates(f)
	if err != nil {
		return nil, err
	}
	territories, err := loadTerritories(f)
	if err != nil {
		return nil, err
	}
	products, err := loadProducts(f)
	if err != nil {
		return nil, err
	}
	customers, err := loadCustomers(f)
	if err != nil {
		return nil, err
	}
	channels, err := loadChannels(f)
	if err != nil {
		return nil, err
	}
	resellers, err := loadResellers(f)
	if err != nil {
		return nil, err
	}

	rows, err := f.GetRows(sheetSales)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheetSales, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("sheet %s has no data rows", sheetSales)
	}

	ix, err := headerIndex(rows[0])
	if err != nil {
		return nil, fmt.Errorf("sheet %s: %w", sheetSales, err)
	}

	result := &Result{Sales: make([]models.Sale, 0, len(rows)-1)}

	for i, row := range rows[1:] {
		if i%4096 == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		sale, err := joinSale(ix, row, dates, territories, products, customers, channels, resellers)
		if err != nil {
			result.Skipped++
			logger.Debug("skipping sales row", "row", i+2, "error", err)
			continue
		}
		result.Sales = append(result.Sales, sale)
	}

	if len(result.Sales) == 0 {
		return nil, fmt.Errorf("no valid sales rows in %s", path)
	}

	return result, nil
}

func joinSale(ix headerIdx, row []string,
	dates map[int]dateInfo,
	territories map[int]territoryInfo,
	products map[int]productInfo,
	customers map[int]customerInfo,
	channels map[int]string,
	resellers map[int]resellerInfo) (models.Sale, error) {

	lineKey, err := ix.intCell(row, "SalesOrderLineKey")
	if err != nil {
		return models.Sale{}, err
	}

	dateKey, err := ix.intCell(row, "OrderDateKey")
	if err != nil {
		return models.Sale{}, err
	}
	date, ok := dates[dateKey]
	if !ok {
		return models.Sale{}, fmt.Errorf("unknown date key %d", dateKey)
	}

	quantity, err := ix.intCell(row, "Order Quantity")
	if err != nil {
		return models.Sale{}, err
	}
	unitPrice, err := ix.floatCell(row, "Unit Price")
	if err != nil {
		return models.Sale{}, err
	}
	totalCost, err := ix.floatCell(row, "Total Product Cost")
	if err != nil {
		return models.Sale{}, err
	}
	amount, err := ix.floatCell(row, "Sales Amount")
	if err != nil {
		return models.Sale{}, err
	}

	sale := models.Sale{
		OrderLineKey:  lineKey,
		OrderDate:     date.date,
		FiscalYear:    date.fiscalYear,
		FiscalQuarter: date.fiscalQuarter,
		Quantity:      quantity,
		UnitPrice:     unitPrice,
		TotalCost:     totalCost,
		Amount:        amount,
		CustomerKey:   models.NoKey,
		ResellerKey:   models.NoKey,
	}

	if key, err := ix.intCell(row, "SalesTerritoryKey"); err == nil {
		if t, ok := territories[key]; ok {
			sale.Region = t.region
			sale.Country = t.country
			sale.Group = t.group
		}
	}

	productKey, err := ix.intCell(row, "ProductKey")
	if err != nil {
		return models.Sale{}, err
	}
	p, ok := products[productKey]
	if !ok {
		return models.Sale{}, fmt.Errorf("unknown product key %d", productKey)
	}
	sale.ProductKey = productKey
	sale.Product = p.name
	sale.Category = p.category
	sale.Subcategory = p.subcategory
	sale.Color = p.color
	sale.ListPrice = p.listPrice
	sale.StandardCost = p.standardCost

	if key, err := ix.intCell(row, "CustomerKey"); err == nil {
		sale.CustomerKey = key
		if c, ok := customers[key]; ok {
			sale.City = c.city
			sale.CustomerCountry = c.country
		}
	}

	sale.Channel = channels[lineKey]
	if sale.Channel == "" {
		return models.Sale{}, fmt.Errorf("no sales order for line key %d", lineKey)
	}

	if key, err := ix.intCell(row, "ResellerKey"); err == nil {
		sale.ResellerKey = key
		if r, ok := resellers[key]; ok {
			sale.Reseller = r.name
			sale.BusinessType = r.businessType
		}
	}

	return sale, nil
}

func loadDates(f *excelize.File) (map[int]dateInfo, error) {
	rows, ix, err := sheetRows(f, sheetDate)
	if err != nil {
		return nil, err
	}

	dates := make(map[int]dateInfo, len(rows))
	for _, row := range rows {
		key, err := ix.intCell(row, "DateKey")
		if err != nil {
			continue
		}
		date, err := parseDateCell(ix.strCell(row, "Date"))
		if err != nil {
			continue
		}
		dates[key] = dateInfo{
			date:          date,
			fiscalYear:    ix.strCell(row, "Fiscal Year"),
			fiscalQuarter: ix.strCell(row, "Fiscal Quarter"),
		}
	}
	return dates, nil
}

func loadTerritories(f *excelize.File) (map[int]territoryInfo, error) {
	rows, ix, err := sheetRows(f, sheetTerritory)
	if err != nil {
		return nil, err
	}

	territories := make(map[int]territoryInfo, len(rows))
	for _, row := range rows {
		key, err := ix.intCell(row, "SalesTerritoryKey")
		if err != nil {
			continue
		}
		territories[key] = territoryInfo{
			region:  ix.strCell(row, "Region"),
			country: ix.strCell(row, "Country"),
			group:   ix.strCell(row, "Group"),
		}
	}
	return territories, nil
}

func loadProducts(f *excelize.File) (map[int]productInfo, error) {
	rows, ix, err := sheetRows(f, sheetProduct)
	if err != nil {
		return nil, err
	}

	products := make(map[int]productInfo, len(rows))
	for _, row := range rows {
		key, err := ix.intCell(row, "ProductKey")
		if err != nil {
			continue
		}
		listPrice, _ := ix.floatCell(row, "List Price")
		standardCost, _ := ix.floatCell(row, "Standard Cost")
		products[key] = productInfo{
			name:         ix.strCell(row, "Product"),
			category:     ix.strCell(row, "Category"),
			subcategory:  ix.strCell(row, "Subcategory"),
			color:        ix.strCell(row, "Color"),
			listPrice:    listPrice,
			standardCost: standardCost,
		}
	}
	return products, nil
}

func loadCustomers(f *excelize.File) (map[int]customerInfo, error) {
	rows, ix, err := sheetRows(f, sheetCustomer)
	if err != nil {
		return nil, err
	}

	customers := make(map[int]customerInfo, len(rows))
	for _, row := range rows {
		key, err := ix.intCell(row, "CustomerKey")
		if err != nil {
			continue
		}
		customers[key] = customerInfo{
			city:    ix.strCell(row, "City"),
			country: ix.strCell(row, "Country-Region"),
		}
	}
	return customers, nil
}

func loadChannels(f *excelize.File) (map[int]string, error) {
	rows, ix, err := sheetRows(f, sheetOrder)
	if err != nil {
		return nil, err
	}

	channels := make(map[int]string, len(rows))
	for _, row := range rows {
		key, err := ix.intCell(row, "SalesOrderLineKey")
		if err != nil {
			continue
		}
		channels[key] = ix.strCell(row, "Channel")
	}
	return channels, nil
}

func loadResellers(f *excelize.File) (map[int]resellerInfo, error) {
	rows, ix, err := sheetRows(f, sheetReseller)
	if err != nil {
		return nil, err
	}

	resellers := make(map[int]resellerInfo, len(rows))
	for _, row := range rows {
		key, err := ix.intCell(row, "ResellerKey")
		if err != nil {
			continue
		}
		name := ix.strCell(row, "Reseller")
		if name == "" || strings.HasPrefix(name, "[Not Applicable]") {
			continue
		}
		resellers[key] = resellerInfo{
			name:         name,
			businessType: ix.strCell(row, "Business Type"),
		}
	}
	return resellers, nil
}

func sheetRows(f *excelize.File, sheet string) ([][]string, headerIdx, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("sheet %s has no data rows", sheet)
	}
	ix, err := headerIndex(rows[0])
	if err != nil {
		return nil, nil, fmt.Errorf("sheet %s: %w", sheet, err)
	}
	return rows[1:], ix, nil
}

// headerIdx maps column titles to positions so sheets survive column
// reordering.
type headerIdx map[string]int

func headerIndex(header []string) (headerIdx, error) {
	if len(header) == 0 {
		return nil, fmt.Errorf("empty header row")
	}
	ix := make(headerIdx, len(header))
	for i, title := range header {
		ix[strings.TrimSpace(title)] = i
	}
	return ix, nil
}

func (ix headerIdx) strCell(row []string, col string) string {
	i, ok := ix[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (ix headerIdx) intCell(row []string, col string) (int, error) {
	v, err := ix.floatCell(row, col)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

func (ix headerIdx) floatCell(row []string, col string) (float64, error) {
	s := ix.strCell(row, col)
	if s == "" {
		return 0, fmt.Errorf("missing %s", col)
	}
	return parseNumberCell(s)
}

// parseNumberCell tolerates currency formatting left in place by cell
// styles ($ signs and thousands separators).
func parseNumberCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	return strconv.ParseFloat(s, 64)
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"1/2/2006",
	"1/2/06",
	"01-02-06",
	"January 2, 2006",
}

// parseDateCell handles formatted date strings and raw Excel serial
// numbers.
func parseDateCell(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		return excelize.ExcelDateToTime(serial, false)
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}
