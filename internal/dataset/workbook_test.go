package dataset

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"aw-insights/internal/models"
)

// writeTestWorkbook builds a minimal seven-sheet workbook with two
// joinable sales rows plus two broken ones.
func writeTestWorkbook(t *testing.T) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheets := map[string][][]any{
		sheetSales: {
			{"SalesOrderLineKey", "OrderDateKey", "SalesTerritoryKey", "ProductKey", "CustomerKey", "ResellerKey", "Order Quantity", "Unit Price", "Total Product Cost", "Sales Amount"},
			{1, 20200115, 1, 310, 11001, "", 1, 3578.27, 2171.29, 3578.27},
			{2, 20200320, 9, 528, "", 501, 2, 1391.99, 2531.24, 2783.98},
			// Unknown product key.
			{3, 20200115, 1, 999, 11001, "", 1, 10.0, 5.0, 10.0},
			// No matching sales order row, so no channel.
			{4, 20200115, 1, 310, 11001, "", 1, 10.0, 5.0, 10.0},
		},
		sheetDate: {
			{"DateKey", "Date", "Fiscal Year", "Fiscal Quarter"},
			{20200115, "2020-01-15", "FY2020", "FY2020 Q3"},
			{20200320, "2020-03-20", "FY2020", "FY2020 Q4"},
		},
		sheetTerritory: {
			{"SalesTerritoryKey", "Region", "Country", "Group"},
			{1, "Northwest", "United States", "North America"},
			{9, "Australia", "Australia", "Pacific"},
		},
		sheetProduct: {
			{"ProductKey", "Product", "Category", "Subcategory", "Color", "List Price", "Standard Cost"},
			{310, "Road-150 Red, 62", "Bikes", "Road Bikes", "Red", 3578.27, 2171.29},
			{528, "Mountain-200 Silver, 38", "Bikes", "Mountain Bikes", "Silver", 2319.99, 1265.62},
		},
		sheetCustomer: {
			{"CustomerKey", "City", "Country-Region"},
			{11001, "Seattle", "United States"},
		},
		sheetOrder: {
			{"SalesOrderLineKey", "Channel"},
			{1, "Internet"},
			{2, "Reseller"},
			{3, "Internet"},
		},
		sheetReseller: {
			{"ResellerKey", "Reseller", "Business Type"},
			{501, "Brakes and Gears", "Value Added Reseller"},
			{-1, "[Not Applicable]", ""},
		},
	}

	first := true
	for name, rows := range sheets {
		if first {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				t.Fatal(err)
			}
			first = false
		} else if _, err := f.NewSheet(name); err != nil {
			t.Fatal(err)
		}
		for i, row := range rows {
			cell := fmt.Sprintf("A%d", i+1)
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				t.Fatal(err)
			}
		}
	}

	path := filepath.Join(t.TempDir(), "sales.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadWorkbook(t *testing.T) {
	path := writeTestWorkbook(t)

	result, err := LoadWorkbook(context.Background(), path, testLogger())
	if err != nil {
		t.Fatalf("LoadWorkbook() failed: %v", err)
	}

	if len(result.Sales) != 2 {
		t.Fatalf("expected 2 sales, got %d", len(result.Sales))
	}
	if result.Skipped != 2 {
		t.Errorf("expected 2 skipped rows, got %d", result.Skipped)
	}

	internet := result.Sales[0]
	if internet.Channel != models.ChannelInternet {
		t.Errorf("Channel = %q", internet.Channel)
	}
	if internet.Product != "Road-150 Red, 62" || internet.Category != "Bikes" {
		t.Errorf("product join failed: %+v", internet)
	}
	if internet.Country != "United States" || internet.Group != "North America" {
		t.Errorf("territory join failed: %+v", internet)
	}
	if internet.City != "Seattle" || internet.CustomerCountry != "United States" {
		t.Errorf("customer join failed: %+v", internet)
	}
	if internet.FiscalYear != "FY2020" || internet.FiscalQuarter != "FY2020 Q3" {
		t.Errorf("date join failed: %+v", internet)
	}
	if internet.OrderDate.Year() != 2020 || int(internet.OrderDate.Month()) != 1 {
		t.Errorf("OrderDate = %v", internet.OrderDate)
	}
	if internet.Amount != 3578.27 {
		t.Errorf("Amount = %v", internet.Amount)
	}

	reseller := result.Sales[1]
	if reseller.Channel != models.ChannelReseller {
		t.Errorf("Channel = %q", reseller.Channel)
	}
	if reseller.CustomerKey != models.NoKey {
		t.Errorf("blank CustomerKey should map to NoKey, got %d", reseller.CustomerKey)
	}
	if reseller.Reseller != "Brakes and Gears" || reseller.BusinessType != "Value Added Reseller" {
		t.Errorf("reseller join failed: %+v", reseller)
	}
	if reseller.Region != "Australia" {
		t.Errorf("Region = %q", reseller.Region)
	}
}

func TestLoadWorkbook_MissingFile(t *testing.T) {
	if _, err := LoadWorkbook(context.Background(), "/nonexistent.xlsx", testLogger()); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestLoadWorkbook_MissingSheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	path := filepath.Join(t.TempDir(), "empty.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadWorkbook(context.Background(), path, testLogger()); err == nil {
		t.Error("expected error for a workbook without the data sheets")
	}
}
