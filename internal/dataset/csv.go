package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"aw-insights/internal/models"
)

const (
	batchSize  = 10000
	maxWorkers = 10
)

// LoadCSV streams a flattened export of the joined sales table: one
// header row, then one line per sales order line with dimension
// attributes already denormalized. Records are parsed in parallel
// batches; malformed lines are skipped and counted.
func LoadCSV(ctx context.Context, filename string, logger *slog.Logger) (*Result, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	ix, err := headerIndex(header)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	batch := make([][]string, 0, batchSize)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A torn line should not abort the whole load.
			result.Skipped++
			logger.Debug("skipping unreadable csv line", "error", err)
			continue
		}

		batch = append(batch, record)
		if len(batch) >= batchSize {
			if err := parseBatch(ctx, ix, batch, result); err != nil {
				return nil, err
			}
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := parseBatch(ctx, ix, batch, result); err != nil {
			return nil, err
		}
	}

	if len(result.Sales) == 0 {
		return nil, fmt.Errorf("no valid records found")
	}

	return result, nil
}

func parseBatch(ctx context.Context, ix headerIdx, batch [][]string, result *Result) error {
	sales := make([]models.Sale, len(batch))
	valid := make([]bool, len(batch))

	var wg errgroup.Group
	wg.SetLimit(maxWorkers)

	for i, record := range batch {
		wg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			sale, err := parseSaleRecord(ix, record)
			if err != nil {
				return nil // skip invalid records
			}
			sales[i] = sale
			valid[i] = true
			return nil
		})
	}

	if err := wg.Wait(); err != nil {
		return err
	}

	for i := range sales {
		if valid[i] {
			result.Sales = append(result.Sales, sales[i])
		} else {
			result.Skipped++
		}
	}
	return nil
}

func parseSaleRecord(ix headerIdx, record []string) (models.Sale, error) {
	date, err := parseDateCell(ix.strCell(record, "OrderDate"))
	if err != nil {
		return models.Sale{}, err
	}

	quantity, err := ix.intCell(record, "OrderQuantity")
	if err != nil {
		return models.Sale{}, err
	}
	unitPrice, err := ix.floatCell(record, "UnitPrice")
	if err != nil {
		return models.Sale{}, err
	}
	totalCost, err := ix.floatCell(record, "TotalProductCost")
	if err != nil {
		return models.Sale{}, err
	}
	amount, err := ix.floatCell(record, "SalesAmount")
	if err != nil {
		return models.Sale{}, err
	}

	sale := models.Sale{
		OrderDate:       date,
		FiscalYear:      ix.strCell(record, "FiscalYear"),
		FiscalQuarter:   ix.strCell(record, "FiscalQuarter"),
		Channel:         ix.strCell(record, "Channel"),
		Region:          ix.strCell(record, "Region"),
		Country:         ix.strCell(record, "Country"),
		Group:           ix.strCell(record, "Group"),
		Product:         ix.strCell(record, "Product"),
		Category:        ix.strCell(record, "Category"),
		Subcategory:     ix.strCell(record, "Subcategory"),
		Color:           ix.strCell(record, "Color"),
		City:            ix.strCell(record, "City"),
		CustomerCountry: ix.strCell(record, "CustomerCountry"),
		Reseller:        ix.strCell(record, "Reseller"),
		BusinessType:    ix.strCell(record, "BusinessType"),
		Quantity:        quantity,
		UnitPrice:       unitPrice,
		TotalCost:       totalCost,
		Amount:          amount,
		CustomerKey:     models.NoKey,
		ResellerKey:     models.NoKey,
	}

	if sale.Channel == "" {
		return models.Sale{}, fmt.Errorf("missing channel")
	}

	if key, err := ix.intCell(record, "SalesOrderLineKey"); err == nil {
		sale.OrderLineKey = key
	}
	if key, err := ix.intCell(record, "ProductKey"); err == nil {
		sale.ProductKey = key
	}
	if key, err := ix.intCell(record, "CustomerKey"); err == nil {
		sale.CustomerKey = key
	}
	if key, err := ix.intCell(record, "ResellerKey"); err == nil {
		sale.ResellerKey = key
	}
	if v, err := ix.floatCell(record, "ListPrice"); err == nil {
		sale.ListPrice = v
	}
	if v, err := ix.floatCell(record, "StandardCost"); err == nil {
		sale.StandardCost = v
	}

	return sale, nil
}
