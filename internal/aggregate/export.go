package aggregate

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"supplyline/internal/model"
)

// View is a filtered slice of a dataset together with its derived
// aggregates, the unit handed to the export renderers.
type View struct {
	Records       []model.Record        `json:"records"`
	Trend         []model.TrendPoint    `json:"trend"`
	TopCategories []model.CategoryTotal `json:"top_categories"`
}

// Export renders a view in the requested format ("csv" or "json") and
// returns the payload with its media type.
func Export(v View, format string) ([]byte, string, error) {
	switch strings.ToLower(format) {
	case "", "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, "", fmt.Errorf("export json: %w", err)
		}
		return data, "application/json", nil
	case "csv":
		data, err := recordsCSV(v.Records)
		if err != nil {
			return nil, "", fmt.Errorf("export csv: %w", err)
		}
		return data, "text/csv", nil
	default:
		return nil, "", fmt.Errorf("unsupported export format: %s", format)
	}
}

func recordsCSV(records []model.Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"date", "supplier", "category", "license", "model", "lot", "serial", "customer", "qty"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, rec := range records {
		row := []string{
			rec.DeliveryDate,
			rec.Supplier,
			rec.Category,
			rec.License,
			rec.Model,
			rec.Lot,
			rec.Serial,
			rec.Customer,
			strconv.Itoa(rec.Quantity),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
