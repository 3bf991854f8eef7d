package ingest

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"supplyline/internal/model"
	"supplyline/pkg/utils"
)

// ErrInvalidFormat is returned when the input has no discernible
// header row. Individual malformed data lines never produce an error;
// they are counted into the metrics instead.
var ErrInvalidFormat = errors.New("ingest: no discernible header row")

// Parse converts raw delimited text into typed records plus a summary
// computed over the whole input. Re-parsing identical text yields
// identical output; the only side effect is a log event.
//
// A data line is a parse failure when its field count differs from the
// header's or its quantity cell is not a non-negative integer. Failed
// lines are excluded from the returned records but still counted in
// Metrics.TotalRows and Metrics.ParseFailures.
func Parse(raw string) ([]model.Record, model.Metrics, error) {
	reader := csv.NewReader(strings.NewReader(raw))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, model.Metrics{}, ErrInvalidFormat
	}

	lay, ok := resolveHeader(header)
	if !ok {
		return nil, model.Metrics{}, ErrInvalidFormat
	}

	var (
		records   []model.Record
		metrics   model.Metrics
		suppliers = make(map[string]struct{})
	)

	for {
		cells, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Unreadable line: counted, not surfaced.
			metrics.TotalRows++
			metrics.ParseFailures++
			continue
		}

		metrics.TotalRows++
		rec, ok := lay.buildRecord(cells, len(header))
		if !ok {
			metrics.ParseFailures++
			continue
		}

		records = append(records, rec)
		metrics.ParsedRows++
		metrics.TotalUnits += rec.Quantity
		if rec.Supplier != "" {
			suppliers[rec.Supplier] = struct{}{}
		}
		if _, valid := utils.CanonicalDate(rec.DeliveryDate); valid {
			if metrics.DateStart == "" || rec.DeliveryDate < metrics.DateStart {
				metrics.DateStart = rec.DeliveryDate
			}
			if metrics.DateEnd == "" || rec.DeliveryDate > metrics.DateEnd {
				metrics.DateEnd = rec.DeliveryDate
			}
		}
	}

	metrics.UniqueSuppliers = len(suppliers)

	log.Debug().
		Int("total_rows", metrics.TotalRows).
		Int("parsed_rows", metrics.ParsedRows).
		Int("parse_failures", metrics.ParseFailures).
		Msg("dataset parsed")

	return records, metrics, nil
}
