package model

// Record represents a single parsed supply-chain transaction line
type Record struct {
	DeliveryDate string `json:"delivery_date"` // canonical YYYYMMDD
	Supplier     string `json:"supplier"`
	Category     string `json:"category"`
	License      string `json:"license"`
	Model        string `json:"model"`
	Lot          string `json:"lot"`
	Serial       string `json:"serial"`
	Customer     string `json:"customer"`
	Quantity     int    `json:"quantity"`
}

// Metrics is the summary computed over one full parse of a dataset.
// It is recomputed wholesale on every parse, never patched in place.
type Metrics struct {
	TotalRows       int    `json:"total_rows"`       // all non-empty data lines, valid or not
	ParsedRows      int    `json:"parsed_rows"`      // lines that produced a Record
	ParseFailures   int    `json:"parse_failures"`   // lines counted but excluded
	TotalUnits      int    `json:"total_units"`      // sum of quantities over valid records
	UniqueSuppliers int    `json:"unique_suppliers"` // distinct supplier identifiers
	DateStart       string `json:"date_start"`       // earliest valid date, "" when no valid records
	DateEnd         string `json:"date_end"`         // latest valid date, "" when no valid records
}

// HasDateRange reports whether at least one valid date was seen.
func (m Metrics) HasDateRange() bool {
	return m.DateStart != "" && m.DateEnd != ""
}
