package model

// Criteria holds the user-specified filters applied to a record set.
// String fields are case-insensitive substring matches; empty fields
// always pass. Date bounds are inclusive and compared lexically, which
// matches chronological order for canonical YYYYMMDD dates.
type Criteria struct {
	Supplier string `json:"supplier"`
	Category string `json:"category"`
	License  string `json:"license"`
	Model    string `json:"model"`
	Lot      string `json:"lot"`
	Serial   string `json:"serial"`
	Customer string `json:"customer"`
	DateFrom string `json:"dateFrom"`
	DateTo   string `json:"dateTo"`
	TopN     int    `json:"topN"` // size bound for category aggregation
}

// TrendPoint is one date bucket in the quantity-over-time series
type TrendPoint struct {
	Date  string `json:"date"`
	Units int    `json:"units"`
}

// CategoryTotal is one entry of the top-categories aggregation
type CategoryTotal struct {
	Category string `json:"category"`
	Units    int    `json:"units"`
}

// Snapshot is the aggregate view handed to the agent pipeline as
// prompt context: full-parse metrics plus the current filtered trend
// and category leaders.
type Snapshot struct {
	Metrics       Metrics         `json:"metrics"`
	Trend         []TrendPoint    `json:"trend"`
	TopCategories []CategoryTotal `json:"top_categories"`
}
