// Package aggregate filters parsed records and derives the trend and
// category aggregates consumed by the dashboard and the agent
// pipeline. Every function is pure: inputs are never mutated and
// results are freshly allocated, so recomputing on each criteria
// change is safe from any goroutine.
package aggregate

import (
	"sort"
	"strings"

	"supplyline/internal/model"
)

// Filter returns the records matching every non-empty criterion.
// String criteria are case-insensitive substring matches over the
// corresponding record field; the date bounds are inclusive and
// compared lexically. All criteria are ANDed.
func Filter(records []model.Record, c model.Criteria) []model.Record {
	out := make([]model.Record, 0, len(records))
	for _, rec := range records {
		if matches(rec, c) {
			out = append(out, rec)
		}
	}
	return out
}

func matches(rec model.Record, c model.Criteria) bool {
	if !contains(rec.Supplier, c.Supplier) ||
		!contains(rec.Category, c.Category) ||
		!contains(rec.License, c.License) ||
		!contains(rec.Model, c.Model) ||
		!contains(rec.Lot, c.Lot) ||
		!contains(rec.Serial, c.Serial) ||
		!contains(rec.Customer, c.Customer) {
		return false
	}
	if c.DateFrom != "" && rec.DeliveryDate < c.DateFrom {
		return false
	}
	if c.DateTo != "" && rec.DeliveryDate > c.DateTo {
		return false
	}
	return true
}

func contains(field, criterion string) bool {
	if criterion == "" {
		return true
	}
	return strings.Contains(strings.ToLower(field), strings.ToLower(criterion))
}

// Trend groups records by exact date string, sums quantities per
// group and returns the buckets in ascending date order.
func Trend(records []model.Record) []model.TrendPoint {
	totals := make(map[string]int)
	for _, rec := range records {
		totals[rec.DeliveryDate] += rec.Quantity
	}

	points := make([]model.TrendPoint, 0, len(totals))
	for date, units := range totals {
		points = append(points, model.TrendPoint{Date: date, Units: units})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points
}

// TopCategories groups records by category, sums quantities and
// returns at most n entries in descending quantity order. Ties keep
// first-encountered order.
func TopCategories(records []model.Record, n int) []model.CategoryTotal {
	totals := make(map[string]int)
	var order []string
	for _, rec := range records {
		if _, seen := totals[rec.Category]; !seen {
			order = append(order, rec.Category)
		}
		totals[rec.Category] += rec.Quantity
	}

	entries := make([]model.CategoryTotal, 0, len(order))
	for _, cat := range order {
		entries = append(entries, model.CategoryTotal{Category: cat, Units: totals[cat]})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Units > entries[j].Units })

	if n >= 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// BuildSnapshot assembles the aggregate view handed to the agent
// pipeline as prompt context.
func BuildSnapshot(metrics model.Metrics, filtered []model.Record, topN int) model.Snapshot {
	return model.Snapshot{
		Metrics:       metrics,
		Trend:         Trend(filtered),
		TopCategories: TopCategories(filtered, topN),
	}
}
