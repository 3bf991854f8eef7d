package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplyline/internal/model"
)

func testRecords() []model.Record {
	return []model.Record{
		{DeliveryDate: "20240102", Supplier: "Acme Corp", Category: "Gloves", Model: "M1", Customer: "CustA", Quantity: 10},
		{DeliveryDate: "20240101", Supplier: "Acme Corp", Category: "Gloves", Model: "M1", Customer: "CustB", Quantity: 5},
		{DeliveryDate: "20240103", Supplier: "Borealis", Category: "Masks", Model: "M2", Customer: "CustA", Quantity: 3},
	}
}

func TestFilter_EmptyCriteriaIsIdentity(t *testing.T) {
	records := testRecords()
	assert.Equal(t, records, Filter(records, model.Criteria{}))
}

func TestFilter_Idempotent(t *testing.T) {
	records := testRecords()
	c := model.Criteria{Supplier: "acme"}

	once := Filter(records, c)
	twice := Filter(once, c)
	assert.Equal(t, once, twice)
}

func TestFilter_CaseInsensitiveSubstring(t *testing.T) {
	records := testRecords()

	filtered := Filter(records, model.Criteria{Supplier: "ACME"})
	require.Len(t, filtered, 2)

	filtered = Filter(records, model.Criteria{Supplier: "oreal"})
	require.Len(t, filtered, 1)
	assert.Equal(t, "Borealis", filtered[0].Supplier)
}

func TestFilter_CriteriaAreANDed(t *testing.T) {
	filtered := Filter(testRecords(), model.Criteria{Supplier: "acme", Customer: "custa"})
	require.Len(t, filtered, 1)
	assert.Equal(t, 10, filtered[0].Quantity)
}

func TestFilter_DateRange(t *testing.T) {
	filtered := Filter(testRecords(), model.Criteria{DateFrom: "20240102", DateTo: "20240103"})
	require.Len(t, filtered, 2)

	// Bounds are inclusive.
	filtered = Filter(testRecords(), model.Criteria{DateFrom: "20240101", DateTo: "20240101"})
	require.Len(t, filtered, 1)
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	records := testRecords()
	Filter(records, model.Criteria{Supplier: "acme"})
	assert.Equal(t, testRecords(), records)
}

func TestTrend(t *testing.T) {
	points := Trend(testRecords())
	require.Len(t, points, 3)

	// Ascending by date string.
	for i := 1; i < len(points); i++ {
		assert.Less(t, points[i-1].Date, points[i].Date)
	}

	// Bucket sums preserve the total quantity.
	total := 0
	for _, p := range points {
		total += p.Units
	}
	assert.Equal(t, 18, total)
}

func TestTopCategories(t *testing.T) {
	records := []model.Record{
		{Category: "Gloves", Quantity: 10},
		{Category: "Masks", Quantity: 3},
		{Category: "Gloves", Quantity: 5},
	}

	t.Run("truncates to n", func(t *testing.T) {
		top := TopCategories(records, 1)
		require.Len(t, top, 1)
		assert.Equal(t, model.CategoryTotal{Category: "Gloves", Units: 15}, top[0])
	})

	t.Run("descending and bounded", func(t *testing.T) {
		top := TopCategories(records, 10)
		require.Len(t, top, 2)
		assert.GreaterOrEqual(t, top[0].Units, top[1].Units)
	})

	t.Run("ties keep first-encountered order", func(t *testing.T) {
		tied := []model.Record{
			{Category: "B", Quantity: 5},
			{Category: "A", Quantity: 5},
		}
		top := TopCategories(tied, 2)
		require.Len(t, top, 2)
		assert.Equal(t, "B", top[0].Category)
		assert.Equal(t, "A", top[1].Category)
	})
}

func TestBuildSnapshot(t *testing.T) {
	metrics := model.Metrics{TotalRows: 3, ParsedRows: 3, TotalUnits: 18}
	snap := BuildSnapshot(metrics, testRecords(), 1)

	assert.Equal(t, metrics, snap.Metrics)
	require.Len(t, snap.TopCategories, 1)
	assert.Equal(t, "Gloves", snap.TopCategories[0].Category)
	assert.Len(t, snap.Trend, 3)
}
