package aggregate

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplyline/internal/model"
)

func TestExport_JSON(t *testing.T) {
	view := View{
		Records:       testRecords(),
		Trend:         Trend(testRecords()),
		TopCategories: TopCategories(testRecords(), 5),
	}

	payload, contentType, err := Export(view, "json")
	require.NoError(t, err)
	assert.Equal(t, "application/json", contentType)

	var decoded View
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, view, decoded)
}

func TestExport_CSV(t *testing.T) {
	view := View{Records: []model.Record{
		{DeliveryDate: "20240101", Supplier: "Acme", Category: "Gloves", Model: "M1", Quantity: 10},
	}}

	payload, contentType, err := Export(view, "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)

	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "date,supplier,category,license,model,lot,serial,customer,qty", lines[0])
	assert.Equal(t, "20240101,Acme,Gloves,,M1,,,,10", lines[1])
}

func TestExport_UnsupportedFormat(t *testing.T) {
	_, _, err := Export(View{}, "xml")
	assert.Error(t, err)
}

func TestExport_DefaultsToJSON(t *testing.T) {
	_, contentType, err := Export(View{}, "")
	require.NoError(t, err)
	assert.Equal(t, "application/json", contentType)
}
