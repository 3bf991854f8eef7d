package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCleanCell(t *testing.T) {
	assert.Equal(t, "value", CleanCell("  value  "))
	assert.Equal(t, "quoted", CleanCell(`"quoted"`))
	assert.Equal(t, "quoted", CleanCell("  'quoted'  "))
	assert.Equal(t, `"unbalanced`, CleanCell(`"unbalanced`))
	assert.Equal(t, "", CleanCell("  "))
}

func TestCoerceQuantity(t *testing.T) {
	q, ok := CoerceQuantity(" 15 ")
	assert.True(t, ok)
	assert.Equal(t, 15, q)

	_, ok = CoerceQuantity("-3")
	assert.False(t, ok)

	_, ok = CoerceQuantity("ten")
	assert.False(t, ok)

	q, ok = CoerceQuantity("0")
	assert.True(t, ok)
	assert.Equal(t, 0, q)
}

func TestCanonicalDate(t *testing.T) {
	d, ok := CanonicalDate("2024-01-02")
	assert.True(t, ok)
	assert.Equal(t, "20240102", d)

	d, ok = CanonicalDate("20240102")
	assert.True(t, ok)
	assert.Equal(t, "20240102", d)

	d, ok = CanonicalDate("2024/01/02")
	assert.True(t, ok)
	assert.Equal(t, "20240102", d)

	d, ok = CanonicalDate("soon")
	assert.False(t, ok)
	assert.Equal(t, "soon", d)

	_, ok = CanonicalDate("2024-01")
	assert.False(t, ok)
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 2*time.Minute, ParseDuration("2m"))
	assert.Equal(t, 5*time.Minute, ParseDuration(""))
	assert.Equal(t, 5*time.Minute, ParseDuration("bogus"))
}

func TestNumeric(t *testing.T) {
	assert.Equal(t, 3.0, Numeric(3))
	assert.Equal(t, 3.5, Numeric(3.5))
	assert.Equal(t, 7.0, Numeric("7"))
	assert.Equal(t, 0.0, Numeric("seven"))
	assert.Equal(t, 0.0, Numeric(nil))
}
