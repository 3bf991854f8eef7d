package utils

import (
	"strconv"
	"strings"
	"time"
)

// ParseDuration safely parses duration strings like "5m"
func ParseDuration(d string) time.Duration {
	if d == "" {
		return 5 * time.Minute
	}
	duration, err := time.ParseDuration(d)
	if err != nil {
		return 5 * time.Minute
	}
	return duration
}

// CleanCell trims whitespace and one layer of surrounding quotes from
// a raw delimited-text cell or config value.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			s = s[1 : len(s)-1]
		}
	}
	return strings.TrimSpace(s)
}

// CoerceQuantity parses a quantity cell as a non-negative integer.
func CoerceQuantity(s string) (int, bool) {
	q, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || q < 0 {
		return 0, false
	}
	return q, true
}

// CanonicalDate reduces a date cell to YYYYMMDD by dropping separator
// characters, so "2024-01-02" and "2024/01/02" both become "20240102".
// The second return is false when the cell does not reduce to an
// eight-digit string; callers keep such values verbatim but exclude
// them from date-range bookkeeping.
func CanonicalDate(s string) (string, bool) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	d := b.String()
	if len(d) != 8 {
		return strings.TrimSpace(s), false
	}
	return d, true
}

// Numeric safely converts supported scalar types to float64.
func Numeric(v interface{}) float64 {
	switch val := v.(type) {
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case float32:
		return float64(val)
	case float64:
		return val
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return f
		}
	}
	return 0
}
