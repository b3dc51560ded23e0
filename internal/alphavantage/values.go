package alphavantage

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Sentinels stored in place of values the provider reports as "None", "-" or
// not at all. They are distinguishable from real data and keep columns NOT NULL.
const (
	MissingFloat  = -9.99
	MissingInt    = int64(-999)
	MissingString = "__Error__"
)

// MissingDate is stored for dates that are absent or unparseable.
var MissingDate = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05"
	newsTimeLayout  = "20060102T150405"
)

func floatOr(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return MissingFloat
	}
	return f
}

func intOr(s string) int64 {
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	// some integer fields arrive as "1.23E+11"
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return MissingInt
}

func stringOr(s string) string {
	if strings.TrimSpace(s) == "" {
		return MissingString
	}
	return s
}

// dateOr accepts RFC3339 timestamps and plain "YYYY-MM-DD" dates.
func dateOr(s string) time.Time {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t
	}
	return MissingDate
}

// price parses a required decimal; unlike the *Or helpers a failure drops the row.
func price(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(s))
}

func volume(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}
