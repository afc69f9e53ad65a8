package fna

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// ParseAmount coerces raw form input to a nullable currency amount.
// Blank input is null, never zero. Negative amounts are accepted; amounts
// outside the float64 range are not.
func ParseAmount(raw string) (decimal.NullDecimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("%q is not a number", raw)
	}
	if math.IsInf(d.InexactFloat64(), 0) {
		return decimal.NullDecimal{}, fmt.Errorf("%q is out of range", raw)
	}
	return decimal.NewNullDecimal(d), nil
}

// ParseCount coerces raw form input to a nullable whole number.
func ParseCount(raw string) (sql.NullInt64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return sql.NullInt64{}, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return sql.NullInt64{}, fmt.Errorf("%q is not a whole number", raw)
	}
	return sql.NullInt64{Int64: n, Valid: true}, nil
}

// ParseDate accepts YYYY-MM-DD or blank.
func ParseDate(raw string) (sql.NullString, error) {
	return parseLayout(raw, DateLayout, "date")
}

// ParseClock accepts HH:MM or blank.
func ParseClock(raw string) (sql.NullString, error) {
	return parseLayout(raw, ClockLayout, "time")
}

func parseLayout(raw, layout, what string) (sql.NullString, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return sql.NullString{}, nil
	}
	t, err := time.Parse(layout, raw)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("%q is not a valid %s (%s)", raw, what, layout)
	}
	return sql.NullString{String: t.Format(layout), Valid: true}, nil
}

func amountText(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func countText(n sql.NullInt64) string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatInt(n.Int64, 10)
}

// FormatCurrency renders whole dollars with thousands separators, e.g. $85,000.
func FormatCurrency(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	whole := d.Round(0).StringFixed(0)
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + "$" + b.String()
}
