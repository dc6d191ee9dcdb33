package source

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/parishdesk/reporting/internal/report"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// unix timestamps above this are treated as milliseconds.
const millisThreshold = 1e11

// FieldAccessor reads the timestamp and amount out of a Record.
type FieldAccessor struct {
	// TimestampFields are tried in order; the first parseable one wins.
	TimestampFields []string
	// AmountField is optional. Empty means count-only.
	AmountField string
	// Location is applied to layouts without a zone. Defaults to UTC.
	Location *time.Location
}

// Timestamp returns the first parseable timestamp field.
func (a FieldAccessor) Timestamp(r Record) (time.Time, bool) {
	loc := a.Location
	if loc == nil {
		loc = time.UTC
	}
	for _, field := range a.TimestampFields {
		v, ok := r[field]
		if !ok || v == nil {
			continue
		}
		if t, ok := parseTimestamp(v, loc); ok {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}

// Amount returns the amount field as a decimal.
func (a FieldAccessor) Amount(r Record) (decimal.Decimal, bool) {
	if a.AmountField == "" {
		return decimal.Decimal{}, false
	}
	return parseAmount(r[a.AmountField])
}

// Accessor adapts the field accessor to the reducer.
func (a FieldAccessor) Accessor() report.Accessor[Record] {
	acc := report.Accessor[Record]{TimestampOf: a.Timestamp}
	if a.AmountField != "" {
		acc.AmountOf = a.Amount
	}
	return acc
}

func parseTimestamp(v any, loc *time.Location) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, !x.IsZero()
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timestampLayouts {
			if t, err := time.ParseInLocation(layout, s, loc); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return fromUnix(f)
	case float64:
		return fromUnix(x)
	case int64:
		return fromUnix(float64(x))
	case int:
		return fromUnix(float64(x))
	default:
		return time.Time{}, false
	}
}

func fromUnix(f float64) (time.Time, bool) {
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, false
	}
	if f >= millisThreshold {
		return time.UnixMilli(int64(f)), true
	}
	return time.Unix(int64(f), 0), true
}

func parseAmount(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case nil:
		return decimal.Decimal{}, false
	case decimal.Decimal:
		return x, true
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(x))
		return d, err == nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(x), true
	case int64:
		return decimal.NewFromInt(x), true
	case int32:
		return decimal.NewFromInt32(x), true
	case int:
		return decimal.NewFromInt(int64(x)), true
	default:
		return decimal.Decimal{}, false
	}
}
