package report

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Field selects which bucket value a comparison reads.
type Field string

const (
	FieldCount Field = "count"
	FieldTotal Field = "total"
)

// NotApplicableLabel is shown instead of a percentage when the baseline is zero.
const NotApplicableLabel = "N/A"

// cappedPercent is reported when growth from a zero baseline is undefined.
const cappedPercent = 100

var hundred = decimal.NewFromInt(100)

// ParseField validates a field name.
func ParseField(s string) (Field, error) {
	switch Field(s) {
	case FieldCount, FieldTotal:
		return Field(s), nil
	default:
		return "", fmt.Errorf("unknown field %q", s)
	}
}

// Value returns the bucket value selected by field.
func (b MonthBucket) Value(field Field) decimal.Decimal {
	switch field {
	case FieldTotal:
		return b.Total
	case FieldCount:
		return decimal.NewFromInt(b.Count)
	default:
		return decimal.Zero
	}
}

// ComparisonResult is the derived difference between two selected months.
//
// When the previous value is zero the percentage is not a ratio: it is 0 when
// the current value is also zero, otherwise +100 or -100 with Capped set.
type ComparisonResult struct {
	Field            Field           `json:"field"`
	Current          decimal.Decimal `json:"current"`
	Previous         decimal.Decimal `json:"previous"`
	Change           decimal.Decimal `json:"change"`
	PercentageChange float64         `json:"percentage_change"`
	Capped           bool            `json:"capped"`
	Label            string          `json:"label"`
}

// Compare reads the current and compare months out of buckets and computes
// the absolute and percentage change. Months outside the window count as zero.
func Compare(buckets []MonthBucket, current, compare MonthKey, field Field) ComparisonResult {
	return CompareWithFormatter(buckets, current, compare, field, defaultFormatter)
}

// CompareWithFormatter is Compare with a locale-specific percentage label.
func CompareWithFormatter(buckets []MonthBucket, current, compare MonthKey, field Field, f *PercentFormatter) ComparisonResult {
	if f == nil {
		f = defaultFormatter
	}

	cur := decimal.Zero
	if b, ok := Find(buckets, current); ok {
		cur = b.Value(field)
	}
	prev := decimal.Zero
	if b, ok := Find(buckets, compare); ok {
		prev = b.Value(field)
	}

	pct, capped := PercentageChange(cur, prev)
	return ComparisonResult{
		Field:            field,
		Current:          cur,
		Previous:         prev,
		Change:           cur.Sub(prev),
		PercentageChange: pct,
		Capped:           capped,
		Label:            f.Format(pct, capped),
	}
}

// CompareSelections compares two period selections.
func CompareSelections(buckets []MonthBucket, current, compare PeriodSelection, field Field) ComparisonResult {
	return Compare(buckets, current.Key, compare.Key, field)
}

// PercentageChange returns (current-previous)/previous*100 rounded to two
// decimals. A zero previous value never divides. A negative previous value
// flips the sign: 50 against -50 is -200.
func PercentageChange(current, previous decimal.Decimal) (float64, bool) {
	if previous.IsZero() {
		switch current.Sign() {
		case 0:
			return 0, false
		case 1:
			return cappedPercent, true
		default:
			return -cappedPercent, true
		}
	}
	change := current.Sub(previous)
	pct := change.Div(previous).Mul(hundred).Round(2)
	return pct.InexactFloat64(), false
}
