// Package report turns timestamped records into trailing monthly buckets and
// compares two selected months against each other.
package report

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidMonthKey is returned when a month key cannot be parsed.
var ErrInvalidMonthKey = errors.New("invalid month key")

// MonthKey identifies a calendar month independently of locale.
type MonthKey struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// KeyOf returns the month containing t, evaluated in t's location.
func KeyOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// ParseMonthKey parses "YYYY-MM".
func ParseMonthKey(s string) (MonthKey, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return MonthKey{}, fmt.Errorf("%w: %q", ErrInvalidMonthKey, s)
	}
	return KeyOf(t), nil
}

// index counts months since year zero so arithmetic never wraps within a year.
func (k MonthKey) index() int {
	return k.Year*12 + int(k.Month) - 1
}

func keyFromIndex(i int) MonthKey {
	return MonthKey{Year: i / 12, Month: time.Month(i%12 + 1)}
}

// AddMonths returns the key n months later (earlier when n is negative).
func (k MonthKey) AddMonths(n int) MonthKey {
	return keyFromIndex(k.index() + n)
}

// Before reports whether k is strictly earlier than other.
func (k MonthKey) Before(other MonthKey) bool {
	return k.index() < other.index()
}

// IsZero reports whether the key is unset.
func (k MonthKey) IsZero() bool {
	return k.Year == 0 && k.Month == 0
}

// Valid reports whether the month is within 1-12.
func (k MonthKey) Valid() bool {
	return k.Month >= time.January && k.Month <= time.December
}

// Start returns midnight on the first day of the month in loc.
func (k MonthKey) Start(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(k.Year, k.Month, 1, 0, 0, 0, 0, loc)
}

func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}

// PeriodSelection is a user-chosen month with its display label.
type PeriodSelection struct {
	Key   MonthKey `json:"key"`
	Label string   `json:"label"`
}

// Periods lists the selectable months of a bucket sequence, newest first.
func Periods(buckets []MonthBucket) []PeriodSelection {
	out := make([]PeriodSelection, 0, len(buckets))
	for i := len(buckets) - 1; i >= 0; i-- {
		out = append(out, PeriodSelection{Key: buckets[i].Key, Label: buckets[i].Label})
	}
	return out
}

// DefaultSelections returns the newest month and the one before it, the
// initial "current" and "compare" slots of the dashboard.
func DefaultSelections(buckets []MonthBucket) (current, compare PeriodSelection) {
	if len(buckets) == 0 {
		return PeriodSelection{}, PeriodSelection{}
	}
	last := buckets[len(buckets)-1]
	current = PeriodSelection{Key: last.Key, Label: last.Label}
	if len(buckets) > 1 {
		prev := buckets[len(buckets)-2]
		compare = PeriodSelection{Key: prev.Key, Label: prev.Label}
		return current, compare
	}
	prevKey := last.Key.AddMonths(-1)
	return current, PeriodSelection{Key: prevKey, Label: DefaultLabeler(prevKey)}
}
