package report

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Labeler renders a month key for display. Labels are cosmetic; lookups
// always go through MonthKey.
type Labeler func(MonthKey) string

// DefaultLabeler renders "Aug 2025".
func DefaultLabeler(k MonthKey) string {
	return k.Start(nil).Format("Jan 2006")
}

var shortMonths = [][12]string{
	{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
	{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sept", "oct", "nov", "dic"},
	{"janv.", "févr.", "mars", "avr.", "mai", "juin", "juil.", "août", "sept.", "oct.", "nov.", "déc."},
	{"Jan.", "Feb.", "März", "Apr.", "Mai", "Juni", "Juli", "Aug.", "Sept.", "Okt.", "Nov.", "Dez."},
	{"gen", "feb", "mar", "apr", "mag", "giu", "lug", "ago", "set", "ott", "nov", "dic"},
	{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"},
	{"sty", "lut", "mar", "kwi", "maj", "cze", "lip", "sie", "wrz", "paź", "lis", "gru"},
}

// Order matches shortMonths.
var labelMatcher = language.NewMatcher([]language.Tag{
	language.English,
	language.Spanish,
	language.French,
	language.German,
	language.Italian,
	language.Portuguese,
	language.Polish,
})

// NewLabeler returns a Labeler using the short month names of the closest
// supported locale, e.g. "mar 2025" for "es". Unknown locales get English.
func NewLabeler(locale string) Labeler {
	tag, err := language.Parse(locale)
	if err != nil {
		return DefaultLabeler
	}
	_, idx, conf := labelMatcher.Match(tag)
	if conf == language.No || idx == 0 {
		return DefaultLabeler
	}
	names := shortMonths[idx]
	return func(k MonthKey) string {
		return fmt.Sprintf("%s %d", names[k.Month-1], k.Year)
	}
}

// PercentFormatter renders percentage changes using a locale's number format.
type PercentFormatter struct {
	printer *message.Printer
}

// NewPercentFormatter returns a formatter for the given BCP 47 tag.
// Unknown tags fall back to English.
func NewPercentFormatter(locale string) *PercentFormatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &PercentFormatter{printer: message.NewPrinter(tag)}
}

// Format renders a signed percentage with at most one decimal, or "N/A" when
// the value is a capped zero-baseline sentinel.
func (f *PercentFormatter) Format(pct float64, capped bool) string {
	if capped {
		return NotApplicableLabel
	}
	rounded := math.Round(pct*10) / 10
	if rounded == 0 {
		return "0%"
	}
	var s string
	if rounded == math.Trunc(rounded) {
		s = f.printer.Sprintf("%.0f%%", rounded)
	} else {
		s = f.printer.Sprintf("%.1f%%", rounded)
	}
	if rounded > 0 && !strings.HasPrefix(s, "+") {
		s = "+" + s
	}
	return s
}

var defaultFormatter = NewPercentFormatter("en")
