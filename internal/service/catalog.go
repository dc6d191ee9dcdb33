package service

import (
	"github.com/parishdesk/reporting/internal/report"
	"github.com/parishdesk/reporting/internal/source"
)

// Metric names shown on the dashboard.
const (
	MetricDonations     = "donations"
	MetricRegistrations = "registrations"
	MetricAttendances   = "attendances"
	MetricUsers         = "users"
	MetricFamilies      = "families"
)

// MetricKind describes a dashboard chart independent of where its data lives.
type MetricKind struct {
	Name   string
	Label  string
	Fields []report.Field
}

// DefaultCatalog lists the charts of the admin dashboard in display order.
var DefaultCatalog = []MetricKind{
	{Name: MetricDonations, Label: "Donations", Fields: []report.Field{report.FieldCount, report.FieldTotal}},
	{Name: MetricRegistrations, Label: "Event registrations", Fields: []report.Field{report.FieldCount}},
	{Name: MetricAttendances, Label: "Attendances", Fields: []report.Field{report.FieldCount}},
	{Name: MetricUsers, Label: "New users", Fields: []report.Field{report.FieldCount}},
	{Name: MetricFamilies, Label: "New families", Fields: []report.Field{report.FieldCount}},
}

// MetricDefinition binds a chart to the source and fields it reads.
type MetricDefinition struct {
	Name     string
	Label    string
	Source   source.Source
	Accessor source.FieldAccessor
	Fields   []report.Field
}

// Define binds a catalog entry to a source.
func (k MetricKind) Define(src source.Source, acc source.FieldAccessor) MetricDefinition {
	fields := k.Fields
	if acc.AmountField == "" {
		fields = []report.Field{report.FieldCount}
	}
	return MetricDefinition{
		Name:     k.Name,
		Label:    k.Label,
		Source:   src,
		Accessor: acc,
		Fields:   fields,
	}
}
