package domain

import "time"

// EntityKind identifies one exportable CRM data type.
type EntityKind string

const (
	EntityContacts       EntityKind = "contacts"
	EntityCompanies      EntityKind = "companies"
	EntityDeals          EntityKind = "deals"
	EntityTasks          EntityKind = "tasks"
	EntityActivities     EntityKind = "activities"
	EntityEmails         EntityKind = "emails"
	EntityCalendarEvents EntityKind = "calendar_events"
)

// entityLabels maps entity kinds to their display labels.
var entityLabels = map[EntityKind]string{
	EntityContacts:       "Contacts",
	EntityCompanies:      "Companies",
	EntityDeals:          "Deals",
	EntityTasks:          "Tasks",
	EntityActivities:     "Activities",
	EntityEmails:         "Emails",
	EntityCalendarEvents: "Calendar Events",
}

// AllEntityKinds returns every exportable entity kind in catalog order.
// Parameters: none.
// Returns:
//   - []EntityKind: stable ordered list of entity kinds.
func AllEntityKinds() []EntityKind {
	return []EntityKind{
		EntityContacts,
		EntityCompanies,
		EntityDeals,
		EntityTasks,
		EntityActivities,
		EntityEmails,
		EntityCalendarEvents,
	}
}

// Valid reports whether the entity kind is part of the catalog.
func (k EntityKind) Valid() bool {
	_, ok := entityLabels[k]
	return ok
}

// Label returns the display label for the entity kind.
func (k EntityKind) Label() string {
	return entityLabels[k]
}

// EntityDescriptor describes one catalog entry for the selection UI.
// RecordCount is approximate and for display only.
type EntityDescriptor struct {
	Kind        EntityKind `json:"kind"`
	Label       string     `json:"label"`
	RecordCount int64      `json:"record_count"`
}

// Format identifies an export output format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// formatDescriptors holds the static format catalog.
var formatDescriptors = []FormatDescriptor{
	{Format: FormatCSV, Label: "CSV", Description: "Comma-separated values, one file per data type"},
	{Format: FormatJSON, Label: "JSON", Description: "Structured JSON records, one file per data type"},
	{Format: FormatXLSX, Label: "Excel", Description: "Excel workbook with one sheet per data type"},
}

// AllFormats returns the static format catalog.
// Parameters: none.
// Returns:
//   - []FormatDescriptor: supported formats with labels and descriptions.
func AllFormats() []FormatDescriptor {
	out := make([]FormatDescriptor, len(formatDescriptors))
	copy(out, formatDescriptors)
	return out
}

// Valid reports whether the format is supported.
func (f Format) Valid() bool {
	for _, d := range formatDescriptors {
		if d.Format == f {
			return true
		}
	}
	return false
}

// Ext returns the file extension for the format, without the dot.
func (f Format) Ext() string {
	return string(f)
}

// FormatDescriptor describes one supported export format.
type FormatDescriptor struct {
	Format      Format `json:"format"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// DateRange selects which time window of records an export covers.
type DateRange string

const (
	DateRangeAll     DateRange = "all"
	DateRangeYear    DateRange = "year"
	DateRangeQuarter DateRange = "quarter"
	DateRangeMonth   DateRange = "month"
	DateRangeCustom  DateRange = "custom"
)

// Valid reports whether the date range value is known.
func (d DateRange) Valid() bool {
	switch d {
	case DateRangeAll, DateRangeYear, DateRangeQuarter, DateRangeMonth, DateRangeCustom:
		return true
	}
	return false
}

// Cutoff returns the inclusive lower bound implied by a relative range.
// Parameters:
//   - now: reference time the range is relative to.
// Returns:
//   - *time.Time: cutoff time, or nil for "all" and "custom".
func (d DateRange) Cutoff(now time.Time) *time.Time {
	var t time.Time
	switch d {
	case DateRangeYear:
		t = now.AddDate(-1, 0, 0)
	case DateRangeQuarter:
		t = now.AddDate(0, -3, 0)
	case DateRangeMonth:
		t = now.AddDate(0, -1, 0)
	default:
		return nil
	}
	return &t
}
