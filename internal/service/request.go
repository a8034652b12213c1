package service

import (
	"sort"
	"time"

	"github.com/kitecrm/export-service/internal/domain"
)

// ExportRequest holds one user's export configuration: which entities to
// include, the output format, and the filter options. It is mutated only
// by explicit calls; StartExport snapshots it into a job so later edits
// never affect a running export.
type ExportRequest struct {
	Format          domain.Format
	entities        map[domain.EntityKind]struct{}
	DateRange       domain.DateRange
	DateFrom        *time.Time
	DateTo          *time.Time
	IncludeArchived bool
	IncludeDeleted  bool
}

// NewExportRequest creates a request with defaults: csv format, no
// entities selected, full date range, archived and deleted excluded.
// Parameters: none.
// Returns:
//   - *ExportRequest: initialized request.
func NewExportRequest() *ExportRequest {
	return &ExportRequest{
		Format:    domain.FormatCSV,
		entities:  make(map[domain.EntityKind]struct{}),
		DateRange: domain.DateRangeAll,
	}
}

// ToggleEntity adds the entity kind if absent, removes it if present.
// Toggling twice restores the original membership.
// Parameters:
//   - kind: entity kind to toggle.
// Returns: none.
func (r *ExportRequest) ToggleEntity(kind domain.EntityKind) {
	if _, ok := r.entities[kind]; ok {
		delete(r.entities, kind)
	} else {
		r.entities[kind] = struct{}{}
	}
}

// SelectAll selects every entity kind in the catalog.
func (r *ExportRequest) SelectAll() {
	for _, kind := range domain.AllEntityKinds() {
		r.entities[kind] = struct{}{}
	}
}

// ClearAll deselects every entity kind.
func (r *ExportRequest) ClearAll() {
	r.entities = make(map[domain.EntityKind]struct{})
}

// SetEntities replaces the selection with the given kinds, deduplicated.
// Parameters:
//   - kinds: entity kinds to select.
// Returns: none.
func (r *ExportRequest) SetEntities(kinds []domain.EntityKind) {
	r.entities = make(map[domain.EntityKind]struct{}, len(kinds))
	for _, kind := range kinds {
		r.entities[kind] = struct{}{}
	}
}

// HasEntity reports whether the entity kind is currently selected.
func (r *ExportRequest) HasEntity(kind domain.EntityKind) bool {
	_, ok := r.entities[kind]
	return ok
}

// Entities returns the selected entity kinds in catalog order.
// Parameters: none.
// Returns:
//   - []domain.EntityKind: sorted selection.
func (r *ExportRequest) Entities() []domain.EntityKind {
	out := make([]domain.EntityKind, 0, len(r.entities))
	for kind := range r.entities {
		out = append(out, kind)
	}
	// catalog order keeps artifact layout and snapshots stable
	order := make(map[domain.EntityKind]int, len(domain.AllEntityKinds()))
	for i, kind := range domain.AllEntityKinds() {
		order[kind] = i
	}
	sort.Slice(out, func(i, j int) bool { return order[out[i]] < order[out[j]] })
	return out
}

// SetFormat sets the output format. No validation; checked at job start.
func (r *ExportRequest) SetFormat(f domain.Format) {
	r.Format = f
}

// SetDateRange sets the date range. No validation; checked at job start.
func (r *ExportRequest) SetDateRange(d domain.DateRange) {
	r.DateRange = d
}

// SetCustomRange sets explicit bounds for the custom date range.
// Parameters:
//   - from: inclusive lower bound; nil for open.
//   - to: inclusive upper bound; nil for open.
// Returns: none.
func (r *ExportRequest) SetCustomRange(from, to *time.Time) {
	r.DateFrom = from
	r.DateTo = to
}

// SetIncludeArchived sets whether archived records are exported.
func (r *ExportRequest) SetIncludeArchived(v bool) {
	r.IncludeArchived = v
}

// SetIncludeDeleted sets whether deleted records are exported.
func (r *ExportRequest) SetIncludeDeleted(v bool) {
	r.IncludeDeleted = v
}

// IsValid reports whether an export may be started from this request.
// The only requirement is a non-empty entity selection.
// Parameters: none.
// Returns:
//   - bool: true when at least one entity kind is selected.
func (r *ExportRequest) IsValid() bool {
	return len(r.entities) > 0
}
