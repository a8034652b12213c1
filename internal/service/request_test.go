package service

import (
	"testing"

	"github.com/kitecrm/export-service/internal/domain"
)

func TestExportRequestDefaults(t *testing.T) {
	req := NewExportRequest()
	if req.Format != domain.FormatCSV {
		t.Errorf("default format = %s, want csv", req.Format)
	}
	if req.DateRange != domain.DateRangeAll {
		t.Errorf("default date range = %s, want all", req.DateRange)
	}
	if req.IsValid() {
		t.Error("empty request reports valid")
	}
	if req.IncludeArchived || req.IncludeDeleted {
		t.Error("archived/deleted included by default")
	}
}

func TestExportRequestToggleEntity(t *testing.T) {
	req := NewExportRequest()

	req.ToggleEntity(domain.EntityContacts)
	if !req.HasEntity(domain.EntityContacts) {
		t.Error("entity not selected after toggle")
	}
	if !req.IsValid() {
		t.Error("request with one entity reports invalid")
	}

	// toggling twice restores the original state
	req.ToggleEntity(domain.EntityContacts)
	if req.HasEntity(domain.EntityContacts) {
		t.Error("entity still selected after double toggle")
	}
	if req.IsValid() {
		t.Error("request reports valid after deselecting everything")
	}
}

func TestExportRequestSelectAllClearAll(t *testing.T) {
	req := NewExportRequest()
	req.SelectAll()
	if got := len(req.Entities()); got != len(domain.AllEntityKinds()) {
		t.Errorf("SelectAll selected %d kinds, want %d", got, len(domain.AllEntityKinds()))
	}
	req.ClearAll()
	if got := len(req.Entities()); got != 0 {
		t.Errorf("ClearAll left %d kinds selected", got)
	}
}

func TestExportRequestSetEntitiesDedupes(t *testing.T) {
	req := NewExportRequest()
	req.SetEntities([]domain.EntityKind{
		domain.EntityDeals,
		domain.EntityContacts,
		domain.EntityDeals,
		domain.EntityContacts,
	})
	got := req.Entities()
	if len(got) != 2 {
		t.Fatalf("Entities() = %v, want 2 unique kinds", got)
	}
	// catalog order, not insertion order
	if got[0] != domain.EntityContacts || got[1] != domain.EntityDeals {
		t.Errorf("Entities() = %v, want [contacts deals]", got)
	}
}
