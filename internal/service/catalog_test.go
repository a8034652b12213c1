package service

import (
	"context"
	"testing"

	"github.com/kitecrm/export-service/internal/domain"
	"github.com/kitecrm/export-service/internal/repository"
)

func TestCatalogServiceListEntities(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	if err := repository.SeedDemoData(env.db, 10); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	log := env.service.log
	catalog := NewCatalogService(env.crm, log)

	entities := catalog.ListEntities(context.Background())
	if len(entities) != len(domain.AllEntityKinds()) {
		t.Fatalf("ListEntities returned %d kinds, want %d", len(entities), len(domain.AllEntityKinds()))
	}
	for i, desc := range entities {
		if desc.Kind != domain.AllEntityKinds()[i] {
			t.Errorf("entities[%d] = %s, out of catalog order", i, desc.Kind)
		}
		if desc.Label == "" {
			t.Errorf("entity %s has no label", desc.Kind)
		}
		if desc.RecordCount <= 0 {
			t.Errorf("entity %s count = %d, want > 0 after seeding", desc.Kind, desc.RecordCount)
		}
	}
}

func TestCatalogServiceListFormats(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	catalog := NewCatalogService(env.crm, env.service.log)

	formats := catalog.ListFormats()
	if len(formats) != 3 {
		t.Fatalf("ListFormats returned %d formats, want 3", len(formats))
	}
	want := []domain.Format{domain.FormatCSV, domain.FormatJSON, domain.FormatXLSX}
	for i, f := range want {
		if formats[i].Format != f {
			t.Errorf("formats[%d] = %s, want %s", i, formats[i].Format, f)
		}
	}
}
