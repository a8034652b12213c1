package service

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kitecrm/export-service/internal/domain"
)

func sampleSet(entity domain.EntityKind) RecordSet {
	created := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	return RecordSet{
		Entity:  entity,
		Columns: []string{"id", "name", "amount", "archived", "created_at"},
		Rows: []map[string]interface{}{
			{"id": "r-1", "name": "Alpha", "amount": 99.5, "archived": false, "created_at": created},
			{"id": "r-2", "name": "Beta, Inc", "amount": int64(1200), "archived": true, "created_at": created},
			{"id": "r-3", "name": "", "amount": nil, "archived": false, "created_at": created},
		},
	}
}

func TestBuildArtifactSingleCSV(t *testing.T) {
	artifact, err := BuildArtifact("0a1b2c3d-ffff-0000-ffff-000000000000", domain.FormatCSV, []RecordSet{sampleSet(domain.EntityDeals)})
	if err != nil {
		t.Fatalf("BuildArtifact failed: %v", err)
	}
	if artifact.Filename != "crm-export-0a1b2c3d-deals.csv" {
		t.Errorf("filename = %s", artifact.Filename)
	}
	if artifact.ContentType != "text/csv" {
		t.Errorf("content type = %s", artifact.ContentType)
	}

	records, err := csv.NewReader(bytes.NewReader(artifact.Data)).ReadAll()
	if err != nil {
		t.Fatalf("artifact is not valid csv: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("csv has %d rows, want header + 3", len(records))
	}
	if strings.Join(records[0], ",") != "id,name,amount,archived,created_at" {
		t.Errorf("header = %v", records[0])
	}
	if records[1][1] != "Alpha" || records[1][2] != "99.5" || records[1][3] != "false" {
		t.Errorf("first row = %v", records[1])
	}
	if records[2][1] != "Beta, Inc" {
		t.Errorf("comma in value not preserved: %v", records[2])
	}
	if records[3][2] != "" {
		t.Errorf("nil value rendered as %q, want empty", records[3][2])
	}
	if records[1][4] != "2025-03-14T09:26:53Z" {
		t.Errorf("time rendered as %q", records[1][4])
	}
}

func TestBuildArtifactSingleJSON(t *testing.T) {
	artifact, err := BuildArtifact("feedbeef-0000-0000-0000-000000000000", domain.FormatJSON, []RecordSet{sampleSet(domain.EntityContacts)})
	if err != nil {
		t.Fatalf("BuildArtifact failed: %v", err)
	}
	if artifact.ContentType != "application/json" {
		t.Errorf("content type = %s", artifact.ContentType)
	}

	var envelope struct {
		Entity      string                   `json:"entity"`
		RecordCount int                      `json:"record_count"`
		Records     []map[string]interface{} `json:"records"`
	}
	if err := json.Unmarshal(artifact.Data, &envelope); err != nil {
		t.Fatalf("artifact is not valid json: %v", err)
	}
	if envelope.Entity != "contacts" {
		t.Errorf("entity = %s", envelope.Entity)
	}
	if envelope.RecordCount != 3 || len(envelope.Records) != 3 {
		t.Errorf("record count = %d / %d records", envelope.RecordCount, len(envelope.Records))
	}
}

func TestBuildArtifactMultiEntityZip(t *testing.T) {
	sets := []RecordSet{sampleSet(domain.EntityContacts), sampleSet(domain.EntityCompanies)}
	artifact, err := BuildArtifact("abcdefab-0000-0000-0000-000000000000", domain.FormatCSV, sets)
	if err != nil {
		t.Fatalf("BuildArtifact failed: %v", err)
	}
	if artifact.Filename != "crm-export-abcdefab.zip" {
		t.Errorf("filename = %s", artifact.Filename)
	}
	if artifact.ContentType != "application/zip" {
		t.Errorf("content type = %s", artifact.ContentType)
	}

	zr, err := zip.NewReader(bytes.NewReader(artifact.Data), int64(len(artifact.Data)))
	if err != nil {
		t.Fatalf("artifact is not a valid zip: %v", err)
	}
	names := make(map[string]bool)
	for _, f := range zr.File {
		names[f.Name] = true
	}
	for _, want := range []string{"contacts.csv", "companies.csv"} {
		if !names[want] {
			t.Errorf("zip missing entry %s, has %v", want, names)
		}
	}
}

func TestBuildArtifactXLSX(t *testing.T) {
	sets := []RecordSet{sampleSet(domain.EntityContacts), sampleSet(domain.EntityDeals)}
	artifact, err := BuildArtifact("12345678-0000-0000-0000-000000000000", domain.FormatXLSX, sets)
	if err != nil {
		t.Fatalf("BuildArtifact failed: %v", err)
	}
	if artifact.Filename != "crm-export-12345678.xlsx" {
		t.Errorf("filename = %s", artifact.Filename)
	}

	f, err := excelize.OpenReader(bytes.NewReader(artifact.Data))
	if err != nil {
		t.Fatalf("artifact is not a valid workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "contacts" || sheets[1] != "deals" {
		t.Errorf("sheets = %v, want [contacts deals]", sheets)
	}

	header, err := f.GetCellValue("contacts", "A1")
	if err != nil {
		t.Fatalf("GetCellValue failed: %v", err)
	}
	if header != "id" {
		t.Errorf("A1 = %q, want id", header)
	}
	name, err := f.GetCellValue("deals", "B2")
	if err != nil {
		t.Fatalf("GetCellValue failed: %v", err)
	}
	if name != "Alpha" {
		t.Errorf("B2 = %q, want Alpha", name)
	}
}

func TestBuildArtifactEmptySet(t *testing.T) {
	set := RecordSet{
		Entity:  domain.EntityTasks,
		Columns: []string{"id", "title"},
	}
	artifact, err := BuildArtifact("00000000-0000-0000-0000-000000000000", domain.FormatCSV, []RecordSet{set})
	if err != nil {
		t.Fatalf("BuildArtifact failed: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(artifact.Data)).ReadAll()
	if err != nil {
		t.Fatalf("artifact is not valid csv: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("empty export has %d rows, want header only", len(records))
	}
}

func TestBuildArtifactUnknownFormat(t *testing.T) {
	if _, err := BuildArtifact("x", domain.Format("pdf"), []RecordSet{sampleSet(domain.EntityContacts)}); err == nil {
		t.Error("unknown format did not error")
	}
}
