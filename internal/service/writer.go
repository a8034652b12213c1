package service

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kitecrm/export-service/internal/domain"
)

// RecordSet holds the fetched rows for one entity kind, ready to encode.
type RecordSet struct {
	Entity  domain.EntityKind
	Columns []string
	Rows    []map[string]interface{}
}

// Artifact is one encoded export file ready for upload.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

const (
	contentTypeCSV  = "text/csv"
	contentTypeJSON = "application/json"
	contentTypeZIP  = "application/zip"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// BuildArtifact encodes the record sets into a single downloadable file.
// A multi-entity csv or json export is bundled as a zip with one file per
// entity; xlsx always produces one workbook with a sheet per entity.
// Parameters:
//   - jobID: job ID used in the artifact filename.
//   - format: output format.
//   - sets: record sets in catalog order.
// Returns:
//   - *Artifact: encoded artifact with filename and content type.
//   - error: non-nil if encoding fails.
func BuildArtifact(jobID string, format domain.Format, sets []RecordSet) (*Artifact, error) {
	base := artifactBaseName(jobID)

	switch format {
	case domain.FormatXLSX:
		data, err := encodeXLSX(sets)
		if err != nil {
			return nil, err
		}
		return &Artifact{
			Filename:    base + ".xlsx",
			ContentType: contentTypeXLSX,
			Data:        data,
		}, nil

	case domain.FormatCSV, domain.FormatJSON:
		if len(sets) == 1 {
			data, err := encodeSet(format, sets[0])
			if err != nil {
				return nil, err
			}
			contentType := contentTypeCSV
			if format == domain.FormatJSON {
				contentType = contentTypeJSON
			}
			return &Artifact{
				Filename:    fmt.Sprintf("%s-%s.%s", base, sets[0].Entity, format.Ext()),
				ContentType: contentType,
				Data:        data,
			}, nil
		}
		data, err := encodeBundle(format, sets)
		if err != nil {
			return nil, err
		}
		return &Artifact{
			Filename:    base + ".zip",
			ContentType: contentTypeZIP,
			Data:        data,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// artifactBaseName builds a short stable base name from the job ID.
func artifactBaseName(jobID string) string {
	short := jobID
	if len(short) > 8 {
		short = short[:8]
	}
	return "crm-export-" + short
}

// encodeSet encodes one record set as csv or json.
func encodeSet(format domain.Format, set RecordSet) ([]byte, error) {
	if format == domain.FormatJSON {
		return encodeJSON(set)
	}
	return encodeCSV(set)
}

// encodeCSV writes the column header followed by one row per record.
func encodeCSV(set RecordSet) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(set.Columns); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	record := make([]string, len(set.Columns))
	for _, row := range set.Rows {
		for i, col := range set.Columns {
			record[i] = formatCell(row[col])
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// jsonEnvelope is the top-level structure of a per-entity json file.
type jsonEnvelope struct {
	Entity      domain.EntityKind        `json:"entity"`
	RecordCount int                      `json:"record_count"`
	Records     []map[string]interface{} `json:"records"`
}

// encodeJSON writes the record set as an entity-tagged json document.
func encodeJSON(set RecordSet) ([]byte, error) {
	records := set.Rows
	if records == nil {
		records = []map[string]interface{}{}
	}
	data, err := json.MarshalIndent(jsonEnvelope{
		Entity:      set.Entity,
		RecordCount: len(records),
		Records:     records,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode json for %s: %w", set.Entity, err)
	}
	return data, nil
}

// encodeBundle zips one csv or json file per entity.
func encodeBundle(format domain.Format, sets []RecordSet) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, set := range sets {
		data, err := encodeSet(format, set)
		if err != nil {
			return nil, err
		}
		entry, err := zw.Create(fmt.Sprintf("%s.%s", set.Entity, format.Ext()))
		if err != nil {
			return nil, fmt.Errorf("failed to create zip entry for %s: %w", set.Entity, err)
		}
		if _, err := entry.Write(data); err != nil {
			return nil, fmt.Errorf("failed to write zip entry for %s: %w", set.Entity, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize zip: %w", err)
	}
	return buf.Bytes(), nil
}

// encodeXLSX builds one workbook with a sheet per entity.
func encodeXLSX(sets []RecordSet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	for i, set := range sets {
		sheet := string(set.Entity)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, fmt.Errorf("failed to name sheet %s: %w", sheet, err)
			}
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return nil, fmt.Errorf("failed to create sheet %s: %w", sheet, err)
			}
		}

		header := make([]interface{}, len(set.Columns))
		for c, col := range set.Columns {
			header[c] = col
		}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return nil, fmt.Errorf("failed to write header on %s: %w", sheet, err)
		}

		for r, row := range set.Rows {
			values := make([]interface{}, len(set.Columns))
			for c, col := range set.Columns {
				values[c] = formatCellValue(row[col])
			}
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetSheetRow(sheet, cell, &values); err != nil {
				return nil, fmt.Errorf("failed to write row on %s: %w", sheet, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// formatCell renders a database value as a csv field.
func formatCell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case *time.Time:
		if val == nil {
			return ""
		}
		return val.UTC().Format(time.RFC3339)
	case bool:
		return strconv.FormatBool(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

// formatCellValue normalizes a database value for a spreadsheet cell.
// Times become RFC 3339 strings; scalar types pass through unchanged.
func formatCellValue(v interface{}) interface{} {
	switch val := v.(type) {
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case *time.Time:
		if val == nil {
			return ""
		}
		return val.UTC().Format(time.RFC3339)
	case []byte:
		return string(val)
	default:
		return v
	}
}
