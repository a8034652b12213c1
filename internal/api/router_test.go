package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kitecrm/export-service/internal/domain"
	"github.com/kitecrm/export-service/internal/logger"
	"github.com/kitecrm/export-service/internal/repository"
	"github.com/kitecrm/export-service/internal/service"
	"github.com/kitecrm/export-service/internal/storage"
)

func newTestRouter(t *testing.T) (*gin.Engine, *service.ExportService) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := repository.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	if err := repository.SeedDemoData(db, 10); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	log := logger.New(&logger.Config{Level: "error", Format: "text", ServiceName: "test"})
	jobRepo := repository.NewJobRepository(db)
	crmRepo := repository.NewCRMRepository(db)
	store := storage.NewLocalStorage(t.TempDir(), "")

	exportService := service.NewExportService(jobRepo, crmRepo, store, nil, log, &service.Options{Workers: 2, BatchSize: 5})
	catalogService := service.NewCatalogService(crmRepo, log)

	return SetupRouter(exportService, catalogService, log, "test", nil), exportService
}

func doRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func pollJobStatus(t *testing.T, router *gin.Engine, id string, want domain.JobStatus) map[string]interface{} {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		w := doRequest(router, http.MethodGet, "/api/v1/exports/"+id, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("GET export returned %d: %s", w.Code, w.Body.String())
		}
		var job map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &job); err != nil {
			t.Fatalf("invalid job JSON: %v", err)
		}
		if job["status"] == string(want) {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s never reached %s", id, want)
	return nil
}

func TestStartExportValidationError(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, http.MethodPost, "/api/v1/exports", map[string]interface{}{
		"entities": []string{},
		"format":   "csv",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid error JSON: %v", err)
	}
	if resp["error"] != "Please select at least one data type to export" {
		t.Errorf("error = %q", resp["error"])
	}

	// no job may appear in the history after a rejected request
	lw := doRequest(router, http.MethodGet, "/api/v1/exports", nil)
	var list struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(lw.Body.Bytes(), &list); err != nil {
		t.Fatalf("invalid list JSON: %v", err)
	}
	if list.Total != 0 {
		t.Errorf("history has %d jobs after rejected request, want 0", list.Total)
	}
}

func TestExportEndToEnd(t *testing.T) {
	router, svc := newTestRouter(t)

	w := doRequest(router, http.MethodPost, "/api/v1/exports", map[string]interface{}{
		"entities": []string{"contacts", "deals"},
		"format":   "csv",
	})
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", w.Code, w.Body.String())
	}
	var accepted map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &accepted); err != nil {
		t.Fatalf("invalid job JSON: %v", err)
	}
	id, _ := accepted["id"].(string)
	if id == "" {
		t.Fatal("accepted job has no id")
	}
	if accepted["status"] != "pending" {
		t.Errorf("accepted status = %v, want pending", accepted["status"])
	}

	svc.Wait()
	job := pollJobStatus(t, router, id, domain.JobStatusCompleted)
	if job["progress"].(float64) != 100 {
		t.Errorf("progress = %v, want 100", job["progress"])
	}

	// download streams the artifact with a file attachment header
	dw := doRequest(router, http.MethodGet, "/api/v1/exports/"+id+"/download", nil)
	if dw.Code != http.StatusOK {
		t.Fatalf("download status = %d: %s", dw.Code, dw.Body.String())
	}
	if dw.Body.Len() == 0 {
		t.Error("download body is empty")
	}
	if cd := dw.Header().Get("Content-Disposition"); cd == "" {
		t.Error("download has no Content-Disposition header")
	}

	// delete is idempotent: both calls return 204
	d1 := doRequest(router, http.MethodDelete, "/api/v1/exports/"+id, nil)
	if d1.Code != http.StatusNoContent {
		t.Errorf("first delete status = %d, want 204", d1.Code)
	}
	d2 := doRequest(router, http.MethodDelete, "/api/v1/exports/"+id, nil)
	if d2.Code != http.StatusNoContent {
		t.Errorf("second delete status = %d, want 204", d2.Code)
	}

	gw := doRequest(router, http.MethodGet, "/api/v1/exports/"+id, nil)
	if gw.Code != http.StatusNotFound {
		t.Errorf("GET after delete = %d, want 404", gw.Code)
	}
}

func TestGetExportNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, http.MethodGet, "/api/v1/exports/no-such-id", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}

	dw := doRequest(router, http.MethodGet, "/api/v1/exports/no-such-id/download", nil)
	if dw.Code != http.StatusNotFound {
		t.Errorf("download status = %d, want 404", dw.Code)
	}

	cw := doRequest(router, http.MethodPost, "/api/v1/exports/no-such-id/cancel", nil)
	if cw.Code != http.StatusNotFound {
		t.Errorf("cancel status = %d, want 404", cw.Code)
	}
}

func TestCancelFinishedExportConflict(t *testing.T) {
	router, svc := newTestRouter(t)

	w := doRequest(router, http.MethodPost, "/api/v1/exports", map[string]interface{}{
		"entities": []string{"contacts"},
		"format":   "json",
	})
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", w.Code)
	}
	var job map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &job)
	id := job["id"].(string)

	svc.Wait()
	pollJobStatus(t, router, id, domain.JobStatusCompleted)

	cw := doRequest(router, http.MethodPost, "/api/v1/exports/"+id+"/cancel", nil)
	if cw.Code != http.StatusConflict {
		t.Errorf("cancel of finished job = %d, want 409", cw.Code)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	ew := doRequest(router, http.MethodGet, "/api/v1/catalog/entities", nil)
	if ew.Code != http.StatusOK {
		t.Fatalf("entities status = %d", ew.Code)
	}
	var entities struct {
		Entities []domain.EntityDescriptor `json:"entities"`
		Total    int                       `json:"total"`
	}
	if err := json.Unmarshal(ew.Body.Bytes(), &entities); err != nil {
		t.Fatalf("invalid entities JSON: %v", err)
	}
	if entities.Total != len(domain.AllEntityKinds()) {
		t.Errorf("entities total = %d, want %d", entities.Total, len(domain.AllEntityKinds()))
	}

	fw := doRequest(router, http.MethodGet, "/api/v1/catalog/formats", nil)
	if fw.Code != http.StatusOK {
		t.Fatalf("formats status = %d", fw.Code)
	}

	hw := doRequest(router, http.MethodGet, "/health", nil)
	if hw.Code != http.StatusOK {
		t.Fatalf("health status = %d", hw.Code)
	}
}

func TestListExportsNewestFirst(t *testing.T) {
	router, svc := newTestRouter(t)

	var ids []string
	for i := 0; i < 3; i++ {
		w := doRequest(router, http.MethodPost, "/api/v1/exports", map[string]interface{}{
			"entities": []string{"contacts"},
			"format":   "csv",
		})
		if w.Code != http.StatusAccepted {
			t.Fatalf("status = %d, want 202", w.Code)
		}
		var job map[string]interface{}
		_ = json.Unmarshal(w.Body.Bytes(), &job)
		ids = append(ids, job["id"].(string))
		// stagger creation times so the ordering is unambiguous
		time.Sleep(5 * time.Millisecond)
	}
	svc.Wait()

	w := doRequest(router, http.MethodGet, "/api/v1/exports", nil)
	var list struct {
		Exports []map[string]interface{} `json:"exports"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("invalid list JSON: %v", err)
	}
	if len(list.Exports) != 3 {
		t.Fatalf("list has %d jobs, want 3", len(list.Exports))
	}
	for i := range ids {
		if got := list.Exports[i]["id"]; got != ids[len(ids)-1-i] {
			t.Errorf("exports[%d].id = %v, want %v", i, got, ids[len(ids)-1-i])
		}
	}
}
