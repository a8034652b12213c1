package storage

import (
	"bytes"
	"context"
	"io"
	"testing"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	store := NewLocalStorage(t.TempDir(), "")
	ctx := context.Background()

	if err := store.Ensure(ctx); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}

	key := "exports/job-1/crm-export-job1.csv"
	data := []byte("id,name\n1,Ada\n")
	if err := store.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), "text/csv"); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	exists, err := store.Exists(ctx, key)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Fatal("uploaded artifact does not exist")
	}

	reader, err := store.Download(ctx, key)
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	defer reader.Close()
	got, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("failed to read artifact: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("downloaded %q, want %q", got, data)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Errorf("repeated Delete errored: %v", err)
	}
	exists, _ = store.Exists(ctx, key)
	if exists {
		t.Error("artifact still exists after delete")
	}
}

func TestLocalStorageRejectsEscapingKeys(t *testing.T) {
	store := NewLocalStorage(t.TempDir(), "")
	ctx := context.Background()

	for _, key := range []string{"../outside.txt", "a/../../outside.txt"} {
		if err := store.Upload(ctx, key, bytes.NewReader([]byte("x")), 1, "text/plain"); err == nil {
			t.Errorf("Upload accepted escaping key %q", key)
		}
		if _, err := store.Download(ctx, key); err == nil {
			t.Errorf("Download accepted escaping key %q", key)
		}
	}
}

func TestDetectStorageType(t *testing.T) {
	tests := []struct {
		endpoint string
		localDir string
		want     StorageType
	}{
		{"", "./data/exports", StorageTypeLocal},
		{"abc123.r2.cloudflarestorage.com", "", StorageTypeR2},
		{"s3.us-east-1.amazonaws.com", "", StorageTypeS3},
		{"localhost:9000", "", StorageTypeS3Compatible},
	}
	for _, tc := range tests {
		if got := detectStorageType(tc.endpoint, tc.localDir); got != tc.want {
			t.Errorf("detectStorageType(%q, %q) = %s, want %s", tc.endpoint, tc.localDir, got, tc.want)
		}
	}
}
