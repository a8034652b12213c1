package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// JobStatus represents the lifecycle state of an export job.
// Values include JobStatusPending, JobStatusProcessing, JobStatusCompleted,
// JobStatusFailed, and JobStatusCancelled.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// Terminal reports whether the status admits no further transition.
// Parameters: none.
// Returns:
//   - bool: true for completed, failed, and cancelled.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// EntityList is a custom type for storing entity kind lists as JSON in the database.
type EntityList []EntityKind

// Value implements the driver.Valuer interface for database serialization.
// Parameters: none.
// Returns:
//   - driver.Value: JSON-encoded string representation of the list.
//   - error: non-nil if marshaling fails.
func (l EntityList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
// Parameters:
//   - value: raw database value to decode.
// Returns:
//   - error: non-nil if decoding fails or the type is unexpected.
func (l *EntityList) Scan(value interface{}) error {
	if value == nil {
		*l = EntityList{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan EntityList")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, l)
}

// ExportJob represents one export attempt and its progress metadata.
// Format, Entities, and the option fields are a snapshot of the request
// taken at start time; later edits to the request never reach the job.
type ExportJob struct {
	ID              string     `gorm:"type:text;primaryKey" json:"id"`
	Status          JobStatus  `gorm:"type:text;index:idx_export_jobs_status;default:pending" json:"status"`
	Progress        int        `gorm:"default:0" json:"progress"`
	Format          Format     `gorm:"type:text;not null" json:"format"`
	Entities        EntityList `gorm:"type:text" json:"entities"`
	DateRange       DateRange  `gorm:"type:text;default:all" json:"date_range"`
	DateFrom        *time.Time `json:"date_from,omitempty"`
	DateTo          *time.Time `json:"date_to,omitempty"`
	IncludeArchived bool       `json:"include_archived"`
	IncludeDeleted  bool       `json:"include_deleted"`
	RecordCount     int64      `json:"record_count"`
	DownloadRef     string     `gorm:"type:text" json:"download_ref,omitempty"`
	FileSize        string     `gorm:"type:text" json:"file_size,omitempty"`
	SizeBytes       int64      `json:"size_bytes,omitempty"`
	Error           string     `gorm:"type:text" json:"error,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName returns the database table name for ExportJob.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (ExportJob) TableName() string {
	return "export_jobs"
}
