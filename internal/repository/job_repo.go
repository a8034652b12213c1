package repository

import (
	"context"
	"errors"
	"time"

	"github.com/kitecrm/export-service/internal/domain"
	"gorm.io/gorm"
)

// JobRepository is the persisted history store for export jobs. Newest
// jobs are listed first. Terminal jobs are immutable: every state-changing
// query is guarded on the current status so a finished job can never be
// advanced, re-finalized, or have its progress touched.
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new JobRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *JobRepository: repository instance bound to db.
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new export job record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - job: job record to persist.
// Returns:
//   - error: non-nil if the insert fails.
func (r *JobRepository) Create(ctx context.Context, job *domain.ExportJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// GetByID retrieves an export job by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: job ID.
// Returns:
//   - *domain.ExportJob: job record if found.
//   - error: domain.ErrJobNotFound if absent, other errors on query failure.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.ExportJob, error) {
	var job domain.ExportJob
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

// List retrieves export jobs ordered newest first.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - limit: maximum number of records to return; 0 means no limit.
// Returns:
//   - []domain.ExportJob: job records, most recent first.
//   - error: non-nil if the query fails.
func (r *JobRepository) List(ctx context.Context, limit int) ([]domain.ExportJob, error) {
	var jobs []domain.ExportJob
	query := r.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// SetProcessing transitions a pending job to processing.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: job ID.
// Returns:
//   - error: non-nil if the update fails; a no-op for non-pending jobs.
func (r *JobRepository) SetProcessing(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&domain.ExportJob{}).
		Where("id = ? AND status = ?", id, domain.JobStatusPending).
		Update("status", domain.JobStatusProcessing).Error
}

// UpdateProgress records a progress value for a processing job. Lower
// values than the current one are dropped, keeping progress monotonic.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: job ID.
//   - progress: percentage in [0, 100].
// Returns:
//   - error: non-nil if the update fails.
func (r *JobRepository) UpdateProgress(ctx context.Context, id string, progress int) error {
	return r.db.WithContext(ctx).
		Model(&domain.ExportJob{}).
		Where("id = ? AND status = ? AND progress <= ?", id, domain.JobStatusProcessing, progress).
		Update("progress", progress).Error
}

// FinalizeFields carries the terminal-state fields set by Finalize.
type FinalizeFields struct {
	Progress    *int
	DownloadRef string
	FileSize    string
	SizeBytes   int64
	RecordCount int64
	Error       string
}

// Finalize transitions a non-terminal job to the given terminal status and
// records its outcome fields. Finalizing an already-terminal job is a no-op.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: job ID.
//   - status: terminal status (completed, failed, or cancelled).
//   - fields: outcome fields; nil pointers/zero values are left untouched.
// Returns:
//   - error: non-nil if the update fails.
func (r *JobRepository) Finalize(ctx context.Context, id string, status domain.JobStatus, fields *FinalizeFields) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":       status,
		"completed_at": &now,
	}
	if fields != nil {
		if fields.Progress != nil {
			updates["progress"] = *fields.Progress
		}
		if fields.DownloadRef != "" {
			updates["download_ref"] = fields.DownloadRef
		}
		if fields.FileSize != "" {
			updates["file_size"] = fields.FileSize
			updates["size_bytes"] = fields.SizeBytes
		}
		if fields.RecordCount > 0 {
			updates["record_count"] = fields.RecordCount
		}
		if fields.Error != "" {
			updates["error"] = fields.Error
		}
	}
	return r.db.WithContext(ctx).
		Model(&domain.ExportJob{}).
		Where("id = ? AND status IN ?", id, []domain.JobStatus{domain.JobStatusPending, domain.JobStatusProcessing}).
		Updates(updates).Error
}

// Delete removes a job by ID. Deleting an absent id is a no-op.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: job ID to delete.
// Returns:
//   - error: non-nil if the delete fails.
func (r *JobRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&domain.ExportJob{}, "id = ?", id).Error
}

// CountByStatus counts jobs by status.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - status: job status to count.
// Returns:
//   - int64: number of matching records.
//   - error: non-nil if the query fails.
func (r *JobRepository) CountByStatus(ctx context.Context, status domain.JobStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.ExportJob{}).Where("status = ?", status).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Count counts all job records.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - int64: total number of jobs in the history store.
//   - error: non-nil if the query fails.
func (r *JobRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.ExportJob{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
