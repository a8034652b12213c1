package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/kitecrm/export-service/internal/domain"
	"github.com/kitecrm/export-service/internal/logger"
	"github.com/kitecrm/export-service/internal/notify"
	"github.com/kitecrm/export-service/internal/repository"
	"github.com/kitecrm/export-service/internal/storage"
)

// Options tunes the export service runtime behavior.
type Options struct {
	// Workers caps how many exports run concurrently. Jobs beyond the cap
	// wait in pending until a slot frees up. Zero or negative uses 4.
	Workers int
	// BatchSize is the number of records fetched per database page.
	// Zero or negative uses 200.
	BatchSize int
	// JobTimeout bounds one export run; an expired job fails with a
	// timeout error. Zero disables the timeout.
	JobTimeout time.Duration
}

// ExportService owns the export job lifecycle: it validates requests,
// creates job records, runs exports on a bounded worker pool, and exposes
// cancel, download, and delete operations. Status transitions follow
// pending -> processing -> completed | failed | cancelled, and terminal
// states are final.
type ExportService struct {
	jobs     *repository.JobRepository
	crm      *repository.CRMRepository
	store    storage.ObjectStorage
	notifier notify.Notifier
	log      *logger.Logger

	sem       chan struct{}
	batchSize int
	timeout   time.Duration

	mu         sync.Mutex
	cancels    map[string]context.CancelFunc
	onProgress func(jobID string, progress int)

	wg sync.WaitGroup
}

// NewExportService creates an export service.
// Parameters:
//   - jobs: job history store.
//   - crm: CRM record source.
//   - store: artifact storage backend.
//   - notifier: optional terminal-state notifier; nil disables delivery.
//   - log: logger instance.
//   - opts: runtime options; nil uses defaults.
// Returns:
//   - *ExportService: initialized service.
func NewExportService(jobs *repository.JobRepository, crm *repository.CRMRepository, store storage.ObjectStorage, notifier notify.Notifier, log *logger.Logger, opts *Options) *ExportService {
	if opts == nil {
		opts = &Options{}
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = 200
	}
	return &ExportService{
		jobs:      jobs,
		crm:       crm,
		store:     store,
		notifier:  notifier,
		log:       log.WithField(logger.FieldComponent, "export"),
		sem:       make(chan struct{}, workers),
		batchSize: batchSize,
		timeout:   opts.JobTimeout,
		cancels:   make(map[string]context.CancelFunc),
	}
}

// SetProgressObserver registers a callback invoked after every persisted
// progress update, including the final 100. Intended for CLI display and
// tests; must be set before the first StartExport.
func (s *ExportService) SetProgressObserver(fn func(jobID string, progress int)) {
	s.mu.Lock()
	s.onProgress = fn
	s.mu.Unlock()
}

// StartExport validates the request and, if valid, creates a pending job
// and schedules it on the worker pool. The request is snapshotted into the
// job record, so mutating it afterwards does not affect the running export.
// Parameters:
//   - ctx: context for the validation and insert; the export itself runs
//     detached from it.
//   - req: export configuration.
// Returns:
//   - *domain.ExportJob: the created job in pending state.
//   - error: domain.ErrNoEntitiesSelected or another ValidationError if the
//     request is rejected; no job record is created in that case.
func (s *ExportService) StartExport(ctx context.Context, req *ExportRequest) (*domain.ExportJob, error) {
	if !req.IsValid() {
		return nil, domain.ErrNoEntitiesSelected
	}
	if !req.Format.Valid() {
		return nil, domain.NewValidationError(fmt.Sprintf("Unsupported export format: %s", req.Format))
	}
	if !req.DateRange.Valid() {
		return nil, domain.NewValidationError(fmt.Sprintf("Unsupported date range: %s", req.DateRange))
	}
	for _, kind := range req.Entities() {
		if !kind.Valid() {
			return nil, domain.NewValidationError(fmt.Sprintf("Unknown data type: %s", kind))
		}
	}

	job := &domain.ExportJob{
		ID:              uuid.New().String(),
		Status:          domain.JobStatusPending,
		Format:          req.Format,
		Entities:        domain.EntityList(req.Entities()),
		DateRange:       req.DateRange,
		DateFrom:        req.DateFrom,
		DateTo:          req.DateTo,
		IncludeArchived: req.IncludeArchived,
		IncludeDeleted:  req.IncludeDeleted,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create export job: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancels[job.ID] = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(runCtx, job)

	s.log.WithFields(logger.Fields{
		logger.FieldJobID:  job.ID,
		logger.FieldFormat: string(job.Format),
		logger.FieldCount:  len(job.Entities),
	}).Info("export job accepted")

	return job, nil
}

// run executes one export job to a terminal state.
func (s *ExportService) run(ctx context.Context, job *domain.ExportJob) {
	defer s.wg.Done()
	defer s.dropCancel(job.ID)

	log := s.log.WithField(logger.FieldJobID, job.ID)

	// wait for a worker slot; the job stays pending meanwhile
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		s.finalizeInterrupted(job.ID, ctx.Err())
		return
	}
	defer func() { <-s.sem }()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if err := s.jobs.SetProcessing(ctx, job.ID); err != nil {
		if ctx.Err() != nil {
			s.finalizeInterrupted(job.ID, ctx.Err())
			return
		}
		log.WithError(err).Error("failed to mark job processing")
		s.finalize(job.ID, domain.JobStatusFailed, &repository.FinalizeFields{Error: "internal error starting export"})
		return
	}

	started := time.Now()
	err := s.execute(ctx, job)
	switch {
	case err == nil:
		log.WithField(logger.FieldDurationMs, time.Since(started).Milliseconds()).Info("export completed")
	case errors.Is(err, context.Canceled):
		s.finalize(job.ID, domain.JobStatusCancelled, nil)
		log.Info("export cancelled")
	case errors.Is(err, context.DeadlineExceeded):
		s.finalize(job.ID, domain.JobStatusFailed, &repository.FinalizeFields{Error: "export timed out"})
		log.Warn("export timed out")
	default:
		s.finalize(job.ID, domain.JobStatusFailed, &repository.FinalizeFields{Error: err.Error()})
		log.WithError(err).Error("export failed")
	}
}

// entityPlan is one entity's share of the progress denominator.
type entityPlan struct {
	kind  domain.EntityKind
	count int64
	steps int
}

// execute fetches records, encodes the artifact, uploads it, and finalizes
// the job as completed. A context error aborts between batches and is
// returned for run to classify.
func (s *ExportService) execute(ctx context.Context, job *domain.ExportJob) error {
	filter := s.filterFor(job)

	// plan total steps up front so progress is proportional to work
	var plans []entityPlan
	totalSteps := 0
	for _, kind := range job.Entities {
		count, err := s.crm.Count(ctx, kind, filter)
		if err != nil {
			return fmt.Errorf("failed to count %s records: %w", kind, err)
		}
		steps := int((count + int64(s.batchSize) - 1) / int64(s.batchSize))
		if steps == 0 {
			steps = 1
		}
		plans = append(plans, entityPlan{kind: kind, count: count, steps: steps})
		totalSteps += steps
	}

	var (
		sets        []RecordSet
		totalRecords   int64
		done        int
		lastPercent = -1
	)
	for _, plan := range plans {
		set := RecordSet{
			Entity:  plan.kind,
			Columns: s.crm.Columns(plan.kind),
			Rows:    make([]map[string]interface{}, 0, plan.count),
		}
		for step := 0; step < plan.steps; step++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			rows, err := s.crm.FetchBatch(ctx, plan.kind, filter, s.batchSize, step*s.batchSize)
			if err != nil {
				return err
			}
			set.Rows = append(set.Rows, rows...)

			done++
			percent := int(math.Round(float64(done) / float64(totalSteps) * 100))
			if percent > lastPercent && percent < 100 {
				lastPercent = percent
				s.reportProgress(ctx, job.ID, percent)
			}
		}
		totalRecords += int64(len(set.Rows))
		sets = append(sets, set)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	artifact, err := BuildArtifact(job.ID, job.Format, sets)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("exports/%s/%s", job.ID, artifact.Filename)
	size := int64(len(artifact.Data))
	if err := s.store.Upload(ctx, key, bytes.NewReader(artifact.Data), size, artifact.ContentType); err != nil {
		return fmt.Errorf("failed to store artifact: %w", err)
	}

	full := 100
	s.finalize(job.ID, domain.JobStatusCompleted, &repository.FinalizeFields{
		Progress:    &full,
		DownloadRef: key,
		FileSize:    humanize.Bytes(uint64(size)),
		SizeBytes:   size,
		RecordCount: totalRecords,
	})
	s.notifyProgress(job.ID, 100)
	return nil
}

// filterFor derives the record filter from the job's snapshot.
func (s *ExportService) filterFor(job *domain.ExportJob) *repository.RecordFilter {
	filter := &repository.RecordFilter{
		IncludeArchived: job.IncludeArchived,
		IncludeDeleted:  job.IncludeDeleted,
	}
	if job.DateRange == domain.DateRangeCustom {
		filter.From = job.DateFrom
		filter.To = job.DateTo
	} else {
		filter.From = job.DateRange.Cutoff(time.Now())
	}
	return filter
}

// reportProgress persists a progress value and notifies the observer.
// The repository guard keeps stored progress monotonic even if updates race.
func (s *ExportService) reportProgress(ctx context.Context, jobID string, percent int) {
	if err := s.jobs.UpdateProgress(ctx, jobID, percent); err != nil {
		s.log.WithError(err).WithField(logger.FieldJobID, jobID).Warn("failed to update progress")
		return
	}
	s.notifyProgress(jobID, percent)
}

// notifyProgress invokes the registered observer, if any.
func (s *ExportService) notifyProgress(jobID string, percent int) {
	s.mu.Lock()
	fn := s.onProgress
	s.mu.Unlock()
	if fn != nil {
		fn(jobID, percent)
	}
}

// finalize moves a job to a terminal state and fires the notifier. It uses
// a fresh context so finalization survives the job context being cancelled.
func (s *ExportService) finalize(jobID string, status domain.JobStatus, fields *repository.FinalizeFields) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.jobs.Finalize(ctx, jobID, status, fields); err != nil {
		s.log.WithError(err).WithFields(logger.Fields{
			logger.FieldJobID:  jobID,
			logger.FieldStatus: string(status),
		}).Error("failed to finalize job")
		return
	}
	s.deliverEvent(ctx, jobID)
}

// finalizeInterrupted handles a job cancelled before it got a worker slot.
func (s *ExportService) finalizeInterrupted(jobID string, cause error) {
	if errors.Is(cause, context.DeadlineExceeded) {
		s.finalize(jobID, domain.JobStatusFailed, &repository.FinalizeFields{Error: "export timed out"})
		return
	}
	s.finalize(jobID, domain.JobStatusCancelled, nil)
}

// deliverEvent sends the terminal-state webhook. Failures are logged only.
func (s *ExportService) deliverEvent(ctx context.Context, jobID string) {
	if s.notifier == nil {
		return
	}
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		s.log.WithError(err).WithField(logger.FieldJobID, jobID).Warn("failed to load job for notification")
		return
	}
	event := &notify.Event{
		JobID:       job.ID,
		Status:      job.Status,
		FileSize:    job.FileSize,
		RecordCount: job.RecordCount,
		Error:       job.Error,
		FinishedAt:  time.Now(),
	}
	if job.DownloadRef != "" {
		event.DownloadURL = s.store.GetURL(job.DownloadRef)
	}
	if err := s.notifier.JobFinished(ctx, event); err != nil {
		s.log.WithError(err).WithField(logger.FieldJobID, jobID).Warn("failed to deliver webhook")
	}
}

// dropCancel removes the job's cancel function from the registry.
func (s *ExportService) dropCancel(jobID string) {
	s.mu.Lock()
	delete(s.cancels, jobID)
	s.mu.Unlock()
}

// CancelExport requests cancellation of a pending or processing job. The
// job moves to cancelled once its worker observes the signal; a pending job
// that has not started is cancelled without running at all.
// Parameters:
//   - ctx: context for the status lookup.
//   - id: job ID.
// Returns:
//   - error: domain.ErrJobNotFound if the id is unknown,
//     domain.ErrJobFinished if the job is already terminal.
func (s *ExportService) CancelExport(ctx context.Context, id string) error {
	s.mu.Lock()
	cancel, ok := s.cancels[id]
	s.mu.Unlock()
	if ok {
		cancel()
		return nil
	}

	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return domain.ErrJobFinished
	}
	// no in-process worker owns this job (e.g. orphaned after a restart);
	// finalize it directly
	s.finalize(id, domain.JobStatusCancelled, nil)
	return nil
}

// GetJob retrieves one job by ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: job ID.
// Returns:
//   - *domain.ExportJob: job record.
//   - error: domain.ErrJobNotFound if absent.
func (s *ExportService) GetJob(ctx context.Context, id string) (*domain.ExportJob, error) {
	return s.jobs.GetByID(ctx, id)
}

// ListJobs returns the export history, newest first.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - limit: maximum number of jobs; 0 means no limit.
// Returns:
//   - []domain.ExportJob: job records, most recent first.
//   - error: non-nil if the query fails.
func (s *ExportService) ListJobs(ctx context.Context, limit int) ([]domain.ExportJob, error) {
	return s.jobs.List(ctx, limit)
}

// DownloadExport opens the artifact of a completed job for streaming.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: job ID.
// Returns:
//   - *domain.ExportJob: the job, for filename and size headers.
//   - io.ReadCloser: artifact reader; caller closes it.
//   - error: domain.ErrJobNotFound if absent, domain.ErrJobNotReady if the
//     job is not completed or has no artifact.
func (s *ExportService) DownloadExport(ctx context.Context, id string) (*domain.ExportJob, io.ReadCloser, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if job.Status != domain.JobStatusCompleted || job.DownloadRef == "" {
		return nil, nil, domain.ErrJobNotReady
	}
	reader, err := s.store.Download(ctx, job.DownloadRef)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open artifact: %w", err)
	}
	return job, reader, nil
}

// DeleteExport removes a job from the history along with its stored
// artifact. Deleting an unknown id succeeds; repeating a delete is a no-op.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: job ID.
// Returns:
//   - error: non-nil only if the history delete itself fails.
func (s *ExportService) DeleteExport(ctx context.Context, id string) error {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			return nil
		}
		return err
	}
	if job.DownloadRef != "" {
		if err := s.store.Delete(ctx, job.DownloadRef); err != nil {
			// history removal still proceeds; the artifact is orphaned
			s.log.WithError(err).WithField(logger.FieldJobID, id).Warn("failed to delete artifact")
		}
	}
	return s.jobs.Delete(ctx, id)
}

// Wait blocks until every scheduled export has reached a terminal state.
// Intended for CLI runs and tests.
func (s *ExportService) Wait() {
	s.wg.Wait()
}

// Shutdown cancels all in-flight jobs and waits for their workers to
// finish, bounded by the context deadline.
// Parameters:
//   - ctx: deadline for the drain.
// Returns:
//   - error: ctx.Err() if the drain does not finish in time.
func (s *ExportService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for _, cancel := range s.cancels {
		cancel()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
