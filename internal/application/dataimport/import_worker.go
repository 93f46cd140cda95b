package dataimport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bizadmin/record-import/internal/application/upsert"
	domain "github.com/bizadmin/record-import/internal/domain/dataimport"
	"github.com/bizadmin/record-import/internal/domain/schema"
)

type upserterFactory interface {
	ForEntity(ctx context.Context, entity domain.EntityType) (upsert.Upserter, error)
}

type ImportWorkerConfig struct {
	CheckpointEvery   int
	LockTTL           time.Duration
	HeartbeatInterval time.Duration
}

type ImportWorker struct {
	jobs      domain.ImportJobRepository
	storage   FileStorage
	reader    SpreadsheetReader
	registry  *schema.Registry
	upserters upserterFactory
	locker    JobLocker
	logger    *slog.Logger
	cfg       ImportWorkerConfig
	now       func() time.Time
}

func NewImportWorker(
	jobs domain.ImportJobRepository,
	storage FileStorage,
	reader SpreadsheetReader,
	registry *schema.Registry,
	upserters upserterFactory,
	locker JobLocker,
	logger *slog.Logger,
	cfg ImportWorkerConfig,
) *ImportWorker {
	if cfg.CheckpointEvery <= 0 {
		cfg.CheckpointEvery = 50
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 60 * time.Second
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = cfg.LockTTL / 2
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ImportWorker{
		jobs:      jobs,
		storage:   storage,
		reader:    reader,
		registry:  registry,
		upserters: upserters,
		locker:    locker,
		logger:    logger,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ProcessJob runs one delivery of a job. A returned error tells the queue the
// attempt failed; the job record has already been requeued or failed.
// ErrJobLocked means another lease holds the job and the delivery should be
// retried once that lease can have expired.
func (w *ImportWorker) ProcessJob(ctx context.Context, jobID string) error {
	logger := w.logger.With("job_id", jobID)

	existing, err := w.jobs.Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			logger.Warn("import job not found, dropping delivery")
			return nil
		}
		return fmt.Errorf("load import job: %w", err)
	}
	if existing.Status.Terminal() {
		logger.Info("import job already finalized", "status", existing.Status)
		return nil
	}

	lease, acquired, err := w.locker.Acquire(ctx, jobID, w.cfg.LockTTL)
	if err != nil {
		return fmt.Errorf("acquire job lock: %w", err)
	}
	if !acquired {
		// the holder may have died; the lease expires after LockTTL
		logger.Info("import job locked by another worker")
		return ErrJobLocked
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("release job lock failed", "error", err)
		}
	}()

	job, err := w.jobs.MarkProcessing(ctx, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobFinalized) || errors.Is(err, domain.ErrJobNotFound) {
			logger.Info("import job no longer runnable", "error", err)
			return nil
		}
		return fmt.Errorf("mark job processing: %w", err)
	}

	logger.Info("import job started", "entity_type", job.EntityType, "attempt", job.Attempts, "cursor", job.Cursor)
	return w.run(ctx, *job, lease)
}

func (w *ImportWorker) run(ctx context.Context, job domain.ImportJob, lease JobLease) error {
	progress := job.Progress()

	data, err := w.storage.Fetch(ctx, job.FileURL)
	if err != nil {
		return w.onProcessingError(ctx, job, progress, fmt.Errorf("fetch import file: %w", err))
	}

	sheet, err := w.reader.ReadFirstSheet(data)
	if err != nil {
		return w.onProcessingError(ctx, job, progress, fmt.Errorf("read spreadsheet: %w", err))
	}

	if err := w.jobs.SetTotalRows(ctx, job.ID, sheet.DataRowCount()); err != nil {
		return w.onProcessingError(ctx, job, progress, fmt.Errorf("set total rows: %w", err))
	}

	ruleset, err := w.registry.Ruleset(job.EntityType)
	if err != nil {
		return w.onProcessingError(ctx, job, progress, err)
	}

	upserter, err := w.upserters.ForEntity(ctx, job.EntityType)
	if err != nil {
		return w.onProcessingError(ctx, job, progress, fmt.Errorf("prepare upserter: %w", err))
	}

	ticker := time.NewTicker(w.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for i, row := range sheet.Rows {
		rowNumber := i + 2
		if rowNumber <= progress.Cursor || row.Blank() {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := lease.Refresh(ctx); err != nil {
				return w.onProcessingError(ctx, job, progress, fmt.Errorf("refresh job lock: %w", err))
			}
		default:
		}

		w.processRow(ctx, job, ruleset, upserter, rowNumber, row, &progress)

		if progress.ProcessedRows%w.cfg.CheckpointEvery == 0 {
			if err := w.jobs.Checkpoint(ctx, job.ID, progress); err != nil {
				return w.onProcessingError(ctx, job, progress, fmt.Errorf("checkpoint progress: %w", err))
			}
		}
	}

	if err := w.jobs.Complete(ctx, job.ID, progress, w.now()); err != nil {
		return w.onProcessingError(ctx, job, progress, fmt.Errorf("complete job: %w", err))
	}

	w.logger.Info("import job completed",
		"job_id", job.ID,
		"processed_rows", progress.ProcessedRows,
		"error_rows", progress.ErrorRows,
		"created_rows", progress.CreatedRows,
		"updated_rows", progress.UpdatedRows,
		"skipped_rows", progress.SkippedRows,
	)
	return nil
}

// processRow never fails the job: validation and upsert problems become row
// errors and the row still counts as processed.
func (w *ImportWorker) processRow(
	ctx context.Context,
	job domain.ImportJob,
	ruleset schema.Ruleset,
	upserter upsert.Upserter,
	rowNumber int,
	row domain.SheetRow,
	progress *domain.ImportProgress,
) {
	progress.ProcessedRows++
	progress.Cursor = rowNumber

	valid, violations := ruleset.Validate(job.Mapping.Apply(row))
	if len(violations) > 0 {
		progress.ErrorRows++
		for _, violation := range violations {
			progress.Errors = append(progress.Errors, domain.RowError{
				Row:     rowNumber,
				Field:   violation.Field,
				Message: violation.Message,
			})
		}
		return
	}

	outcome, err := upserter.Upsert(ctx, valid, job.DuplicatePolicy)
	if err != nil {
		progress.ErrorRows++
		progress.Errors = append(progress.Errors, domain.RowError{Row: rowNumber, Message: err.Error()})
		return
	}

	switch outcome {
	case upsert.OutcomeCreated:
		progress.CreatedRows++
	case upsert.OutcomeUpdated:
		progress.UpdatedRows++
	case upsert.OutcomeSkipped:
		progress.SkippedRows++
	}
}

func (w *ImportWorker) onProcessingError(ctx context.Context, job domain.ImportJob, progress domain.ImportProgress, err error) error {
	reason := truncateReason(err.Error())
	w.logger.Error("process import job failed",
		"job_id", job.ID,
		"attempt", job.Attempts,
		"max_attempts", job.MaxAttempts,
		"error", err,
	)

	if job.Attempts < job.MaxAttempts {
		if progress.Cursor > job.Cursor {
			if checkpointErr := w.jobs.Checkpoint(ctx, job.ID, progress); checkpointErr != nil {
				w.logger.Warn("checkpoint before requeue failed", "job_id", job.ID, "error", checkpointErr)
			}
		}
		if requeueErr := w.jobs.Requeue(ctx, job.ID, reason); requeueErr != nil {
			return fmt.Errorf("%v; requeue failed: %w", err, requeueErr)
		}
		return err
	}

	progress.Errors = append(progress.Errors, domain.RowError{Row: 0, Message: reason})
	if failErr := w.jobs.Fail(ctx, job.ID, progress, w.now()); failErr != nil {
		return fmt.Errorf("%v; fail update failed: %w", err, failErr)
	}
	return err
}

// FailJob finalizes a job whose last delivery failed before the worker took
// it over, so it never stays pending. Finalized jobs and jobs held by a live
// lease are left alone.
func (w *ImportWorker) FailJob(ctx context.Context, jobID, reason string) error {
	logger := w.logger.With("job_id", jobID)

	lease, acquired, err := w.locker.Acquire(ctx, jobID, w.cfg.LockTTL)
	switch {
	case err != nil:
		logger.Warn("acquire job lock failed, failing job without it", "error", err)
	case !acquired:
		logger.Info("import job locked by another worker, leaving it to the holder")
		return nil
	default:
		defer func() {
			if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("release job lock failed", "error", err)
			}
		}()
	}

	job, err := w.jobs.Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			return nil
		}
		return fmt.Errorf("load import job: %w", err)
	}
	if job.Status.Terminal() {
		return nil
	}

	progress := job.Progress()
	progress.Errors = append(progress.Errors, domain.RowError{Row: 0, Message: truncateReason(reason)})
	if err := w.jobs.Fail(ctx, jobID, progress, w.now()); err != nil {
		if errors.Is(err, domain.ErrJobFinalized) || errors.Is(err, domain.ErrJobNotFound) {
			return nil
		}
		return fmt.Errorf("fail import job: %w", err)
	}

	logger.Warn("import job failed after its last attempt", "reason", reason)
	return nil
}

// truncateReason cuts on a rune boundary so the result stays valid UTF-8.
func truncateReason(reason string) string {
	const maxLen = 1000
	reason = strings.TrimSpace(reason)
	if len(reason) <= maxLen {
		return reason
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(reason[cut]) {
		cut--
	}
	return reason[:cut]
}
