package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "github.com/bizadmin/record-import/internal/domain/dataimport"
	"github.com/bizadmin/record-import/internal/infrastructure/db/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var terminalStatuses = []string{string(domain.JobDone), string(domain.JobFailed)}

type ImportJobRepository struct {
	db *gorm.DB
}

func NewImportJobRepository(db *gorm.DB) *ImportJobRepository {
	return &ImportJobRepository{db: db}
}

func (r *ImportJobRepository) Create(ctx context.Context, in domain.NewImportJob) (*domain.ImportJob, error) {
	mapping, err := json.Marshal(in.Mapping)
	if err != nil {
		return nil, fmt.Errorf("encode mapping: %w", err)
	}

	row := models.ImportJob{
		ID:              uuid.NewString(),
		EntityType:      string(in.EntityType),
		FileURL:         in.FileURL,
		FileName:        in.FileName,
		Mapping:         datatypes.JSON(mapping),
		DuplicatePolicy: string(in.DuplicatePolicy),
		TemplateID:      nullableText(in.TemplateID),
		CreatedBy:       in.CreatedBy,
		Status:          string(domain.JobPending),
		Errors:          datatypes.JSON("[]"),
		MaxAttempts:     in.MaxAttempts,
	}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("create import job: %w", err)
	}

	return toDomainJob(row)
}

func (r *ImportJobRepository) Get(ctx context.Context, jobID string) (*domain.ImportJob, error) {
	var row models.ImportJob

	if err := r.db.WithContext(ctx).First(&row, "id = ?", jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("get import job: %w", err)
	}

	return toDomainJob(row)
}

func (r *ImportJobRepository) List(ctx context.Context, filter domain.JobFilter) (domain.JobPage, error) {
	query := r.db.WithContext(ctx).Model(&models.ImportJob{})
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", string(filter.EntityType))
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return domain.JobPage{}, fmt.Errorf("count import jobs: %w", err)
	}

	var rows []models.ImportJob
	if err := query.
		Order("created_at DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&rows).Error; err != nil {
		return domain.JobPage{}, fmt.Errorf("list import jobs: %w", err)
	}

	items := make([]domain.ImportJob, 0, len(rows))
	for _, row := range rows {
		job, err := toDomainJob(row)
		if err != nil {
			return domain.JobPage{}, err
		}
		items = append(items, *job)
	}

	return domain.JobPage{Items: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// MarkProcessing starts a new attempt. A job already in processing is taken
// over as well, which covers redelivery after a worker crash.
func (r *ImportJobRepository) MarkProcessing(ctx context.Context, jobID string) (*domain.ImportJob, error) {
	now := time.Now().UTC()

	if err := r.updateActive(ctx, jobID, map[string]any{
		"status":     string(domain.JobProcessing),
		"attempts":   gorm.Expr("attempts + 1"),
		"started_at": now,
		"updated_at": now,
	}); err != nil {
		return nil, err
	}

	return r.Get(ctx, jobID)
}

func (r *ImportJobRepository) SetTotalRows(ctx context.Context, jobID string, total int) error {
	return r.updateActive(ctx, jobID, map[string]any{
		"total_rows": total,
		"updated_at": time.Now().UTC(),
	})
}

func (r *ImportJobRepository) Checkpoint(ctx context.Context, jobID string, progress domain.ImportProgress) error {
	values, err := progressColumns(progress)
	if err != nil {
		return err
	}
	values["updated_at"] = time.Now().UTC()
	return r.updateActive(ctx, jobID, values)
}

func (r *ImportJobRepository) Complete(ctx context.Context, jobID string, progress domain.ImportProgress, completedAt time.Time) error {
	values, err := progressColumns(progress)
	if err != nil {
		return err
	}
	values["status"] = string(domain.JobDone)
	values["completed_at"] = completedAt
	values["updated_at"] = completedAt
	return r.updateActive(ctx, jobID, values)
}

func (r *ImportJobRepository) Requeue(ctx context.Context, jobID string, reason string) error {
	return r.updateActive(ctx, jobID, map[string]any{
		"status":     string(domain.JobPending),
		"last_error": reason,
		"updated_at": time.Now().UTC(),
	})
}

func (r *ImportJobRepository) Fail(ctx context.Context, jobID string, progress domain.ImportProgress, completedAt time.Time) error {
	values, err := progressColumns(progress)
	if err != nil {
		return err
	}
	values["status"] = string(domain.JobFailed)
	values["completed_at"] = completedAt
	values["updated_at"] = completedAt
	if n := len(progress.Errors); n > 0 {
		values["last_error"] = progress.Errors[n-1].Message
	}
	return r.updateActive(ctx, jobID, values)
}

// updateActive applies values only while the job is not done or failed.
func (r *ImportJobRepository) updateActive(ctx context.Context, jobID string, values map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.ImportJob{}).
		Where("id = ? AND status NOT IN ?", jobID, terminalStatuses).
		Updates(values)
	if result.Error != nil {
		return fmt.Errorf("update import job: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ImportJob{}).Where("id = ?", jobID).Count(&count).Error; err != nil {
		return fmt.Errorf("check import job: %w", err)
	}
	if count == 0 {
		return domain.ErrJobNotFound
	}
	return domain.ErrJobFinalized
}

func progressColumns(progress domain.ImportProgress) (map[string]any, error) {
	rowErrors := progress.Errors
	if rowErrors == nil {
		rowErrors = []domain.RowError{}
	}
	encoded, err := json.Marshal(rowErrors)
	if err != nil {
		return nil, fmt.Errorf("encode row errors: %w", err)
	}

	return map[string]any{
		"processed_rows": progress.ProcessedRows,
		"error_rows":     progress.ErrorRows,
		"created_rows":   progress.CreatedRows,
		"updated_rows":   progress.UpdatedRows,
		"skipped_rows":   progress.SkippedRows,
		"errors":         datatypes.JSON(encoded),
		"row_cursor":     progress.Cursor,
	}, nil
}

func toDomainJob(row models.ImportJob) (*domain.ImportJob, error) {
	var mapping domain.ColumnMapping
	if err := json.Unmarshal(row.Mapping, &mapping); err != nil {
		return nil, fmt.Errorf("decode mapping of job %s: %w", row.ID, err)
	}

	var rowErrors []domain.RowError
	if len(row.Errors) > 0 {
		if err := json.Unmarshal(row.Errors, &rowErrors); err != nil {
			return nil, fmt.Errorf("decode errors of job %s: %w", row.ID, err)
		}
	}

	job := &domain.ImportJob{
		ID:              row.ID,
		EntityType:      domain.EntityType(row.EntityType),
		FileURL:         row.FileURL,
		FileName:        row.FileName,
		Mapping:         mapping,
		DuplicatePolicy: domain.DuplicatePolicy(row.DuplicatePolicy),
		CreatedBy:       row.CreatedBy,
		Status:          domain.JobStatus(row.Status),
		TotalRows:       row.TotalRows,
		ProcessedRows:   row.ProcessedRows,
		ErrorRows:       row.ErrorRows,
		CreatedRows:     row.CreatedRows,
		UpdatedRows:     row.UpdatedRows,
		SkippedRows:     row.SkippedRows,
		Errors:          rowErrors,
		Cursor:          row.Cursor,
		Attempts:        row.Attempts,
		MaxAttempts:     row.MaxAttempts,
		StartedAt:       row.StartedAt,
		CompletedAt:     row.CompletedAt,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
	if row.TemplateID != nil {
		job.TemplateID = *row.TemplateID
	}
	if row.LastError != nil {
		job.LastError = *row.LastError
	}

	return job, nil
}

func nullableText(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
