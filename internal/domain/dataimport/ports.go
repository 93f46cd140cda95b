package dataimport

import (
	"context"
	"time"
)

type ImportJobRepository interface {
	Create(ctx context.Context, job NewImportJob) (*ImportJob, error)
	Get(ctx context.Context, jobID string) (*ImportJob, error)
	List(ctx context.Context, filter JobFilter) (JobPage, error)
	MarkProcessing(ctx context.Context, jobID string) (*ImportJob, error)
	SetTotalRows(ctx context.Context, jobID string, total int) error
	Checkpoint(ctx context.Context, jobID string, progress ImportProgress) error
	Complete(ctx context.Context, jobID string, progress ImportProgress, completedAt time.Time) error
	Requeue(ctx context.Context, jobID string, reason string) error
	Fail(ctx context.Context, jobID string, progress ImportProgress, completedAt time.Time) error
}

type ImportTemplateRepository interface {
	Create(ctx context.Context, template ImportTemplate) (*ImportTemplate, error)
	Get(ctx context.Context, templateID string) (*ImportTemplate, error)
	List(ctx context.Context, entityType EntityType) ([]ImportTemplate, error)
	Delete(ctx context.Context, templateID string) error
}

// RecordStore is the persistent store of target records. Key and field maps
// use target field names.
type RecordStore interface {
	FindOne(ctx context.Context, entity EntityType, key map[string]any) (*Record, error)
	Create(ctx context.Context, entity EntityType, fields ValidRow) (string, error)
	Update(ctx context.Context, entity EntityType, recordID string, fields ValidRow) error
	Count(ctx context.Context, entity EntityType) (int64, error)
	EmployeeSnapshot(ctx context.Context) ([]EmployeeIdentity, error)
}
