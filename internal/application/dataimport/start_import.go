package dataimport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/bizadmin/record-import/internal/domain/dataimport"
)

type StartImportInput struct {
	EntityType      string
	FileURL         string
	FileName        string
	Mapping         domain.ColumnMapping
	DuplicatePolicy string
	TemplateID      string
	CreatedBy       string
}

type StartImportOutput struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type StartImport interface {
	Execute(ctx context.Context, in StartImportInput) (StartImportOutput, error)
}

type StartImportConfig struct {
	MaxAttempts int
	Backoff     time.Duration
}

type startImport struct {
	jobs      domain.ImportJobRepository
	templates domain.ImportTemplateRepository
	queue     JobQueue
	cfg       StartImportConfig
}

func NewStartImport(jobs domain.ImportJobRepository, templates domain.ImportTemplateRepository, queue JobQueue, cfg StartImportConfig) StartImport {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 2
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 3 * time.Second
	}
	return &startImport{jobs: jobs, templates: templates, queue: queue, cfg: cfg}
}

func (uc *startImport) Execute(ctx context.Context, in StartImportInput) (StartImportOutput, error) {
	entityType, err := domain.ParseEntityType(in.EntityType)
	if err != nil {
		return StartImportOutput{}, fmt.Errorf("%w: %v", ErrInvalidImportRequest, err)
	}

	policy, err := domain.ParseDuplicatePolicy(in.DuplicatePolicy)
	if err != nil {
		return StartImportOutput{}, fmt.Errorf("%w: %v", ErrInvalidImportRequest, err)
	}

	fileURL := strings.TrimSpace(in.FileURL)
	if fileURL == "" {
		return StartImportOutput{}, fmt.Errorf("%w: file url is required", ErrInvalidImportRequest)
	}

	templateID := strings.TrimSpace(in.TemplateID)
	mapping := in.Mapping
	if templateID != "" {
		template, err := uc.templates.Get(ctx, templateID)
		if err != nil {
			if errors.Is(err, domain.ErrTemplateNotFound) {
				return StartImportOutput{}, fmt.Errorf("%w: template %s does not exist", ErrInvalidImportRequest, templateID)
			}
			return StartImportOutput{}, fmt.Errorf("%w: %v", ErrStartImport, err)
		}
		if template.EntityType != entityType {
			return StartImportOutput{}, fmt.Errorf("%w: template %s is for %s", ErrInvalidImportRequest, templateID, template.EntityType)
		}
		if len(mapping) == 0 {
			mapping = template.Mapping
		}
	}

	if err := mapping.Validate(); err != nil {
		return StartImportOutput{}, fmt.Errorf("%w: %v", ErrInvalidImportRequest, err)
	}

	job, err := uc.jobs.Create(ctx, domain.NewImportJob{
		EntityType:      entityType,
		FileURL:         fileURL,
		FileName:        strings.TrimSpace(in.FileName),
		Mapping:         mapping,
		DuplicatePolicy: policy,
		TemplateID:      templateID,
		CreatedBy:       strings.TrimSpace(in.CreatedBy),
		MaxAttempts:     uc.cfg.MaxAttempts,
	})
	if err != nil {
		return StartImportOutput{}, fmt.Errorf("%w: %v", ErrStartImport, err)
	}

	if err := uc.queue.Enqueue(ctx, job.ID, EnqueueOptions{Attempts: uc.cfg.MaxAttempts, Backoff: uc.cfg.Backoff}); err != nil {
		progress := domain.ImportProgress{Errors: []domain.RowError{{Row: 0, Message: "enqueue failed: " + err.Error()}}}
		if failErr := uc.jobs.Fail(ctx, job.ID, progress, time.Now().UTC()); failErr != nil {
			return StartImportOutput{}, fmt.Errorf("%w: %v; mark failed: %v", ErrEnqueueImportJob, err, failErr)
		}
		return StartImportOutput{}, fmt.Errorf("%w: %v", ErrEnqueueImportJob, err)
	}

	return StartImportOutput{
		JobID:  job.ID,
		Status: string(job.Status),
	}, nil
}
