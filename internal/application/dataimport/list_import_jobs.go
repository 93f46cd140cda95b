package dataimport

import (
	"context"
	"fmt"
	"strings"

	domain "github.com/bizadmin/record-import/internal/domain/dataimport"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type ListImportJobsInput struct {
	EntityType string
	Status     string
	Page       int
	Limit      int
}

type ListImportJobsOutput struct {
	Items []ImportJobOutput `json:"items"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

type ListImportJobs interface {
	Execute(ctx context.Context, in ListImportJobsInput) (ListImportJobsOutput, error)
}

type listImportJobs struct {
	jobs domain.ImportJobRepository
}

func NewListImportJobs(jobs domain.ImportJobRepository) ListImportJobs {
	return &listImportJobs{jobs: jobs}
}

func (uc *listImportJobs) Execute(ctx context.Context, in ListImportJobsInput) (ListImportJobsOutput, error) {
	filter := domain.JobFilter{Page: in.Page, Limit: in.Limit}

	if raw := strings.TrimSpace(in.EntityType); raw != "" {
		entityType, err := domain.ParseEntityType(raw)
		if err != nil {
			return ListImportJobsOutput{}, fmt.Errorf("%w: %v", ErrInvalidImportRequest, err)
		}
		filter.EntityType = entityType
	}
	if raw := strings.TrimSpace(in.Status); raw != "" {
		status, err := domain.ParseJobStatus(raw)
		if err != nil {
			return ListImportJobsOutput{}, fmt.Errorf("%w: %v", ErrInvalidImportRequest, err)
		}
		filter.Status = status
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultPageLimit
	}
	if filter.Limit > maxPageLimit {
		filter.Limit = maxPageLimit
	}

	page, err := uc.jobs.List(ctx, filter)
	if err != nil {
		return ListImportJobsOutput{}, fmt.Errorf("%w: %v", ErrListImportJobs, err)
	}

	items := make([]ImportJobOutput, 0, len(page.Items))
	for _, job := range page.Items {
		items = append(items, toImportJobOutput(job))
	}

	return ListImportJobsOutput{
		Items: items,
		Total: page.Total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}
