package dataimport

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/bizadmin/record-import/internal/domain/dataimport"
	"github.com/google/uuid"
)

type GetImportJobInput struct {
	ID string
}

type GetImportJob interface {
	Execute(ctx context.Context, in GetImportJobInput) (ImportJobOutput, error)
}

type getImportJob struct {
	jobs domain.ImportJobRepository
}

func NewGetImportJob(jobs domain.ImportJobRepository) GetImportJob {
	return &getImportJob{jobs: jobs}
}

func (uc *getImportJob) Execute(ctx context.Context, in GetImportJobInput) (ImportJobOutput, error) {
	if _, err := uuid.Parse(in.ID); err != nil {
		return ImportJobOutput{}, fmt.Errorf("%w: malformed job id", ErrInvalidImportRequest)
	}

	job, err := uc.jobs.Get(ctx, in.ID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			return ImportJobOutput{}, ErrImportJobNotFound
		}
		return ImportJobOutput{}, fmt.Errorf("%w: %v", ErrGetImportJob, err)
	}

	return toImportJobOutput(*job), nil
}
