package dataimport

import (
	"time"

	domain "github.com/bizadmin/record-import/internal/domain/dataimport"
)

type RowErrorOutput struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ImportJobOutput struct {
	ID              string               `json:"id"`
	EntityType      string               `json:"entity_type"`
	FileURL         string               `json:"file_url"`
	FileName        string               `json:"file_name"`
	Mapping         domain.ColumnMapping `json:"mapping"`
	DuplicatePolicy string               `json:"duplicate_policy"`
	TemplateID      string               `json:"template_id,omitempty"`
	CreatedBy       string               `json:"created_by,omitempty"`
	Status          string               `json:"status"`
	TotalRows       int                  `json:"total_rows"`
	ProcessedRows   int                  `json:"processed_rows"`
	ErrorRows       int                  `json:"error_rows"`
	CreatedRows     int                  `json:"created_rows"`
	UpdatedRows     int                  `json:"updated_rows"`
	SkippedRows     int                  `json:"skipped_rows"`
	Errors          []RowErrorOutput     `json:"errors"`
	Attempts        int                  `json:"attempts"`
	MaxAttempts     int                  `json:"max_attempts"`
	LastError       string               `json:"last_error,omitempty"`
	StartedAt       *time.Time           `json:"started_at,omitempty"`
	CompletedAt     *time.Time           `json:"completed_at,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

func toImportJobOutput(job domain.ImportJob) ImportJobOutput {
	errs := make([]RowErrorOutput, 0, len(job.Errors))
	for _, rowErr := range job.Errors {
		errs = append(errs, RowErrorOutput{
			Row:     rowErr.Row,
			Field:   rowErr.Field,
			Message: rowErr.Message,
		})
	}

	return ImportJobOutput{
		ID:              job.ID,
		EntityType:      string(job.EntityType),
		FileURL:         job.FileURL,
		FileName:        job.FileName,
		Mapping:         job.Mapping,
		DuplicatePolicy: string(job.DuplicatePolicy),
		TemplateID:      job.TemplateID,
		CreatedBy:       job.CreatedBy,
		Status:          string(job.Status),
		TotalRows:       job.TotalRows,
		ProcessedRows:   job.ProcessedRows,
		ErrorRows:       job.ErrorRows,
		CreatedRows:     job.CreatedRows,
		UpdatedRows:     job.UpdatedRows,
		SkippedRows:     job.SkippedRows,
		Errors:          errs,
		Attempts:        job.Attempts,
		MaxAttempts:     job.MaxAttempts,
		LastError:       job.LastError,
		StartedAt:       job.StartedAt,
		CompletedAt:     job.CompletedAt,
		CreatedAt:       job.CreatedAt,
		UpdatedAt:       job.UpdatedAt,
	}
}
