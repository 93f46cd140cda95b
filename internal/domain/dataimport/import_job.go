package dataimport

import "time"

type ImportJob struct {
	ID              string
	EntityType      EntityType
	FileURL         string
	FileName        string
	Mapping         ColumnMapping
	DuplicatePolicy DuplicatePolicy
	TemplateID      string
	CreatedBy       string
	Status          JobStatus
	TotalRows       int
	ProcessedRows   int
	ErrorRows       int
	CreatedRows     int
	UpdatedRows     int
	SkippedRows     int
	Errors          []RowError
	Cursor          int
	Attempts        int
	MaxAttempts     int
	LastError       string
	StartedAt       *time.Time
	CompletedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RowError describes why one spreadsheet row could not be applied. Row 0 is
// reserved for job-level failures; an empty Field means the whole row failed.
type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ImportProgress is the mutable part of a job written at each checkpoint.
// Cursor is the spreadsheet row number of the last processed data row.
type ImportProgress struct {
	ProcessedRows int
	ErrorRows     int
	CreatedRows   int
	UpdatedRows   int
	SkippedRows   int
	Errors        []RowError
	Cursor        int
}

// Progress returns the checkpointed progress stored on the job.
func (j ImportJob) Progress() ImportProgress {
	errs := make([]RowError, len(j.Errors))
	copy(errs, j.Errors)
	return ImportProgress{
		ProcessedRows: j.ProcessedRows,
		ErrorRows:     j.ErrorRows,
		CreatedRows:   j.CreatedRows,
		UpdatedRows:   j.UpdatedRows,
		SkippedRows:   j.SkippedRows,
		Errors:        errs,
		Cursor:        j.Cursor,
	}
}

type NewImportJob struct {
	EntityType      EntityType
	FileURL         string
	FileName        string
	Mapping         ColumnMapping
	DuplicatePolicy DuplicatePolicy
	TemplateID      string
	CreatedBy       string
	MaxAttempts     int
}

type JobFilter struct {
	EntityType EntityType
	Status     JobStatus
	Page       int
	Limit      int
}

type JobPage struct {
	Items []ImportJob
	Total int64
	Page  int
	Limit int
}
