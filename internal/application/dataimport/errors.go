package dataimport

import "errors"

var (
	ErrInvalidImportRequest = errors.New("invalid import request")
	ErrEnqueueImportJob     = errors.New("failed to enqueue import job")
	ErrStartImport          = errors.New("failed to start import")
	ErrImportJobNotFound    = errors.New("import job not found")
	ErrGetImportJob         = errors.New("failed to get import job")
	ErrListImportJobs       = errors.New("failed to list import jobs")
	ErrInvalidTemplate      = errors.New("invalid import template")
	ErrTemplateNotFound     = errors.New("import template not found")
	ErrSaveTemplate         = errors.New("failed to save import template")
	ErrListTemplates        = errors.New("failed to list import templates")
	ErrDeleteTemplate       = errors.New("failed to delete import template")
	ErrFileTooLarge         = errors.New("file exceeds the upload size limit")
	ErrUnsupportedFileType  = errors.New("unsupported file type")
	ErrInvalidSpreadsheet   = errors.New("invalid spreadsheet")
	ErrStoreFile            = errors.New("failed to store file")
	ErrJobLocked            = errors.New("import job locked by another worker")
)
