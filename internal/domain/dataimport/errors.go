package dataimport

import "errors"

var (
	ErrInvalidEntityType      = errors.New("invalid entity type")
	ErrInvalidDuplicatePolicy = errors.New("invalid duplicate policy")
	ErrInvalidJobStatus       = errors.New("invalid job status")
	ErrInvalidColumnMapping   = errors.New("invalid column mapping")
	ErrJobNotFound            = errors.New("import job not found")
	ErrJobFinalized           = errors.New("import job already finalized")
	ErrTemplateNotFound       = errors.New("import template not found")
)
