package dataimport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/bizadmin/record-import/internal/domain/dataimport"
)

type SaveImportTemplateInput struct {
	Name       string
	EntityType string
	Mapping    domain.ColumnMapping
	CreatedBy  string
}

type ImportTemplateOutput struct {
	ID         string               `json:"id"`
	Name       string               `json:"name"`
	EntityType string               `json:"entity_type"`
	Mapping    domain.ColumnMapping `json:"mapping"`
	CreatedBy  string               `json:"created_by,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
}

type SaveImportTemplate interface {
	Execute(ctx context.Context, in SaveImportTemplateInput) (ImportTemplateOutput, error)
}

type ListImportTemplatesInput struct {
	EntityType string
}

type ListImportTemplates interface {
	Execute(ctx context.Context, in ListImportTemplatesInput) ([]ImportTemplateOutput, error)
}

type DeleteImportTemplateInput struct {
	ID string
}

type DeleteImportTemplate interface {
	Execute(ctx context.Context, in DeleteImportTemplateInput) error
}

type saveImportTemplate struct {
	templates domain.ImportTemplateRepository
}

func NewSaveImportTemplate(templates domain.ImportTemplateRepository) SaveImportTemplate {
	return &saveImportTemplate{templates: templates}
}

func (uc *saveImportTemplate) Execute(ctx context.Context, in SaveImportTemplateInput) (ImportTemplateOutput, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return ImportTemplateOutput{}, fmt.Errorf("%w: name is required", ErrInvalidTemplate)
	}

	entityType, err := domain.ParseEntityType(in.EntityType)
	if err != nil {
		return ImportTemplateOutput{}, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}

	if err := in.Mapping.Validate(); err != nil {
		return ImportTemplateOutput{}, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}

	template, err := uc.templates.Create(ctx, domain.ImportTemplate{
		Name:       name,
		EntityType: entityType,
		Mapping:    in.Mapping,
		CreatedBy:  strings.TrimSpace(in.CreatedBy),
	})
	if err != nil {
		return ImportTemplateOutput{}, fmt.Errorf("%w: %v", ErrSaveTemplate, err)
	}

	return toImportTemplateOutput(*template), nil
}

type listImportTemplates struct {
	templates domain.ImportTemplateRepository
}

func NewListImportTemplates(templates domain.ImportTemplateRepository) ListImportTemplates {
	return &listImportTemplates{templates: templates}
}

func (uc *listImportTemplates) Execute(ctx context.Context, in ListImportTemplatesInput) ([]ImportTemplateOutput, error) {
	var entityType domain.EntityType
	if raw := strings.TrimSpace(in.EntityType); raw != "" {
		parsed, err := domain.ParseEntityType(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
		}
		entityType = parsed
	}

	templates, err := uc.templates.List(ctx, entityType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrListTemplates, err)
	}

	out := make([]ImportTemplateOutput, 0, len(templates))
	for _, template := range templates {
		out = append(out, toImportTemplateOutput(template))
	}
	return out, nil
}

type deleteImportTemplate struct {
	templates domain.ImportTemplateRepository
}

func NewDeleteImportTemplate(templates domain.ImportTemplateRepository) DeleteImportTemplate {
	return &deleteImportTemplate{templates: templates}
}

func (uc *deleteImportTemplate) Execute(ctx context.Context, in DeleteImportTemplateInput) error {
	if err := uc.templates.Delete(ctx, strings.TrimSpace(in.ID)); err != nil {
		if errors.Is(err, domain.ErrTemplateNotFound) {
			return ErrTemplateNotFound
		}
		return fmt.Errorf("%w: %v", ErrDeleteTemplate, err)
	}
	return nil
}

func toImportTemplateOutput(template domain.ImportTemplate) ImportTemplateOutput {
	return ImportTemplateOutput{
		ID:         template.ID,
		Name:       template.Name,
		EntityType: string(template.EntityType),
		Mapping:    template.Mapping,
		CreatedBy:  template.CreatedBy,
		CreatedAt:  template.CreatedAt,
	}
}
