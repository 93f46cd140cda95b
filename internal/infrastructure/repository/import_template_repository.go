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

type ImportTemplateRepository struct {
	db *gorm.DB
}

func NewImportTemplateRepository(db *gorm.DB) *ImportTemplateRepository {
	return &ImportTemplateRepository{db: db}
}

func (r *ImportTemplateRepository) Create(ctx context.Context, template domain.ImportTemplate) (*domain.ImportTemplate, error) {
	mapping, err := json.Marshal(template.Mapping)
	if err != nil {
		return nil, fmt.Errorf("encode mapping: %w", err)
	}

	row := models.ImportTemplate{
		ID:         uuid.NewString(),
		Name:       template.Name,
		EntityType: string(template.EntityType),
		Mapping:    datatypes.JSON(mapping),
		CreatedBy:  template.CreatedBy,
		CreatedAt:  time.Now().UTC(),
	}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("create import template: %w", err)
	}

	return toDomainTemplate(row)
}

func (r *ImportTemplateRepository) Get(ctx context.Context, templateID string) (*domain.ImportTemplate, error) {
	if _, err := uuid.Parse(templateID); err != nil {
		return nil, domain.ErrTemplateNotFound
	}

	var row models.ImportTemplate
	if err := r.db.WithContext(ctx).First(&row, "id = ?", templateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTemplateNotFound
		}
		return nil, fmt.Errorf("get import template: %w", err)
	}

	return toDomainTemplate(row)
}

// List returns templates newest first; an empty entityType lists all.
func (r *ImportTemplateRepository) List(ctx context.Context, entityType domain.EntityType) ([]domain.ImportTemplate, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if entityType != "" {
		query = query.Where("entity_type = ?", string(entityType))
	}

	var rows []models.ImportTemplate
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list import templates: %w", err)
	}

	templates := make([]domain.ImportTemplate, 0, len(rows))
	for _, row := range rows {
		template, err := toDomainTemplate(row)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *template)
	}
	return templates, nil
}

func (r *ImportTemplateRepository) Delete(ctx context.Context, templateID string) error {
	if _, err := uuid.Parse(templateID); err != nil {
		return domain.ErrTemplateNotFound
	}

	result := r.db.WithContext(ctx).Delete(&models.ImportTemplate{}, "id = ?", templateID)
	if result.Error != nil {
		return fmt.Errorf("delete import template: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrTemplateNotFound
	}
	return nil
}

func toDomainTemplate(row models.ImportTemplate) (*domain.ImportTemplate, error) {
	var mapping domain.ColumnMapping
	if err := json.Unmarshal(row.Mapping, &mapping); err != nil {
		return nil, fmt.Errorf("decode mapping of template %s: %w", row.ID, err)
	}

	return &domain.ImportTemplate{
		ID:         row.ID,
		Name:       row.Name,
		EntityType: domain.EntityType(row.EntityType),
		Mapping:    mapping,
		CreatedBy:  row.CreatedBy,
		CreatedAt:  row.CreatedAt,
	}, nil
}
