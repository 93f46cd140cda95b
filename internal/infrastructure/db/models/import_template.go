package models

import (
	"time"

	"gorm.io/datatypes"
)

type ImportTemplate struct {
	ID         string         `gorm:"type:uuid;primaryKey"`
	Name       string         `gorm:"size:255;not null"`
	EntityType string         `gorm:"type:text;not null;index"`
	Mapping    datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedBy  string         `gorm:"type:text;not null;default:''"`
	CreatedAt  time.Time
}

func (ImportTemplate) TableName() string {
	return "import_templates"
}
