package models

import (
	"time"

	"gorm.io/datatypes"
)

type ImportJob struct {
	ID              string         `gorm:"type:uuid;primaryKey"`
	EntityType      string         `gorm:"type:text;not null;index"`
	FileURL         string         `gorm:"type:text;not null"`
	FileName        string         `gorm:"type:text;not null;default:''"`
	Mapping         datatypes.JSON `gorm:"type:jsonb;not null"`
	DuplicatePolicy string         `gorm:"type:text;not null;default:'skip'"`
	TemplateID      *string        `gorm:"type:uuid"`
	CreatedBy       string         `gorm:"type:text;not null;default:''"`
	Status          string         `gorm:"type:text;not null;index"`
	TotalRows       int            `gorm:"not null;default:0"`
	ProcessedRows   int            `gorm:"not null;default:0"`
	ErrorRows       int            `gorm:"not null;default:0"`
	CreatedRows     int            `gorm:"not null;default:0"`
	UpdatedRows     int            `gorm:"not null;default:0"`
	SkippedRows     int            `gorm:"not null;default:0"`
	Errors          datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"`
	Cursor          int            `gorm:"column:row_cursor;not null;default:0"`
	Attempts        int            `gorm:"not null;default:0"`
	MaxAttempts     int            `gorm:"not null;default:2"`
	LastError       *string        `gorm:"type:text"`
	StartedAt       *time.Time
	CompletedAt     *time.Time
	CreatedAt       time.Time `gorm:"index"`
	UpdatedAt       time.Time
}

func (ImportJob) TableName() string {
	return "import_jobs"
}
