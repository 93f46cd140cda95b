package dataimport

import "time"

type ImportTemplate struct {
	ID         string
	Name       string
	EntityType EntityType
	Mapping    ColumnMapping
	CreatedBy  string
	CreatedAt  time.Time
}
