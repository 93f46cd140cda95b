package dataimport

import (
	"context"
	"fmt"

	domain "github.com/bizadmin/record-import/internal/domain/dataimport"
	"github.com/bizadmin/record-import/internal/domain/schema"
)

type ListEntityFieldsInput struct {
	EntityType string
}

type ListEntityFieldsOutput struct {
	EntityType string             `json:"entity_type"`
	Fields     []schema.FieldRule `json:"fields"`
}

// ListEntityFields exposes the target field vocabulary so a client can build
// a column mapping.
type ListEntityFields interface {
	Execute(ctx context.Context, in ListEntityFieldsInput) (ListEntityFieldsOutput, error)
}

type listEntityFields struct {
	registry *schema.Registry
}

func NewListEntityFields(registry *schema.Registry) ListEntityFields {
	return &listEntityFields{registry: registry}
}

func (uc *listEntityFields) Execute(ctx context.Context, in ListEntityFieldsInput) (ListEntityFieldsOutput, error) {
	entityType, err := domain.ParseEntityType(in.EntityType)
	if err != nil {
		return ListEntityFieldsOutput{}, fmt.Errorf("%w: %v", ErrInvalidImportRequest, err)
	}

	ruleset, err := uc.registry.Ruleset(entityType)
	if err != nil {
		return ListEntityFieldsOutput{}, fmt.Errorf("%w: %v", ErrInvalidImportRequest, err)
	}

	return ListEntityFieldsOutput{
		EntityType: string(entityType),
		Fields:     ruleset.Fields,
	}, nil
}
