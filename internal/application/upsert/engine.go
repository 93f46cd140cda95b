// Package upsert decides, for one validated row, whether a target record is
// created, updated, skipped or rejected.
package upsert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	domain "github.com/bizadmin/record-import/internal/domain/dataimport"
	"github.com/bizadmin/record-import/internal/domain/similarity"
)

type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
	OutcomeSkipped Outcome = "skipped"
)

var ErrPotentialDuplicate = errors.New("potential duplicate")

type Upserter interface {
	Upsert(ctx context.Context, row domain.ValidRow, policy domain.DuplicatePolicy) (Outcome, error)
}

type Engine struct {
	store     domain.RecordStore
	threshold int
	logger    *slog.Logger
}

func NewEngine(store domain.RecordStore, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:     store,
		threshold: similarity.DefaultThreshold,
		logger:    logger,
	}
}

// ForEntity returns the upserter used for a whole job. For employees it
// captures the snapshot of existing identities once; employees created later
// in the same job are not part of it.
func (e *Engine) ForEntity(ctx context.Context, entity domain.EntityType) (Upserter, error) {
	switch entity {
	case domain.EntityClient:
		return clientUpserter{e.writer(entity, "reference", "CLI")}, nil
	case domain.EntityEmployee:
		snapshot, err := e.store.EmployeeSnapshot(ctx)
		if err != nil {
			return nil, fmt.Errorf("load employee snapshot: %w", err)
		}
		return employeeUpserter{
			recordWriter: e.writer(entity, "employeeNumber", "EMP"),
			snapshot:     snapshot,
			threshold:    e.threshold,
			logger:       e.logger,
		}, nil
	case domain.EntitySite:
		return siteUpserter{e.writer(entity, "reference", "SITE")}, nil
	case domain.EntityTask:
		return taskUpserter{e.writer(entity, "reference", "TASK")}, nil
	case domain.EntitySupplierInvoice:
		return supplierInvoiceUpserter{e.writer(entity, "", "")}, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidEntityType, entity)
	}
}

func (e *Engine) writer(entity domain.EntityType, referenceField, prefix string) recordWriter {
	return recordWriter{
		entity:         entity,
		store:          e.store,
		referenceField: referenceField,
		prefix:         prefix,
	}
}

// recordWriter holds the lookup/create/update steps shared by every entity.
type recordWriter struct {
	entity         domain.EntityType
	store          domain.RecordStore
	referenceField string
	prefix         string
}

func (w recordWriter) upsertByKey(ctx context.Context, key map[string]any, row domain.ValidRow, policy domain.DuplicatePolicy) (Outcome, error) {
	existing, err := w.find(ctx, key)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return w.applyExisting(ctx, existing, row, policy)
	}
	return w.create(ctx, row)
}

func (w recordWriter) find(ctx context.Context, key map[string]any) (*domain.Record, error) {
	existing, err := w.store.FindOne(ctx, w.entity, key)
	if err != nil {
		return nil, fmt.Errorf("find existing %s: %w", w.entity, err)
	}
	return existing, nil
}

func (w recordWriter) applyExisting(ctx context.Context, existing *domain.Record, row domain.ValidRow, policy domain.DuplicatePolicy) (Outcome, error) {
	if policy != domain.DuplicateUpdate {
		return OutcomeSkipped, nil
	}
	if err := w.store.Update(ctx, w.entity, existing.ID, row); err != nil {
		return "", fmt.Errorf("update %s %s: %w", w.entity, existing.ID, err)
	}
	return OutcomeUpdated, nil
}

func (w recordWriter) create(ctx context.Context, row domain.ValidRow) (Outcome, error) {
	fields := make(domain.ValidRow, len(row)+1)
	for name, value := range row {
		fields[name] = value
	}

	if w.referenceField != "" {
		count, err := w.store.Count(ctx, w.entity)
		if err != nil {
			return "", fmt.Errorf("count %s records: %w", w.entity, err)
		}
		fields[w.referenceField] = NextReference(w.prefix, count)
	}

	if _, err := w.store.Create(ctx, w.entity, fields); err != nil {
		return "", fmt.Errorf("create %s: %w", w.entity, err)
	}
	return OutcomeCreated, nil
}

// NextReference builds the sequential business reference for a new record,
// e.g. CLI-0042 when 41 clients already exist.
func NextReference(prefix string, existing int64) string {
	return fmt.Sprintf("%s-%04d", prefix, existing+1)
}
