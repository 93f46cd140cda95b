package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	domain "github.com/bizadmin/record-import/internal/domain/dataimport"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type entityTable struct {
	name    string
	columns map[string]string
}

var entityTables = map[domain.EntityType]entityTable{
	domain.EntityClient: {
		name:    "clients",
		columns: map[string]string{
			"reference":  "reference",
			"name":       "name",
			"email":      "email",
			"phone":      "phone",
			"address":    "address",
			"city":       "city",
			"postalCode": "postal_code",
			"clientType": "client_type",
		},
	},
	domain.EntityEmployee: {
		name:    "employees",
		columns: map[string]string{
			"employeeNumber":    "employee_number",
			"firstName":         "first_name",
			"lastName":          "last_name",
			"professionalEmail": "professional_email",
			"personalEmail":     "personal_email",
			"phone":             "phone",
			"position":          "position",
			"department":        "department",
			"hireDate":          "hire_date",
			"salary":            "salary",
			"contractType":      "contract_type",
		},
	},
	domain.EntitySite: {
		name:    "sites",
		columns: map[string]string{
			"reference":   "reference",
			"name":        "name",
			"city":        "city",
			"address":     "address",
			"postalCode":  "postal_code",
			"clientEmail": "client_email",
			"surfaceArea": "surface_area",
			"status":      "status",
		},
	},
	domain.EntityTask: {
		name:    "tasks",
		columns: map[string]string{
			"reference":      "reference",
			"title":          "title",
			"description":    "description",
			"siteName":       "site_name",
			"assigneeEmail":  "assignee_email",
			"status":         "status",
			"priority":       "priority",
			"dueDate":        "due_date",
			"estimatedHours": "estimated_hours",
		},
	},
	domain.EntitySupplierInvoice: {
		name:    "supplier_invoices",
		columns: map[string]string{
			"reference":    "reference",
			"supplierName": "supplier_name",
			"amount":       "amount",
			"vatAmount":    "vat_amount",
			"currency":     "currency",
			"issueDate":    "issue_date",
			"dueDate":      "due_date",
			"status":       "status",
		},
	},
}

// EntityRecordRepository is the target record store. Field names are the
// import vocabulary; each entity maps them onto its own table.
type EntityRecordRepository struct {
	pool *pgxpool.Pool
}

func NewEntityRecordRepository(pool *pgxpool.Pool) *EntityRecordRepository {
	return &EntityRecordRepository{pool: pool}
}

func (r *EntityRecordRepository) FindOne(ctx context.Context, entity domain.EntityType, key map[string]any) (*domain.Record, error) {
	query, args, err := buildFindQuery(entity, key)
	if err != nil {
		return nil, err
	}

	var id string
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find %s: %w", entity, err)
	}
	return &domain.Record{ID: id}, nil
}

func (r *EntityRecordRepository) Create(ctx context.Context, entity domain.EntityType, fields domain.ValidRow) (string, error) {
	query, args, err := buildInsertQuery(entity, fields)
	if err != nil {
		return "", err
	}

	var id string
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return "", fmt.Errorf("insert %s: %w", entity, err)
	}
	return id, nil
}

func (r *EntityRecordRepository) Update(ctx context.Context, entity domain.EntityType, recordID string, fields domain.ValidRow) error {
	query, args, err := buildUpdateQuery(entity, recordID, fields)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", entity, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update %s: record %s no longer exists", entity, recordID)
	}
	return nil
}

func (r *EntityRecordRepository) Count(ctx context.Context, entity domain.EntityType) (int64, error) {
	table, err := tableFor(entity)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+table.name).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", entity, err)
	}
	return count, nil
}

func (r *EntityRecordRepository) EmployeeSnapshot(ctx context.Context) ([]domain.EmployeeIdentity, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id::text, first_name, last_name, professional_email
FROM employees
ORDER BY created_at
`)
	if err != nil {
		return nil, fmt.Errorf("load employee snapshot: %w", err)
	}
	defer rows.Close()

	identities := make([]domain.EmployeeIdentity, 0)
	for rows.Next() {
		var identity domain.EmployeeIdentity
		if err := rows.Scan(&identity.ID, &identity.FirstName, &identity.LastName, &identity.ProfessionalEmail); err != nil {
			return nil, fmt.Errorf("scan employee snapshot: %w", err)
		}
		identities = append(identities, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read employee snapshot: %w", err)
	}

	return identities, nil
}

func tableFor(entity domain.EntityType) (entityTable, error) {
	table, ok := entityTables[entity]
	if !ok {
		return entityTable{}, fmt.Errorf("%w: %q", domain.ErrInvalidEntityType, entity)
	}
	return table, nil
}

// resolve maps field names onto columns in a stable order.
func (s entityTable) resolve(fields map[string]any) ([]string, []any, error) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	columns := make([]string, 0, len(names))
	values := make([]any, 0, len(names))
	for _, name := range names {
		column, ok := s.columns[name]
		if !ok {
			return nil, nil, fmt.Errorf("%s has no field %q", s.name, name)
		}
		columns = append(columns, column)
		values = append(values, fields[name])
	}
	return columns, values, nil
}

// buildFindQuery matches every key field; a nil value only matches NULL.
func buildFindQuery(entity domain.EntityType, key map[string]any) (string, []any, error) {
	table, err := tableFor(entity)
	if err != nil {
		return "", nil, err
	}
	if len(key) == 0 {
		return "", nil, fmt.Errorf("find %s: empty key", entity)
	}

	columns, values, err := table.resolve(key)
	if err != nil {
		return "", nil, err
	}

	conditions := make([]string, 0, len(columns))
	args := make([]any, 0, len(values))
	for i, column := range columns {
		if values[i] == nil {
			conditions = append(conditions, column+" IS NULL")
			continue
		}
		args = append(args, values[i])
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	query := fmt.Sprintf("SELECT id::text FROM %s WHERE %s LIMIT 1", table.name, strings.Join(conditions, " AND "))
	return query, args, nil
}

func buildInsertQuery(entity domain.EntityType, fields domain.ValidRow) (string, []any, error) {
	table, err := tableFor(entity)
	if err != nil {
		return "", nil, err
	}

	columns, values, err := table.resolve(fields)
	if err != nil {
		return "", nil, err
	}

	placeholders := make([]string, 0, len(columns)+2)
	for i := range columns {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
	}
	columns = append(columns, "created_at", "updated_at")
	placeholders = append(placeholders, "NOW()", "NOW()")

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING id::text",
		table.name,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)
	return query, values, nil
}

// buildUpdateQuery only touches the given fields so absent cells keep their
// stored values.
func buildUpdateQuery(entity domain.EntityType, recordID string, fields domain.ValidRow) (string, []any, error) {
	table, err := tableFor(entity)
	if err != nil {
		return "", nil, err
	}

	columns, values, err := table.resolve(fields)
	if err != nil {
		return "", nil, err
	}

	assignments := make([]string, 0, len(columns)+1)
	for i, column := range columns {
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, i+1))
	}
	assignments = append(assignments, "updated_at = NOW()")

	args := append(values, recordID)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", table.name, strings.Join(assignments, ", "), len(args))
	return query, args, nil
}
