package upsert

import (
	"context"
	"fmt"
	"log/slog"

	domain "github.com/bizadmin/record-import/internal/domain/dataimport"
	"github.com/bizadmin/record-import/internal/domain/similarity"
)

type clientUpserter struct{ recordWriter }

func (u clientUpserter) Upsert(ctx context.Context, row domain.ValidRow, policy domain.DuplicatePolicy) (Outcome, error) {
	return u.upsertByKey(ctx, map[string]any{"email": row["email"]}, row, policy)
}

type siteUpserter struct{ recordWriter }

func (u siteUpserter) Upsert(ctx context.Context, row domain.ValidRow, policy domain.DuplicatePolicy) (Outcome, error) {
	return u.upsertByKey(ctx, map[string]any{"name": row["name"], "city": row["city"]}, row, policy)
}

// A task is identified by its title within a site; siteName may be absent,
// in which case only tasks without a site match.
type taskUpserter struct{ recordWriter }

func (u taskUpserter) Upsert(ctx context.Context, row domain.ValidRow, policy domain.DuplicatePolicy) (Outcome, error) {
	return u.upsertByKey(ctx, map[string]any{"title": row["title"], "siteName": row["siteName"]}, row, policy)
}

type supplierInvoiceUpserter struct{ recordWriter }

func (u supplierInvoiceUpserter) Upsert(ctx context.Context, row domain.ValidRow, policy domain.DuplicatePolicy) (Outcome, error) {
	return u.upsertByKey(ctx, map[string]any{"reference": row["reference"]}, row, policy)
}

type employeeUpserter struct {
	recordWriter
	snapshot  []domain.EmployeeIdentity
	threshold int
	logger    *slog.Logger
}

// Upsert matches employees on professionalEmail. Without an exact match, a
// near-identical full name in the snapshot rejects the row under the skip
// policy; under update it is only logged and the employee is created.
func (u employeeUpserter) Upsert(ctx context.Context, row domain.ValidRow, policy domain.DuplicatePolicy) (Outcome, error) {
	existing, err := u.find(ctx, map[string]any{"professionalEmail": row["professionalEmail"]})
	if err != nil {
		return "", err
	}
	if existing != nil {
		return u.applyExisting(ctx, existing, row, policy)
	}

	fullName := fmt.Sprintf("%v %v", row["firstName"], row["lastName"])
	if match, found := u.nearDuplicate(fullName); found {
		if policy == domain.DuplicateSkip {
			return "", fmt.Errorf("%w: %q is close to existing employee %q (%s)",
				ErrPotentialDuplicate, fullName, match.FullName(), match.ProfessionalEmail)
		}
		u.logger.Warn("near-duplicate employee name imported",
			"name", fullName,
			"existing_employee_id", match.ID,
		)
	}

	return u.create(ctx, row)
}

func (u employeeUpserter) nearDuplicate(fullName string) (domain.EmployeeIdentity, bool) {
	for _, candidate := range u.snapshot {
		if similarity.IsFuzzyMatch(fullName, candidate.FullName(), u.threshold) {
			return candidate, true
		}
	}
	return domain.EmployeeIdentity{}, false
}
