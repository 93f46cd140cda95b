package schema

import domain "github.com/bizadmin/record-import/internal/domain/dataimport"

var zero = 0.0

// Upper bounds of the numeric(p,2) columns the values are stored in.
var (
	maxNumeric14 = 999999999999.99
	maxNumeric12 = 9999999999.99
	maxNumeric10 = 99999999.99
)

func DefaultRegistry() *Registry {
	return NewRegistry(
		ClientRuleset(),
		EmployeeRuleset(),
		SiteRuleset(),
		TaskRuleset(),
		SupplierInvoiceRuleset(),
	)
}

func ClientRuleset() Ruleset {
	return Ruleset{
		Entity: domain.EntityClient,
		Fields: []FieldRule{
			{Name: "name", Kind: KindString, Required: true},
			{Name: "email", Kind: KindEmail, Required: true},
			{Name: "phone", Kind: KindString, MaxLen: 32},
			{Name: "address", Kind: KindString},
			{Name: "city", Kind: KindString, MaxLen: 120},
			{Name: "postalCode", Kind: KindString, MaxLen: 20},
			{Name: "clientType", Kind: KindEnum, Values: []string{"company", "individual"}},
		},
	}
}

func EmployeeRuleset() Ruleset {
	return Ruleset{
		Entity: domain.EntityEmployee,
		Fields: []FieldRule{
			{Name: "firstName", Kind: KindString, Required: true, MaxLen: 120},
			{Name: "lastName", Kind: KindString, Required: true, MaxLen: 120},
			{Name: "professionalEmail", Kind: KindEmail, Required: true},
			{Name: "personalEmail", Kind: KindEmail},
			{Name: "phone", Kind: KindString, MaxLen: 32},
			{Name: "position", Kind: KindString},
			{Name: "department", Kind: KindString},
			{Name: "hireDate", Kind: KindDate},
			{Name: "salary", Kind: KindNumber, Min: &zero, Max: &maxNumeric14},
			{Name: "contractType", Kind: KindEnum, Values: []string{"permanent", "fixed-term", "freelance", "intern"}},
		},
	}
}

func SiteRuleset() Ruleset {
	return Ruleset{
		Entity: domain.EntitySite,
		Fields: []FieldRule{
			{Name: "name", Kind: KindString, Required: true},
			{Name: "city", Kind: KindString, Required: true, MaxLen: 120},
			{Name: "address", Kind: KindString},
			{Name: "postalCode", Kind: KindString, MaxLen: 20},
			{Name: "clientEmail", Kind: KindEmail},
			{Name: "surfaceArea", Kind: KindNumber, Min: &zero, Max: &maxNumeric12},
			{Name: "status", Kind: KindEnum, Values: []string{"active", "inactive"}},
		},
	}
}

func TaskRuleset() Ruleset {
	return Ruleset{
		Entity: domain.EntityTask,
		Fields: []FieldRule{
			{Name: "title", Kind: KindString, Required: true},
			{Name: "description", Kind: KindString, MaxLen: 2000},
			{Name: "siteName", Kind: KindString},
			{Name: "assigneeEmail", Kind: KindEmail},
			{Name: "status", Kind: KindEnum, Values: []string{"todo", "in-progress", "done"}},
			{Name: "priority", Kind: KindEnum, Values: []string{"low", "medium", "high"}},
			{Name: "dueDate", Kind: KindDate},
			{Name: "estimatedHours", Kind: KindNumber, Min: &zero, Max: &maxNumeric10},
		},
	}
}

func SupplierInvoiceRuleset() Ruleset {
	return Ruleset{
		Entity: domain.EntitySupplierInvoice,
		Fields: []FieldRule{
			{Name: "reference", Kind: KindString, Required: true, MaxLen: 64},
			{Name: "supplierName", Kind: KindString, Required: true},
			{Name: "amount", Kind: KindNumber, Required: true, Min: &zero, Max: &maxNumeric14},
			{Name: "vatAmount", Kind: KindNumber, Min: &zero, Max: &maxNumeric14},
			{Name: "currency", Kind: KindString, MaxLen: 3},
			{Name: "issueDate", Kind: KindDate, Required: true},
			{Name: "dueDate", Kind: KindDate},
			{Name: "status", Kind: KindEnum, Values: []string{"pending", "paid", "overdue", "cancelled"}},
		},
	}
}
