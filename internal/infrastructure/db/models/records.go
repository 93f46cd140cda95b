package models

import "time"

// Target record tables written by import jobs. Rows are inserted and updated
// through pgx; these models only describe the schema for migrations.

type Client struct {
	ID         string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Reference  string  `gorm:"size:32;not null;index"`
	Name       string  `gorm:"size:255;not null"`
	Email      string  `gorm:"size:320;not null;uniqueIndex"`
	Phone      *string `gorm:"size:64"`
	Address    *string `gorm:"size:255"`
	City       *string `gorm:"size:255"`
	PostalCode *string `gorm:"size:32"`
	ClientType *string `gorm:"size:32"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Client) TableName() string {
	return "clients"
}

type Employee struct {
	ID                string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeNumber    string     `gorm:"size:32;not null;index"`
	FirstName         string     `gorm:"size:255;not null"`
	LastName          string     `gorm:"size:255;not null"`
	ProfessionalEmail string     `gorm:"size:320;not null;uniqueIndex"`
	PersonalEmail     *string    `gorm:"size:320"`
	Phone             *string    `gorm:"size:64"`
	Position          *string    `gorm:"size:255"`
	Department        *string    `gorm:"size:255"`
	HireDate          *time.Time `gorm:"type:date"`
	Salary            *float64   `gorm:"type:numeric(14,2)"`
	ContractType      *string    `gorm:"size:32"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (Employee) TableName() string {
	return "employees"
}

type Site struct {
	ID          string   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Reference   string   `gorm:"size:32;not null;index"`
	Name        string   `gorm:"size:255;not null;uniqueIndex:idx_sites_name_city"`
	City        string   `gorm:"size:255;not null;uniqueIndex:idx_sites_name_city"`
	Address     *string  `gorm:"size:255"`
	PostalCode  *string  `gorm:"size:32"`
	ClientEmail *string  `gorm:"size:320"`
	SurfaceArea *float64 `gorm:"type:numeric(12,2)"`
	Status      *string  `gorm:"size:32"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Site) TableName() string {
	return "sites"
}

type Task struct {
	ID             string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Reference      string     `gorm:"size:32;not null;index"`
	Title          string     `gorm:"size:255;not null;index:idx_tasks_title_site"`
	Description    *string    `gorm:"size:255"`
	SiteName       *string    `gorm:"size:255;index:idx_tasks_title_site"`
	AssigneeEmail  *string    `gorm:"size:320"`
	Status         *string    `gorm:"size:32"`
	Priority       *string    `gorm:"size:32"`
	DueDate        *time.Time `gorm:"type:date"`
	EstimatedHours *float64   `gorm:"type:numeric(10,2)"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (Task) TableName() string {
	return "tasks"
}

type SupplierInvoice struct {
	ID           string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Reference    string     `gorm:"size:64;not null;uniqueIndex"`
	SupplierName string     `gorm:"size:255;not null"`
	Amount       float64    `gorm:"type:numeric(14,2);not null"`
	VatAmount    *float64   `gorm:"type:numeric(14,2)"`
	Currency     *string    `gorm:"size:3"`
	IssueDate    time.Time  `gorm:"type:date;not null"`
	DueDate      *time.Time `gorm:"type:date"`
	Status       *string    `gorm:"size:32"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (SupplierInvoice) TableName() string {
	return "supplier_invoices"
}

// All lists every model managed by AutoMigrate.
func All() []any {
	return []any{
		&ImportJob{},
		&ImportTemplate{},
		&Client{},
		&Employee{},
		&Site{},
		&Task{},
		&SupplierInvoice{},
	}
}
