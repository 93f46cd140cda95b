package dataimport

import "strings"

// Sheet is the decoded first worksheet of an uploaded workbook. Rows hold the
// data rows only, keyed by header label.
type Sheet struct {
	Name    string
	Headers []string
	Rows    []SheetRow
}

// DataRowCount is the number of rows a job processes. Blank rows keep their
// spreadsheet position but are not imported.
func (s Sheet) DataRowCount() int {
	count := 0
	for _, row := range s.Rows {
		if !row.Blank() {
			count++
		}
	}
	return count
}

type SheetRow map[string]string

// Blank reports whether every cell of the row is empty or whitespace.
func (r SheetRow) Blank() bool {
	for _, value := range r {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

// MappedRow holds raw cell values keyed by target field name.
type MappedRow map[string]string

// ValidRow holds typed values (string, float64 or time.Time) keyed by target
// field name. Only fields present in the source row are set.
type ValidRow map[string]any

// Record is an existing target record located by its natural key.
type Record struct {
	ID string
}

// EmployeeIdentity is one entry of the employee snapshot used for fuzzy
// duplicate detection.
type EmployeeIdentity struct {
	ID                string
	FirstName         string
	LastName          string
	ProfessionalEmail string
}

func (e EmployeeIdentity) FullName() string {
	return e.FirstName + " " + e.LastName
}
