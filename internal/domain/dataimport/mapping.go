package dataimport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type ColumnMappingEntry struct {
	Column string
	Field  string
}

// ColumnMapping associates spreadsheet column labels with target fields. It
// is encoded as a JSON object whose key order is kept in both directions.
type ColumnMapping []ColumnMappingEntry

func (m ColumnMapping) Validate() error {
	if len(m) == 0 {
		return fmt.Errorf("%w: at least one column must be mapped", ErrInvalidColumnMapping)
	}

	seen := make(map[string]struct{}, len(m))
	for _, entry := range m {
		if strings.TrimSpace(entry.Column) == "" || strings.TrimSpace(entry.Field) == "" {
			return fmt.Errorf("%w: column and field must not be empty", ErrInvalidColumnMapping)
		}
		if _, dup := seen[entry.Column]; dup {
			return fmt.Errorf("%w: column %q is mapped twice", ErrInvalidColumnMapping, entry.Column)
		}
		seen[entry.Column] = struct{}{}
	}
	return nil
}

// Apply reads every mapped column out of row. Blank cells are left out of
// the result so they behave as null.
func (m ColumnMapping) Apply(row SheetRow) MappedRow {
	mapped := make(MappedRow, len(m))
	for _, entry := range m {
		value := strings.TrimSpace(row[entry.Column])
		if value == "" {
			continue
		}
		mapped[entry.Field] = value
	}
	return mapped
}

func (m ColumnMapping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Column)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(entry.Field)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *ColumnMapping) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	token, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidColumnMapping, err)
	}
	if token == nil {
		return nil
	}

	delim, ok := token.(json.Delim)
	if !ok || delim != '{' {
		return fmt.Errorf("%w: mapping must be a JSON object", ErrInvalidColumnMapping)
	}

	mapping := ColumnMapping{}
	for dec.More() {
		keyToken, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidColumnMapping, err)
		}
		column, _ := keyToken.(string)

		var field string
		if err := dec.Decode(&field); err != nil {
			return fmt.Errorf("%w: value for column %q must be a string", ErrInvalidColumnMapping, column)
		}
		mapping = append(mapping, ColumnMappingEntry{Column: column, Field: field})
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidColumnMapping, err)
	}

	*m = mapping
	return nil
}
