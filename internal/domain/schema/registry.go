// Package schema holds the per-entity validation rules applied to every
// mapped spreadsheet row before anything is written.
package schema

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	domain "github.com/bizadmin/record-import/internal/domain/dataimport"
	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"
)

type FieldKind string

const (
	KindString FieldKind = "string"
	KindEmail  FieldKind = "email"
	KindNumber FieldKind = "number"
	KindDate   FieldKind = "date"
	KindEnum   FieldKind = "enum"
)

const defaultMaxLen = 255

type FieldRule struct {
	Name     string    `json:"name"`
	Kind     FieldKind `json:"kind"`
	Required bool      `json:"required"`
	MaxLen   int       `json:"max_length,omitempty"`
	Min      *float64  `json:"min,omitempty"`
	Max      *float64  `json:"max,omitempty"`
	Values   []string  `json:"values,omitempty"`
}

type Violation struct {
	Field   string
	Message string
}

type Ruleset struct {
	Entity domain.EntityType
	Fields []FieldRule
}

type Registry struct {
	rulesets map[domain.EntityType]Ruleset
}

var formats = validator.New()

func NewRegistry(rulesets ...Ruleset) *Registry {
	registry := &Registry{rulesets: make(map[domain.EntityType]Ruleset, len(rulesets))}
	for _, ruleset := range rulesets {
		registry.rulesets[ruleset.Entity] = ruleset
	}
	return registry
}

func (r *Registry) Ruleset(entity domain.EntityType) (Ruleset, error) {
	ruleset, ok := r.rulesets[entity]
	if !ok {
		return Ruleset{}, fmt.Errorf("%w: %q", domain.ErrInvalidEntityType, entity)
	}
	return ruleset, nil
}

func (r *Registry) Validate(entity domain.EntityType, row domain.MappedRow) (domain.ValidRow, []Violation) {
	ruleset, err := r.Ruleset(entity)
	if err != nil {
		return nil, []Violation{{Message: err.Error()}}
	}
	return ruleset.Validate(row)
}

func (s Ruleset) Field(name string) (FieldRule, bool) {
	for _, rule := range s.Fields {
		if rule.Name == name {
			return rule, true
		}
	}
	return FieldRule{}, false
}

// Validate checks row against every rule. The returned row is only
// meaningful when no violations are reported.
func (s Ruleset) Validate(row domain.MappedRow) (domain.ValidRow, []Violation) {
	valid := make(domain.ValidRow, len(row))
	var violations []Violation

	for _, rule := range s.Fields {
		raw, present := row[rule.Name]
		raw = strings.TrimSpace(raw)
		if !present || raw == "" {
			if rule.Required {
				violations = append(violations, Violation{Field: rule.Name, Message: rule.Name + " is required"})
			}
			continue
		}

		value, message := rule.convert(raw)
		if message != "" {
			violations = append(violations, Violation{Field: rule.Name, Message: rule.Name + " " + message})
			continue
		}
		valid[rule.Name] = value
	}

	unknown := make([]string, 0)
	for name := range row {
		if _, ok := s.Field(name); !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		violations = append(violations, Violation{
			Field:   name,
			Message: fmt.Sprintf("%s is not a recognised field for %s", name, s.Entity),
		})
	}

	return valid, violations
}

func (f FieldRule) convert(raw string) (any, string) {
	switch f.Kind {
	case KindEmail:
		if err := formats.Var(raw, "email"); err != nil {
			return nil, "must be a valid email address"
		}
		return strings.ToLower(raw), ""
	case KindNumber:
		number, err := parseNumber(raw)
		if err != nil {
			return nil, "must be a number"
		}
		if f.Min != nil && number < *f.Min {
			return nil, "must be greater than or equal to " + strconv.FormatFloat(*f.Min, 'f', -1, 64)
		}
		if f.Max != nil && number > *f.Max {
			return nil, "must be less than or equal to " + strconv.FormatFloat(*f.Max, 'f', -1, 64)
		}
		return number, ""
	case KindDate:
		date, err := parseDate(raw)
		if err != nil {
			return nil, "must be a date (YYYY-MM-DD or DD/MM/YYYY)"
		}
		return date, ""
	case KindEnum:
		for _, allowed := range f.Values {
			if strings.EqualFold(allowed, raw) {
				return allowed, ""
			}
		}
		return nil, "must be one of: " + strings.Join(f.Values, ", ")
	default:
		limit := f.MaxLen
		if limit <= 0 {
			limit = defaultMaxLen
		}
		if len([]rune(raw)) > limit {
			return nil, fmt.Sprintf("must be at most %d characters", limit)
		}
		return raw, ""
	}
}

func parseNumber(raw string) (float64, error) {
	cleaned := strings.ReplaceAll(raw, " ", "")
	if strings.Contains(cleaned, ",") && !strings.Contains(cleaned, ".") {
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}
	number, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(number) || math.IsInf(number, 0) {
		return 0, fmt.Errorf("non-finite number %q", raw)
	}
	return number, nil
}

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// maxExcelSerial is 9999-12-31 as an Excel day number.
const maxExcelSerial = 2958465

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), nil
		}
	}

	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil || serial < 1 || serial > maxExcelSerial {
		return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
	}
	return excelize.ExcelDateToTime(serial, false)
}
