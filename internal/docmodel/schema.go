// Package docmodel implements the generic document-store data-access layer:
// a declarative field schema with validation and defaulting, a codec between
// epoch-millisecond integers and the store's native timestamp type, and a
// Model exposing CRUD/query operations for one collection.
package docmodel

import (
	"fmt"
	"sort"
	"strings"

	"github.com/civicdeck/backend/internal/common"
)

// Record is a document at the application boundary: field name to value,
// with all date fields as epoch milliseconds.
type Record = map[string]any

// Kind is the value type a field rule accepts.
type Kind int

const (
	KindString Kind = iota
	KindNumber // integral values, including epoch milliseconds
	KindFloat
	KindBool
	KindStringList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindStringList:
		return "string list"
	default:
		return "unknown"
	}
}

// Rule validates one field. Build rules with the helper constructors and
// chain Default / OneOf, mirroring how entity schemas declare themselves.
type Rule struct {
	Kind       Kind
	Required   bool
	HasDefault bool
	DefaultVal any
	Allowed    []any
}

// Default returns a copy of the rule with a default applied when the field
// is absent from the candidate record.
func (r Rule) Default(v any) Rule {
	r.HasDefault = true
	r.DefaultVal = v
	return r
}

// OneOf restricts the field to an explicit set of values.
func (r Rule) OneOf(values ...any) Rule {
	r.Allowed = values
	return r
}

func RequiredString() Rule { return Rule{Kind: KindString, Required: true} }
func OptionalString() Rule { return Rule{Kind: KindString} }
func RequiredNumber() Rule { return Rule{Kind: KindNumber, Required: true} }
func OptionalNumber() Rule { return Rule{Kind: KindNumber} }
func RequiredFloat() Rule  { return Rule{Kind: KindFloat, Required: true} }
func OptionalFloat() Rule  { return Rule{Kind: KindFloat} }
func OptionalBool() Rule   { return Rule{Kind: KindBool} }
func OptionalStrings() Rule {
	return Rule{Kind: KindStringList}
}

// Schema maps field names to their rules.
type Schema map[string]Rule

// Standard fields every document carries. id is assigned at creation;
// createdAt/updatedAt are stamped by the model on every write.
const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// DefaultSchema returns the rules for the standard document fields. Every
// entity schema is merged over this, so each concrete schema is a strict
// superset of it.
func DefaultSchema() Schema {
	return Schema{
		FieldID:        RequiredString(),
		FieldCreatedAt: RequiredNumber(),
		FieldUpdatedAt: RequiredNumber(),
	}
}

// Merge returns a new schema containing the receiver's rules overlaid with
// other's. Neither input is modified; declared schemas stay immutable.
func (s Schema) Merge(other Schema) Schema {
	out := make(Schema, len(s)+len(other))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Without derives a modified schema with the named fields removed. This is
// how per-operation partial validation is built: create excludes the
// server-assigned timestamps, update excludes every field not present in
// the patch.
func (s Schema) Without(fields ...string) Schema {
	out := make(Schema, len(s))
	for k, v := range s {
		out[k] = v
	}
	for _, f := range fields {
		delete(out, f)
	}
	return out
}

// Fields returns the schema's field names, sorted.
func (s Schema) Fields() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Validate checks the candidate record against the schema and returns a new
// record with defaults applied and unknown fields stripped. Validation is
// fail-fast: the first offending field (in sorted field order) aborts with
// a *common.ValidationError.
func (s Schema) Validate(rec Record) (Record, error) {
	out := make(Record, len(s))

	for _, field := range s.Fields() {
		rule := s[field]
		v, present := rec[field]

		if !present {
			if rule.HasDefault {
				out[field] = rule.DefaultVal
				continue
			}
			if rule.Required {
				return nil, common.NewValidationError(field, "required")
			}
			continue
		}

		norm, err := rule.normalize(field, v)
		if err != nil {
			return nil, err
		}
		out[field] = norm
	}

	return out, nil
}

func (r Rule) normalize(field string, v any) (any, error) {
	var norm any

	switch r.Kind {
	case KindString:
		s, ok := v.(string)
		if !ok {
			return nil, common.NewValidationError(field, "must be a string")
		}
		s = strings.TrimSpace(s)
		if r.Required && s == "" {
			return nil, common.NewValidationError(field, "required")
		}
		norm = s

	case KindNumber:
		n, ok := toInt64(v)
		if !ok {
			return nil, common.NewValidationError(field, "must be an integer")
		}
		norm = n

	case KindFloat:
		f, ok := toFloat64(v)
		if !ok {
			return nil, common.NewValidationError(field, "must be a number")
		}
		norm = f

	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, common.NewValidationError(field, "must be a boolean")
		}
		norm = b

	case KindStringList:
		list, ok := toStringList(v)
		if !ok {
			return nil, common.NewValidationError(field, "must be a list of strings")
		}
		norm = list

	default:
		return nil, common.NewValidationError(field, fmt.Sprintf("unsupported kind %v", r.Kind))
	}

	if len(r.Allowed) > 0 {
		found := false
		for _, a := range r.Allowed {
			if a == norm {
				found = true
				break
			}
		}
		if !found {
			return nil, common.NewValidationError(field, fmt.Sprintf("must be one of %v", r.Allowed))
		}
	}

	return norm, nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
		return 0, false
	default:
		return 0, false
	}
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func toStringList(v any) ([]string, bool) {
	switch list := v.(type) {
	case []string:
		return list, true
	case []any:
		out := make([]string, len(list))
		for i, e := range list {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}
