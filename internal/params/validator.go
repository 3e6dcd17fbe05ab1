package params

import (
	"fmt"
	"strings"

	"aura/internal/tool"
)

// FieldError describes one problem with one parameter.
type FieldError struct {
	Field  string `json:"field"`
	Value  any    `json:"value,omitempty"`
	Reason string `json:"reason"`
}

// Report partitions validation failures into fields that were absent and
// fields that were present but violated a constraint. A nil-free empty
// report means the parameter set is valid.
type Report struct {
	Missing []FieldError `json:"missing,omitempty"`
	Invalid []FieldError `json:"invalid,omitempty"`
}

// OK reports whether validation passed.
func (r *Report) OK() bool {
	return len(r.Missing) == 0 && len(r.Invalid) == 0
}

// Summary renders the report as a single human-readable line.
func (r *Report) Summary() string {
	var parts []string
	for _, e := range r.Missing {
		parts = append(parts, fmt.Sprintf("%s is required", e.Field))
	}
	for _, e := range r.Invalid {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Reason))
	}
	return strings.Join(parts, "; ")
}

// Validate walks the tool's parameter contract field by field. Every
// field is checked (no fail-fast across fields), but per field the first
// failing constraint wins. The returned map holds the normalized
// parameter set with contract defaults filled in for absent optional
// fields; it is only meaningful when the report is OK.
func Validate(def *tool.Definition, raw map[string]any) (map[string]any, *Report) {
	report := &Report{}
	out := make(map[string]any, len(def.Contract))

	for _, field := range def.Contract {
		value, present := raw[field.Name]
		if !present || value == nil {
			if field.Required {
				report.Missing = append(report.Missing, FieldError{
					Field:  field.Name,
					Reason: "required parameter was not found in the input",
				})
			} else if field.Default != nil {
				out[field.Name] = field.Default
			}
			continue
		}

		normalized, reason := checkField(field, value)
		if reason != "" {
			report.Invalid = append(report.Invalid, FieldError{
				Field:  field.Name,
				Value:  value,
				Reason: reason,
			})
			continue
		}
		out[field.Name] = normalized
	}

	return out, report
}

// checkField applies the declared type and constraints in the documented
// order: type, length bounds, numeric bounds, pattern, enumeration. It
// returns the normalized value and an empty reason on success.
func checkField(field tool.Field, value any) (any, string) {
	switch field.Type {
	case tool.TypeNumber:
		n, ok := toNumber(value)
		if !ok {
			return nil, fmt.Sprintf("expected a number, got %T", value)
		}
		if field.Min != nil && n < *field.Min {
			return nil, fmt.Sprintf("must be at least %v", *field.Min)
		}
		if field.Max != nil && n > *field.Max {
			return nil, fmt.Sprintf("must be at most %v", *field.Max)
		}
		return n, ""

	case tool.TypeStringList:
		list, ok := toStringList(value)
		if !ok {
			return nil, fmt.Sprintf("expected a list of strings, got %T", value)
		}
		if field.MinLen > 0 && len(list) < field.MinLen {
			return nil, fmt.Sprintf("must contain at least %d entries", field.MinLen)
		}
		if field.MaxLen > 0 && len(list) > field.MaxLen {
			return nil, fmt.Sprintf("must contain at most %d entries", field.MaxLen)
		}
		return list, ""

	default: // tool.TypeString
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Sprintf("expected a string, got %T", value)
		}
		if field.MinLen > 0 && len(s) < field.MinLen {
			return nil, fmt.Sprintf("must be at least %d characters", field.MinLen)
		}
		if field.MaxLen > 0 && len(s) > field.MaxLen {
			return nil, fmt.Sprintf("must be at most %d characters", field.MaxLen)
		}
		if field.Pattern != nil && !field.Pattern.MatchString(s) {
			return nil, fmt.Sprintf("does not match the required pattern %s", field.PatternSrc)
		}
		if len(field.Enum) > 0 && !contains(field.Enum, s) {
			return nil, fmt.Sprintf("must be one of: %s", strings.Join(field.Enum, ", "))
		}
		return s, ""
	}
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func toStringList(v any) ([]string, bool) {
	switch list := v.(type) {
	case []string:
		return list, true
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
