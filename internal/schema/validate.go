package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FieldError reports one validation violation with the offending field path.
type FieldError struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

func (e FieldError) Error() string {
	return e.Path + ": " + e.Reason
}

// Validate checks input against the schema and returns every violation, not
// just the first. A nil input is treated as an empty object.
func (s *Schema) Validate(input map[string]any) []FieldError {
	var errs []FieldError

	for _, f := range s.Fields {
		v, present := input[f.Name]
		if !present {
			if f.Required {
				errs = append(errs, FieldError{Path: f.Name, Reason: "required field is missing"})
			}
			continue
		}
		if reason := checkType(f, v); reason != "" {
			errs = append(errs, FieldError{Path: f.Name, Reason: reason})
		}
	}

	return errs
}

// FormatErrors renders all violations as one human-readable string.
func FormatErrors(errs []FieldError) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// checkType returns a non-empty reason when v does not satisfy the field
// type. Nulls are rejected for typed fields; use TypeAny for nullable input.
func checkType(f Field, v any) string {
	if f.Type == TypeAny {
		return ""
	}
	if v == nil {
		return fmt.Sprintf("expected %s, got null", f.Type)
	}

	switch f.Type {
	case TypeString:
		if _, ok := v.(string); !ok {
			return fmt.Sprintf("expected string, got %s", typeName(v))
		}
	case TypeNumber:
		if !isNumber(v) {
			return fmt.Sprintf("expected number, got %s", typeName(v))
		}
	case TypeInteger:
		if !isInteger(v) {
			return fmt.Sprintf("expected integer, got %s", typeName(v))
		}
	case TypeBoolean:
		if _, ok := v.(bool); !ok {
			return fmt.Sprintf("expected boolean, got %s", typeName(v))
		}
	case TypeArray:
		items, ok := v.([]any)
		if !ok {
			return fmt.Sprintf("expected array, got %s", typeName(v))
		}
		if f.Items != "" {
			elem := Field{Name: f.Name, Type: f.Items}
			for i, item := range items {
				if reason := checkType(elem, item); reason != "" {
					return fmt.Sprintf("element %d: %s", i, reason)
				}
			}
		}
	case TypeObject:
		if _, ok := v.(map[string]any); !ok {
			return fmt.Sprintf("expected object, got %s", typeName(v))
		}
	}
	return ""
}

func isNumber(v any) bool {
	switch n := v.(type) {
	case float64, float32, int, int32, int64:
		return true
	case json.Number:
		_, err := n.Float64()
		return err == nil
	default:
		return false
	}
}

func isInteger(v any) bool {
	switch n := v.(type) {
	case int, int32, int64:
		return true
	case float64:
		return n == float64(int64(n))
	case float32:
		return n == float32(int64(n))
	case json.Number:
		_, err := n.Int64()
		return err == nil
	default:
		return false
	}
}

// typeName names the concrete JSON-ish type of v for error messages.
func typeName(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int32, int64, json.Number:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}
