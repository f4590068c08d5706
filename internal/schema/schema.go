// Package schema is the input-schema model shared between the host and
// sandboxed tool code. Generated artifacts construct their InputSchema with
// the builders here; the sandbox executor validates caller input against it
// before the handler runs. The same model renders to the JSON-schema shape
// the calling LLM sees in the tool catalog.
package schema

// Schema types. TypeAny skips type checking for the field.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
	TypeAny     = "any"
)

// Field describes one accepted input property.
type Field struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`

	// Items is the element type when Type is TypeArray; empty means any.
	Items string `json:"items,omitempty"`
}

// Schema describes the accepted input object for a tool invocation.
type Schema struct {
	Fields []Field `json:"fields"`
}

// Object builds a schema from the given fields. Field order is preserved and
// determines the order of validation messages.
func Object(fields ...Field) *Schema {
	return &Schema{Fields: fields}
}

// String declares a string field. Fields are optional until Require is
// applied.
func String(name, description string) Field {
	return Field{Name: name, Type: TypeString, Description: description}
}

// Number declares a floating-point field.
func Number(name, description string) Field {
	return Field{Name: name, Type: TypeNumber, Description: description}
}

// Integer declares an integer field.
func Integer(name, description string) Field {
	return Field{Name: name, Type: TypeInteger, Description: description}
}

// Boolean declares a boolean field.
func Boolean(name, description string) Field {
	return Field{Name: name, Type: TypeBoolean, Description: description}
}

// Array declares an array field with the given element type ("" for any).
func Array(name, description, items string) Field {
	return Field{Name: name, Type: TypeArray, Description: description, Items: items}
}

// Map declares a nested object field. Nested shapes are not validated.
func Map(name, description string) Field {
	return Field{Name: name, Type: TypeObject, Description: description}
}

// Any declares a field without type checking.
func Any(name, description string) Field {
	return Field{Name: name, Type: TypeAny, Description: description}
}

// Require marks the field as mandatory.
func (f Field) Require() Field {
	f.Required = true
	return f
}

// JSONSchema renders the catalog representation consumed by the calling
// LLM: {"type":"object","properties":{...},"required":[...]}.
func (s *Schema) JSONSchema() map[string]any {
	props := make(map[string]any, len(s.Fields))
	required := make([]string, 0, len(s.Fields))

	for _, f := range s.Fields {
		p := map[string]any{"description": f.Description}
		switch f.Type {
		case TypeAny:
			// No type constraint.
		case TypeArray:
			p["type"] = TypeArray
			if f.Items != "" {
				p["items"] = map[string]any{"type": f.Items}
			}
		default:
			p["type"] = f.Type
		}
		props[f.Name] = p
		if f.Required {
			required = append(required, f.Name)
		}
	}

	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}
