// Package spec parses human-authored tool specification files into
// structured tool definitions.
//
// A specification is plain text with four recognized section headers
// (Description:, Input:/Inputs:, Output:/Outputs:, Logic:) and parameter
// bullets of the form "- name (type): description". The parser is
// deliberately tolerant: a half-written file yields a definition with empty
// sections instead of an error, so the watcher never crashes on a spec
// someone is still typing.
package spec

import (
	"strings"
	"time"

	"toolforge/internal/schema"
)

// Parameter is a single declared input or output of a tool.
type Parameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// ToolDefinition is the parsed form of one specification file.
// It is created when a spec first parses, mutated on every successful
// regeneration, and dropped when the spec file is removed.
type ToolDefinition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Inputs      []Parameter `json:"inputs"`
	Outputs     []Parameter `json:"outputs"`
	Logic       string      `json:"logic"`

	// SpecPath is the source specification file; ArtifactPath is where the
	// generated code for this tool lives (or will live).
	SpecPath     string `json:"spec_path"`
	ArtifactPath string `json:"artifact_path"`

	GeneratedAt time.Time `json:"generated_at,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
}

// InputSchema builds the declared input schema for the catalog. The schema
// eventually enforced at invocation time is the one exported by the
// generated artifact; this one describes intent to the calling LLM.
func (d *ToolDefinition) InputSchema() *schema.Schema {
	fields := make([]schema.Field, 0, len(d.Inputs))
	for _, p := range d.Inputs {
		f := schema.Field{
			Name:        p.Name,
			Type:        normalizeType(p.Type),
			Description: p.Description,
			Required:    p.Required,
		}
		fields = append(fields, f)
	}
	return schema.Object(fields...)
}

// normalizeType maps free-form declared types onto schema types.
// Annotations like "number, optional" carry the optionality flag in the
// parser; here only the base type matters.
func normalizeType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	t = strings.ReplaceAll(t, "optional", "")
	t = strings.Trim(t, " ,")
	switch t {
	case "string", "str", "text", "":
		return schema.TypeString
	case "number", "float", "float64", "double":
		return schema.TypeNumber
	case "int", "integer", "int64":
		return schema.TypeInteger
	case "bool", "boolean":
		return schema.TypeBoolean
	case "array", "list", "[]string", "[]any":
		return schema.TypeArray
	case "object", "map", "dict", "json":
		return schema.TypeObject
	default:
		return schema.TypeAny
	}
}
