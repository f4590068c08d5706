package generate

import (
	"fmt"
	"strings"

	"toolforge/internal/spec"
)

// systemInstruction is the fixed system prompt for tool code generation.
// It pins the artifact contract: exactly two exports, allowlisted imports,
// errors instead of panics.
const systemInstruction = `You generate Go source code for a sandboxed tool interpreter.

The code you produce is interpreted, never compiled into the host. It MUST
follow this contract exactly:

1. Declare "package main".
2. Export exactly two symbols:
   - var InputSchema = schema.Object(...) describing the accepted input,
     built only from the schema package: schema.String(name, description),
     schema.Number, schema.Integer, schema.Boolean, schema.Array(name,
     description, itemType), schema.Map, schema.Any. Mark mandatory fields
     with .Require(), e.g. schema.String("text", "the text").Require().
   - func Handler(input map[string]any) (any, error) implementing the tool.
3. Imports are limited to: strings, strconv, fmt, math, regexp, sort, bytes,
   unicode, unicode/utf8, errors, time, encoding/json, encoding/base64,
   encoding/hex, schema, toollog.
4. Never touch the filesystem, network, environment, processes, reflection,
   or unsafe. Never start goroutines. Do not call panic; return an error
   instead. toollog.Info/Warn/Error are available for diagnostics.
5. Input values arrive as JSON types: numbers are float64, arrays are
   []any, objects are map[string]any.

Respond with a single Go source file and nothing else.`

// buildPrompt renders one definition into the user prompt.
func buildPrompt(def *spec.ToolDefinition) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Generate the tool %q.\n\n", def.Name)
	if def.Description != "" {
		fmt.Fprintf(&sb, "Description: %s\n\n", def.Description)
	}

	writeParams(&sb, "Inputs", def.Inputs)
	writeParams(&sb, "Outputs", def.Outputs)

	if def.Logic != "" {
		fmt.Fprintf(&sb, "Logic:\n%s\n\n", def.Logic)
	}

	sb.WriteString("Produce the complete artifact now: package main, var InputSchema, func Handler.")
	return sb.String()
}

func writeParams(sb *strings.Builder, label string, params []spec.Parameter) {
	if len(params) == 0 {
		return
	}
	fmt.Fprintf(sb, "%s:\n", label)
	for _, p := range params {
		req := "required"
		if !p.Required {
			req = "optional"
		}
		typ := p.Type
		if typ == "" {
			typ = "string"
		}
		fmt.Fprintf(sb, "- %s (%s, %s): %s\n", p.Name, typ, req, p.Description)
	}
	sb.WriteString("\n")
}
