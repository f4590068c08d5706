package spec

import (
	"testing"

	"toolforge/internal/schema"
)

func TestParse_FullSpec(t *testing.T) {
	raw := `Description: Converts temperatures between units.

Inputs:
- value (number): the temperature to convert
- from (string): source unit, C or F
- precision (integer, optional): decimal places in the result

Outputs:
- result (number): the converted temperature

Logic:
If from is C, apply F = C*9/5+32, otherwise the inverse.
Round to precision decimal places when provided.`

	def := Parse(raw, "convert_temp", "/specs/convert_temp.tool", "/tools/convert_temp.go")

	if def.Name != "convert_temp" {
		t.Errorf("Name = %q, want convert_temp", def.Name)
	}
	if def.Description != "Converts temperatures between units." {
		t.Errorf("Description = %q", def.Description)
	}
	if len(def.Inputs) != 3 {
		t.Fatalf("len(Inputs) = %d, want 3", len(def.Inputs))
	}
	if def.Inputs[0].Name != "value" || def.Inputs[0].Type != "number" || !def.Inputs[0].Required {
		t.Errorf("Inputs[0] = %+v", def.Inputs[0])
	}
	if def.Inputs[2].Name != "precision" || def.Inputs[2].Required {
		t.Errorf("precision should be optional, got %+v", def.Inputs[2])
	}
	if len(def.Outputs) != 1 || def.Outputs[0].Name != "result" {
		t.Errorf("Outputs = %+v", def.Outputs)
	}
	if def.Logic == "" {
		t.Error("Logic is empty")
	}
}

func TestParse_CaseInsensitiveHeaders(t *testing.T) {
	raw := `DESCRIPTION: Shouts text.
INPUT:
- text: what to shout
output:
- shouted (string)
LOGIC: Uppercase the text.`

	def := Parse(raw, "shout", "", "")
	if def.Description != "Shouts text." {
		t.Errorf("Description = %q", def.Description)
	}
	if len(def.Inputs) != 1 || def.Inputs[0].Name != "text" {
		t.Errorf("Inputs = %+v", def.Inputs)
	}
	if len(def.Outputs) != 1 || def.Outputs[0].Name != "shouted" {
		t.Errorf("Outputs = %+v", def.Outputs)
	}
	if def.Logic != "Uppercase the text." {
		t.Errorf("Logic = %q", def.Logic)
	}
}

func TestParse_OptionalViaDescription(t *testing.T) {
	raw := `Inputs:
- limit (integer): optional cap on results`

	def := Parse(raw, "t", "", "")
	if len(def.Inputs) != 1 {
		t.Fatalf("len(Inputs) = %d", len(def.Inputs))
	}
	if def.Inputs[0].Required {
		t.Error("limit should be optional when the description says optional")
	}
}

func TestParse_MalformedNeverPanics(t *testing.T) {
	cases := []string{
		"",
		"just some prose with no sections at all",
		"Inputs:\n- \n- (:\n-- weird",
		"Description:",
		"Logic:\n\n\n",
	}
	for _, raw := range cases {
		def := Parse(raw, "x", "", "")
		if def == nil {
			t.Fatalf("Parse returned nil for %q", raw)
		}
	}
}

func TestParse_DescriptionSynthesizedFromLogic(t *testing.T) {
	raw := `Logic:
Reverse the input string. Preserve unicode code points.`

	def := Parse(raw, "reverse", "", "")
	if def.Description != "Reverse the input string." {
		t.Errorf("Description = %q, want first sentence of logic", def.Description)
	}
}

func TestParse_LinesOutsideSectionsIgnored(t *testing.T) {
	raw := `This preamble is not in any section.
- neither is this bullet
Inputs:
- a (string): real input`

	def := Parse(raw, "t", "", "")
	if len(def.Inputs) != 1 || def.Inputs[0].Name != "a" {
		t.Errorf("Inputs = %+v, want only the in-section bullet", def.Inputs)
	}
}

func TestToolDefinition_InputSchema(t *testing.T) {
	def := &ToolDefinition{
		Name: "t",
		Inputs: []Parameter{
			{Name: "text", Type: "string", Required: true},
			{Name: "count", Type: "number, optional", Required: false},
			{Name: "flags", Type: "list", Required: false},
			{Name: "mystery", Type: "whatever", Required: false},
		},
	}

	s := def.InputSchema()
	if len(s.Fields) != 4 {
		t.Fatalf("len(Fields) = %d", len(s.Fields))
	}
	want := []string{schema.TypeString, schema.TypeNumber, schema.TypeArray, schema.TypeAny}
	for i, w := range want {
		if s.Fields[i].Type != w {
			t.Errorf("Fields[%d].Type = %q, want %q", i, s.Fields[i].Type, w)
		}
	}
	if !s.Fields[0].Required || s.Fields[1].Required {
		t.Error("required flags not carried over")
	}
}
