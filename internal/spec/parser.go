package spec

import (
	"regexp"
	"strings"
)

// section identifiers used while scanning a specification.
const (
	sectionNone        = ""
	sectionDescription = "description"
	sectionInputs      = "inputs"
	sectionOutputs     = "outputs"
	sectionLogic       = "logic"
)

// bulletRe matches parameter bullets: "- name (type): description".
// The type annotation and the description are both optional.
var bulletRe = regexp.MustCompile(`^-\s*([A-Za-z0-9_.\-]+)\s*(?:\(([^)]*)\))?\s*:?\s*(.*)$`)

// Parse turns raw specification text into a ToolDefinition. It never fails:
// unrecognized lines are ignored and absent sections yield empty slices.
func Parse(raw, name, specPath, artifactPath string) *ToolDefinition {
	def := &ToolDefinition{
		Name:         name,
		SpecPath:     specPath,
		ArtifactPath: artifactPath,
	}

	var desc, logic []string
	section := sectionNone

	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)

		if sec, rest, ok := matchHeader(trimmed); ok {
			section = sec
			if rest == "" {
				continue
			}
			// Content on the header line itself belongs to the section.
			trimmed = rest
			line = rest
		}

		switch section {
		case sectionDescription:
			if trimmed != "" {
				desc = append(desc, trimmed)
			}
		case sectionInputs:
			if p, ok := parseBullet(trimmed); ok {
				def.Inputs = append(def.Inputs, p)
			}
		case sectionOutputs:
			if p, ok := parseBullet(trimmed); ok {
				def.Outputs = append(def.Outputs, p)
			}
		case sectionLogic:
			logic = append(logic, line)
		}
	}

	def.Description = strings.Join(desc, " ")
	def.Logic = strings.TrimSpace(strings.Join(logic, "\n"))

	if def.Description == "" {
		def.Description = firstSentence(def.Logic)
	}

	return def
}

// matchHeader recognizes the case-insensitive section headers and returns
// the section plus any content following the colon on the same line.
func matchHeader(line string) (section, rest string, ok bool) {
	lower := strings.ToLower(line)
	// Longer variants first so "inputs:" is not split by the "input:" prefix.
	headers := []struct {
		prefix  string
		section string
	}{
		{"description:", sectionDescription},
		{"inputs:", sectionInputs},
		{"input:", sectionInputs},
		{"outputs:", sectionOutputs},
		{"output:", sectionOutputs},
		{"logic:", sectionLogic},
	}
	for _, h := range headers {
		if strings.HasPrefix(lower, h.prefix) {
			return h.section, strings.TrimSpace(line[len(h.prefix):]), true
		}
	}
	return sectionNone, "", false
}

// parseBullet parses one "- name (type): description" line. A parameter is
// optional when either the type annotation or the description contains the
// word "optional", case-insensitive.
func parseBullet(line string) (Parameter, bool) {
	if !strings.HasPrefix(line, "-") {
		return Parameter{}, false
	}
	m := bulletRe.FindStringSubmatch(line)
	if m == nil || m[1] == "" {
		return Parameter{}, false
	}

	p := Parameter{
		Name:        m[1],
		Type:        strings.TrimSpace(m[2]),
		Description: strings.TrimSpace(m[3]),
		Required:    true,
	}
	if containsOptional(p.Type) || containsOptional(p.Description) {
		p.Required = false
	}
	return p, true
}

func containsOptional(s string) bool {
	return strings.Contains(strings.ToLower(s), "optional")
}

// firstSentence returns the text up to and including the first period, used
// to synthesize a description from the logic section.
func firstSentence(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	if s == "" {
		return ""
	}
	if idx := strings.Index(s, ". "); idx != -1 {
		return s[:idx+1]
	}
	if strings.HasSuffix(s, ".") {
		return s
	}
	return s
}
