package generate

import (
	"errors"
	"strings"
	"testing"
)

const validArtifact = `package main

import (
	"strings"

	"schema"
)

var InputSchema = schema.Object(
	schema.String("text", "text to shout").Require(),
)

func Handler(input map[string]any) (any, error) {
	text, _ := input["text"].(string)
	return strings.ToUpper(text), nil
}
`

func TestValidateSource_Accepts(t *testing.T) {
	if err := ValidateSource(validArtifact); err != nil {
		t.Fatalf("valid artifact rejected: %v", err)
	}
}

func TestValidateSource_Rejections(t *testing.T) {
	cases := []struct {
		name     string
		src      string
		sentinel error
		mention  string
	}{
		{
			name:     "syntax error",
			src:      "package main\nfunc Handler( {",
			sentinel: ErrSyntax,
		},
		{
			name:     "wrong package",
			src:      "package tool\nvar InputSchema = 1\nfunc Handler(input map[string]any) (any, error) { return nil, nil }",
			sentinel: ErrSyntax,
			mention:  "main",
		},
		{
			name:     "forbidden import",
			src:      "package main\nimport \"os\"\nvar InputSchema = 1\nfunc Handler(input map[string]any) (any, error) { return os.Getenv(\"X\"), nil }",
			sentinel: ErrForbiddenPattern,
			mention:  `"os"`,
		},
		{
			name:     "denied selector without import",
			src:      "package main\nvar os anyPkg\nvar InputSchema = 1\nfunc Handler(input map[string]any) (any, error) { return os.ReadFile, nil }",
			sentinel: ErrForbiddenPattern,
			mention:  "os.ReadFile",
		},
		{
			name:     "goroutine",
			src:      "package main\nvar InputSchema = 1\nfunc Handler(input map[string]any) (any, error) { go func() {}(); return nil, nil }",
			sentinel: ErrForbiddenPattern,
			mention:  "go statement",
		},
		{
			name:     "dot import",
			src:      "package main\nimport . \"strings\"\nvar InputSchema = 1\nfunc Handler(input map[string]any) (any, error) { return ToUpper(\"x\"), nil }",
			sentinel: ErrForbiddenPattern,
		},
		{
			name:     "missing InputSchema",
			src:      "package main\nfunc Handler(input map[string]any) (any, error) { return nil, nil }",
			sentinel: ErrMissingExport,
			mention:  "InputSchema",
		},
		{
			name:     "missing Handler",
			src:      "package main\nvar InputSchema = 1",
			sentinel: ErrMissingExport,
			mention:  "Handler",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateSource(tc.src)
			if err == nil {
				t.Fatal("expected rejection")
			}
			if !errors.Is(err, tc.sentinel) {
				t.Errorf("error = %v, want sentinel %v", err, tc.sentinel)
			}
			if tc.mention != "" && !strings.Contains(err.Error(), tc.mention) {
				t.Errorf("error %q should name %q", err, tc.mention)
			}
		})
	}
}

func TestExtractCodeBlock(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"go fence", "Here you go:\n```go\npackage main\n```\nDone.", "package main"},
		{"bare fence", "```\npackage main\n```", "package main"},
		{"no fence", "  package main  ", "package main"},
		{"unclosed fence", "```go\npackage main", "```go\npackage main"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractCodeBlock(tc.in, "go"); got != tc.want {
				t.Errorf("ExtractCodeBlock = %q, want %q", got, tc.want)
			}
		})
	}
}
