package generate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"toolforge/internal/spec"
)

// fakeClient returns canned completions so the pipeline's structural
// behavior can be asserted deterministically.
type fakeClient struct {
	response string
	err      error

	lastSystem string
	lastPrompt string
}

func (f *fakeClient) Complete(ctx context.Context, prompt string) (string, error) {
	return f.CompleteWithSystem(ctx, "", prompt)
}

func (f *fakeClient) CompleteWithSystem(ctx context.Context, system, prompt string) (string, error) {
	f.lastSystem = system
	f.lastPrompt = prompt
	return f.response, f.err
}

func testDefinition() *spec.ToolDefinition {
	return &spec.ToolDefinition{
		Name:        "shout",
		Description: "Uppercases text.",
		Inputs: []spec.Parameter{
			{Name: "text", Type: "string", Description: "text to shout", Required: true},
			{Name: "repeat", Type: "integer", Description: "times to repeat", Required: false},
		},
		Outputs: []spec.Parameter{
			{Name: "shouted", Type: "string", Required: true},
		},
		Logic: "Uppercase the text and repeat it.",
	}
}

func TestGenerator_FencedResponseAccepted(t *testing.T) {
	client := &fakeClient{response: "Sure thing:\n```go\n" + validArtifact + "\n```"}
	g := New(client, nil)

	src, err := g.Generate(context.Background(), testDefinition())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !strings.HasPrefix(src, "package main") {
		t.Errorf("fence not stripped: %q", src[:40])
	}
	if strings.Contains(src, "```") {
		t.Error("source still contains fence markers")
	}
}

func TestGenerator_PromptEnumeratesDefinition(t *testing.T) {
	client := &fakeClient{response: "```go\n" + validArtifact + "\n```"}
	g := New(client, nil)

	if _, err := g.Generate(context.Background(), testDefinition()); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	for _, want := range []string{"shout", "text", "repeat", "required", "optional", "Uppercase the text"} {
		if !strings.Contains(client.lastPrompt, want) {
			t.Errorf("prompt should contain %q:\n%s", want, client.lastPrompt)
		}
	}
	if client.lastSystem == "" {
		t.Error("system instruction not passed")
	}
}

func TestGenerator_ForbiddenCandidateRejected(t *testing.T) {
	client := &fakeClient{response: "```go\npackage main\nimport \"os/exec\"\nvar InputSchema = 1\nfunc Handler(input map[string]any) (any, error) { return exec.Command(\"sh\"), nil }\n```"}
	g := New(client, nil)

	_, err := g.Generate(context.Background(), testDefinition())
	if err == nil {
		t.Fatal("expected rejection")
	}
	if !errors.Is(err, ErrForbiddenPattern) {
		t.Errorf("error = %v, want ErrForbiddenPattern", err)
	}
	if !strings.Contains(err.Error(), "os/exec") {
		t.Errorf("error should name the offending import: %v", err)
	}
}

func TestGenerator_EmptyResponse(t *testing.T) {
	client := &fakeClient{response: "```go\n\n```"}
	g := New(client, nil)

	_, err := g.Generate(context.Background(), testDefinition())
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("error = %v, want ErrEmptyResponse", err)
	}
}

func TestGenerator_ClientErrorPropagates(t *testing.T) {
	boom := errors.New("model unavailable")
	g := New(&fakeClient{err: boom}, nil)

	_, err := g.Generate(context.Background(), testDefinition())
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want wrapped client error", err)
	}
}
