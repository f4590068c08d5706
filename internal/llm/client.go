// Package llm abstracts the text-generation service used to turn tool
// definitions into source code. The generator depends only on the Client
// interface; tests supply deterministic fakes and the CLI wires the Gemini
// implementation.
package llm

import "context"

// Client is the injected text-generation service.
type Client interface {
	// Complete sends a single user prompt.
	Complete(ctx context.Context, prompt string) (string, error)

	// CompleteWithSystem sends a user prompt under a fixed system
	// instruction. Implementations cap the response at their configured
	// token budget.
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
