// Package generate turns parsed tool definitions into validated sandbox
// artifacts. It owns prompt construction, code-fence extraction, and the
// static validation gate; it never executes candidate code.
package generate

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"toolforge/internal/llm"
	"toolforge/internal/spec"
)

// Generator produces validated artifact source from tool definitions.
type Generator struct {
	client llm.Client
	logger *zap.Logger
}

// New creates a Generator on the injected text-generation client.
func New(client llm.Client, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{client: client, logger: logger.Named("generate")}
}

// Generate builds the prompt for def, calls the model, strips any enclosing
// code fence, and statically validates the candidate. On any failure the
// caller's previous artifact must be left untouched; Generate only returns
// source that passed every check.
func (g *Generator) Generate(ctx context.Context, def *spec.ToolDefinition) (string, error) {
	g.logger.Info("generating tool code",
		zap.String("tool", def.Name),
		zap.Int("inputs", len(def.Inputs)),
		zap.Int("outputs", len(def.Outputs)))

	raw, err := g.client.CompleteWithSystem(ctx, systemInstruction, buildPrompt(def))
	if err != nil {
		return "", fmt.Errorf("code generation for %s failed: %w", def.Name, err)
	}

	src := ExtractCodeBlock(raw, "go")
	if strings.TrimSpace(src) == "" {
		return "", fmt.Errorf("%w for tool %s", ErrEmptyResponse, def.Name)
	}

	if err := ValidateSource(src); err != nil {
		g.logger.Warn("candidate rejected",
			zap.String("tool", def.Name),
			zap.Error(err))
		return "", fmt.Errorf("candidate for %s rejected: %w", def.Name, err)
	}

	g.logger.Info("candidate validated",
		zap.String("tool", def.Name),
		zap.Int("bytes", len(src)))
	return src, nil
}

// ExtractCodeBlock strips an enclosing markdown fence if the model wrapped
// its answer in one; otherwise the trimmed text is returned as-is.
func ExtractCodeBlock(text, lang string) string {
	patterns := []string{
		"```" + lang + "\n",
		"```" + lang + "\r\n",
		"```\n",
	}

	for _, pattern := range patterns {
		if idx := strings.Index(text, pattern); idx != -1 {
			start := idx + len(pattern)
			if end := strings.Index(text[start:], "```"); end != -1 {
				return strings.TrimSpace(text[start : start+end])
			}
		}
	}

	return strings.TrimSpace(text)
}
