package registry

import (
	"context"

	"go.uber.org/zap"
)

// Citation is one source reference extracted from tool output.
type Citation struct {
	Title   string `json:"title,omitempty"`
	URL     string `json:"url,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// CitationExtractor pulls source references out of successful tool results.
// The implementation lives outside this package.
type CitationExtractor interface {
	Extract(ctx context.Context, results []ToolResult) ([]Citation, error)
}

// ExecuteToolsWithCitations runs the batch like ExecuteTools, then passes
// the successful results through the extractor. Extraction failure degrades
// to results without citations.
func (r *Registry) ExecuteToolsWithCitations(ctx context.Context, extractor CitationExtractor, reqs []ToolRequest) ([]ToolResult, []Citation) {
	results := r.ExecuteTools(ctx, reqs)
	if extractor == nil {
		return results, nil
	}

	successes := make([]ToolResult, 0, len(results))
	for _, res := range results {
		if res.Success {
			successes = append(successes, res)
		}
	}
	if len(successes) == 0 {
		return results, nil
	}

	citations, err := extractor.Extract(ctx, successes)
	if err != nil {
		r.logger.Warn("citation extraction failed", zap.Error(err))
		return results, nil
	}
	return results, citations
}
