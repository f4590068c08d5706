package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"toolforge/internal/registry"
	"toolforge/internal/schema"
)

// registerBuiltins installs the host-provided native tools. These are the
// unprefixed names in the catalog; generated tools cannot shadow them.
func registerBuiltins(reg *registry.Registry) error {
	builtins := []*registry.NativeTool{
		{
			Name:        "echo",
			Description: "Returns the provided text unchanged.",
			Schema: schema.Object(
				schema.String("text", "text to echo back").Require(),
			),
			Handler: func(ctx context.Context, params map[string]any) (any, error) {
				text, _ := params["text"].(string)
				return text, nil
			},
		},
		{
			Name:        "current_time",
			Description: "Returns the current time, optionally in a named IANA timezone.",
			Schema: schema.Object(
				schema.String("timezone", "IANA timezone name, defaults to UTC"),
			),
			Handler: func(ctx context.Context, params map[string]any) (any, error) {
				loc := time.UTC
				if tz, ok := params["timezone"].(string); ok && tz != "" {
					var err error
					loc, err = time.LoadLocation(tz)
					if err != nil {
						return nil, fmt.Errorf("unknown timezone %q: %w", tz, err)
					}
				}
				return time.Now().In(loc).Format(time.RFC3339), nil
			},
		},
		{
			Name:        "word_count",
			Description: "Counts words, lines, and characters in the provided text.",
			Schema: schema.Object(
				schema.String("text", "text to analyze").Require(),
			),
			Handler: func(ctx context.Context, params map[string]any) (any, error) {
				text, _ := params["text"].(string)
				return map[string]any{
					"words": len(strings.Fields(text)),
					"lines": len(strings.Split(text, "\n")),
					"chars": len([]rune(text)),
				}, nil
			},
		},
	}
	for _, t := range builtins {
		if err := reg.RegisterNative(t); err != nil {
			return err
		}
	}
	return nil
}
