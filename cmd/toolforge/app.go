package main

import (
	"context"
	"fmt"

	"toolforge/internal/generate"
	"toolforge/internal/llm"
	"toolforge/internal/regen"
	"toolforge/internal/registry"
	"toolforge/internal/sandbox"
	"toolforge/internal/store"
)

// app bundles the wired components behind the CLI commands.
type app struct {
	registry *registry.Registry
	manager  *regen.Manager
	store    *store.Store
}

// newApp wires the pipeline from the loaded config. close releases the
// store; the watcher lifecycle is managed by the commands that start it.
func newApp(ctx context.Context) (*app, error) {
	if cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("no API key configured (set llm.api_key or TOOLFORGE_API_KEY)")
	}
	client, err := llm.NewGeminiClient(ctx, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.MaxTokens)
	if err != nil {
		return nil, fmt.Errorf("initializing LLM client: %w", err)
	}

	gen := generate.New(client, logger)
	executor := sandbox.New(cfg.SandboxTimeout(), logger)
	reg := registry.New(executor, logger)
	if err := registerBuiltins(reg); err != nil {
		return nil, err
	}

	a := &app{registry: reg}

	var regenStore regen.Store
	if cfg.Store.Enabled {
		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("opening store: %w", err)
		}
		a.store = st
		reg.SetUsageRecorder(st)
		regenStore = st
	}

	mgr, err := regen.New(gen, reg, logger, regen.Options{
		SpecsDir: cfg.Specs.Dir,
		ToolsDir: cfg.Specs.ToolsDir,
		Debounce: cfg.Debounce(),
		Store:    regenStore,
	})
	if err != nil {
		return nil, err
	}
	a.manager = mgr
	return a, nil
}

func (a *app) close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}
