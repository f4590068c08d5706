// Package regen keeps generated tool artifacts in sync with their
// specification files. It watches the specs directory, debounces bursts of
// writes per tool name, regenerates stale artifacts through the injected
// generator, and keeps the registry's generated catalog current.
package regen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"toolforge/internal/spec"
)

// SpecExt is the extension of specification files in the watched directory.
const SpecExt = ".tool"

// DefaultDebounce is the settle delay between a spec write and its
// regeneration pass.
const DefaultDebounce = 500 * time.Millisecond

// Generator produces validated artifact source from a definition.
type Generator interface {
	Generate(ctx context.Context, def *spec.ToolDefinition) (string, error)
}

// Registrar is the registry surface the manager drives.
type Registrar interface {
	RegisterGenerated(def *spec.ToolDefinition, source string) error
	UnregisterGenerated(name string)
}

// Store optionally persists definitions and generation history. A nil Store
// disables persistence.
type Store interface {
	SaveDefinition(def *spec.ToolDefinition) error
	DeleteDefinition(name string) error
	RecordGeneration(toolName string, success bool, errMsg string, durationMs int64) error
}

// Manager owns the spec-to-artifact regeneration state machine.
type Manager struct {
	specsDir string
	toolsDir string
	debounce time.Duration

	gen   Generator
	reg   Registrar
	store Store

	logger *zap.Logger

	// mu guards defs, timers, inflight and the subscriber list.
	mu       sync.Mutex
	defs     map[string]*spec.ToolDefinition
	timers   map[string]*time.Timer
	inflight map[string]bool
	subs     []func(Event)

	// genMu serializes generation per tool name.
	genMuMu sync.Mutex
	genMu   map[string]*sync.Mutex

	watcher *watcher
}

// Options configures a Manager. Zero values select defaults.
type Options struct {
	SpecsDir string
	ToolsDir string
	Debounce time.Duration
	Store    Store
}

// New creates a Manager. Generator and Registrar are required.
func New(gen Generator, reg Registrar, logger *zap.Logger, opts Options) (*Manager, error) {
	if gen == nil {
		return nil, fmt.Errorf("regen: generator is required")
	}
	if reg == nil {
		return nil, fmt.Errorf("regen: registrar is required")
	}
	if opts.SpecsDir == "" {
		return nil, fmt.Errorf("regen: specs directory is required")
	}
	if opts.ToolsDir == "" {
		return nil, fmt.Errorf("regen: tools directory is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		specsDir: opts.SpecsDir,
		toolsDir: opts.ToolsDir,
		debounce: opts.Debounce,
		gen:      gen,
		reg:      reg,
		store:    opts.Store,
		logger:   logger.Named("regen"),
		defs:     make(map[string]*spec.ToolDefinition),
		timers:   make(map[string]*time.Timer),
		inflight: make(map[string]bool),
		genMu:    make(map[string]*sync.Mutex),
	}, nil
}

// Subscribe registers a lifecycle event handler. Handlers run synchronously
// on the goroutine that produced the event.
func (m *Manager) Subscribe(fn func(Event)) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	m.subs = append(m.subs, fn)
	m.mu.Unlock()
}

func (m *Manager) emit(ev Event) {
	ev.Timestamp = time.Now()
	m.mu.Lock()
	subs := make([]func(Event), len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()
	for _, fn := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					m.logger.Warn("event subscriber panicked",
						zap.String("event", string(ev.Type)),
						zap.Any("panic", r))
				}
			}()
			fn(ev)
		}()
	}
}

// Definitions returns a snapshot of the cached definitions.
func (m *Manager) Definitions() []*spec.ToolDefinition {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*spec.ToolDefinition, 0, len(m.defs))
	for _, d := range m.defs {
		out = append(out, d)
	}
	return out
}

// Definition returns the cached definition for a tool name.
func (m *Manager) Definition(name string) (*spec.ToolDefinition, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.defs[name]
	return d, ok
}

// Sync performs the warm start: every spec file present on disk is processed
// once, regenerating only the stale ones. Intended to run before the watcher
// starts so existing artifacts are registered immediately.
func (m *Manager) Sync(ctx context.Context) error {
	entries, err := os.ReadDir(m.specsDir)
	if err != nil {
		return fmt.Errorf("reading specs directory: %w", err)
	}
	if err := os.MkdirAll(m.toolsDir, 0o755); err != nil {
		return fmt.Errorf("creating tools directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), SpecExt) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), SpecExt)
		m.processName(ctx, name, false)
	}
	return nil
}

// Regenerate forces regeneration of one tool regardless of staleness.
func (m *Manager) Regenerate(ctx context.Context, name string) error {
	return m.processName(ctx, name, true)
}

// specPath and artifactPath derive the two file locations for a tool name.
func (m *Manager) specPath(name string) string {
	return filepath.Join(m.specsDir, name+SpecExt)
}

func (m *Manager) artifactPath(name string) string {
	return filepath.Join(m.toolsDir, name+".go")
}

// handleSpecChanged schedules a debounced regeneration pass for the name.
// A pending timer for the same name is cancelled first, so only the last
// write in a burst triggers work.
func (m *Manager) handleSpecChanged(ctx context.Context, name string) {
	m.mu.Lock()
	if t, ok := m.timers[name]; ok {
		t.Stop()
	}
	m.timers[name] = time.AfterFunc(m.debounce, func() {
		m.mu.Lock()
		delete(m.timers, name)
		m.mu.Unlock()
		if err := m.processName(ctx, name, false); err != nil {
			m.logger.Warn("regeneration pass failed",
				zap.String("tool", name), zap.Error(err))
		}
	})
	m.mu.Unlock()
}

// handleSpecRemoved tears the tool down: cached definition dropped, artifact
// deleted, registry entry removed. No debounce; there is nothing left to
// settle.
func (m *Manager) handleSpecRemoved(name string) {
	m.mu.Lock()
	if t, ok := m.timers[name]; ok {
		t.Stop()
		delete(m.timers, name)
	}
	def := m.defs[name]
	delete(m.defs, name)
	m.mu.Unlock()

	if err := os.Remove(m.artifactPath(name)); err != nil && !os.IsNotExist(err) {
		m.logger.Warn("artifact removal failed",
			zap.String("tool", name), zap.Error(err))
	}
	m.reg.UnregisterGenerated(name)
	if m.store != nil {
		if err := m.store.DeleteDefinition(name); err != nil {
			m.logger.Warn("definition delete failed",
				zap.String("tool", name), zap.Error(err))
		}
	}
	m.emit(Event{Type: EventToolRemoved, Tool: name, Definition: def})
	m.logger.Info("tool removed", zap.String("tool", name))
}

// handleArtifactRemoved reacts to an artifact deleted out-of-band while its
// spec still exists. Treated as a forced regeneration.
func (m *Manager) handleArtifactRemoved(ctx context.Context, name string) {
	if _, err := os.Stat(m.specPath(name)); err != nil {
		return
	}
	m.logger.Info("artifact deleted out-of-band, regenerating",
		zap.String("tool", name))
	if err := m.processName(ctx, name, true); err != nil {
		m.logger.Warn("forced regeneration failed",
			zap.String("tool", name), zap.Error(err))
	}
}

// nameMutex returns the per-name generation mutex, creating it on first use.
func (m *Manager) nameMutex(name string) *sync.Mutex {
	m.genMuMu.Lock()
	defer m.genMuMu.Unlock()
	mu, ok := m.genMu[name]
	if !ok {
		mu = &sync.Mutex{}
		m.genMu[name] = mu
	}
	return mu
}

// stale reports whether the artifact needs regeneration. Missing artifact is
// stale; equal modification times are fresh.
func (m *Manager) stale(name string) bool {
	artInfo, err := os.Stat(m.artifactPath(name))
	if err != nil {
		return true
	}
	specInfo, err := os.Stat(m.specPath(name))
	if err != nil {
		return true
	}
	return specInfo.ModTime().After(artInfo.ModTime())
}

// processName runs one regeneration pass for a tool name. A pass that finds
// a generation already in flight for the same name drops silently; the
// in-flight result is authoritative.
func (m *Manager) processName(ctx context.Context, name string, force bool) error {
	m.mu.Lock()
	if m.inflight[name] {
		m.mu.Unlock()
		m.logger.Debug("regeneration already in flight, dropping trigger",
			zap.String("tool", name))
		return nil
	}
	m.inflight[name] = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		delete(m.inflight, name)
		m.mu.Unlock()
	}()

	raw, err := os.ReadFile(m.specPath(name))
	if err != nil {
		return fmt.Errorf("reading spec for %s: %w", name, err)
	}
	def := spec.Parse(string(raw), name, m.specPath(name), m.artifactPath(name))

	m.mu.Lock()
	_, known := m.defs[name]
	m.mu.Unlock()

	if !force && !m.stale(name) {
		// Fresh artifact; register from disk without regenerating.
		source, err := os.ReadFile(m.artifactPath(name))
		if err != nil {
			return fmt.Errorf("reading artifact for %s: %w", name, err)
		}
		if err := m.reg.RegisterGenerated(def, string(source)); err != nil {
			return fmt.Errorf("registering %s: %w", name, err)
		}
		m.rememberDefinition(name, def)
		if !known {
			m.emit(Event{Type: EventToolAdded, Tool: name, Definition: def})
		}
		return nil
	}

	mu := m.nameMutex(name)
	mu.Lock()
	defer mu.Unlock()

	m.emit(Event{Type: EventGenerationStarted, Tool: name, Definition: def})
	m.logger.Info("generating tool", zap.String("tool", name), zap.Bool("forced", force))

	start := time.Now()
	source, genErr := m.gen.Generate(ctx, def)
	durationMs := time.Since(start).Milliseconds()

	if m.store != nil {
		errMsg := ""
		if genErr != nil {
			errMsg = genErr.Error()
		}
		if err := m.store.RecordGeneration(name, genErr == nil, errMsg, durationMs); err != nil {
			m.logger.Warn("generation history record failed",
				zap.String("tool", name), zap.Error(err))
		}
	}

	if genErr != nil {
		// Previous artifact, if any, stays untouched.
		def.LastError = genErr.Error()
		m.rememberDefinition(name, def)
		m.emit(Event{Type: EventGenerationFailed, Tool: name, Definition: def, Err: genErr})
		m.logger.Warn("generation failed",
			zap.String("tool", name),
			zap.Int64("duration_ms", durationMs),
			zap.Error(genErr))
		return fmt.Errorf("generating %s: %w", name, genErr)
	}

	if err := os.WriteFile(m.artifactPath(name), []byte(source), 0o644); err != nil {
		def.LastError = err.Error()
		m.rememberDefinition(name, def)
		m.emit(Event{Type: EventGenerationFailed, Tool: name, Definition: def, Err: err})
		return fmt.Errorf("writing artifact for %s: %w", name, err)
	}

	def.GeneratedAt = time.Now()
	def.LastError = ""

	if err := m.reg.RegisterGenerated(def, source); err != nil {
		m.emit(Event{Type: EventGenerationFailed, Tool: name, Definition: def, Err: err})
		return fmt.Errorf("registering %s: %w", name, err)
	}
	m.rememberDefinition(name, def)
	if m.store != nil {
		if err := m.store.SaveDefinition(def); err != nil {
			m.logger.Warn("definition save failed",
				zap.String("tool", name), zap.Error(err))
		}
	}

	m.emit(Event{Type: EventGenerationCompleted, Tool: name, Definition: def})
	evType := EventToolAdded
	if known {
		evType = EventToolUpdated
	}
	m.emit(Event{Type: evType, Tool: name, Definition: def})
	m.logger.Info("tool ready",
		zap.String("tool", name),
		zap.Int64("duration_ms", durationMs))
	return nil
}

func (m *Manager) rememberDefinition(name string, def *spec.ToolDefinition) {
	m.mu.Lock()
	m.defs[name] = def
	m.mu.Unlock()
}
