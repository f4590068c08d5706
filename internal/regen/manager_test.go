package regen

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"toolforge/internal/spec"
)

const testSpec = `Description: Shouts text.
Inputs:
- text (string): what to shout
Logic:
Uppercase the text.`

const testArtifact = `package main

import "schema"

var InputSchema = schema.Object(schema.String("text", "").Require())

func Handler(input map[string]any) (any, error) { return input["text"], nil }
`

// fakeGenerator counts calls and returns canned source, optionally blocking
// until released.
type fakeGenerator struct {
	source  string
	err     error
	calls   atomic.Int32
	blockCh chan struct{}
}

func (f *fakeGenerator) Generate(ctx context.Context, def *spec.ToolDefinition) (string, error) {
	f.calls.Add(1)
	if f.blockCh != nil {
		<-f.blockCh
	}
	return f.source, f.err
}

// fakeRegistrar records registrations.
type fakeRegistrar struct {
	mu           sync.Mutex
	registered   map[string]string
	unregistered []string
}

func newFakeRegistrar() *fakeRegistrar {
	return &fakeRegistrar{registered: make(map[string]string)}
}

func (f *fakeRegistrar) RegisterGenerated(def *spec.ToolDefinition, source string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered[def.Name] = source
	return nil
}

func (f *fakeRegistrar) UnregisterGenerated(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unregistered = append(f.unregistered, name)
}

func (f *fakeRegistrar) source(name string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.registered[name]
	return s, ok
}

// eventCollector gathers lifecycle events thread-safely.
type eventCollector struct {
	mu     sync.Mutex
	events []Event
}

func (c *eventCollector) collect(ev Event) {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
}

func (c *eventCollector) types() []EventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]EventType, len(c.events))
	for i, ev := range c.events {
		out[i] = ev.Type
	}
	return out
}

func newTestManager(t *testing.T, gen Generator, reg Registrar) (*Manager, string, string) {
	t.Helper()
	specsDir := t.TempDir()
	toolsDir := t.TempDir()
	m, err := New(gen, reg, nil, Options{
		SpecsDir: specsDir,
		ToolsDir: toolsDir,
		Debounce: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}
	return m, specsDir, toolsDir
}

func writeSpec(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name+SpecExt)
	if err := os.WriteFile(path, []byte(testSpec), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestProcessName_GeneratesAndRegisters(t *testing.T) {
	gen := &fakeGenerator{source: testArtifact}
	reg := newFakeRegistrar()
	m, specsDir, toolsDir := newTestManager(t, gen, reg)
	writeSpec(t, specsDir, "shout")

	var col eventCollector
	m.Subscribe(col.collect)

	if err := m.processName(context.Background(), "shout", false); err != nil {
		t.Fatalf("processName failed: %v", err)
	}

	if got := gen.calls.Load(); got != 1 {
		t.Errorf("generator calls = %d, want 1", got)
	}
	if src, ok := reg.source("shout"); !ok || src != testArtifact {
		t.Errorf("registered source = %q, %v", src, ok)
	}
	data, err := os.ReadFile(filepath.Join(toolsDir, "shout.go"))
	if err != nil || string(data) != testArtifact {
		t.Errorf("artifact on disk = %q, err %v", data, err)
	}

	want := []EventType{EventGenerationStarted, EventGenerationCompleted, EventToolAdded}
	got := col.types()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("events[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	def, ok := m.Definition("shout")
	if !ok || def.GeneratedAt.IsZero() || def.LastError != "" {
		t.Errorf("definition = %+v, %v", def, ok)
	}
}

func TestProcessName_FreshArtifactReused(t *testing.T) {
	gen := &fakeGenerator{source: "should not be used"}
	reg := newFakeRegistrar()
	m, specsDir, toolsDir := newTestManager(t, gen, reg)
	specPath := writeSpec(t, specsDir, "shout")

	artifactPath := filepath.Join(toolsDir, "shout.go")
	if err := os.WriteFile(artifactPath, []byte(testArtifact), 0o644); err != nil {
		t.Fatal(err)
	}
	// Artifact strictly newer than spec.
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(specPath, old, old); err != nil {
		t.Fatal(err)
	}

	if err := m.processName(context.Background(), "shout", false); err != nil {
		t.Fatalf("processName failed: %v", err)
	}
	if got := gen.calls.Load(); got != 0 {
		t.Errorf("generator calls = %d, want 0 for a fresh artifact", got)
	}
	if src, ok := reg.source("shout"); !ok || src != testArtifact {
		t.Errorf("fresh artifact should be registered from disk, got %q, %v", src, ok)
	}
}

func TestProcessName_EqualTimesAreFresh(t *testing.T) {
	gen := &fakeGenerator{source: "should not be used"}
	reg := newFakeRegistrar()
	m, specsDir, toolsDir := newTestManager(t, gen, reg)
	specPath := writeSpec(t, specsDir, "shout")
	artifactPath := filepath.Join(toolsDir, "shout.go")
	if err := os.WriteFile(artifactPath, []byte(testArtifact), 0o644); err != nil {
		t.Fatal(err)
	}
	same := time.Now().Truncate(time.Second)
	for _, p := range []string{specPath, artifactPath} {
		if err := os.Chtimes(p, same, same); err != nil {
			t.Fatal(err)
		}
	}

	if err := m.processName(context.Background(), "shout", false); err != nil {
		t.Fatal(err)
	}
	if got := gen.calls.Load(); got != 0 {
		t.Errorf("equal modification times should count as fresh, calls = %d", got)
	}
}

func TestRegenerate_ForcedIgnoresFreshness(t *testing.T) {
	gen := &fakeGenerator{source: testArtifact}
	reg := newFakeRegistrar()
	m, specsDir, toolsDir := newTestManager(t, gen, reg)
	specPath := writeSpec(t, specsDir, "shout")
	if err := os.WriteFile(filepath.Join(toolsDir, "shout.go"), []byte(testArtifact), 0o644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(specPath, old, old); err != nil {
		t.Fatal(err)
	}

	if err := m.Regenerate(context.Background(), "shout"); err != nil {
		t.Fatal(err)
	}
	if got := gen.calls.Load(); got != 1 {
		t.Errorf("forced regeneration should call the generator, calls = %d", got)
	}
}

func TestProcessName_FailureLeavesArtifactUntouched(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model rejected")}
	reg := newFakeRegistrar()
	m, specsDir, toolsDir := newTestManager(t, gen, reg)
	writeSpec(t, specsDir, "shout")

	previous := "// previous working artifact\n" + testArtifact
	artifactPath := filepath.Join(toolsDir, "shout.go")
	if err := os.WriteFile(artifactPath, []byte(previous), 0o644); err != nil {
		t.Fatal(err)
	}

	var col eventCollector
	m.Subscribe(col.collect)

	err := m.Regenerate(context.Background(), "shout")
	if err == nil {
		t.Fatal("expected failure")
	}

	data, readErr := os.ReadFile(artifactPath)
	if readErr != nil || string(data) != previous {
		t.Errorf("previous artifact modified: %q, %v", data, readErr)
	}

	def, ok := m.Definition("shout")
	if !ok || def.LastError == "" {
		t.Errorf("definition should record the failure, got %+v, %v", def, ok)
	}

	types := col.types()
	if len(types) != 2 || types[0] != EventGenerationStarted || types[1] != EventGenerationFailed {
		t.Errorf("events = %v", types)
	}
}

func TestHandleSpecRemoved(t *testing.T) {
	gen := &fakeGenerator{source: testArtifact}
	reg := newFakeRegistrar()
	m, specsDir, toolsDir := newTestManager(t, gen, reg)
	writeSpec(t, specsDir, "shout")

	if err := m.processName(context.Background(), "shout", false); err != nil {
		t.Fatal(err)
	}

	var col eventCollector
	m.Subscribe(col.collect)

	m.handleSpecRemoved("shout")

	if _, err := os.Stat(filepath.Join(toolsDir, "shout.go")); !os.IsNotExist(err) {
		t.Error("artifact should be deleted with its spec")
	}
	if _, ok := m.Definition("shout"); ok {
		t.Error("definition should be dropped")
	}
	reg.mu.Lock()
	unregistered := len(reg.unregistered) == 1 && reg.unregistered[0] == "shout"
	reg.mu.Unlock()
	if !unregistered {
		t.Errorf("registry entry not removed: %v", reg.unregistered)
	}

	types := col.types()
	if len(types) != 1 || types[0] != EventToolRemoved {
		t.Errorf("events = %v, want one removed event", types)
	}
}

func TestHandleSpecChanged_DebounceCollapsesBursts(t *testing.T) {
	gen := &fakeGenerator{source: testArtifact}
	reg := newFakeRegistrar()
	m, specsDir, _ := newTestManager(t, gen, reg)
	writeSpec(t, specsDir, "shout")

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		m.handleSpecChanged(ctx, "shout")
		time.Sleep(2 * time.Millisecond)
	}

	// One debounce window plus slack for the pass itself.
	time.Sleep(200 * time.Millisecond)

	if got := gen.calls.Load(); got != 1 {
		t.Errorf("burst of writes should regenerate once, calls = %d", got)
	}
}

func TestProcessName_InFlightTriggerDropped(t *testing.T) {
	gen := &fakeGenerator{source: testArtifact, blockCh: make(chan struct{})}
	reg := newFakeRegistrar()
	m, specsDir, _ := newTestManager(t, gen, reg)
	writeSpec(t, specsDir, "shout")

	ctx := context.Background()
	done := make(chan error, 1)
	go func() { done <- m.processName(ctx, "shout", true) }()

	// Wait until the first pass is inside the generator.
	deadline := time.After(2 * time.Second)
	for gen.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("first pass never reached the generator")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	// Second trigger while in flight: dropped, not queued.
	if err := m.processName(ctx, "shout", true); err != nil {
		t.Errorf("dropped trigger should be a silent no-op, got %v", err)
	}
	if got := gen.calls.Load(); got != 1 {
		t.Errorf("generator calls = %d, want 1", got)
	}

	close(gen.blockCh)
	if err := <-done; err != nil {
		t.Fatalf("first pass failed: %v", err)
	}
}

func TestSync_WarmStart(t *testing.T) {
	gen := &fakeGenerator{source: testArtifact}
	reg := newFakeRegistrar()
	m, specsDir, _ := newTestManager(t, gen, reg)
	writeSpec(t, specsDir, "alpha")
	writeSpec(t, specsDir, "beta")
	// A stray non-spec file is ignored.
	if err := os.WriteFile(filepath.Join(specsDir, "notes.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := m.Sync(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := gen.calls.Load(); got != 2 {
		t.Errorf("generator calls = %d, want 2", got)
	}
	if len(m.Definitions()) != 2 {
		t.Errorf("definitions = %d, want 2", len(m.Definitions()))
	}
}
