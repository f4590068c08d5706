package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"toolforge/internal/remote"
	"toolforge/internal/spec"
)

// SandboxRunner executes generated tool artifacts.
type SandboxRunner interface {
	Invoke(ctx context.Context, toolName, source string, input map[string]any) (any, error)
}

// UsageRecorder receives a record of every completed invocation. Recording
// is best-effort; failures are logged and never affect the result.
type UsageRecorder interface {
	RecordUsage(toolName string, source string, success bool, durationMs int64) error
}

// generatedTool pairs a parsed definition with its validated artifact source.
type generatedTool struct {
	def    *spec.ToolDefinition
	source string
}

// Registry is the unified catalog across all three tool sources.
type Registry struct {
	mu        sync.RWMutex
	native    map[string]*NativeTool
	generated map[string]*generatedTool

	sandbox  SandboxRunner
	remote   remote.Client
	recorder UsageRecorder

	events *EventBus
	logger *zap.Logger
}

// New creates a Registry. The sandbox runner is required for generated
// tools; the remote client and usage recorder are optional and attached
// later via SetRemoteClient / SetUsageRecorder.
func New(sandbox SandboxRunner, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("registry")
	return &Registry{
		native:    make(map[string]*NativeTool),
		generated: make(map[string]*generatedTool),
		sandbox:   sandbox,
		events:    NewEventBus(logger),
		logger:    logger,
	}
}

// Events exposes the invocation event bus.
func (r *Registry) Events() *EventBus { return r.events }

// SetRemoteClient attaches the remote tool client.
func (r *Registry) SetRemoteClient(c remote.Client) {
	r.mu.Lock()
	r.remote = c
	r.mu.Unlock()
}

// SetUsageRecorder attaches the usage recorder.
func (r *Registry) SetUsageRecorder(rec UsageRecorder) {
	r.mu.Lock()
	r.recorder = rec
	r.mu.Unlock()
}

// RegisterNative adds a host tool. Re-registering a name replaces the
// previous handler.
func (r *Registry) RegisterNative(t *NativeTool) error {
	if t == nil || t.Name == "" {
		return fmt.Errorf("native tool requires a name")
	}
	if t.Handler == nil {
		return fmt.Errorf("native tool %q requires a handler", t.Name)
	}
	r.mu.Lock()
	r.native[t.Name] = t
	r.mu.Unlock()
	r.logger.Info("registered native tool", zap.String("tool", t.Name))
	return nil
}

// RegisterGenerated adds or replaces a generated tool. The base name must
// not shadow a native tool; the catalog name is GeneratedPrefix + base name.
func (r *Registry) RegisterGenerated(def *spec.ToolDefinition, source string) error {
	if def == nil || def.Name == "" {
		return fmt.Errorf("generated tool requires a definition with a name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.native[def.Name]; exists {
		return fmt.Errorf("%w: %s", ErrNameCollision, def.Name)
	}
	r.generated[def.Name] = &generatedTool{def: def, source: source}
	r.logger.Info("registered generated tool", zap.String("tool", GeneratedPrefix+def.Name))
	return nil
}

// UnregisterGenerated removes a generated tool by base name. Removing an
// unknown name is a no-op.
func (r *Registry) UnregisterGenerated(name string) {
	r.mu.Lock()
	_, existed := r.generated[name]
	delete(r.generated, name)
	r.mu.Unlock()
	if existed {
		r.logger.Info("unregistered generated tool", zap.String("tool", GeneratedPrefix+name))
	}
}

// GeneratedSource returns the artifact source for a generated base name.
func (r *Registry) GeneratedSource(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.generated[name]
	if !ok {
		return "", false
	}
	return g.source, true
}

// ParseToolName routes a catalog name to its source and base name. Names
// beginning with GeneratedPrefix are generated, names beginning with
// RemotePrefix are remote, everything else is native.
func ParseToolName(name string) (Source, string) {
	switch {
	case strings.HasPrefix(name, GeneratedPrefix):
		return SourceGenerated, strings.TrimPrefix(name, GeneratedPrefix)
	case strings.HasPrefix(name, RemotePrefix):
		return SourceRemote, strings.TrimPrefix(name, RemotePrefix)
	default:
		return SourceNative, name
	}
}

// splitRemoteName splits "<serverID>__<toolName>" into its parts.
func splitRemoteName(base string) (serverID, toolName string, ok bool) {
	idx := strings.Index(base, remoteSeparator)
	if idx <= 0 || idx+len(remoteSeparator) >= len(base) {
		return "", "", false
	}
	return base[:idx], base[idx+len(remoteSeparator):], true
}

// RemoteToolName builds the catalog name for a remote tool.
func RemoteToolName(serverID, toolName string) string {
	return RemotePrefix + serverID + remoteSeparator + toolName
}

// ToolsForLLM assembles the full catalog in a stable order: native tools,
// then generated tools, then remote tools, each block sorted by name. A
// remote listing failure degrades to the local catalog with a warning.
func (r *Registry) ToolsForLLM(ctx context.Context) []CatalogEntry {
	r.mu.RLock()
	entries := make([]CatalogEntry, 0, len(r.native)+len(r.generated))
	for _, t := range r.native {
		e := CatalogEntry{Name: t.Name, Description: t.Description}
		if t.Schema != nil {
			e.InputSchema = t.Schema.JSONSchema()
		}
		entries = append(entries, e)
	}
	nativeCount := len(entries)
	for name, g := range r.generated {
		entries = append(entries, CatalogEntry{
			Name:        GeneratedPrefix + name,
			Description: g.def.Description,
			InputSchema: g.def.InputSchema().JSONSchema(),
		})
	}
	remoteClient := r.remote
	r.mu.RUnlock()

	nativeEntries := entries[:nativeCount]
	sort.Slice(nativeEntries, func(i, j int) bool { return nativeEntries[i].Name < nativeEntries[j].Name })
	genEntries := entries[nativeCount:]
	sort.Slice(genEntries, func(i, j int) bool { return genEntries[i].Name < genEntries[j].Name })

	if remoteClient != nil {
		summaries, err := remoteClient.ToolsForLLM(ctx)
		if err != nil {
			r.logger.Warn("remote tool listing failed", zap.Error(err))
		} else {
			remoteEntries := make([]CatalogEntry, 0, len(summaries))
			for _, s := range summaries {
				remoteEntries = append(remoteEntries, CatalogEntry{
					Name:        RemoteToolName(s.ServerID, s.Name),
					Description: s.Description,
					InputSchema: s.InputSchema,
				})
			}
			sort.Slice(remoteEntries, func(i, j int) bool { return remoteEntries[i].Name < remoteEntries[j].Name })
			entries = append(entries, remoteEntries...)
		}
	}
	return entries
}

// Has reports whether a catalog name resolves to a registered local tool.
// Remote names are assumed resolvable when a remote client is attached.
func (r *Registry) Has(name string) bool {
	source, base := ParseToolName(name)
	r.mu.RLock()
	defer r.mu.RUnlock()
	switch source {
	case SourceNative:
		_, ok := r.native[base]
		return ok
	case SourceGenerated:
		_, ok := r.generated[base]
		return ok
	case SourceRemote:
		return r.remote != nil
	}
	return false
}
