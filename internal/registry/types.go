// Package registry holds the three tool catalogs (native, generated,
// remote) and runs invocation requests against them with grouped
// parallel/sequential semantics and lifecycle events.
package registry

import (
	"context"
	"time"

	"toolforge/internal/schema"
)

// Source tags where a tool lives.
type Source string

const (
	SourceNative    Source = "native"
	SourceGenerated Source = "generated"
	SourceRemote    Source = "remote"
)

// Name prefixes in the LLM-facing catalog. Generated tools carry
// GeneratedPrefix; remote tools carry RemotePrefix + "<serverID>__<tool>";
// anything unprefixed is native.
const (
	GeneratedPrefix = "user."
	RemotePrefix    = "mcp."
	remoteSeparator = "__"
)

// NativeHandler executes a native tool.
type NativeHandler func(ctx context.Context, params map[string]any) (any, error)

// NativeTool is a host-provided tool registered directly with the registry.
type NativeTool struct {
	Name        string
	Description string
	Schema      *schema.Schema
	Handler     NativeHandler
}

// ToolRequest is one ephemeral invocation request.
type ToolRequest struct {
	ID         string         `json:"id"`
	ToolName   string         `json:"toolName"`
	Source     Source         `json:"source,omitempty"`
	Parameters map[string]any `json:"parameters"`

	// GroupID groups requests for concurrent execution. Requests without a
	// group run as independent singleton groups.
	GroupID string `json:"groupId,omitempty"`
}

// ToolResult is the outcome of one invocation.
type ToolResult struct {
	RequestID  string    `json:"requestId"`
	ToolName   string    `json:"toolName"`
	Success    bool      `json:"success"`
	Output     any       `json:"output,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartTime  time.Time `json:"startTime"`
	EndTime    time.Time `json:"endTime"`
	DurationMs int64     `json:"durationMs"`
}

// CatalogEntry is one tool as presented to the calling LLM.
type CatalogEntry struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}
