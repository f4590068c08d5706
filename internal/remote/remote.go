// Package remote defines the contract with the external protocol client
// that supplies the remote tool source. The client implementation (server
// discovery, transports, reconnection) lives outside this module; the
// registry only routes invocations through this interface and treats the
// owning server as authoritative for schemas and validation.
package remote

import "context"

// ToolSummary is one remote tool as advertised to the calling LLM.
type ToolSummary struct {
	ServerID    string         `json:"server_id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema,omitempty"`
}

// CallResult is the outcome of one remote invocation.
type CallResult struct {
	Success   bool   `json:"success"`
	Output    any    `json:"output,omitempty"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

// Client is the injected remote tool client.
type Client interface {
	// ToolsForLLM lists tools across all connected servers.
	ToolsForLLM(ctx context.Context) ([]ToolSummary, error)

	// InvokeTool calls one tool on one server.
	InvokeTool(ctx context.Context, serverID, toolName string, input map[string]any) (*CallResult, error)
}
