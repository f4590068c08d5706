package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ExecuteTool runs one request to completion. Failures of any kind come
// back as an unsuccessful ToolResult, never as an error or panic; the
// lifecycle events fire around the dispatch regardless of outcome.
func (r *Registry) ExecuteTool(ctx context.Context, req ToolRequest) ToolResult {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Source == "" {
		req.Source, _ = ParseToolName(req.ToolName)
	}

	r.events.Publish(ToolEvent{
		Type:      EventToolRequested,
		Request:   req,
		Timestamp: time.Now(),
	})

	start := time.Now()
	output, err := r.dispatch(ctx, req)
	end := time.Now()

	result := ToolResult{
		RequestID:  req.ID,
		ToolName:   req.ToolName,
		StartTime:  start,
		EndTime:    end,
		DurationMs: end.Sub(start).Milliseconds(),
	}
	if err != nil {
		result.Error = err.Error()
		r.logger.Warn("tool invocation failed",
			zap.String("tool", req.ToolName),
			zap.String("request", req.ID),
			zap.Error(err))
	} else {
		result.Success = true
		result.Output = output
	}

	r.events.Publish(ToolEvent{
		Type:      EventToolFinished,
		Request:   req,
		Result:    &result,
		Timestamp: time.Now(),
	})

	r.recordUsage(req, result)
	return result
}

// dispatch routes the request by source and contains any handler panic.
func (r *Registry) dispatch(ctx context.Context, req ToolRequest) (output any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			output = nil
			err = fmt.Errorf("tool %s panicked: %v", req.ToolName, rec)
		}
	}()

	_, base := ParseToolName(req.ToolName)
	params := req.Parameters
	if params == nil {
		params = map[string]any{}
	}

	switch req.Source {
	case SourceNative:
		r.mu.RLock()
		tool, ok := r.native[base]
		r.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrToolNotFound, req.ToolName)
		}
		return tool.Handler(ctx, params)

	case SourceGenerated:
		r.mu.RLock()
		g, ok := r.generated[base]
		sandbox := r.sandbox
		r.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrToolNotFound, req.ToolName)
		}
		if sandbox == nil {
			return nil, fmt.Errorf("%w: no sandbox runner for %s", ErrSourceUnavailable, req.ToolName)
		}
		return sandbox.Invoke(ctx, base, g.source, params)

	case SourceRemote:
		r.mu.RLock()
		client := r.remote
		r.mu.RUnlock()
		if client == nil {
			return nil, fmt.Errorf("%w: no remote client for %s", ErrSourceUnavailable, req.ToolName)
		}
		serverID, toolName, ok := splitRemoteName(base)
		if !ok {
			return nil, fmt.Errorf("%w: malformed remote name %s", ErrToolNotFound, req.ToolName)
		}
		res, err := client.InvokeTool(ctx, serverID, toolName, params)
		if err != nil {
			return nil, err
		}
		if !res.Success {
			return nil, fmt.Errorf("remote tool %s failed: %s", req.ToolName, res.Error)
		}
		return res.Output, nil

	default:
		return nil, fmt.Errorf("%w: unknown source %q", ErrSourceUnavailable, req.Source)
	}
}

func (r *Registry) recordUsage(req ToolRequest, result ToolResult) {
	r.mu.RLock()
	rec := r.recorder
	r.mu.RUnlock()
	if rec == nil {
		return
	}
	if err := rec.RecordUsage(req.ToolName, string(req.Source), result.Success, result.DurationMs); err != nil {
		r.logger.Warn("usage record failed",
			zap.String("tool", req.ToolName),
			zap.Error(err))
	}
}

// ExecuteTools runs a batch. Requests sharing a GroupID run concurrently;
// groups run sequentially in the order their IDs first appear in the batch.
// Requests without a GroupID each become their own singleton group. Results
// come back in the input request order, one per request.
func (r *Registry) ExecuteTools(ctx context.Context, reqs []ToolRequest) []ToolResult {
	results := make([]ToolResult, len(reqs))
	if len(reqs) == 0 {
		return results
	}

	// First-occurrence group order over the batch.
	groupOrder := make([]string, 0, len(reqs))
	groups := make(map[string][]int)
	for i := range reqs {
		gid := reqs[i].GroupID
		if gid == "" {
			gid = "solo-" + uuid.NewString()
			reqs[i].GroupID = gid
		}
		if _, seen := groups[gid]; !seen {
			groupOrder = append(groupOrder, gid)
		}
		groups[gid] = append(groups[gid], i)
	}

	for _, gid := range groupOrder {
		indices := groups[gid]
		if len(indices) == 1 {
			idx := indices[0]
			results[idx] = r.ExecuteTool(ctx, reqs[idx])
			continue
		}
		g, gctx := errgroup.WithContext(ctx)
		for _, idx := range indices {
			idx := idx
			g.Go(func() error {
				results[idx] = r.ExecuteTool(gctx, reqs[idx])
				return nil
			})
		}
		// Workers never return errors; failures live in the results.
		_ = g.Wait()
	}
	return results
}
