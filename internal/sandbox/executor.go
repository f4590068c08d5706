// Package sandbox executes validated tool artifacts in a restricted yaegi
// interpreter. Each invocation gets a fresh interpreter exposing only the
// allowlisted stdlib packages, the schema construction API, and a tagged
// logging shim; nothing that performs I/O, spawns processes, or inspects
// the host is reachable.
package sandbox

import (
	"context"
	"fmt"
	"time"

	"github.com/traefik/yaegi/interp"
	"go.uber.org/zap"

	"toolforge/internal/schema"
)

// DefaultTimeout is the wall-clock execution budget per invocation.
const DefaultTimeout = 5 * time.Second

// Executor runs artifacts under a wall-clock budget.
type Executor struct {
	timeout time.Duration
	logger  *zap.Logger
	stdlib  interp.Exports
	schema  interp.Exports
}

// New creates an Executor. A non-positive timeout selects DefaultTimeout.
func New(timeout time.Duration, logger *zap.Logger) *Executor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		timeout: timeout,
		logger:  logger,
		stdlib:  restrictedStdlib(),
		schema:  schemaExports(),
	}
}

// Timeout reports the configured execution budget.
func (e *Executor) Timeout() time.Duration { return e.timeout }

// Invoke loads the artifact source into a fresh interpreter, validates the
// input against the artifact's InputSchema, and calls its Handler. Every
// failure mode (load error, invalid input, handler error, handler panic,
// timeout) comes back as an error; Invoke never panics.
//
// The budget is wall-clock. Interpretation cannot be preempted, so on
// timeout the worker goroutine is abandoned and runs to completion in the
// background; the caller still gets ErrTimeout within the budget plus
// scheduling slack.
func (e *Executor) Invoke(ctx context.Context, toolName, source string, input map[string]any) (any, error) {
	type outcome struct {
		out any
		err error
	}
	ch := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{nil, fmt.Errorf("%w: panic: %v", ErrRuntime, r)}
			}
		}()
		out, err := e.run(toolName, source, input)
		ch <- outcome{out, err}
	}()

	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case o := <-ch:
		return o.out, o.err
	case <-timer.C:
		e.logger.Warn("sandbox invocation timed out",
			zap.String("tool", toolName),
			zap.Duration("budget", e.timeout))
		return nil, fmt.Errorf("%w after %s", ErrTimeout, e.timeout)
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
	}
}

// run does the actual load/validate/call sequence on the worker goroutine.
func (e *Executor) run(toolName, source string, input map[string]any) (any, error) {
	i := interp.New(interp.Options{})

	if err := i.Use(e.stdlib); err != nil {
		return nil, fmt.Errorf("%w: stdlib symbols: %v", ErrLoad, err)
	}
	if err := i.Use(e.schema); err != nil {
		return nil, fmt.Errorf("%w: schema symbols: %v", ErrLoad, err)
	}
	if err := i.Use(toollogExports(e.logger, toolName)); err != nil {
		return nil, fmt.Errorf("%w: toollog symbols: %v", ErrLoad, err)
	}

	if _, err := i.Eval(source); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}

	schemaVal, err := i.Eval("main.InputSchema")
	if err != nil {
		return nil, fmt.Errorf("%w: InputSchema not found: %v", ErrLoad, err)
	}
	inputSchema, ok := schemaVal.Interface().(*schema.Schema)
	if !ok || inputSchema == nil {
		return nil, fmt.Errorf("%w: InputSchema is not a schema object", ErrLoad)
	}

	if input == nil {
		input = map[string]any{}
	}
	if violations := inputSchema.Validate(input); len(violations) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, schema.FormatErrors(violations))
	}

	handlerVal, err := i.Eval("main.Handler")
	if err != nil {
		return nil, fmt.Errorf("%w: Handler not found: %v", ErrLoad, err)
	}
	handler, ok := handlerVal.Interface().(func(map[string]any) (any, error))
	if !ok {
		return nil, fmt.Errorf("%w: Handler has wrong signature (want func(map[string]any) (any, error))", ErrLoad)
	}

	out, err := handler(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRuntime, err)
	}
	return out, nil
}
