package sandbox

import "errors"

// Invocation failure classes. The executor never lets a tool failure
// propagate as a panic; every outcome is one of these wrapped with detail.
var (
	// ErrLoad is returned when the artifact fails to evaluate or does not
	// expose the required symbols with the right types.
	ErrLoad = errors.New("artifact failed to load")

	// ErrInvalidInput is returned when caller input fails the artifact's
	// InputSchema. The message lists every violating field.
	ErrInvalidInput = errors.New("input validation failed")

	// ErrRuntime is returned when the handler returned an error or
	// panicked; the original message is preserved.
	ErrRuntime = errors.New("tool execution failed")

	// ErrTimeout is returned when the invocation exceeded its wall-clock
	// budget.
	ErrTimeout = errors.New("tool execution timed out")
)
