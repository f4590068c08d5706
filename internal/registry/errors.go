package registry

import "errors"

var (
	// ErrToolNotFound is returned when a requested tool exists in no catalog.
	ErrToolNotFound = errors.New("tool not found")

	// ErrNameCollision is returned when a generated tool would shadow a
	// native tool of the same base name.
	ErrNameCollision = errors.New("tool name collides with a native tool")

	// ErrSourceUnavailable is returned when a request routes to a source
	// that has no backing runner or client configured.
	ErrSourceUnavailable = errors.New("tool source unavailable")
)
