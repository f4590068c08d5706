package regen

import (
	"time"

	"toolforge/internal/spec"
)

// EventType enumerates specification lifecycle notifications.
type EventType string

const (
	EventToolAdded           EventType = "added"
	EventToolUpdated         EventType = "updated"
	EventToolRemoved         EventType = "removed"
	EventGenerationStarted   EventType = "generation_started"
	EventGenerationCompleted EventType = "generation_completed"
	EventGenerationFailed    EventType = "generation_failed"
)

// Event is one lifecycle notification. Definition is set for added/updated
// and generation events where a parsed definition exists; Err is set only
// for generation_failed.
type Event struct {
	Type       EventType
	Tool       string
	Definition *spec.ToolDefinition
	Err        error
	Timestamp  time.Time
}
