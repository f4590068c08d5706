package registry

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// ToolEventType enumerates the invocation lifecycle notifications.
type ToolEventType string

const (
	// EventToolRequested fires before dispatch, once per request.
	EventToolRequested ToolEventType = "tool_requested"

	// EventToolFinished fires after the result is assembled, success or not.
	EventToolFinished ToolEventType = "tool_finished"
)

// ToolEvent is one lifecycle notification.
type ToolEvent struct {
	Type      ToolEventType `json:"type"`
	Request   ToolRequest   `json:"request"`
	Result    *ToolResult   `json:"result,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// EventBus fans invocation events out to subscribers. Subscribers run
// synchronously in subscription order; a panicking subscriber is logged and
// skipped, never fatal to the invocation.
type EventBus struct {
	mu       sync.RWMutex
	handlers []func(ToolEvent)
	logger   *zap.Logger
}

// NewEventBus creates an empty bus.
func NewEventBus(logger *zap.Logger) *EventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventBus{logger: logger}
}

// Subscribe registers a handler for all subsequent events.
func (b *EventBus) Subscribe(fn func(ToolEvent)) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	b.handlers = append(b.handlers, fn)
	b.mu.Unlock()
}

// Publish delivers the event to every subscriber.
func (b *EventBus) Publish(ev ToolEvent) {
	b.mu.RLock()
	handlers := make([]func(ToolEvent), len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, fn := range handlers {
		b.safeCall(fn, ev)
	}
}

func (b *EventBus) safeCall(fn func(ToolEvent), ev ToolEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Warn("event subscriber panicked",
				zap.String("event", string(ev.Type)),
				zap.Any("panic", r))
		}
	}()
	fn(ev)
}
