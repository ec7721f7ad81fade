package core

import (
	"sync"

	"github.com/google/uuid"
)

type EventContext struct {
	Data struct {
		U32 [4]uint32
		C   [2]string
	}
}

// System internal event codes. Application should use codes beyond 255.
type SystemEventCode int

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT SystemEventCode = 0x01

	// Resized/resolution changed from the OS.
	/* Context usage:
	 * u32 width = data.U32[0];
	 * u32 height = data.U32[1];
	 */
	EVENT_CODE_RESIZED SystemEventCode = 0x08

	// An asset on disk changed.
	/* Context usage:
	 * string path = data.C[0];
	 */
	EVENT_CODE_ASSET_CHANGED SystemEventCode = 0x09

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

// Should return true if handled.
type FnOnEvent func(code SystemEventCode, sender interface{}, data EventContext) bool

type registeredEvent struct {
	id       uuid.UUID
	callback FnOnEvent
}

// EventBus dispatches events to listeners registered per code. Listeners run
// synchronously on the goroutine that fires.
type EventBus struct {
	mu         sync.RWMutex
	registered map[SystemEventCode][]registeredEvent
}

func NewEventBus() *EventBus {
	return &EventBus{
		registered: make(map[SystemEventCode][]registeredEvent),
	}
}

// Register adds a listener for code and returns the handle used to unregister it.
func (b *EventBus) Register(code SystemEventCode, onEvent FnOnEvent) uuid.UUID {
	id := uuid.New()
	b.mu.Lock()
	b.registered[code] = append(b.registered[code], registeredEvent{id: id, callback: onEvent})
	b.mu.Unlock()
	return id
}

// Unregister removes the listener with the given handle. Returns false when it was not found.
func (b *EventBus) Unregister(code SystemEventCode, id uuid.UUID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	events := b.registered[code]
	for i := range events {
		if events[i].id == id {
			b.registered[code] = append(events[:i:i], events[i+1:]...)
			return true
		}
	}
	return false
}

/**
 * Fires an event to listeners of the given code. If an event handler returns
 * true, the event is considered handled and is not passed on to any more listeners.
 */
func (b *EventBus) Fire(code SystemEventCode, sender interface{}, context EventContext) bool {
	b.mu.RLock()
	events := append([]registeredEvent(nil), b.registered[code]...)
	b.mu.RUnlock()

	for _, e := range events {
		if e.callback(code, sender, context) {
			return true
		}
	}
	return false
}

// Shutdown drops every listener.
func (b *EventBus) Shutdown() {
	b.mu.Lock()
	b.registered = make(map[SystemEventCode][]registeredEvent)
	b.mu.Unlock()
}
