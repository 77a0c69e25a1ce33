package events

import "refpool/core/types"

// Event represents a structured state change emitted by a program.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers (e.g. the runtime
// receipt, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Typed is implemented by events that can render themselves as a flat
// attribute map.
type Typed interface {
	Event
	Event() *types.Event
}

// Recorder buffers emitted events in order. It is not safe for concurrent use.
type Recorder struct {
	events []types.Event
}

// Emit implements the Emitter interface.
func (r *Recorder) Emit(evt Event) {
	if r == nil || evt == nil {
		return
	}
	if typed, ok := evt.(Typed); ok {
		if rendered := typed.Event(); rendered != nil {
			r.events = append(r.events, *rendered.Clone())
			return
		}
	}
	r.events = append(r.events, types.Event{Type: evt.EventType(), Attributes: map[string]string{}})
}

// Events returns a copy of the buffered events.
func (r *Recorder) Events() []types.Event {
	if r == nil {
		return nil
	}
	out := make([]types.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Reset discards buffered events.
func (r *Recorder) Reset() {
	if r == nil {
		return
	}
	r.events = r.events[:0]
}
