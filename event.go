package flow

// Event is a sealed interface representing a streaming event.
// Events are purely semantic. Transport/protocol errors come from
// Next()'s error return, not from events.
// The unexported marker method prevents external implementations.
type Event interface {
	event()
}

// EventContentDelta represents an incremental content fragment. Fragments
// recovered from unparseable frames arrive through the same event type:
// by the time an event is emitted the distinction no longer matters.
type EventContentDelta struct {
	Delta string
}

func (EventContentDelta) event() {}

// EventRecord carries one decoded record from the event-log feed.
type EventRecord struct {
	Record Record
}

func (EventRecord) event() {}

// Interface compliance checks.
var (
	_ Event = EventContentDelta{}
	_ Event = EventRecord{}
)
