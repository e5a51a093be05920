package editor

import "github.com/matzehuels/layerstack/pkg/sample"

// EventKind identifies what changed.
type EventKind int

const (
	EventLoaded EventKind = iota + 1
	EventAdded
	EventReordered
	EventRenumbered
	EventRenamed
	EventUpdated
)

var eventNames = map[EventKind]string{
	EventLoaded:     "loaded",
	EventAdded:      "added",
	EventReordered:  "reordered",
	EventRenumbered: "renumbered",
	EventRenamed:    "renamed",
	EventUpdated:    "updated",
}

func (k EventKind) String() string {
	if s, ok := eventNames[k]; ok {
		return s
	}
	return "unknown"
}

// Event is delivered to subscribers after every successful change.
//
// Stack is a deep copy taken at the time of the change; subscribers may keep
// it. LayerID names the affected layer, or is empty for whole-stack changes.
type Event struct {
	Kind    EventKind
	LayerID string
	Stack   *sample.Stack
}

// Subscribe registers fn to receive events and returns a function that
// removes it. Events are delivered synchronously, in order, on the goroutine
// that made the change, after the editor's lock is released.
func (e *Editor) Subscribe(fn func(Event)) (cancel func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextID
	e.nextID++
	e.subs[id] = fn

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subs, id)
	}
}

// event builds an event with a copy of the stack. Callers hold e.mu.
func (e *Editor) event(kind EventKind, id string) Event {
	return Event{Kind: kind, LayerID: id, Stack: e.stack.Clone()}
}

func (e *Editor) publish(ev Event) {
	e.mu.Lock()
	subs := make([]func(Event), 0, len(e.subs))
	for i := 0; i < e.nextID; i++ {
		if fn, ok := e.subs[i]; ok {
			subs = append(subs, fn)
		}
	}
	e.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}
