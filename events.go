package ecs

// Added is emitted exactly once whenever a component of type T starts
// existing on an entity: on a fresh insert, and on the "add" half of a
// replace-insert (after Removed has been emitted for the old value).
type Added[T any] struct {
	ID  EntityID
	Ptr *T
}

// Removed is emitted exactly once whenever a component of type T stops
// existing on an entity: on erase, on entity removal, on container Clear,
// and on the "remove" half of a replace-insert. Ptr is still valid and
// dereferenceable at the moment the event fires; the data isn't actually
// discarded until after every handler has run.
type Removed[T any] struct {
	ID  EntityID
	Ptr *T
}

// subscription is one registered (id, callback) pair for an event type.
type subscription struct {
	id       uint64
	callback func(any)
}

// EventDispatcher is a type-keyed mapping from event type to an ordered list
// of subscriptions. Subscribers are invoked synchronously, in registration
// order; a handler is free to emit further events, including of its own
// type, during its own invocation.
type EventDispatcher struct {
	handlers  map[eventTypeKey][]subscription
	nextSubID uint64
}

// NewEventDispatcher returns an empty dispatcher.
func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{handlers: make(map[eventTypeKey][]subscription, 16)}
}

// Subscription is a handle returned by Subscribe. Closing it unregisters the
// callback; this is the idiomatic-Go stand-in for monkero's
// event_subscription RAII destructor (see SPEC_FULL.md REDESIGN FLAGS).
type Subscription struct {
	dispatcher *EventDispatcher
	key        eventTypeKey
	id         uint64
}

// Close unregisters the subscription. Closing an already-closed or
// zero-value Subscription is a no-op.
func (s *Subscription) Close() {
	if s.dispatcher == nil {
		return
	}
	list := s.dispatcher.handlers[s.key]
	for i, sub := range list {
		if sub.id == s.id {
			s.dispatcher.handlers[s.key] = append(list[:i], list[i+1:]...)
			break
		}
	}
	s.dispatcher = nil
}

// Subscribe registers handler to be called whenever an event of type E is
// published, and returns a handle that unregisters it on Close.
func Subscribe[E any](d *EventDispatcher, handler func(E)) Subscription {
	key := eventKey[E]()
	id := d.nextSubID
	d.nextSubID++
	d.handlers[key] = append(d.handlers[key], subscription{
		id: id,
		callback: func(v any) {
			handler(v.(E))
		},
	})
	return Subscription{dispatcher: d, key: key, id: id}
}

// Publish synchronously invokes every subscriber of type E, in registration
// order. Reentrant: a handler may call Publish again, including for E.
func Publish[E any](d *EventDispatcher, event E) {
	key := eventKey[E]()
	handlers := d.handlers[key]
	for _, sub := range handlers {
		sub.callback(event)
	}
}

// GetHandlerCount returns the exact number of subscribers currently
// registered for event type E.
func GetHandlerCount[E any](d *EventDispatcher) int {
	return len(d.handlers[eventKey[E]()])
}
