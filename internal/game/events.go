package game

import "sync"

// EventType indicates the category of an engine event.
type EventType string

const (
	EventCombat EventType = "COMBAT"
	EventCoins  EventType = "COINS"
	EventShop   EventType = "SHOP"
	EventFlip   EventType = "FLIP"
	EventFight  EventType = "FIGHT"
	EventSpare  EventType = "SPARE"
	EventFlee   EventType = "FLEE"
	EventTurn   EventType = "TURN"
)

// Event describes a semantically meaningful occurrence the presentation
// layer may react to. Target carries the stable id of the item or monster
// involved (-1 when none), Amount the coin or star quantity involved.
type Event struct {
	Type   EventType
	Player string
	Target int
	Amount int
}

// Listener is a callback reacting to published events.
type Listener func(Event)

type typedListener struct {
	handle   int
	callback Listener
}

// EventBus is a synchronous in-process publish/subscribe registry. Publish
// runs every subscriber for the event's type in subscription order on the
// caller's goroutine; a panicking subscriber is not caught here.
type EventBus struct {
	mu         sync.RWMutex
	listeners  map[EventType][]typedListener
	nextHandle int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{listeners: make(map[EventType][]typedListener)}
}

// Subscribe registers a listener for one event type and returns a handle
// usable with Unsubscribe.
func (bus *EventBus) Subscribe(eventType EventType, callback Listener) int {
	if callback == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[eventType] = append(bus.listeners[eventType], typedListener{handle: handle, callback: callback})
	return handle
}

// Unsubscribe removes the listener identified by the provided handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	for eventType, listeners := range bus.listeners {
		for i := len(listeners) - 1; i >= 0; i-- {
			if listeners[i].handle == handle {
				bus.listeners[eventType] = append(listeners[:i], listeners[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers the event to all listeners registered for its type.
func (bus *EventBus) Publish(event Event) {
	bus.mu.RLock()
	listeners := bus.listeners[event.Type]
	bus.mu.RUnlock()

	for _, listener := range listeners {
		listener.callback(event)
	}
}

// PublishAll publishes a batch of events in order.
func (bus *EventBus) PublishAll(events []Event) {
	for _, event := range events {
		bus.Publish(event)
	}
}
