package rules

import (
	"sync"
	"time"
)

// EventType indicates the category of a match event.
type EventType string

const (
	EventMatchStarted     EventType = "MATCH_STARTED"
	EventDeckShuffled     EventType = "DECK_SHUFFLED"
	EventCardDrawn        EventType = "CARD_DRAWN"
	EventDeckOut          EventType = "DECK_OUT"
	EventCreaturePlayed   EventType = "CREATURE_PLAYED"
	EventResourceAttached EventType = "RESOURCE_ATTACHED"
	EventSupportPlayed    EventType = "SUPPORT_PLAYED"
	EventAttack           EventType = "ATTACK"
	EventDamageDealt      EventType = "DAMAGE_DEALT"
	EventKnockout         EventType = "KNOCKOUT"
	EventPrizeTaken       EventType = "PRIZE_TAKEN"
	EventPromoted         EventType = "PROMOTED"
	EventConditionApplied EventType = "CONDITION_APPLIED"
	EventConditionCleared EventType = "CONDITION_CLEARED"
	EventActionRejected   EventType = "ACTION_REJECTED"
	EventPhaseChanged     EventType = "PHASE_CHANGED"
	EventTurnEnded        EventType = "TURN_ENDED"
	EventMatchEnded       EventType = "MATCH_ENDED"
)

// NoPlayer marks events that do not belong to a seat.
const NoPlayer = -1

// Event represents a state change that other subsystems may react to.
type Event struct {
	Type        EventType
	MatchID     string
	Turn        int
	Player      int    // seat that caused the event, or NoPlayer
	CardID      string // card instance involved, if any
	CardName    string
	Amount      int    // damage, prizes remaining, cards left...
	Data        string // attack name, condition, rejection reason...
	Timestamp   time.Time
	Description string
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

// TypedListener defines a callback that reacts to a specific event type.
type TypedListener struct {
	Handle    int
	EventType EventType
	Callback  func(Event)
}

// EventBus provides a synchronous publish/subscribe implementation with type filtering.
type EventBus struct {
	mu             sync.RWMutex
	listeners      map[int]Listener
	typedListeners map[EventType][]TypedListener
	nextHandle     int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners:      make(map[int]Listener),
		typedListeners: make(map[EventType][]TypedListener),
	}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	return handle
}

// SubscribeTyped registers a listener for a specific event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, callback func(Event)) int {
	if callback == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.typedListeners[eventType] = append(bus.typedListeners[eventType], TypedListener{
		Handle:    handle,
		EventType: eventType,
		Callback:  callback,
	})
	return handle
}

// Unsubscribe removes the listener identified by the provided handle,
// whether it was registered with Subscribe or SubscribeTyped.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.listeners, handle)
	for eventType, listeners := range bus.typedListeners {
		for i := len(listeners) - 1; i >= 0; i-- {
			if listeners[i].Handle == handle {
				bus.typedListeners[eventType] = append(listeners[:i], listeners[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the event to all registered listeners synchronously.
func (bus *EventBus) Publish(event Event) {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	for _, listener := range bus.listeners {
		listener(event)
	}
	for _, listener := range bus.typedListeners[event.Type] {
		listener.Callback(event)
	}
}

// NewEvent creates a new event with common fields populated.
func NewEvent(eventType EventType, matchID string, turn, player int) Event {
	return Event{
		Type:      eventType,
		MatchID:   matchID,
		Turn:      turn,
		Player:    player,
		Timestamp: time.Now(),
	}
}

// NewEventWithAmount creates a new event with an amount value.
func NewEventWithAmount(eventType EventType, matchID string, turn, player, amount int) Event {
	evt := NewEvent(eventType, matchID, turn, player)
	evt.Amount = amount
	return evt
}
