package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventUserSignedUp   = "user_signed_up"
	EventSpotCreated    = "spot_created"
	EventSpotUpdated    = "spot_updated"
	EventSpotDeleted    = "spot_deleted"
	EventReviewCreated  = "review_created"
	EventReviewDeleted  = "review_deleted"
	EventBookingCreated = "booking_created"
	EventBookingUpdated = "booking_updated"
	EventBookingDeleted = "booking_deleted"

	// AllEvents subscribes a handler to every event type.
	AllEvents = "*"
)

// BookingEventPayload describes the booking snapshot for event consumers.
type BookingEventPayload struct {
	BookingID int64  `json:"booking_id"`
	SpotID    int64  `json:"spot_id"`
	UserID    int64  `json:"user_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	ActorID   int64  `json:"actor_id,omitempty"`
}

type SpotEventPayload struct {
	SpotID  int64  `json:"spot_id"`
	OwnerID int64  `json:"owner_id"`
	Name    string `json:"name,omitempty"`
}

type ReviewEventPayload struct {
	ReviewID int64 `json:"review_id"`
	SpotID   int64 `json:"spot_id"`
	UserID   int64 `json:"user_id"`
	Stars    int   `json:"stars,omitempty"`
}

type UserEventPayload struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	onError     func(event *Event, err error)
	mu          sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// OnError installs a callback for handler failures. Failures never reach the publisher.
func (b *EventBus) OnError(fn func(event *Event, err error)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onError = fn
}

// Subscribe registers a handler for an event type, or AllEvents.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish runs the matching handlers synchronously, specific ones first.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	handlers = append(handlers, b.subscribers[AllEvents]...)
	onError := b.onError
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		if err := handler(event); err != nil && onError != nil {
			onError(event, err)
		}
	}
}

// PublishJSON serializes the payload and publishes an event. A nil bus is a no-op.
func (b *EventBus) PublishJSON(eventType string, payload any) error {
	if b == nil {
		return nil
	}

	event, err := NewJSONEvent(eventType, payload)
	if err != nil {
		return err
	}
	b.Publish(&event)
	return nil
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}
