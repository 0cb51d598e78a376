package notifier

import (
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	// Playback events
	EventActiveIndexChanged EventType = "active_index_changed"
	EventActiveIndexCleared EventType = "active_index_cleared"
	EventTrackChanged       EventType = "track_changed"

	// Resolution events
	EventCandidatesReady   EventType = "candidates_ready"
	EventSelectionTimeout  EventType = "selection_timeout"
	EventLyricsResolved    EventType = "lyrics_resolved"
	EventLyricsUnavailable EventType = "lyrics_unavailable"

	// Infra events
	EventCircuitBreakerOpen      EventType = "circuit_breaker_open"
	EventCircuitBreakerRecovered EventType = "circuit_breaker_recovered"
	EventHighFailureRate         EventType = "high_failure_rate"
	EventServerStarted           EventType = "server_started"
	EventCacheCleared            EventType = "cache_cleared"
)

// Severity represents the severity level of an event
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Event represents a system event
type Event struct {
	Type      EventType
	Severity  Severity
	Message   string
	Data      map[string]interface{}
	Timestamp time.Time
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, severity Severity, message string) *Event {
	return &Event{
		Type:      eventType,
		Severity:  severity,
		Message:   message,
		Data:      make(map[string]interface{}),
		Timestamp: time.Now(),
	}
}

// WithData adds data to the event (chainable)
func (e *Event) WithData(key string, value interface{}) *Event {
	e.Data[key] = value
	return e
}

// EventHandler is a function that handles events
type EventHandler func(event *Event)

// EventBus manages event publishing and subscription
type EventBus struct {
	handlers    map[EventType][]EventHandler
	allHandlers []EventHandler // handlers that receive all events
	mu          sync.RWMutex
}

// Global event bus instance
var globalBus *EventBus
var busOnce sync.Once

// GetEventBus returns the global event bus instance
func GetEventBus() *EventBus {
	busOnce.Do(func() {
		globalBus = &EventBus{
			handlers:    make(map[EventType][]EventHandler),
			allHandlers: make([]EventHandler, 0),
		}
	})
	return globalBus
}

// Subscribe adds a handler for a specific event type
func (b *EventBus) Subscribe(eventType EventType, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// SubscribeAll adds a handler that receives all events
func (b *EventBus) SubscribeAll(handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allHandlers = append(b.allHandlers, handler)
}

// Publish sends an event to all subscribed handlers
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	// Call specific handlers
	if handlers, ok := b.handlers[event.Type]; ok {
		for _, handler := range handlers {
			go handler(event)
		}
	}

	// Call handlers subscribed to all events
	for _, handler := range b.allHandlers {
		go handler(event)
	}
}

// Helper functions for publishing common events

// PublishActiveIndexChanged publishes a scheduler index advance
func PublishActiveIndexChanged(trackID string, index int) {
	event := NewEvent(EventActiveIndexChanged, SeverityInfo,
		"Active lyric line changed").
		WithData("track_id", trackID).
		WithData("index", index)
	GetEventBus().Publish(event)
}

// PublishActiveIndexCleared publishes that the scheduler went idle
func PublishActiveIndexCleared(trackID string) {
	event := NewEvent(EventActiveIndexCleared, SeverityInfo,
		"Active lyric line cleared").
		WithData("track_id", trackID)
	GetEventBus().Publish(event)
}

// PublishTrackChanged publishes that playback moved to a new track
func PublishTrackChanged(track, artist string) {
	event := NewEvent(EventTrackChanged, SeverityInfo,
		"Playback moved to a new track").
		WithData("track", track).
		WithData("artist", artist)
	GetEventBus().Publish(event)
}

// PublishCandidatesReady publishes that a resolution is awaiting a
// manual selection
func PublishCandidatesReady(track string, count int) {
	event := NewEvent(EventCandidatesReady, SeverityInfo,
		"No exact match found, candidates await manual selection").
		WithData("track", track).
		WithData("count", count)
	GetEventBus().Publish(event)
}

// PublishSelectionTimeout publishes that a manual selection window
// expired without a pick
func PublishSelectionTimeout(track string) {
	event := NewEvent(EventSelectionTimeout, SeverityInfo,
		"Manual selection timed out").
		WithData("track", track)
	GetEventBus().Publish(event)
}

// PublishLyricsResolved publishes a successful resolution
func PublishLyricsResolved(track, source string, lines int) {
	event := NewEvent(EventLyricsResolved, SeverityInfo,
		"Lyrics resolved").
		WithData("track", track).
		WithData("source", source).
		WithData("lines", lines)
	GetEventBus().Publish(event)
}

// PublishLyricsUnavailable publishes that resolution finished empty
func PublishLyricsUnavailable(track string) {
	event := NewEvent(EventLyricsUnavailable, SeverityInfo,
		"No lyrics available").
		WithData("track", track)
	GetEventBus().Publish(event)
}

// PublishCircuitBreakerOpen publishes a circuit breaker open event
func PublishCircuitBreakerOpen(name string, failures int, cooldown time.Duration) {
	event := NewEvent(EventCircuitBreakerOpen, SeverityCritical,
		"Circuit breaker has opened due to consecutive failures").
		WithData("name", name).
		WithData("failures", failures).
		WithData("cooldown", cooldown.String())
	GetEventBus().Publish(event)
}

// PublishCircuitBreakerRecovered publishes a circuit breaker recovery event
func PublishCircuitBreakerRecovered(name string) {
	event := NewEvent(EventCircuitBreakerRecovered, SeverityInfo,
		"Circuit breaker has recovered and is operational").
		WithData("name", name)
	GetEventBus().Publish(event)
}

// PublishHighFailureRate publishes a high failure rate warning
func PublishHighFailureRate(name string, failures, threshold int) {
	event := NewEvent(EventHighFailureRate, SeverityWarning,
		"High failure rate detected, circuit breaker may trip soon").
		WithData("name", name).
		WithData("failures", failures).
		WithData("threshold", threshold)
	GetEventBus().Publish(event)
}

// PublishServerStarted publishes when the daemon starts successfully
func PublishServerStarted(port string) {
	event := NewEvent(EventServerStarted, SeverityInfo,
		"Server started successfully").
		WithData("port", port)
	GetEventBus().Publish(event)
}

// PublishCacheCleared publishes when the lyric store is cleared
func PublishCacheCleared() {
	event := NewEvent(EventCacheCleared, SeverityInfo,
		"Lyric store has been cleared")
	GetEventBus().Publish(event)
}
