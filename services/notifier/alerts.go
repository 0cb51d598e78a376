package notifier

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"lyricsync-go/logcolors"

	log "github.com/sirupsen/logrus"
)

const (
	// Default cooldown between alerts of the same type
	DefaultAlertCooldown = 15 * time.Minute
)

// AlertHandler routes infra events (circuit breakers, failure rates) to
// the configured notifiers. Playback and resolution events are consumed
// in-process and never alert.
type AlertHandler struct {
	notifiers        []Notifier
	cooldowns        map[EventType]time.Time // last alert time per event type
	cooldownDuration time.Duration
	mu               sync.RWMutex
}

// AlertConfig holds configuration for the alert handler
type AlertConfig struct {
	Notifiers        []Notifier
	CooldownDuration time.Duration
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(config AlertConfig) *AlertHandler {
	cooldown := config.CooldownDuration
	if cooldown == 0 {
		cooldown = DefaultAlertCooldown
	}

	return &AlertHandler{
		notifiers:        config.Notifiers,
		cooldowns:        make(map[EventType]time.Time),
		cooldownDuration: cooldown,
	}
}

// Start subscribes the handler to the event bus
func (h *AlertHandler) Start() {
	bus := GetEventBus()
	bus.SubscribeAll(h.handleEvent)
	log.Infof("%s Alert handler started (cooldown: %v, notifiers: %d)",
		logcolors.LogNotify, h.cooldownDuration, len(h.notifiers))
}

// handleEvent processes incoming events
func (h *AlertHandler) handleEvent(event *Event) {
	if event.Severity == SeverityInfo {
		return
	}

	if !h.shouldAlert(event.Type) {
		log.Debugf("%s Skipping alert for %s (cooldown active)", logcolors.LogNotify, event.Type)
		return
	}

	subject, message := h.formatAlert(event)
	h.sendAlert(subject, message)
}

// shouldAlert checks if we should send an alert based on cooldown
func (h *AlertHandler) shouldAlert(eventType EventType) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	lastAlert, exists := h.cooldowns[eventType]
	if !exists || time.Since(lastAlert) >= h.cooldownDuration {
		h.cooldowns[eventType] = time.Now()
		return true
	}
	return false
}

// formatAlert builds a subject and message body for an event
func (h *AlertHandler) formatAlert(event *Event) (string, string) {
	subject := fmt.Sprintf("[%s] %s", strings.ToUpper(string(event.Severity)), event.Message)

	var b strings.Builder
	b.WriteString(event.Message)
	b.WriteString("\n\n")
	for key, value := range event.Data {
		fmt.Fprintf(&b, "%s: %v\n", key, value)
	}
	fmt.Fprintf(&b, "at: %s\n", event.Timestamp.Format(time.RFC3339))

	return subject, b.String()
}

// sendAlert fans the alert out to every configured notifier
func (h *AlertHandler) sendAlert(subject, message string) {
	for _, n := range h.notifiers {
		if err := n.Send(subject, message); err != nil {
			log.Errorf("%s Failed to send alert: %v", logcolors.LogNotify, err)
		}
	}
}
