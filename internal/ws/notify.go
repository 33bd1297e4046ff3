package ws

import (
	"encoding/json"
	"time"
)

// Event is the envelope every broadcast wears: the event type, the
// run-specific payload and a UTC timestamp.
type Event struct {
	Type      string `json:"type"`
	Payload   any    `json:"payload,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Notifier adapts the hub to the crawl monitor's notification hook.
type Notifier struct {
	hub *Hub
}

func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

func (n *Notifier) Notify(event string, payload any) {
	if n == nil || n.hub == nil {
		return
	}
	if event == "" {
		return
	}

	evt := Event{
		Type:      event,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return
	}
	n.hub.Broadcast(b)
}
