package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the dotted event code, e.g. "chat.session_closed".
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func NewEvent(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now().UTC()}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Handler processes one delivered event.
type Handler func(ctx context.Context, event Event) error

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type Subscriber interface {
	// Subscribe delivers events whose subject matches the pattern. Durable
	// names identify the consumer across restarts where the backend
	// supports it.
	Subscribe(subject string, durableName string, handler Handler) error
}

const SubjectPrefix = "events."

func Subject(eventType string) string {
	return SubjectPrefix + eventType
}

func TypeFromSubject(subject string) string {
	return strings.TrimPrefix(subject, SubjectPrefix)
}

// envelope is the wire format shared by every backend.
type envelope struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func Marshal(event Event) ([]byte, error) {
	return json.Marshal(envelope{
		Type:       event.EventType(),
		Data:       event.Payload(),
		OccurredAt: event.Timestamp(),
	})
}

// Unmarshal decodes an envelope. fallbackType is used when the payload has
// no type of its own.
func Unmarshal(raw []byte, fallbackType string) (BaseEvent, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return BaseEvent{}, err
	}
	if env.Type == "" {
		env.Type = fallbackType
	}
	if env.OccurredAt.IsZero() {
		env.OccurredAt = time.Now().UTC()
	}
	return BaseEvent{Type: env.Type, Data: env.Data, OccurredAt: env.OccurredAt}, nil
}

// MatchSubject applies NATS wildcard rules: "*" matches one token and a
// trailing ">" matches one or more.
func MatchSubject(pattern, subject string) bool {
	p := strings.Split(pattern, ".")
	s := strings.Split(subject, ".")
	for i, token := range p {
		if token == ">" {
			return i == len(p)-1 && len(s) > i
		}
		if i >= len(s) {
			return false
		}
		if token != "*" && token != s[i] {
			return false
		}
	}
	return len(p) == len(s)
}
