package models

import "encoding/json"

// Control event types understood by the listener. Every other type is opaque.
const (
	EventTypePing     = "PING"
	EventTypeShutdown = "SHUTDOWN"
)

// Event is a decoded feed message. Fields holds every top-level key of the
// wire object, "type" included; Raw is the original object as received.
type Event struct {
	Type   string
	Typed  bool
	Fields map[string]json.RawMessage
	Raw    json.RawMessage
}

func (e Event) IsPing() bool {
	return e.Typed && e.Type == EventTypePing
}

func (e Event) IsShutdown() bool {
	return e.Typed && e.Type == EventTypeShutdown
}

// Field returns the raw JSON value stored under key.
func (e Event) Field(key string) (json.RawMessage, bool) {
	v, ok := e.Fields[key]
	return v, ok
}
