// Package codec turns raw feed payloads into events and builds heartbeat replies.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"feed-listener/internal/models"
)

// ErrNotObject is wrapped by DecodeError when the payload is valid JSON but
// not an object.
var ErrNotObject = errors.New("payload is not a JSON object")

var pong = []byte("PONG")

// DecodeError reports a payload that could not be decoded into an event.
type DecodeError struct {
	Payload []byte
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %d byte payload: %v", len(e.Payload), e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode parses b as a JSON object. The "type" key is read when it holds a
// string; otherwise the event is untyped and its Type is "".
func Decode(b []byte) (models.Event, error) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		if json.Valid(trimmed) {
			return models.Event{}, &DecodeError{Payload: b, Err: ErrNotObject}
		}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return models.Event{}, &DecodeError{Payload: b, Err: err}
	}
	if fields == nil {
		return models.Event{}, &DecodeError{Payload: b, Err: ErrNotObject}
	}

	event := models.Event{
		Fields: fields,
		Raw:    json.RawMessage(append([]byte(nil), trimmed...)),
	}
	if rawType, ok := fields["type"]; ok {
		var t string
		if err := json.Unmarshal(rawType, &t); err == nil {
			event.Type = t
			event.Typed = true
		}
	}
	return event, nil
}

// EncodePong returns the plain-text heartbeat reply.
func EncodePong() []byte {
	return append([]byte(nil), pong...)
}

// Format renders the whole event as compact JSON in wire key order.
func Format(e models.Event) []byte {
	if len(e.Raw) > 0 {
		var buf bytes.Buffer
		if err := json.Compact(&buf, e.Raw); err == nil {
			return buf.Bytes()
		}
		return append([]byte(nil), e.Raw...)
	}
	out, err := json.Marshal(e.Fields)
	if err != nil {
		return nil
	}
	return out
}
