package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Inbound event kinds.
const (
	KindClick = "click"
	KindInput = "input"
)

// MaxInboundSize bounds a single client frame.
const MaxInboundSize = 64 * 1024

// ErrMissingID is returned for an inbound event without a widget id.
var ErrMissingID = errors.New("protocol: event without id")

// Envelope is one inbound client event.
type Envelope struct {
	Kind  string `json:"type"`
	ID    string `json:"id"`
	Value string `json:"value,omitempty"`
}

// Known reports whether the envelope carries an event kind the runtime
// handles.
func (e Envelope) Known() bool {
	return e.Kind == KindClick || e.Kind == KindInput
}

// DecodeEnvelope parses an inbound frame. Unknown kinds decode without
// error; callers check Known.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if len(data) > MaxInboundSize {
		return env, fmt.Errorf("protocol: frame of %d bytes exceeds limit", len(data))
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return env, fmt.Errorf("protocol: decode envelope: %w", err)
	}
	if env.Known() && env.ID == "" {
		return env, ErrMissingID
	}
	return env, nil
}

// EncodeEnvelope serializes a client event.
func EncodeEnvelope(e Envelope) ([]byte, error) {
	return json.Marshal(e)
}
