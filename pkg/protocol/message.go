package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Outbound message type tags.
const (
	TypeUpdateText  = "update_text"
	TypeUpdateInput = "update_input"
	TypeReplace     = "replace"
	TypeSetTheme    = "set_theme"
	TypeHotReload   = "hot_reload"
	TypeHMRError    = "hmr_error"
)

// ErrUnknownType is returned when decoding a message with an unknown tag.
var ErrUnknownType = errors.New("protocol: unknown message type")

// Message is a server to client message.
type Message interface {
	// Type returns the wire tag of the message.
	Type() string
}

// UpdateText sets the text content of a widget.
type UpdateText struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// UpdateInput sets the value of an input widget.
type UpdateInput struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// Replace sets the inner HTML of a widget.
type Replace struct {
	ID   string `json:"id"`
	HTML string `json:"html"`
}

// SetTheme switches the client theme.
type SetTheme struct {
	Theme string `json:"theme"`
}

// HotReload tells clients to reload the page.
type HotReload struct {
	Message string `json:"message"`
}

// HMRError reports a failed reload validation to clients.
type HMRError struct {
	Message string `json:"message"`
}

func (UpdateText) Type() string  { return TypeUpdateText }
func (UpdateInput) Type() string { return TypeUpdateInput }
func (Replace) Type() string     { return TypeReplace }
func (SetTheme) Type() string    { return TypeSetTheme }
func (HotReload) Type() string   { return TypeHotReload }
func (HMRError) Type() string    { return TypeHMRError }

// Encode serializes m with its type tag.
func Encode(m Message) ([]byte, error) {
	if m == nil {
		return nil, errors.New("protocol: nil message")
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("protocol: encode %s: %w", m.Type(), err)
	}
	body := bytes.TrimRight(buf.Bytes(), "\n")

	// Splice the tag in front of the message fields.
	tag, _ := json.Marshal(m.Type())
	out := make([]byte, 0, len(body)+len(tag)+9)
	out = append(out, `{"type":`...)
	out = append(out, tag...)
	if len(body) > 2 {
		out = append(out, ',')
		out = append(out, body[1:]...)
	} else {
		out = append(out, '}')
	}
	return out, nil
}

// Decode parses an outbound message. It is used by tests and tools that
// observe the server stream.
func Decode(data []byte) (Message, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("protocol: decode: %w", err)
	}

	var m Message
	switch head.Type {
	case TypeUpdateText:
		m = &UpdateText{}
	case TypeUpdateInput:
		m = &UpdateInput{}
	case TypeReplace:
		m = &Replace{}
	case TypeSetTheme:
		m = &SetTheme{}
	case TypeHotReload:
		m = &HotReload{}
	case TypeHMRError:
		m = &HMRError{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, head.Type)
	}

	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("protocol: decode %s: %w", head.Type, err)
	}
	return m, nil
}
