package dev

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/pkg/errors"
)

// TopicTransitions carries one message per supervisor state change.
const TopicTransitions = "tau.reload.transitions"

// State is a reload supervisor state.
type State int

const (
	StateIdle State = iota
	StateWatching
	StateChangeDetected
	StateValidating
	StateRestarting
	StateReportError
)

var stateNames = [...]string{
	StateIdle:           "idle",
	StateWatching:       "watching",
	StateChangeDetected: "change_detected",
	StateValidating:     "validating",
	StateRestarting:     "restarting",
	StateReportError:    "report_error",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(b []byte) error {
	for i, name := range stateNames {
		if name == string(b) {
			*s = State(i)
			return nil
		}
	}
	*s = StateIdle
	return nil
}

// Transition is the payload published on TopicTransitions. Delivery order
// is not guaranteed; Seq orders transitions of one supervisor.
type Transition struct {
	Seq    uint64    `json:"seq"`
	From   State     `json:"from"`
	To     State     `json:"to"`
	At     time.Time `json:"at"`
	Reason string    `json:"reason,omitempty"`
	Files  []string  `json:"files,omitempty"`
}

// NewBus creates the in-process pub/sub used for reload events.
func NewBus(logger *slog.Logger) *gochannel.GoChannel {
	if logger == nil {
		logger = slog.Default().With("component", "dev.bus")
	}
	return gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewSlogLogger(logger),
	)
}

func publishTransition(pub message.Publisher, t Transition) error {
	if pub == nil {
		return nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return pub.Publish(TopicTransitions, message.NewMessage(watermill.NewUUID(), b))
}

// DecodeTransition decodes a message published on TopicTransitions.
func DecodeTransition(msg *message.Message) (Transition, error) {
	var t Transition
	err := json.Unmarshal(msg.Payload, &t)
	return t, err
}

// SubscribeTransitions subscribes to TopicTransitions and delivers decoded
// transitions on the returned channel. The subscription exists when it
// returns, so nothing published afterwards is missed. The channel is closed
// when ctx is done or the subscriber is closed.
func SubscribeTransitions(ctx context.Context, sub message.Subscriber, log *slog.Logger) (<-chan Transition, error) {
	msgs, err := sub.Subscribe(ctx, TopicTransitions)
	if err != nil {
		return nil, errors.Wrap(err, "subscribe to transitions")
	}
	log = logger(log)

	out := make(chan Transition, 16)
	go func() {
		defer close(out)
		for msg := range msgs {
			t, err := DecodeTransition(msg)
			msg.Ack()
			if err != nil {
				log.Debug("undecodable transition", "error", err)
				continue
			}
			select {
			case out <- t:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
