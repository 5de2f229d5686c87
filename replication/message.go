package replication

import (
	"github.com/goccy/go-json"
	"github.com/milk9111/actionengine/action"
)

// MessageKind identifies an outbound notification.
type MessageKind string

const (
	// KindExecute tells observers to start playing an action's effects.
	KindExecute MessageKind = "execute"
	// KindCancelByType tells observers to stop every effect of a type.
	KindCancelByType MessageKind = "cancel_by_type"
	// KindField carries a replicated field change.
	KindField MessageKind = "field"
)

// Message is one ordered, fire-and-forget notification for remote
// observers.
type Message struct {
	Seq        uint64          `json:"seq"`
	Tick       uint64          `json:"tick"`
	Owner      uint64          `json:"owner"`
	Kind       MessageKind     `json:"kind"`
	ActionType action.Type     `json:"action_type,omitempty"`
	Request    *action.Request `json:"request,omitempty"`
	Field      string          `json:"field,omitempty"`
	Value      any             `json:"value,omitempty"`
}

// Encode renders m as the wire JSON sent to subscribers.
func (m Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Sink receives outbound messages. Publish must not block the simulation.
type Sink interface {
	Publish(msg Message)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Message)

func (f SinkFunc) Publish(msg Message) {
	if f != nil {
		f(msg)
	}
}

type tee []Sink

func (t tee) Publish(msg Message) {
	for _, s := range t {
		s.Publish(msg)
	}
}

// Tee fans every message out to each non-nil sink in order.
func Tee(sinks ...Sink) Sink {
	out := make(tee, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Clock reports the current simulation tick.
type Clock func() uint64
