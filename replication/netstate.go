package replication

import (
	"sync/atomic"

	"github.com/milk9111/actionengine/action"
	"github.com/milk9111/actionengine/ecs"
	"github.com/milk9111/actionengine/metrics"
)

const FieldStealthy = "is_stealthy"

// seq orders messages across every NetState in the process.
var seq atomic.Uint64

// NetState is one character's network-observable state and its outbound
// notification channel.
type NetState struct {
	owner    ecs.Entity
	sink     Sink
	clock    Clock
	metrics  *metrics.Collectors
	stealthy *Var[bool]
}

// NewNetState wires a character's replicated fields to sink.
func NewNetState(owner ecs.Entity, sink Sink, clock Clock, m *metrics.Collectors) *NetState {
	n := &NetState{
		owner:    owner,
		sink:     sink,
		clock:    clock,
		metrics:  m,
		stealthy: NewVar(FieldStealthy, false),
	}
	n.stealthy.OnChange(func(_, next bool) {
		n.publish(Message{Kind: KindField, Field: FieldStealthy, Value: next})
	})
	return n
}

var _ action.ReplicatedStateChannel = (*NetState)(nil)

func (n *NetState) NotifyExecute(req action.Request) {
	r := req
	n.publish(Message{Kind: KindExecute, ActionType: req.Type, Request: &r})
}

func (n *NetState) NotifyCancelByType(t action.Type) {
	n.metrics.TypeCancelBroadcast(string(t))
	n.publish(Message{Kind: KindCancelByType, ActionType: t})
}

func (n *NetState) Stealthy() action.BoolField {
	return n.stealthy
}

// StealthyVar exposes the typed field for observers.
func (n *NetState) StealthyVar() *Var[bool] {
	return n.stealthy
}

func (n *NetState) publish(msg Message) {
	if n == nil || n.sink == nil {
		return
	}
	msg.Seq = seq.Add(1)
	msg.Owner = uint64(n.owner)
	if n.clock != nil {
		msg.Tick = n.clock()
	}
	n.sink.Publish(msg)
}
