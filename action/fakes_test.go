package action

import (
	"fmt"

	"github.com/milk9111/actionengine/ecs"
)

// recorder captures every outbound notification in order.
type recorder struct {
	events   []string
	stealthy fakeField
}

type fakeField struct {
	rec   *recorder
	value bool
	sets  int
}

func (f *fakeField) Value() bool { return f.value }

func (f *fakeField) Set(v bool) {
	f.sets++
	if f.value == v {
		return
	}
	f.value = v
	f.rec.events = append(f.rec.events, fmt.Sprintf("stealthy=%t", v))
}

func newRecorder() *recorder {
	r := &recorder{}
	r.stealthy.rec = r
	return r
}

func (r *recorder) NotifyExecute(req Request) {
	r.events = append(r.events, "execute:"+string(req.Type))
}

func (r *recorder) NotifyCancelByType(t Type) {
	r.events = append(r.events, "cancel:"+string(t))
}

func (r *recorder) Stealthy() BoolField { return &r.stealthy }

func (r *recorder) count(event string) int {
	n := 0
	for _, e := range r.events {
		if e == event {
			n++
		}
	}
	return n
}

type fakeMovement struct {
	forced    bool
	moving    bool
	cancelled int
}

func (m *fakeMovement) IsPerformingForcedMovement() bool { return m.forced }

func (m *fakeMovement) CancelVoluntaryMovement() {
	m.cancelled++
	m.moving = false
}

type mapLookup map[Type]*Descriptor

func (m mapLookup) Lookup(t Type) (*Descriptor, bool) {
	d, ok := m[t]
	return d, ok
}

func newHost(rec *recorder, mv *fakeMovement) Host {
	return Host{Owner: ecs.Entity(1), Channel: rec, Movement: mv}
}

func stealthDescriptor() *Descriptor {
	return &Descriptor{
		Type:            "stealth_mode",
		Logic:           LogicStealthMode,
		ExecTimeSeconds: 1.0,
		BlockingMode:    BlockOnlyDuringExecTime,
		Interruptible:   true,
		Exclusive:       true,
		ExclusiveGroup:  "stealth",
		LockMovement:    true,
	}
}
