package action

import (
	"context"

	"github.com/looplab/fsm"
)

// Phase is the externally visible lifecycle stage of an action.
type Phase string

const (
	PhaseCreated   Phase = "created"
	PhaseExecuting Phase = "executing"
	PhaseActive    Phase = "active"
	PhaseEnded     Phase = "ended"
)

const (
	eventStart  = "start"
	eventCommit = "commit"
	eventEnd    = "end"
)

func newPhaseMachine() *fsm.FSM {
	return fsm.NewFSM(
		string(PhaseCreated),
		fsm.Events{
			{Name: eventStart, Src: []string{string(PhaseCreated)}, Dst: string(PhaseExecuting)},
			{Name: eventCommit, Src: []string{string(PhaseExecuting)}, Dst: string(PhaseActive)},
			{Name: eventEnd, Src: []string{string(PhaseCreated), string(PhaseExecuting), string(PhaseActive)}, Dst: string(PhaseEnded)},
		},
		fsm.Callbacks{},
	)
}

// advancePhase fires event if the current phase allows it. Ended is
// terminal, so late events are dropped.
func advancePhase(m *fsm.FSM, event string) {
	if m == nil || !m.Can(event) {
		return
	}
	_ = m.Event(context.Background(), event)
}
