package action

import (
	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"go.uber.org/zap"
)

// Action is the lifecycle contract every ability variant implements. All
// methods run on the simulation goroutine and never block.
type Action interface {
	ID() uuid.UUID
	Descriptor() *Descriptor
	Request() Request
	Phase() Phase
	TimeRunning() float64

	// Start runs once when the supervisor admits the action. Returning
	// false refuses admission.
	Start() bool
	// Update advances the action by dt seconds and reports whether it is
	// still alive.
	Update(dt float64) bool
	// ShouldBecomeNonBlocking is polled while the action holds the
	// blocking slot.
	ShouldBecomeNonBlocking() bool
	// Cancel ends the action early. It is idempotent.
	Cancel()
	OnGameplayActivity(kind Activity)
}

// StartChecker is implemented by actions whose Start may decline. CanStart
// must not touch the host; the supervisor calls it before it cancels
// anything on the new action's behalf.
type StartChecker interface {
	CanStart() bool
}

// Base holds the state shared by every variant. Variants embed it and
// supply Start, Update, Cancel and OnGameplayActivity.
type Base struct {
	host        Host
	desc        *Descriptor
	req         Request
	id          uuid.UUID
	timeRunning float64
	phase       *fsm.FSM
	log         *zap.Logger
}

// NewBase prepares the shared state for one lifecycle.
func NewBase(host Host, desc *Descriptor, req Request) Base {
	id := uuid.New()
	return Base{
		host:  host,
		desc:  desc,
		req:   req,
		id:    id,
		phase: newPhaseMachine(),
		log: host.logger().With(
			zap.Stringer("owner", host.Owner),
			zap.String("action_type", string(desc.Type)),
			zap.String("action_id", id.String()),
		),
	}
}

func (b *Base) ID() uuid.UUID           { return b.id }
func (b *Base) Descriptor() *Descriptor { return b.desc }
func (b *Base) Request() Request        { return b.req }
func (b *Base) TimeRunning() float64    { return b.timeRunning }

func (b *Base) Phase() Phase {
	if b.phase == nil {
		return PhaseCreated
	}
	return Phase(b.phase.Current())
}

// Advance accumulates tick time. Negative deltas are ignored so the clock
// stays monotonic.
func (b *Base) Advance(dt float64) {
	if dt > 0 {
		b.timeRunning += dt
	}
}

// ExecDone reports whether the windup has elapsed.
func (b *Base) ExecDone() bool {
	return b.timeRunning >= b.desc.ExecTimeSeconds
}

// DurationDone reports whether a duration-limited effect has run out.
func (b *Base) DurationDone() bool {
	return b.desc.DurationSeconds > 0 && b.timeRunning >= b.desc.ExecTimeSeconds+b.desc.DurationSeconds
}

// ShouldBecomeNonBlocking follows the descriptor's blocking mode.
func (b *Base) ShouldBecomeNonBlocking() bool {
	switch b.desc.BlockingMode {
	case NonBlocking:
		return true
	case BlockOnlyDuringExecTime:
		return b.ExecDone()
	default:
		return false
	}
}

func (b *Base) markStarted()   { advancePhase(b.phase, eventStart) }
func (b *Base) markCommitted() { advancePhase(b.phase, eventCommit) }
func (b *Base) markEnded()     { advancePhase(b.phase, eventEnd) }
