package action

import (
	"github.com/google/uuid"
	"github.com/milk9111/actionengine/metrics"
	"go.uber.org/zap"
)

const DefaultMaxQueueDepth = 4

// Supervisor owns every live action of one character. At most one blocking
// action runs at a time; non-blocking actions run beside it. Supervisor is
// not safe for concurrent use; the simulation goroutine owns it.
type Supervisor struct {
	host     Host
	builder  Builder
	log      *zap.Logger
	metrics  *metrics.Collectors
	maxQueue int

	blocking    Action
	nonBlocking []Action
	queue       []Action
}

type Option func(*Supervisor)

func WithMetrics(m *metrics.Collectors) Option {
	return func(s *Supervisor) { s.metrics = m }
}

// WithMaxQueueDepth bounds how many blocking requests may wait behind the
// running one. Zero disables queueing.
func WithMaxQueueDepth(n int) Option {
	return func(s *Supervisor) {
		if n >= 0 {
			s.maxQueue = n
		}
	}
}

func NewSupervisor(host Host, builder Builder, opts ...Option) *Supervisor {
	s := &Supervisor{
		host:     host,
		builder:  builder,
		log:      host.logger().With(zap.Stringer("owner", host.Owner)),
		maxQueue: DefaultMaxQueueDepth,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Admit builds and starts the lifecycle for req. A false result is a
// policy refusal, not a fault: the blocking slot is taken, the queue is
// full, the request names an unknown type, or Start declined.
func (s *Supervisor) Admit(req Request) bool {
	if s == nil || s.builder == nil {
		return false
	}
	a, err := s.builder.Build(s.host, req)
	if err != nil {
		s.refuse(req.Type, metrics.ReasonBuild, zap.Error(err))
		return false
	}
	desc := a.Descriptor()

	var interrupt Action
	if desc.Blocks() && s.blocking != nil {
		blocker := s.blocking
		switch {
		case desc.Displaces(blocker.Descriptor()) && !req.ShouldQueue:
			// start() cancels it below
		case req.ShouldQueue:
			if len(s.queue) >= s.maxQueue {
				s.refuse(desc.Type, metrics.ReasonQueueFull)
				return false
			}
			s.queue = append(s.queue, a)
			s.metrics.ActionQueued(string(desc.Type))
			s.log.Debug("action queued", zap.String("action_type", string(desc.Type)), zap.Int("depth", len(s.queue)))
			return true
		case blocker.Descriptor().Interruptible:
			interrupt = blocker
		default:
			s.refuse(desc.Type, metrics.ReasonBlocked, zap.String("blocked_by", string(blocker.Descriptor().Type)))
			return false
		}
	}
	return s.start(a, interrupt)
}

// start admits a and cancels the live actions it displaces. Displaced
// actions of a's own type end before Start, so their type-cancel reaches
// observers ahead of the new execute. Every other displaced action ends
// only after Start succeeds, so a declined Start leaves nothing changed.
func (s *Supervisor) start(a Action, interrupt Action) bool {
	desc := a.Descriptor()
	var before, after []Action
	for _, live := range s.Active() {
		if live != interrupt && !desc.Displaces(live.Descriptor()) {
			continue
		}
		if live.Descriptor().Type == desc.Type {
			before = append(before, live)
		} else {
			after = append(after, live)
		}
	}

	if c, ok := a.(StartChecker); ok && !c.CanStart() {
		s.refuse(desc.Type, metrics.ReasonStartFailed)
		return false
	}
	for _, live := range before {
		s.cancelLive(live)
	}
	if !a.Start() {
		s.refuse(desc.Type, metrics.ReasonStartFailed)
		return false
	}
	for _, live := range after {
		s.cancelLive(live)
	}
	if desc.Blocks() {
		s.blocking = a
	} else {
		s.nonBlocking = append(s.nonBlocking, a)
	}
	s.metrics.ActionAdmitted(string(desc.Type))
	s.log.Debug("action started",
		zap.String("action_type", string(desc.Type)),
		zap.String("action_id", a.ID().String()),
		zap.Bool("blocking", desc.Blocks()),
	)
	return true
}

func (s *Supervisor) refuse(t Type, reason string, fields ...zap.Field) {
	s.metrics.ActionRefused(string(t), reason)
	fields = append([]zap.Field{zap.String("action_type", string(t)), zap.String("reason", reason)}, fields...)
	s.log.Info("action refused", fields...)
}

// Tick advances every live action by dt. The blocking action runs first,
// then the non-blocking ones in admission order. An action whose Update
// reports not-alive is removed before Tick returns, so it is never updated
// again.
func (s *Supervisor) Tick(dt float64) {
	if s == nil {
		return
	}
	running := make([]Action, len(s.nonBlocking))
	copy(running, s.nonBlocking)

	if b := s.blocking; b != nil {
		switch {
		case !b.Update(dt):
			s.blocking = nil
			s.retire(b)
		case b.ShouldBecomeNonBlocking():
			s.blocking = nil
			s.nonBlocking = append(s.nonBlocking, b)
			s.log.Debug("action became non-blocking", zap.String("action_id", b.ID().String()))
		}
	}

	var dead map[Action]struct{}
	for _, a := range running {
		if a.Update(dt) {
			continue
		}
		if dead == nil {
			dead = map[Action]struct{}{}
		}
		dead[a] = struct{}{}
	}
	if dead != nil {
		s.nonBlocking = s.removeWhere(s.nonBlocking, func(a Action) bool {
			_, ok := dead[a]
			if ok {
				s.retire(a)
			}
			return ok
		})
	}

	s.promote()
}

// OnGameplayActivity routes kind to every live action.
func (s *Supervisor) OnGameplayActivity(kind Activity) int {
	if s == nil {
		return 0
	}
	n := Dispatch(kind, s.Active())
	if n > 0 {
		s.metrics.ActivityRouted(kind.String())
		s.log.Debug("activity routed", zap.Stringer("activity", kind), zap.Int("targets", n))
	}
	return n
}

// CancelByType cancels every live action of type t and drops queued
// requests of that type without starting them. It returns how many live
// actions were cancelled.
func (s *Supervisor) CancelByType(t Type) int {
	if s == nil {
		return 0
	}
	n := s.cancelType(t)
	s.queue = s.removeWhere(s.queue, func(a Action) bool {
		return a.Descriptor().Type == t
	})
	s.promote()
	return n
}

// Cancel ends one specific action. Queued actions are dropped unstarted.
func (s *Supervisor) Cancel(id uuid.UUID) bool {
	if s == nil {
		return false
	}
	for _, a := range s.Active() {
		if a.ID() == id {
			s.cancelLive(a)
			s.promote()
			return true
		}
	}
	found := false
	s.queue = s.removeWhere(s.queue, func(a Action) bool {
		if a.ID() == id {
			found = true
			return true
		}
		return false
	})
	return found
}

// ClearAll cancels every live action and empties the queue.
func (s *Supervisor) ClearAll() {
	if s == nil {
		return
	}
	s.queue = nil
	for _, a := range s.Active() {
		s.cancelLive(a)
	}
}

// Active returns a snapshot of the live actions, blocking one first.
func (s *Supervisor) Active() []Action {
	if s == nil {
		return nil
	}
	out := make([]Action, 0, len(s.nonBlocking)+1)
	if s.blocking != nil {
		out = append(out, s.blocking)
	}
	return append(out, s.nonBlocking...)
}

// Blocking returns the action holding the blocking slot, if any.
func (s *Supervisor) Blocking() Action {
	if s == nil {
		return nil
	}
	return s.blocking
}

// Queued returns how many blocking requests are waiting.
func (s *Supervisor) Queued() int {
	if s == nil {
		return 0
	}
	return len(s.queue)
}

func (s *Supervisor) cancelType(t Type) int {
	n := 0
	for _, a := range s.Active() {
		if a.Descriptor().Type == t {
			s.cancelLive(a)
			n++
		}
	}
	return n
}

func (s *Supervisor) cancelLive(a Action) {
	a.Cancel()
	if s.blocking == a {
		s.blocking = nil
	} else {
		s.nonBlocking = s.removeWhere(s.nonBlocking, func(other Action) bool { return other == a })
	}
	s.metrics.ActionCancelled(string(a.Descriptor().Type))
	s.retire(a)
}

func (s *Supervisor) retire(a Action) {
	s.metrics.ActionRemoved()
	s.log.Debug("action removed",
		zap.String("action_type", string(a.Descriptor().Type)),
		zap.String("action_id", a.ID().String()),
		zap.Float64("time_running", a.TimeRunning()),
	)
}

// promote fills an empty blocking slot from the queue.
func (s *Supervisor) promote() {
	for s.blocking == nil && len(s.queue) > 0 {
		next := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.start(next, nil)
	}
}

func (s *Supervisor) removeWhere(list []Action, match func(Action) bool) []Action {
	out := list[:0]
	for _, a := range list {
		if !match(a) {
			out = append(out, a)
		}
	}
	for i := len(out); i < len(list); i++ {
		list[i] = nil
	}
	return out
}
