package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/actionengine/action"
	"github.com/milk9111/actionengine/ecs"
	"github.com/milk9111/actionengine/metrics"
	"github.com/milk9111/actionengine/movement"
	"github.com/milk9111/actionengine/replication"
	"go.uber.org/zap"
)

const (
	DefaultWalkSpeed = 4.0
	DefaultTickRate  = 30
)

var (
	ErrUnknownCharacter = errors.New("server: unknown character")
	ErrStopped          = errors.New("server: world stopped")
)

// Command is work applied on the simulation goroutine at the start of the
// next tick.
type Command func(w *World)

// World is the authoritative simulation. Every method except Submit, Do,
// Tick and Run must be called on the simulation goroutine: from a Command,
// from a System, or from a caller that drives Step itself.
type World struct {
	log      *zap.Logger
	metrics  *metrics.Collectors
	factory  *action.Factory
	sink     replication.Sink
	space    *cp.Space
	maxQueue int

	entities   ecs.Registry
	characters ecs.SparseSet[*Character]
	scheduler  *Scheduler

	tick atomic.Uint64

	mu       sync.Mutex
	commands []Command
	stopped  chan struct{}
	stopOnce sync.Once
}

// Options configure a World.
type Options struct {
	Logger        *zap.Logger
	Metrics       *metrics.Collectors
	Sink          replication.Sink
	MaxQueueDepth int
}

// NewWorld builds an empty world whose lifecycles are described by
// descriptors.
func NewWorld(descriptors action.Lookup, opts Options) *World {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	space := cp.NewSpace()
	space.Iterations = 10
	space.SetGravity(cp.Vector{})

	w := &World{
		log:      log.Named("world"),
		metrics:  opts.Metrics,
		factory:  action.NewFactory(descriptors),
		sink:     opts.Sink,
		space:    space,
		maxQueue: opts.MaxQueueDepth,
		stopped:  make(chan struct{}),
	}
	w.scheduler = NewScheduler(
		SystemFunc(commandSystem),
		SystemFunc(movementSystem),
		SystemFunc(activitySystem),
		SystemFunc(actionSystem),
	)
	return w
}

// Factory exposes the lifecycle factory so callers can register logics.
func (w *World) Factory() *action.Factory { return w.factory }

// Tick reports the number of completed steps. Safe from any goroutine.
func (w *World) Tick() uint64 { return w.tick.Load() }

// Spawn creates a character at (x, y).
func (w *World) Spawn(name string, x, y float64) *Character {
	e := w.entities.Create()
	c := &Character{
		Handle:   e,
		Name:     name,
		Movement: movement.NewController(w.space, x, y, DefaultWalkSpeed),
	}
	c.Net = replication.NewNetState(e, w.sink, w.Tick, w.metrics)
	host := action.Host{
		Owner:    e,
		Channel:  c.Net,
		Movement: c.Movement,
		Logger:   w.log,
	}
	c.Actions = action.NewSupervisor(host, w.factory,
		action.WithMetrics(w.metrics),
		action.WithMaxQueueDepth(w.maxQueue),
	)
	w.characters.Set(e, c)
	w.log.Info("character spawned", zap.Stringer("owner", e), zap.String("name", name))
	return c
}

// Despawn cancels the character's actions and removes it.
func (w *World) Despawn(e ecs.Entity) bool {
	c, ok := w.characters.Get(e)
	if !ok {
		return false
	}
	c.Actions.ClearAll()
	c.Movement.Remove()
	w.characters.Remove(e)
	w.entities.Destroy(e)
	w.log.Info("character despawned", zap.Stringer("owner", e))
	return true
}

// Character resolves a live handle.
func (w *World) Character(e ecs.Entity) (*Character, bool) {
	if !w.entities.IsAlive(e) {
		return nil, false
	}
	return w.characters.Get(e)
}

// Characters returns the live handles in storage order.
func (w *World) Characters() []ecs.Entity {
	return append([]ecs.Entity(nil), w.characters.Entities()...)
}

// RequestAction forwards req to the character's supervisor.
func (w *World) RequestAction(e ecs.Entity, req action.Request) (bool, error) {
	c, ok := w.Character(e)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownCharacter, e)
	}
	return c.Actions.Admit(req), nil
}

// ReportActivity queues kind for delivery to the character's live actions
// on the next activity pass.
func (w *World) ReportActivity(e ecs.Entity, kind action.Activity) error {
	c, ok := w.Character(e)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCharacter, e)
	}
	if kind == action.ActivityNone {
		return nil
	}
	c.activities.Push(kind)
	return nil
}

// CancelActions cancels every live action of type t on the character.
func (w *World) CancelActions(e ecs.Entity, t action.Type) (int, error) {
	c, ok := w.Character(e)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCharacter, e)
	}
	return c.Actions.CancelByType(t), nil
}

// MoveTo starts voluntary movement. The attempt is reported to the
// character's actions first; it is refused while a blocking action that
// locks movement holds the slot or while forced movement runs.
func (w *World) MoveTo(e ecs.Entity, x, y float64) (bool, error) {
	c, ok := w.Character(e)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownCharacter, e)
	}
	c.activities.Push(action.MovementAttempted)
	if b := c.Actions.Blocking(); b != nil && b.Descriptor().LockMovement {
		return false, nil
	}
	return c.Movement.MoveTo(x, y), nil
}

// Attack resolves a hit: the attacker reports using an attack, the target
// reports being attacked and is knocked back away from the attacker.
func (w *World) Attack(attacker, target ecs.Entity) error {
	a, ok := w.Character(attacker)
	if !ok {
		return fmt.Errorf("%w: attacker %s", ErrUnknownCharacter, attacker)
	}
	t, ok := w.Character(target)
	if !ok {
		return fmt.Errorf("%w: target %s", ErrUnknownCharacter, target)
	}
	a.activities.Push(action.UsingAttackAction)
	if attacker == target {
		return nil
	}
	t.activities.Push(action.AttackedByEnemy)
	ax, ay := a.Movement.Position()
	t.Movement.StartKnockback(ax, ay, movement.DefaultKnockbackImpulse, movement.DefaultKnockbackDuration)
	return nil
}

// ReloadCatalog swaps the descriptors used for future requests. Live
// lifecycles keep the descriptors they were built with.
func (w *World) ReloadCatalog(descriptors action.Lookup) {
	w.factory.SetDescriptors(descriptors)
	w.log.Info("catalog reloaded")
}

// Step advances the simulation by dt seconds.
func (w *World) Step(dt float64) {
	start := time.Now()
	w.scheduler.Update(w, dt)
	w.tick.Add(1)
	w.metrics.ObserveTick(time.Since(start))
}

// Submit queues cmd for the next tick. Safe from any goroutine.
func (w *World) Submit(cmd Command) {
	if cmd == nil {
		return
	}
	w.mu.Lock()
	w.commands = append(w.commands, cmd)
	w.mu.Unlock()
}

// Do runs fn on the simulation goroutine and waits for it. It fails if ctx
// ends first or the run loop has stopped, and then fn never runs. Once the
// world has picked fn up, Do waits for it to finish and reports success.
func (w *World) Do(ctx context.Context, fn func(w *World)) error {
	const (
		pending int32 = iota
		claimed
		abandoned
	)
	var state atomic.Int32
	done := make(chan struct{})
	w.Submit(func(w *World) {
		if !state.CompareAndSwap(pending, claimed) {
			return
		}
		defer close(done)
		fn(w)
	})

	var err error
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		err = ctx.Err()
	case <-w.stopped:
		err = ErrStopped
	}
	if state.CompareAndSwap(pending, abandoned) {
		return err
	}
	<-done
	return nil
}

func (w *World) drainCommands() []Command {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := w.commands
	w.commands = nil
	return out
}

// Run steps the world at tickRate ticks per second until ctx ends.
func (w *World) Run(ctx context.Context, tickRate int) error {
	if tickRate <= 0 {
		tickRate = DefaultTickRate
	}
	defer w.stopOnce.Do(func() { close(w.stopped) })

	dt := 1.0 / float64(tickRate)
	ticker := time.NewTicker(time.Second / time.Duration(tickRate))
	defer ticker.Stop()

	w.log.Info("world running", zap.Int("tick_rate", tickRate))
	for {
		select {
		case <-ctx.Done():
			w.log.Info("world stopped", zap.Uint64("tick", w.Tick()))
			return ctx.Err()
		case <-ticker.C:
			w.Step(dt)
		}
	}
}
