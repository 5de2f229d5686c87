package action

import "go.uber.org/zap"

// StealthMode hides the character once the windup elapses. Being attacked
// during the windup aborts it; attacking or being attacked afterwards
// breaks it.
type StealthMode struct {
	Base

	effectStarted bool
	effectEnded   bool
}

// NewStealthMode builds a stealth lifecycle.
func NewStealthMode(host Host, desc *Descriptor, req Request) (Action, error) {
	return &StealthMode{Base: NewBase(host, desc, req)}, nil
}

func (a *StealthMode) Start() bool {
	a.markStarted()
	// remote observers play the windup effect right away
	if a.host.Channel != nil {
		a.host.Channel.NotifyExecute(a.req)
	}
	if a.desc.LockMovement {
		a.host.lockMovement()
	}
	return true
}

func (a *StealthMode) ShouldBecomeNonBlocking() bool {
	return a.ExecDone()
}

func (a *StealthMode) Update(dt float64) bool {
	if a.effectEnded {
		return false
	}
	a.Advance(dt)
	if a.ExecDone() && !a.effectStarted && !a.effectEnded {
		a.effectStarted = true
		a.markCommitted()
		if a.host.Channel != nil {
			a.host.Channel.Stealthy().Set(true)
		}
		a.log.Debug("stealth committed", zap.Float64("time_running", a.timeRunning))
	}
	if a.effectStarted && a.DurationDone() {
		a.endStealth()
	}
	return !a.effectEnded
}

func (a *StealthMode) Cancel() {
	a.endStealth()
}

func (a *StealthMode) OnGameplayActivity(kind Activity) {
	switch kind {
	case UsingAttackAction, AttackedByEnemy:
		a.endStealth()
	}
}

func (a *StealthMode) endStealth() {
	if a.effectEnded {
		return
	}
	a.effectEnded = true
	a.markEnded()
	if a.host.Channel == nil {
		return
	}
	if a.effectStarted {
		a.host.Channel.Stealthy().Set(false)
	}
	// Cancelling the remote effects here rather than in Cancel means a
	// re-trigger (cancel old, start new) clears the old effect without
	// also clearing the new one that is already queued on clients.
	a.host.Channel.NotifyCancelByType(a.desc.Type)
	a.log.Debug("stealth ended", zap.Bool("effect_started", a.effectStarted))
}
