package action

// Emote plays a timed animation. It ends on its own after the windup plus
// its duration, or early when the character is hit or tries to move.
type Emote struct {
	Base

	ended bool
}

// NewEmote builds an emote lifecycle.
func NewEmote(host Host, desc *Descriptor, req Request) (Action, error) {
	return &Emote{Base: NewBase(host, desc, req)}, nil
}

func (a *Emote) Start() bool {
	a.markStarted()
	if a.host.Channel != nil {
		a.host.Channel.NotifyExecute(a.req)
	}
	if a.desc.LockMovement {
		a.host.lockMovement()
	}
	return true
}

func (a *Emote) Update(dt float64) bool {
	if a.ended {
		return false
	}
	a.Advance(dt)
	if a.ExecDone() {
		a.markCommitted()
	}
	if a.ExecDone() && a.timeRunning >= a.desc.ExecTimeSeconds+a.desc.DurationSeconds {
		a.end()
	}
	return !a.ended
}

func (a *Emote) Cancel() {
	a.end()
}

func (a *Emote) OnGameplayActivity(kind Activity) {
	switch kind {
	case AttackedByEnemy, MovementAttempted:
		a.end()
	}
}

func (a *Emote) end() {
	if a.ended {
		return
	}
	a.ended = true
	a.markEnded()
	if a.host.Channel != nil {
		a.host.Channel.NotifyCancelByType(a.desc.Type)
	}
}
