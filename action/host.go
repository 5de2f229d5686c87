package action

import (
	"github.com/milk9111/actionengine/ecs"
	"go.uber.org/zap"
)

// BoolField is a replicated boolean on the character's network state.
type BoolField interface {
	Value() bool
	Set(v bool)
}

// ReplicatedStateChannel pushes one-way notifications to remote observers.
// Calls never block and expect no acknowledgement.
type ReplicatedStateChannel interface {
	NotifyExecute(req Request)
	NotifyCancelByType(t Type)
	Stealthy() BoolField
}

// MovementController is the slice of character movement an action needs.
type MovementController interface {
	IsPerformingForcedMovement() bool
	CancelVoluntaryMovement()
}

// Host carries the per-character collaborators handed to every lifecycle.
// Owner is a handle, so a lifecycle never keeps its character alive.
type Host struct {
	Owner    ecs.Entity
	Channel  ReplicatedStateChannel
	Movement MovementController
	Logger   *zap.Logger
}

func (h Host) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

// lockMovement cancels voluntary movement unless the character is being
// moved by an outside force.
func (h Host) lockMovement() {
	if h.Movement == nil {
		return
	}
	if h.Movement.IsPerformingForcedMovement() {
		return
	}
	h.Movement.CancelVoluntaryMovement()
}
