package server

import (
	"github.com/milk9111/actionengine/action"
	"github.com/milk9111/actionengine/ecs"
	"github.com/milk9111/actionengine/movement"
	"github.com/milk9111/actionengine/replication"
)

// Character bundles the per-character collaborators the action engine
// talks to.
type Character struct {
	Handle   ecs.Entity
	Name     string
	Movement *movement.Controller
	Net      *replication.NetState
	Actions  *action.Supervisor

	activities ecs.Queue[action.Activity]
}

// ActionView is a read-only snapshot of one live action.
type ActionView struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Phase       string  `json:"phase"`
	TimeRunning float64 `json:"time_running"`
	Blocking    bool    `json:"blocking"`
}

// CharacterView is a read-only snapshot of a character for tools and the
// control API.
type CharacterView struct {
	ID            uint64       `json:"id"`
	Name          string       `json:"name"`
	X             float64      `json:"x"`
	Y             float64      `json:"y"`
	MovementState string       `json:"movement_state"`
	Stealthy      bool         `json:"stealthy"`
	Actions       []ActionView `json:"actions"`
	Queued        int          `json:"queued"`
}

// View snapshots c. Call it on the simulation goroutine.
func (c *Character) View() CharacterView {
	x, y := c.Movement.Position()
	v := CharacterView{
		ID:            uint64(c.Handle),
		Name:          c.Name,
		X:             x,
		Y:             y,
		MovementState: c.Movement.State().String(),
		Stealthy:      c.Net.StealthyVar().Value(),
		Queued:        c.Actions.Queued(),
	}
	blocking := c.Actions.Blocking()
	for _, a := range c.Actions.Active() {
		v.Actions = append(v.Actions, ActionView{
			ID:          a.ID().String(),
			Type:        string(a.Descriptor().Type),
			Phase:       string(a.Phase()),
			TimeRunning: a.TimeRunning(),
			Blocking:    a == blocking,
		})
	}
	return v
}
