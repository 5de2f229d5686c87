package action

import "github.com/milk9111/actionengine/ecs"

// Position is a world-space point.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Request describes one invocation of an ability. It is consumed once when
// the lifecycle is built.
type Request struct {
	Type     Type       `json:"type"`
	Target   ecs.Entity `json:"target,omitempty"`
	Position Position   `json:"position"`
	// ShouldQueue waits behind a running blocking action instead of being
	// refused.
	ShouldQueue bool   `json:"should_queue,omitempty"`
	Reason      string `json:"reason,omitempty"`
}
