// Package movement drives server-side character locomotion on a chipmunk
// space. Voluntary movement (walking to a point) can be cancelled by
// actions; forced movement (knockback, charges) cannot.
package movement

import (
	"math"

	"github.com/jakecoffman/cp"
)

const (
	bodyMass   = 1.0
	bodyRadius = 0.5

	arriveEpsilon = 1e-3

	DefaultKnockbackImpulse  = 8.0
	DefaultKnockbackDuration = 0.4
	knockbackMaxSpeed        = 28.0
)

// State is the current locomotion mode.
type State int

const (
	Idle State = iota
	PathFollowing
	Knockback
	Charging
)

func (s State) String() string {
	switch s {
	case PathFollowing:
		return "path_following"
	case Knockback:
		return "knockback"
	case Charging:
		return "charging"
	default:
		return "idle"
	}
}

// Controller owns one character's body in a shared space.
type Controller struct {
	space *cp.Space
	body  *cp.Body
	speed float64

	state           State
	target          cp.Vector
	chargeVelocity  cp.Vector
	forcedRemaining float64
}

// NewController adds a body for a character at (x, y) that walks at speed
// units per second.
func NewController(space *cp.Space, x, y, speed float64) *Controller {
	body := cp.NewBody(bodyMass, cp.MomentForCircle(bodyMass, 0, bodyRadius, cp.Vector{}))
	body.SetPosition(cp.Vector{X: x, Y: y})
	if space != nil {
		space.AddBody(body)
	}
	return &Controller{space: space, body: body, speed: speed}
}

// Remove takes the body out of its space.
func (c *Controller) Remove() {
	if c == nil || c.space == nil || c.body == nil {
		return
	}
	c.space.RemoveBody(c.body)
	c.space = nil
}

func (c *Controller) State() State {
	if c == nil {
		return Idle
	}
	return c.state
}

func (c *Controller) Position() (x, y float64) {
	if c == nil || c.body == nil {
		return 0, 0
	}
	p := c.body.Position()
	return p.X, p.Y
}

func (c *Controller) Velocity() (x, y float64) {
	if c == nil || c.body == nil {
		return 0, 0
	}
	v := c.body.Velocity()
	return v.X, v.Y
}

// MoveTo starts walking toward (x, y). It reports false while forced
// movement is in progress.
func (c *Controller) MoveTo(x, y float64) bool {
	if c == nil || c.IsPerformingForcedMovement() {
		return false
	}
	c.target = cp.Vector{X: x, Y: y}
	c.state = PathFollowing
	return true
}

func (c *Controller) IsPerformingForcedMovement() bool {
	if c == nil {
		return false
	}
	return c.state == Knockback || c.state == Charging
}

// CancelVoluntaryMovement stops path following. Forced movement keeps
// going.
func (c *Controller) CancelVoluntaryMovement() {
	if c == nil || c.state != PathFollowing {
		return
	}
	c.stop()
}

// StartKnockback pushes the body away from (fromX, fromY) for duration
// seconds.
func (c *Controller) StartKnockback(fromX, fromY, impulse, duration float64) {
	if c == nil || c.body == nil {
		return
	}
	pos := c.body.Position()
	dx := pos.X - fromX
	dy := pos.Y - fromY
	length := math.Hypot(dx, dy)
	if length <= 1e-6 {
		dx = 0
		dy = -1
		length = 1
	}
	nx := dx / length
	ny := dy / length

	c.body.SetVelocityVector(cp.Vector{})
	c.body.ApplyImpulseAtWorldPoint(cp.Vector{X: nx * impulse, Y: ny * impulse}, pos)

	// cap the speed so stacked hits in one tick don't launch the body
	v := c.body.Velocity()
	if speed := math.Hypot(v.X, v.Y); speed > knockbackMaxSpeed {
		scale := knockbackMaxSpeed / speed
		c.body.SetVelocityVector(cp.Vector{X: v.X * scale, Y: v.Y * scale})
	}

	c.state = Knockback
	c.forcedRemaining = duration
}

// StartCharge moves the body along (dirX, dirY) at speed for duration
// seconds.
func (c *Controller) StartCharge(dirX, dirY, speed, duration float64) {
	if c == nil || c.body == nil {
		return
	}
	length := math.Hypot(dirX, dirY)
	if length <= 1e-6 {
		return
	}
	c.chargeVelocity = cp.Vector{X: dirX / length * speed, Y: dirY / length * speed}
	c.body.SetVelocityVector(c.chargeVelocity)
	c.state = Charging
	c.forcedRemaining = duration
}

// Update steers the body for the coming physics step.
func (c *Controller) Update(dt float64) {
	if c == nil || c.body == nil {
		return
	}
	switch c.state {
	case Knockback, Charging:
		if c.forcedRemaining <= 0 {
			c.stop()
			return
		}
		c.forcedRemaining -= dt
		if c.state == Charging {
			c.body.SetVelocityVector(c.chargeVelocity)
		}
	case PathFollowing:
		pos := c.body.Position()
		delta := c.target.Sub(pos)
		dist := delta.Length()
		if dist <= arriveEpsilon || dist <= c.speed*dt {
			c.body.SetPosition(c.target)
			c.stop()
			return
		}
		c.body.SetVelocityVector(delta.Normalize().Mult(c.speed))
	}
}

func (c *Controller) stop() {
	c.state = Idle
	c.forcedRemaining = 0
	c.body.SetVelocityVector(cp.Vector{})
}
