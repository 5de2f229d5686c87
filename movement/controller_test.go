package movement

import (
	"math"
	"testing"

	"github.com/jakecoffman/cp"
)

func step(space *cp.Space, c *Controller, dt float64, n int) {
	for i := 0; i < n; i++ {
		c.Update(dt)
		space.Step(dt)
	}
}

func TestMoveToArrives(t *testing.T) {
	space := cp.NewSpace()
	c := NewController(space, 0, 0, 4)

	if !c.MoveTo(2, 0) {
		t.Fatalf("MoveTo should start path following")
	}
	if c.State() != PathFollowing {
		t.Fatalf("expected path_following, got %s", c.State())
	}
	step(space, c, 0.1, 10)

	x, y := c.Position()
	if math.Abs(x-2) > 1e-6 || math.Abs(y) > 1e-6 {
		t.Fatalf("expected to arrive at (2,0), got (%v,%v)", x, y)
	}
	if c.State() != Idle {
		t.Fatalf("expected idle after arrival, got %s", c.State())
	}
}

func TestCancelVoluntaryMovement(t *testing.T) {
	space := cp.NewSpace()
	c := NewController(space, 0, 0, 4)
	c.MoveTo(10, 0)
	step(space, c, 0.1, 2)

	c.CancelVoluntaryMovement()
	if c.State() != Idle {
		t.Fatalf("expected idle, got %s", c.State())
	}
	x, _ := c.Position()
	step(space, c, 0.1, 3)
	if nx, _ := c.Position(); nx != x {
		t.Fatalf("body kept moving after cancel: %v -> %v", x, nx)
	}
}

func TestForcedMovementIgnoresCancel(t *testing.T) {
	cases := []struct {
		name  string
		start func(c *Controller)
		want  State
	}{
		{"knockback", func(c *Controller) { c.StartKnockback(-1, 0, DefaultKnockbackImpulse, DefaultKnockbackDuration) }, Knockback},
		{"charge", func(c *Controller) { c.StartCharge(1, 0, 6, 0.5) }, Charging},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			space := cp.NewSpace()
			c := NewController(space, 0, 0, 4)
			tc.start(c)

			if !c.IsPerformingForcedMovement() || c.State() != tc.want {
				t.Fatalf("expected forced %s, got %s", tc.want, c.State())
			}
			c.CancelVoluntaryMovement()
			if c.State() != tc.want {
				t.Fatalf("cancel must not stop forced movement")
			}
			if c.MoveTo(5, 5) {
				t.Fatalf("MoveTo should be refused during forced movement")
			}
			step(space, c, 0.1, 2)
			if x, _ := c.Position(); x <= 0 {
				t.Fatalf("body should move along +x, got x=%v", x)
			}
			step(space, c, 0.1, 8)
			if c.IsPerformingForcedMovement() {
				t.Fatalf("forced movement should expire")
			}
		})
	}
}

func TestKnockbackSpeedCapped(t *testing.T) {
	c := NewController(cp.NewSpace(), 0, 0, 4)
	c.StartKnockback(0, -1, 1000, 0.2)
	vx, vy := c.Velocity()
	if speed := math.Hypot(vx, vy); speed > knockbackMaxSpeed+1e-9 {
		t.Fatalf("speed %v exceeds cap", speed)
	}
}

func TestRemoveAndNil(t *testing.T) {
	space := cp.NewSpace()
	c := NewController(space, 1, 2, 4)
	c.Remove()
	c.Remove()

	var nilController *Controller
	if nilController.IsPerformingForcedMovement() || nilController.MoveTo(1, 1) {
		t.Fatalf("nil controller should be inert")
	}
	nilController.CancelVoluntaryMovement()
	nilController.Update(0.1)
	if nilController.State() != Idle {
		t.Fatalf("nil controller should be idle")
	}
}
