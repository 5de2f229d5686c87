package server

import "github.com/milk9111/actionengine/ecs"

// commandSystem applies work submitted from other goroutines.
func commandSystem(w *World, _ float64) {
	for _, cmd := range w.drainCommands() {
		cmd(w)
	}
}

// movementSystem steers every body, then steps the physics space once.
func movementSystem(w *World, dt float64) {
	w.characters.Each(func(_ ecs.Entity, c *Character) {
		c.Movement.Update(dt)
	})
	if w.space != nil && dt > 0 {
		w.space.Step(dt)
	}
}

// activitySystem delivers the tick's gameplay activities before any action
// updates, so an interrupt reported between two ticks lands ahead of the
// next windup check.
func activitySystem(w *World, _ float64) {
	w.characters.Each(func(_ ecs.Entity, c *Character) {
		for _, kind := range c.activities.Drain() {
			c.Actions.OnGameplayActivity(kind)
		}
	})
}

// actionSystem ticks every character's supervisor by the same delta.
func actionSystem(w *World, dt float64) {
	w.characters.Each(func(_ ecs.Entity, c *Character) {
		c.Actions.Tick(dt)
	})
}
