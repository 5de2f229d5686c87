package ecs

import "testing"

func TestRegistryLifecycle(t *testing.T) {
	cases := []struct {
		name         string
		create       int
		destroyIndex int // -1 = none
	}{
		{"single", 1, 0},
		{"three_create_destroy_middle", 3, 1},
		{"none_destroy", 2, -1},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var r Registry
			ents := make([]Entity, 0, c.create)
			for i := 0; i < c.create; i++ {
				ents = append(ents, r.Create())
			}
			if r.Len() != c.create {
				t.Fatalf("expected %d entities, got %d", c.create, r.Len())
			}
			if c.destroyIndex >= 0 {
				e := ents[c.destroyIndex]
				if !r.Destroy(e) {
					t.Fatalf("Destroy should return true for alive entity")
				}
				if r.IsAlive(e) {
					t.Fatalf("entity should not be alive after destruction")
				}
				if r.Destroy(e) {
					t.Fatalf("second Destroy should return false")
				}
				if r.Len() != c.create-1 {
					t.Fatalf("expected %d live entities, got %d", c.create-1, r.Len())
				}
			}
		})
	}
}

func TestRegistryRecyclesWithNewGeneration(t *testing.T) {
	var r Registry
	old := r.Create()
	r.Destroy(old)

	fresh := r.Create()
	if fresh.Index() != old.Index() {
		t.Fatalf("expected slot %d to be reused, got %d", old.Index(), fresh.Index())
	}
	if fresh == old {
		t.Fatalf("recycled handle must differ from the stale one")
	}
	if r.IsAlive(old) {
		t.Fatalf("stale handle %s should not resolve", old)
	}
	if !r.IsAlive(fresh) {
		t.Fatalf("fresh handle %s should resolve", fresh)
	}
}

func TestNilNeverResolves(t *testing.T) {
	var r Registry
	r.Create()
	if Nil.Valid() {
		t.Fatalf("Nil should not be valid")
	}
	if r.IsAlive(Nil) {
		t.Fatalf("Nil should never be alive")
	}
	var nilRegistry *Registry
	if nilRegistry.IsAlive(Nil) || nilRegistry.Len() != 0 || nilRegistry.Create() != Nil {
		t.Fatalf("nil registry should be inert")
	}
}
