package ecs

// Registry tracks entity generations and recycles freed ids. A destroyed
// handle's generation is bumped so old handles stop resolving.
type Registry struct {
	gen   []generation
	free  []entityID
	alive int
}

// Create allocates a new live handle.
func (r *Registry) Create() Entity {
	if r == nil {
		return Nil
	}
	var id entityID
	if n := len(r.free); n > 0 {
		id = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		r.gen = append(r.gen, 0)
		id = entityID(len(r.gen))
	}
	r.alive++
	return makeEntity(id, r.gen[id-1])
}

// Destroy invalidates e. It reports false for stale or unknown handles.
func (r *Registry) Destroy(e Entity) bool {
	if !r.IsAlive(e) {
		return false
	}
	idx := e.id() - 1
	r.gen[idx]++
	r.free = append(r.free, e.id())
	r.alive--
	return true
}

// IsAlive reports whether e still refers to a live entity.
func (r *Registry) IsAlive(e Entity) bool {
	if r == nil || !e.Valid() || int(e.id()) > len(r.gen) {
		return false
	}
	return r.gen[e.id()-1] == e.generation()
}

// Len returns the number of live entities.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return r.alive
}
