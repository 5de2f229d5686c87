package ecs

import "strconv"

// Entity is a generational handle into a Registry. It never keeps the
// referenced character alive; a stale handle simply stops resolving.
type Entity uint64

type entityID uint32
type generation uint32

const entityIDBits = 32

// Nil is the zero handle. It never resolves.
const Nil Entity = 0

func makeEntity(id entityID, gen generation) Entity {
	return Entity(uint64(gen)<<entityIDBits | uint64(id))
}

func (e Entity) id() entityID {
	return entityID(uint32(e))
}

func (e Entity) generation() generation {
	return generation(uint32(uint64(e) >> entityIDBits))
}

// Index returns the slot index of the handle, ignoring its generation.
func (e Entity) Index() int {
	return int(e.id())
}

func (e Entity) String() string {
	return strconv.FormatUint(uint64(e.id()), 10) + "v" + strconv.FormatUint(uint64(e.generation()), 10)
}

func (e Entity) Valid() bool {
	return e.id() > 0
}
