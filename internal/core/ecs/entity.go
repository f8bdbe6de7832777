package ecs

import "fmt"

// Entity is a slot id paired with the generation it was issued under.
// Two entities with the same ID but different generations are distinct.
type Entity struct {
	ID         uint32
	Generation uint32
}

func (e Entity) String() string {
	return fmt.Sprintf("Entity(%d:%d)", e.ID, e.Generation)
}

// EntityPool allocates entities from a LIFO free list and falls back to a
// monotonically increasing counter. Generations are bumped on reuse, never on release.
type EntityPool struct {
	generations []uint32 // last issued generation per id
	alive       []bool
	freeList    []Entity
	nextID      uint32
	live        int
}

func NewEntityPool() *EntityPool {
	return &EntityPool{
		generations: make([]uint32, 0, 1024),
		alive:       make([]bool, 0, 1024),
		freeList:    make([]Entity, 0, 256),
	}
}

// Allocate returns an identity that has never been live before.
func (p *EntityPool) Allocate() Entity {
	var e Entity
	if n := len(p.freeList); n > 0 {
		e = p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		e.Generation++
	} else {
		e = Entity{ID: p.nextID}
		p.nextID++
	}
	p.ensure(e.ID)
	p.generations[e.ID] = e.Generation
	p.alive[e.ID] = true
	p.live++
	return e
}

// Release pushes e onto the free list unchanged. It does not check that e is
// the live generation of its slot; releasing one identity twice without an
// allocation in between duplicates the slot. World.Destroy guards against that.
func (p *EntityPool) Release(e Entity) {
	if int(e.ID) < len(p.alive) && p.alive[e.ID] {
		p.alive[e.ID] = false
		p.live--
	}
	p.freeList = append(p.freeList, e)
}

// Alive reports whether e is the live generation of its slot.
func (p *EntityPool) Alive(e Entity) bool {
	if int(e.ID) >= len(p.alive) {
		return false
	}
	return p.alive[e.ID] && p.generations[e.ID] == e.Generation
}

// Current returns the live entity occupying id, if any.
func (p *EntityPool) Current(id uint32) (Entity, bool) {
	if int(id) >= len(p.alive) || !p.alive[id] {
		return Entity{}, false
	}
	return Entity{ID: id, Generation: p.generations[id]}, true
}

// Len returns the number of live entities.
func (p *EntityPool) Len() int { return p.live }

// Issued returns how many distinct ids the counter has handed out.
func (p *EntityPool) Issued() uint32 { return p.nextID }

func (p *EntityPool) ensure(id uint32) {
	for int(id) >= len(p.generations) {
		p.generations = append(p.generations, 0)
		p.alive = append(p.alive, false)
	}
}
