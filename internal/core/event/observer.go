package event

import "github.com/l1jgo/ecsrt/internal/core/ecs"

// WorldObserver forwards world lifecycle changes onto a Bus.
type WorldObserver struct {
	bus *Bus
}

func NewWorldObserver(b *Bus) *WorldObserver {
	return &WorldObserver{bus: b}
}

func (o *WorldObserver) EntityCreated(e ecs.Entity) {
	Emit(o.bus, EntityCreated{Entity: e})
}

func (o *WorldObserver) EntityDestroyed(e ecs.Entity) {
	Emit(o.bus, EntityDestroyed{Entity: e})
}

var _ ecs.Observer = (*WorldObserver)(nil)
