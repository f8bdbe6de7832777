package ecs

// Source is a component view a join can draw from: a ReadView or WriteView
// taken from the running system's Access. Pointers handed out for a ReadView
// point at copies, so writing through them never reaches the store.
type Source[T any] interface {
	source() Storage[T]
	entities() *EntityPool
	access() *Access
	writable() bool
}

// visible returns c itself for a writable source and a copy otherwise.
func visible[T any](src Source[T], c *T) *T {
	if src.writable() {
		return c
	}
	v := *c
	return &v
}

// Join2 visits entities that have both component A and B.
// It iterates over the smaller store and checks the larger one.
// Nothing is visited once the Run that produced the views has returned.
func Join2[A, B any](va Source[A], vb Source[B], fn func(Entity, *A, *B) bool) {
	if !va.access().open() || !vb.access().open() {
		return
	}
	sa, sb := va.source(), vb.source()
	pool := va.entities()
	if sa.Len() <= sb.Len() {
		sa.Each(func(id uint32, a *A) bool {
			if b, ok := sb.Get(id); ok {
				e, _ := pool.Current(id)
				return fn(e, visible(va, a), visible(vb, b))
			}
			return true
		})
		return
	}
	sb.Each(func(id uint32, b *B) bool {
		if a, ok := sa.Get(id); ok {
			e, _ := pool.Current(id)
			return fn(e, visible(va, a), visible(vb, b))
		}
		return true
	})
}

// Join3 visits entities that have components A, B, and C.
func Join3[A, B, C any](va Source[A], vb Source[B], vc Source[C], fn func(Entity, *A, *B, *C) bool) {
	if !va.access().open() || !vb.access().open() || !vc.access().open() {
		return
	}
	sa, sb, sc := va.source(), vb.source(), vc.source()
	pool := va.entities()

	// Iterate the smallest store
	smallest := sa.Len()
	which := 0
	if sb.Len() < smallest {
		smallest = sb.Len()
		which = 1
	}
	if sc.Len() < smallest {
		which = 2
	}

	visit := func(id uint32) bool {
		a, ok := sa.Get(id)
		if !ok {
			return true
		}
		b, ok := sb.Get(id)
		if !ok {
			return true
		}
		c, ok := sc.Get(id)
		if !ok {
			return true
		}
		e, _ := pool.Current(id)
		return fn(e, visible(va, a), visible(vb, b), visible(vc, c))
	}
	switch which {
	case 0:
		sa.Each(func(id uint32, _ *A) bool { return visit(id) })
	case 1:
		sb.Each(func(id uint32, _ *B) bool { return visit(id) })
	case 2:
		sc.Each(func(id uint32, _ *C) bool { return visit(id) })
	}
}
