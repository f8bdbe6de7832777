package ecs

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// Observer is told about entity lifecycle changes after they happen.
type Observer interface {
	EntityCreated(e Entity)
	EntityDestroyed(e Entity)
}

// System is anything that declares a manifest and runs against the handles it names.
type System interface {
	Name() string
	Manifest() Manifest
	Run(a *Access) error
}

// World is the top-level ECS container. It owns the registry, one guarded cell
// per registered type, the entity pool, and a deferred destruction queue.
// Every storage mutation goes through a handle borrowed from a cell.
type World struct {
	registry     *Registry
	cells        []*Cell  // indexed by TypeID
	components   []TypeID // component ids, a prefix of the registry
	pool         *EntityPool
	destroyQueue []Entity
	observer     Observer
	log          *zap.Logger
}

// WorldOption configures a World while Builder assembles it.
type WorldOption func(*World)

// WithLogger sets the logger the world reports lifecycle and borrow failures to.
func WithLogger(log *zap.Logger) WorldOption {
	return func(w *World) {
		if log != nil {
			w.log = log
		}
	}
}

// WithObserver installs a lifecycle observer.
func WithObserver(o Observer) WorldOption {
	return func(w *World) {
		w.observer = o
	}
}

func (w *World) Registry() *Registry { return w.registry }
func (w *World) Pool() *EntityPool   { return w.pool }

// Alive reports whether e is the live generation of its slot.
func (w *World) Alive(e Entity) bool {
	return w.pool.Alive(e)
}

// Len returns the number of live entities.
func (w *World) Len() int { return w.pool.Len() }

// NewEntity starts an entity builder. Nothing is allocated until Build.
func (w *World) NewEntity() *EntityBuilder {
	return &EntityBuilder{
		world:   w,
		pending: make([]any, len(w.components)),
	}
}

// Destroy clears every component slot of e and returns e to the free list.
// Stale entities are rejected so a recycled slot is never cleared on behalf of
// its previous owner. Destroy borrows every component store for writing, so it
// fails with ErrBorrowViolation while any system holds a handle; systems queue
// destruction with Access.Destroy instead.
func (w *World) Destroy(e Entity) error {
	if !w.pool.Alive(e) {
		return accessErr(e.String(), ErrStaleEntity)
	}
	var hs handleSet
	defer hs.releaseAll()
	if err := w.borrowComponents(&hs); err != nil {
		w.log.Warn("destroy rejected", zap.Stringer("entity", e), zap.Error(err))
		return err
	}
	for _, id := range w.components {
		w.cells[id].store.clear(e.ID)
	}
	w.pool.Release(e)
	w.log.Debug("entity destroyed", zap.Uint32("id", e.ID), zap.Uint32("generation", e.Generation))
	if w.observer != nil {
		w.observer.EntityDestroyed(e)
	}
	return nil
}

// MarkForDestruction queues an entity for FlushDestroyQueue.
func (w *World) MarkForDestruction(e Entity) {
	w.destroyQueue = append(w.destroyQueue, e)
}

// FlushDestroyQueue destroys all queued entities. Entries that went stale in
// the meantime (queued twice, or destroyed directly) are skipped. If the
// stores cannot be borrowed the queue is kept and the error returned.
func (w *World) FlushDestroyQueue() (int, error) {
	if len(w.destroyQueue) == 0 {
		return 0, nil
	}
	destroyed := 0
	for i, e := range w.destroyQueue {
		if !w.pool.Alive(e) {
			continue
		}
		if err := w.Destroy(e); err != nil {
			w.destroyQueue = append(w.destroyQueue[:0], w.destroyQueue[i:]...)
			return destroyed, err
		}
		destroyed++
	}
	w.destroyQueue = w.destroyQueue[:0]
	return destroyed, nil
}

// Pending returns the number of queued destructions.
func (w *World) Pending() int { return len(w.destroyQueue) }

func (w *World) borrowComponents(hs *handleSet) error {
	for _, id := range w.components {
		if err := hs.acquire(w.cells[id], Write); err != nil {
			return err
		}
	}
	return nil
}

// Prepared is a manifest that passed validation against one world.
type Prepared struct {
	world *World
	name  string
	plan  *Plan
}

func (p *Prepared) Name() string { return p.name }
func (p *Prepared) Plan() *Plan  { return p.plan }

// Prepare validates m against the world's registry. A manifest that fails
// here never gets to borrow anything.
func (w *World) Prepare(name string, m Manifest) (*Prepared, error) {
	plan, err := Validate(w.registry, m)
	if err != nil {
		return nil, fmt.Errorf("system %s: %w", name, err)
	}
	w.log.Debug("system prepared",
		zap.String("system", name),
		zap.Strings("untouched", w.registry.Names(plan.Remainder)))
	return &Prepared{world: w, name: name, plan: plan}, nil
}

// Run borrows exactly the cells named by p, calls fn, and releases every
// handle when fn returns, fails, or panics.
func (w *World) Run(p *Prepared, fn func(*Access) error) error {
	if p.world != w {
		return accessErr(p.name, ErrForeignWorld)
	}
	var hs handleSet
	defer hs.releaseAll()
	for _, g := range p.plan.Grants {
		if err := hs.acquire(w.cells[g.ID], g.Mode); err != nil {
			w.log.Warn("borrow rejected", zap.String("system", p.name), zap.Error(err))
			return fmt.Errorf("system %s: %w", p.name, err)
		}
	}
	a := newAccess(w, p)
	defer a.close()
	return fn(a)
}

// RunSystem prepares and runs s once. Callers that run a system repeatedly
// should Prepare it once and use Run.
func (w *World) RunSystem(s System) error {
	p, err := w.Prepare(s.Name(), s.Manifest())
	if err != nil {
		return err
	}
	return w.Run(p, s.Run)
}

func (w *World) cell(kind Kind, typ reflect.Type) (*Cell, error) {
	id, ok := w.registry.Lookup(kind, typ)
	if !ok {
		return nil, accessErr(kindedName(kind, typeName(typ)), ErrUnregisteredComponent)
	}
	return w.cells[id], nil
}

// GetComponent copies e's component T out under a short read borrow.
func GetComponent[T any](w *World, e Entity) (T, bool, error) {
	var zero T
	c, err := w.cell(KindComponent, reflect.TypeFor[T]())
	if err != nil {
		return zero, false, err
	}
	if !w.pool.Alive(e) {
		return zero, false, accessErr(e.String(), ErrStaleEntity)
	}
	h, err := c.BorrowRead()
	if err != nil {
		return zero, false, err
	}
	defer h.Release()
	v, ok := storageOf[T](c).Get(e.ID)
	if !ok {
		return zero, false, nil
	}
	return *v, true, nil
}

// SetComponent stores v as e's component T under a short write borrow.
func SetComponent[T any](w *World, e Entity, v T) error {
	c, err := w.cell(KindComponent, reflect.TypeFor[T]())
	if err != nil {
		return err
	}
	if !w.pool.Alive(e) {
		return accessErr(e.String(), ErrStaleEntity)
	}
	h, err := c.BorrowWrite()
	if err != nil {
		return err
	}
	defer h.Release()
	storageOf[T](c).Set(e.ID, &v)
	return nil
}

// GetResource copies resource T out under a short read borrow.
func GetResource[T any](w *World) (T, error) {
	var zero T
	c, err := w.cell(KindResource, reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	h, err := c.BorrowRead()
	if err != nil {
		return zero, err
	}
	defer h.Release()
	return *c.value.(*T), nil
}

// SetResource replaces resource T under a short write borrow.
func SetResource[T any](w *World, v T) error {
	c, err := w.cell(KindResource, reflect.TypeFor[T]())
	if err != nil {
		return err
	}
	h, err := c.BorrowWrite()
	if err != nil {
		return err
	}
	defer h.Release()
	*c.value.(*T) = v
	return nil
}

func storageOf[T any](c *Cell) Storage[T] {
	return c.store.(typedStore[T]).s
}
