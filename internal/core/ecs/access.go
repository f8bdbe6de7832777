package ecs

import (
	"fmt"
	"reflect"
)

// Access is what a running system sees: the cells its manifest named,
// already borrowed in the declared modes. It is only valid inside the Run
// call that created it; views taken from it must not outlive that call.
type Access struct {
	world  *World
	name   string
	grants map[TypeID]AccessMode
	closed bool
}

func newAccess(w *World, p *Prepared) *Access {
	grants := make(map[TypeID]AccessMode, len(p.plan.Grants))
	for _, g := range p.plan.Grants {
		grants[g.ID] = g.Mode
	}
	return &Access{world: w, name: p.name, grants: grants}
}

func (a *Access) close() { a.closed = true }

// open reports whether views taken from a may still be used. The zero view
// has no Access and is never open.
func (a *Access) open() bool { return a != nil && !a.closed }

// System returns the name the running system was prepared under.
func (a *Access) System() string { return a.name }

// Registry exposes the world's registry for name lookups.
func (a *Access) Registry() *Registry { return a.world.registry }

// Alive reports whether e is the live generation of its slot.
func (a *Access) Alive(e Entity) bool { return a.world.pool.Alive(e) }

// Destroy queues e for destruction once the current systems are done.
func (a *Access) Destroy(e Entity) {
	a.world.MarkForDestruction(e)
}

// granted checks id against the manifest. A write grant also covers reads.
func (a *Access) granted(id TypeID, mode AccessMode) error {
	info := a.world.registry.Info(id)
	if a.closed {
		return accessErr(info.Name, ErrUndeclaredAccess)
	}
	have, ok := a.grants[id]
	if !ok || (mode == Write && have == Read) {
		return accessErr(info.Name, ErrUndeclaredAccess)
	}
	return nil
}

func (a *Access) lookup(kind Kind, typ reflect.Type, mode AccessMode) (*Cell, error) {
	c, err := a.world.cell(kind, typ)
	if err != nil {
		return nil, err
	}
	if err := a.granted(c.info.ID, mode); err != nil {
		return nil, err
	}
	return c, nil
}

// View returns a read view of component T.
func View[T any](a *Access) (ReadView[T], error) {
	c, err := a.lookup(KindComponent, reflect.TypeFor[T](), Read)
	if err != nil {
		return ReadView[T]{}, err
	}
	return ReadView[T]{store: storageOf[T](c), pool: a.world.pool, acc: a}, nil
}

// ViewMut returns a write view of component T.
func ViewMut[T any](a *Access) (WriteView[T], error) {
	c, err := a.lookup(KindComponent, reflect.TypeFor[T](), Write)
	if err != nil {
		return WriteView[T]{}, err
	}
	return WriteView[T]{store: storageOf[T](c), pool: a.world.pool, acc: a}, nil
}

// Res copies resource T.
func Res[T any](a *Access) (T, error) {
	c, err := a.lookup(KindResource, reflect.TypeFor[T](), Read)
	if err != nil {
		var zero T
		return zero, err
	}
	return *c.value.(*T), nil
}

// ResMut returns resource T for in-place mutation.
func ResMut[T any](a *Access) (*T, error) {
	c, err := a.lookup(KindResource, reflect.TypeFor[T](), Write)
	if err != nil {
		return nil, err
	}
	return c.value.(*T), nil
}

// Dynamic returns an untyped view of the component registered under id, for
// hosts that only know types by name.
func (a *Access) Dynamic(id TypeID, mode AccessMode) (DynamicView, error) {
	if int(id) >= a.world.registry.Len() || a.world.registry.Info(id).Kind != KindComponent {
		return DynamicView{}, accessErr(fmt.Sprintf("component id %d", id), ErrUnregisteredComponent)
	}
	if err := a.granted(id, mode); err != nil {
		return DynamicView{}, err
	}
	return DynamicView{
		info:  a.world.registry.Info(id),
		store: a.world.cells[id].store,
		pool:  a.world.pool,
		mode:  mode,
		acc:   a,
	}, nil
}

// DynamicResource returns the resource registered under id as a pointer
// wrapped in an interface. In Read mode the pointer is to a copy.
func (a *Access) DynamicResource(id TypeID, mode AccessMode) (any, error) {
	if int(id) >= a.world.registry.Len() || a.world.registry.Info(id).Kind != KindResource {
		return nil, accessErr(fmt.Sprintf("resource id %d", id), ErrUnregisteredComponent)
	}
	if err := a.granted(id, mode); err != nil {
		return nil, err
	}
	val := a.world.cells[id].value
	if mode == Read {
		orig := reflect.ValueOf(val).Elem()
		cp := reflect.New(orig.Type())
		cp.Elem().Set(orig)
		return cp.Interface(), nil
	}
	return val, nil
}

// ReadView reads one component store. Values come out as copies. A view
// stops working once the Run that produced it returns.
type ReadView[T any] struct {
	store Storage[T]
	pool  *EntityPool
	acc   *Access
}

func (v ReadView[T]) Get(e Entity) (T, bool) {
	var zero T
	if !v.acc.open() || !v.pool.Alive(e) {
		return zero, false
	}
	c, ok := v.store.Get(e.ID)
	if !ok {
		return zero, false
	}
	return *c, true
}

func (v ReadView[T]) Has(e Entity) bool {
	return v.acc.open() && v.pool.Alive(e) && v.store.Has(e.ID)
}

func (v ReadView[T]) Len() int {
	if !v.acc.open() {
		return 0
	}
	return v.store.Len()
}

func (v ReadView[T]) Each(fn func(Entity, T) bool) {
	if !v.acc.open() {
		return
	}
	v.store.Each(func(id uint32, c *T) bool {
		e, _ := v.pool.Current(id)
		return fn(e, *c)
	})
}

func (v ReadView[T]) source() Storage[T]    { return v.store }
func (v ReadView[T]) entities() *EntityPool { return v.pool }
func (v ReadView[T]) access() *Access       { return v.acc }
func (v ReadView[T]) writable() bool        { return false }

// WriteView mutates one component store. Like ReadView it is only usable
// inside the Run that produced it; afterwards Set and Remove fail with
// ErrUndeclaredAccess.
type WriteView[T any] struct {
	store Storage[T]
	pool  *EntityPool
	acc   *Access
}

func (v WriteView[T]) Get(e Entity) (*T, bool) {
	if !v.acc.open() || !v.pool.Alive(e) {
		return nil, false
	}
	return v.store.Get(e.ID)
}

// Set adds or replaces e's component.
func (v WriteView[T]) Set(e Entity, c T) error {
	if err := v.check(e); err != nil {
		return err
	}
	v.store.Set(e.ID, &c)
	return nil
}

// Remove marks e's slot absent.
func (v WriteView[T]) Remove(e Entity) error {
	if err := v.check(e); err != nil {
		return err
	}
	v.store.Set(e.ID, nil)
	return nil
}

func (v WriteView[T]) check(e Entity) error {
	if !v.acc.open() {
		return accessErr(typeName(reflect.TypeFor[T]()), ErrUndeclaredAccess)
	}
	if !v.pool.Alive(e) {
		return accessErr(e.String(), ErrStaleEntity)
	}
	return nil
}

func (v WriteView[T]) Has(e Entity) bool {
	return v.acc.open() && v.pool.Alive(e) && v.store.Has(e.ID)
}

func (v WriteView[T]) Len() int {
	if !v.acc.open() {
		return 0
	}
	return v.store.Len()
}

func (v WriteView[T]) Each(fn func(Entity, *T) bool) {
	if !v.acc.open() {
		return
	}
	v.store.Each(func(id uint32, c *T) bool {
		e, _ := v.pool.Current(id)
		return fn(e, c)
	})
}

func (v WriteView[T]) source() Storage[T]    { return v.store }
func (v WriteView[T]) entities() *EntityPool { return v.pool }
func (v WriteView[T]) access() *Access       { return v.acc }
func (v WriteView[T]) writable() bool        { return true }

// DynamicView is an untyped component view. Get returns a *T boxed in any;
// in Read mode the pointer is to a copy.
type DynamicView struct {
	info  TypeInfo
	store erasedStore
	pool  *EntityPool
	mode  AccessMode
	acc   *Access
}

func (v DynamicView) Info() TypeInfo   { return v.info }
func (v DynamicView) Mode() AccessMode { return v.mode }

func (v DynamicView) Len() int {
	if !v.acc.open() {
		return 0
	}
	return v.store.len()
}

func (v DynamicView) Has(e Entity) bool {
	return v.acc.open() && v.pool.Alive(e) && v.store.has(e.ID)
}

func (v DynamicView) Get(e Entity) (any, bool) {
	if !v.acc.open() || !v.pool.Alive(e) {
		return nil, false
	}
	if v.mode == Read {
		return v.store.copyOf(e.ID)
	}
	return v.store.get(e.ID)
}

func (v DynamicView) Each(fn func(Entity, any) bool) {
	if !v.acc.open() {
		return
	}
	v.store.each(func(id uint32, c any) bool {
		if v.mode == Read {
			c, _ = v.store.copyOf(id)
		}
		e, _ := v.pool.Current(id)
		return fn(e, c)
	})
}
