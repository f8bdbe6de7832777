package ecs

import (
	"fmt"
	"reflect"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type declaration struct {
	info     TypeInfo
	newStore func() (erasedStore, error)
	newValue func() any
}

// Builder assembles a World from component and resource declarations. Errors
// are collected and reported together by Build; a world is only produced when
// every declaration is sound.
type Builder struct {
	components []declaration
	resources  []declaration
	opts       []WorldOption
	err        error
}

func NewBuilder(opts ...WorldOption) *Builder {
	return &Builder{opts: opts}
}

// Component declares T as a component stored with the given kind.
func Component[T any](b *Builder, name string, kind StorageKind) *Builder {
	if kind == "" {
		kind = StorageVec
	}
	if kind != StorageVec && kind != StorageMap {
		b.err = multierr.Append(b.err, accessErr(name, fmt.Errorf("%w %q", ErrUnknownStorageKind, kind)))
		return b
	}
	b.components = append(b.components, declaration{
		info: TypeInfo{Name: name, Kind: KindComponent, Type: reflect.TypeFor[T](), Storage: kind},
		newStore: func() (erasedStore, error) {
			s, err := newStorage[T](kind)
			if err != nil {
				return nil, err
			}
			return typedStore[T]{s: s}, nil
		},
	})
	return b
}

// Resource declares T as a resource holding initial until replaced.
func Resource[T any](b *Builder, name string, initial T) *Builder {
	b.resources = append(b.resources, declaration{
		info: TypeInfo{Name: name, Kind: KindResource, Type: reflect.TypeFor[T]()},
		newValue: func() any {
			v := new(T)
			*v = initial
			return v
		},
	})
	return b
}

// Build validates the declarations and produces the World. Components take
// the first registry slots in declaration order, resources follow.
func (b *Builder) Build() (*World, error) {
	if b.err != nil {
		return nil, b.err
	}
	decls := make([]declaration, 0, len(b.components)+len(b.resources))
	decls = append(decls, b.components...)
	decls = append(decls, b.resources...)

	infos := make([]TypeInfo, len(decls))
	for i, d := range decls {
		infos[i] = d.info
	}
	reg, err := newRegistry(infos)
	if err != nil {
		return nil, err
	}

	w := &World{
		registry:     reg,
		cells:        make([]*Cell, len(decls)),
		components:   make([]TypeID, 0, len(b.components)),
		pool:         NewEntityPool(),
		destroyQueue: make([]Entity, 0, 64),
		log:          zap.NewNop(),
	}
	for _, opt := range b.opts {
		opt(w)
	}
	for i, d := range decls {
		c := &Cell{info: reg.Info(TypeID(i))}
		if d.info.Kind == KindComponent {
			store, err := d.newStore()
			if err != nil {
				return nil, accessErr(d.info.Name, err)
			}
			c.store = store
			w.components = append(w.components, TypeID(i))
		} else {
			c.value = d.newValue()
		}
		w.cells[i] = c
	}
	w.log.Info("world built",
		zap.Int("components", len(w.components)),
		zap.Int("resources", len(b.resources)))
	return w, nil
}

// EntityBuilder accumulates at most one pending value per component type.
type EntityBuilder struct {
	world   *World
	pending []any // indexed by component TypeID
	err     error
}

// With sets the pending value for v's component type, replacing any earlier
// value of the same type. v may be a T or a *T; unregistered types fail Build.
func (b *EntityBuilder) With(v any) *EntityBuilder {
	typ := reflect.TypeOf(v)
	id, ok := b.world.registry.Lookup(KindComponent, typ)
	if !ok && typ != nil && typ.Kind() == reflect.Pointer {
		id, ok = b.world.registry.Lookup(KindComponent, typ.Elem())
	}
	if !ok {
		b.err = multierr.Append(b.err, accessErr(typeName(typ), ErrUnregisteredComponent))
		return b
	}
	b.pending[id] = v
	return b
}

// Build allocates the entity and writes either the pending value or an absent
// marker into every component store at its slot.
func (b *EntityBuilder) Build() (Entity, error) {
	if b.err != nil {
		return Entity{}, b.err
	}
	w := b.world
	var hs handleSet
	defer hs.releaseAll()
	if err := w.borrowComponents(&hs); err != nil {
		w.log.Warn("entity build rejected", zap.Error(err))
		return Entity{}, err
	}

	e := w.pool.Allocate()
	for _, id := range w.components {
		if err := w.cells[id].store.set(e.ID, b.pending[id]); err != nil {
			for _, cid := range w.components {
				w.cells[cid].store.clear(e.ID)
			}
			w.pool.Release(e)
			return Entity{}, accessErr(w.registry.Info(id).Name, err)
		}
	}
	w.log.Debug("entity created", zap.Uint32("id", e.ID), zap.Uint32("generation", e.Generation))
	if w.observer != nil {
		w.observer.EntityCreated(e)
	}
	return e, nil
}
