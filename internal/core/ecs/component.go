package ecs

import "fmt"

// StorageKind selects the store implementation a component is declared with.
type StorageKind string

const (
	StorageVec StorageKind = "vec" // dense slice with holes, indexed by id
	StorageMap StorageKind = "map" // sparse map, for rarely present components
)

// Storage is the per-type component store. Stores are keyed by Entity.ID and
// know nothing about generations; the world checks those before it gets here.
type Storage[T any] interface {
	Get(id uint32) (*T, bool)
	// Set stores v at id; nil marks the slot absent.
	Set(id uint32, v *T)
	Has(id uint32) bool
	Len() int
	// Each visits present slots until fn returns false.
	Each(fn func(id uint32, v *T) bool)
}

func newStorage[T any](kind StorageKind) (Storage[T], error) {
	switch kind {
	case StorageVec, "":
		return NewVecStorage[T](), nil
	case StorageMap:
		return NewMapStorage[T](), nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownStorageKind, kind)
	}
}

// VecStorage keeps components in a slice indexed by entity id.
type VecStorage[T any] struct {
	data    []T
	present []bool
	count   int
}

func NewVecStorage[T any]() *VecStorage[T] {
	return &VecStorage[T]{}
}

func (s *VecStorage[T]) Get(id uint32) (*T, bool) {
	if int(id) >= len(s.data) || !s.present[id] {
		return nil, false
	}
	return &s.data[id], true
}

func (s *VecStorage[T]) Set(id uint32, v *T) {
	if v == nil {
		if int(id) < len(s.present) && s.present[id] {
			var zero T
			s.data[id] = zero
			s.present[id] = false
			s.count--
		}
		return
	}
	for int(id) >= len(s.data) {
		var zero T
		s.data = append(s.data, zero)
		s.present = append(s.present, false)
	}
	if !s.present[id] {
		s.present[id] = true
		s.count++
	}
	s.data[id] = *v
}

func (s *VecStorage[T]) Has(id uint32) bool {
	return int(id) < len(s.present) && s.present[id]
}

func (s *VecStorage[T]) Len() int { return s.count }

func (s *VecStorage[T]) Each(fn func(uint32, *T) bool) {
	for i := range s.data {
		if s.present[i] && !fn(uint32(i), &s.data[i]) {
			return
		}
	}
}

// MapStorage is a generic typed map store.
type MapStorage[T any] struct {
	data map[uint32]*T
}

func NewMapStorage[T any]() *MapStorage[T] {
	return &MapStorage[T]{
		data: make(map[uint32]*T, 256),
	}
}

func (s *MapStorage[T]) Get(id uint32) (*T, bool) {
	c, ok := s.data[id]
	return c, ok
}

// Set copies *v so the caller's value never aliases the store.
func (s *MapStorage[T]) Set(id uint32, v *T) {
	if v == nil {
		delete(s.data, id)
		return
	}
	c := *v
	s.data[id] = &c
}

func (s *MapStorage[T]) Has(id uint32) bool {
	_, ok := s.data[id]
	return ok
}

func (s *MapStorage[T]) Len() int {
	return len(s.data)
}

func (s *MapStorage[T]) Each(fn func(uint32, *T) bool) {
	for id, c := range s.data {
		if !fn(id, c) {
			return
		}
	}
}

// erasedStore lets the world clear and fill slots without knowing T.
type erasedStore interface {
	clear(id uint32)
	set(id uint32, v any) error
	get(id uint32) (any, bool)
	copyOf(id uint32) (any, bool)
	has(id uint32) bool
	len() int
	each(fn func(id uint32, v any) bool)
}

type typedStore[T any] struct {
	s Storage[T]
}

func (t typedStore[T]) clear(id uint32) { t.s.Set(id, nil) }

func (t typedStore[T]) set(id uint32, v any) error {
	if v == nil {
		t.s.Set(id, nil)
		return nil
	}
	switch c := v.(type) {
	case T:
		t.s.Set(id, &c)
	case *T:
		t.s.Set(id, c)
	default:
		return fmt.Errorf("store of %T cannot hold %T", *new(T), v)
	}
	return nil
}

func (t typedStore[T]) get(id uint32) (any, bool) {
	c, ok := t.s.Get(id)
	if !ok {
		return nil, false
	}
	return c, true
}

// copyOf returns a pointer to a copy of the slot's value.
func (t typedStore[T]) copyOf(id uint32) (any, bool) {
	c, ok := t.s.Get(id)
	if !ok {
		return nil, false
	}
	v := *c
	return &v, true
}

func (t typedStore[T]) has(id uint32) bool { return t.s.Has(id) }
func (t typedStore[T]) len() int           { return t.s.Len() }

func (t typedStore[T]) each(fn func(uint32, any) bool) {
	t.s.Each(func(id uint32, c *T) bool { return fn(id, c) })
}
