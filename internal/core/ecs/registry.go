package ecs

import (
	"fmt"
	"reflect"
)

// TypeID is the position of a type in its world's registry.
type TypeID uint16

// Kind separates the component and resource namespaces. The same Go type may
// be registered once as each.
type Kind uint8

const (
	KindComponent Kind = iota
	KindResource
)

func (k Kind) String() string {
	switch k {
	case KindComponent:
		return "component"
	case KindResource:
		return "resource"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// TypeInfo describes one registered component or resource type.
type TypeInfo struct {
	ID      TypeID
	Name    string
	Kind    Kind
	Type    reflect.Type
	Storage StorageKind // empty for resources
}

func (t TypeInfo) key() typeKey { return typeKey{kind: t.Kind, typ: t.Type} }

func (t TypeInfo) String() string {
	return fmt.Sprintf("%s %q (%s)", t.Kind, t.Name, t.Type)
}

type typeKey struct {
	kind Kind
	typ  reflect.Type
}

type nameKey struct {
	kind Kind
	name string
}

// Registry is the ordered, duplicate-free list of types a world supports.
// It is built once by Builder and never changes afterwards.
type Registry struct {
	types  []TypeInfo
	byType map[typeKey]TypeID
	byName map[nameKey]TypeID
}

func newRegistry(infos []TypeInfo) (*Registry, error) {
	r := &Registry{
		types:  make([]TypeInfo, 0, len(infos)),
		byType: make(map[typeKey]TypeID, len(infos)),
		byName: make(map[nameKey]TypeID, len(infos)),
	}
	for _, info := range infos {
		if _, dup := r.byType[info.key()]; dup {
			return nil, accessErr(info.Type.String(), ErrDuplicateType)
		}
		nk := nameKey{kind: info.Kind, name: info.Name}
		if _, dup := r.byName[nk]; dup {
			return nil, accessErr(info.Name, ErrDuplicateType)
		}
		info.ID = TypeID(len(r.types))
		r.types = append(r.types, info)
		r.byType[info.key()] = info.ID
		r.byName[nk] = info.ID
	}
	return r, nil
}

// Len returns the number of registered types across both namespaces.
func (r *Registry) Len() int { return len(r.types) }

// Info returns the descriptor for id. It panics if id is out of range.
func (r *Registry) Info(id TypeID) TypeInfo { return r.types[id] }

// Types returns a copy of the registry in declaration order.
func (r *Registry) Types() []TypeInfo {
	out := make([]TypeInfo, len(r.types))
	copy(out, r.types)
	return out
}

// Lookup finds the id registered for typ in the given namespace.
func (r *Registry) Lookup(kind Kind, typ reflect.Type) (TypeID, bool) {
	id, ok := r.byType[typeKey{kind: kind, typ: typ}]
	return id, ok
}

// LookupName finds the id registered under name in the given namespace.
func (r *Registry) LookupName(kind Kind, name string) (TypeID, bool) {
	id, ok := r.byName[nameKey{kind: kind, name: name}]
	return id, ok
}

// Names maps ids back to registered names, mostly for error and log output.
func (r *Registry) Names(ids []TypeID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = r.types[id].Name
	}
	return out
}
