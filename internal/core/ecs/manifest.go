package ecs

import (
	"fmt"
	"reflect"
	"slices"
)

// AccessMode is how a system intends to touch a store or resource.
type AccessMode uint8

const (
	Read AccessMode = iota
	Write
)

func (m AccessMode) String() string {
	if m == Write {
		return "write"
	}
	return "read"
}

// Request asks for one component or resource type in one mode.
type Request struct {
	Kind Kind
	Type reflect.Type
	Mode AccessMode
}

func (q Request) key() typeKey { return typeKey{kind: q.Kind, typ: q.Type} }

func (q Request) String() string {
	return fmt.Sprintf("%s %s %s", q.Mode, q.Kind, q.Type)
}

// Manifest is the ordered list of requests one system declares.
type Manifest []Request

// Reads requests shared access to component T.
func Reads[T any]() Request {
	return Request{Kind: KindComponent, Type: reflect.TypeFor[T](), Mode: Read}
}

// Writes requests exclusive access to component T.
func Writes[T any]() Request {
	return Request{Kind: KindComponent, Type: reflect.TypeFor[T](), Mode: Write}
}

// ReadsResource requests shared access to resource T.
func ReadsResource[T any]() Request {
	return Request{Kind: KindResource, Type: reflect.TypeFor[T](), Mode: Read}
}

// WritesResource requests exclusive access to resource T.
func WritesResource[T any]() Request {
	return Request{Kind: KindResource, Type: reflect.TypeFor[T](), Mode: Write}
}

// Grant is a request resolved to a registry slot.
type Grant struct {
	ID   TypeID
	Mode AccessMode
}

// Plan is the outcome of a successful validation. Grants follow manifest order;
// Remainder holds the registered types the manifest leaves untouched, in
// registry order.
type Plan struct {
	Grants    []Grant
	Remainder []TypeID
}

// Validate consumes the registry in manifest order. Each request removes the
// first matching entry from a working copy of the registry; a request that
// finds nothing fails with ErrUnregisteredComponent when the registry never
// held the type, or ErrConflictingAccess when an earlier request of the same
// manifest already consumed it.
func Validate(reg *Registry, m Manifest) (*Plan, error) {
	working := make([]TypeID, len(reg.types))
	for i := range working {
		working[i] = TypeID(i)
	}

	plan := &Plan{Grants: make([]Grant, 0, len(m))}
	for _, req := range m {
		idx := slices.IndexFunc(working, func(id TypeID) bool {
			return reg.types[id].key() == req.key()
		})
		if idx < 0 {
			id, registered := reg.Lookup(req.Kind, req.Type)
			if !registered {
				return nil, accessErr(kindedName(req.Kind, typeName(req.Type)), ErrUnregisteredComponent)
			}
			return nil, accessErr(reg.types[id].Name, ErrConflictingAccess)
		}
		plan.Grants = append(plan.Grants, Grant{ID: working[idx], Mode: req.Mode})
		working = slices.Delete(working, idx, idx+1)
	}
	plan.Remainder = working
	return plan, nil
}

// Conflicts lists the types two validated plans cannot share: any type both
// consume where at least one side writes. The check reads b's consumed set off
// its remainder, so a and b must come from the same registry.
func Conflicts(a, b *Plan) []TypeID {
	var out []TypeID
	for _, ga := range a.Grants {
		if slices.Contains(b.Remainder, ga.ID) {
			continue
		}
		gb := b.grant(ga.ID)
		if ga.Mode == Write || gb.Mode == Write {
			out = append(out, ga.ID)
		}
	}
	return out
}

// Compatible reports whether two plans could run at the same time without
// any store being both written and touched by the other side.
func Compatible(a, b *Plan) bool {
	return len(Conflicts(a, b)) == 0
}

func (p *Plan) grant(id TypeID) Grant {
	for _, g := range p.Grants {
		if g.ID == id {
			return g
		}
	}
	return Grant{ID: id, Mode: Read}
}

// kindedName prefixes resource names so a shared sentinel still reads right.
func kindedName(k Kind, name string) string {
	if k == KindResource {
		return "resource " + name
	}
	return name
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
