package schema

import (
	"sort"

	"github.com/l1jgo/ecsrt/internal/core/ecs"
)

// Catalog maps the type names a schema file may use to Go types.
type Catalog struct {
	components map[string]func(b *ecs.Builder, name string, kind ecs.StorageKind)
	resources  map[string]func(b *ecs.Builder, name string)
}

func NewCatalog() *Catalog {
	return &Catalog{
		components: make(map[string]func(*ecs.Builder, string, ecs.StorageKind)),
		resources:  make(map[string]func(*ecs.Builder, string)),
	}
}

// RegisterComponent makes T available to schema files as typeName.
func RegisterComponent[T any](c *Catalog, typeName string) {
	c.components[typeName] = func(b *ecs.Builder, name string, kind ecs.StorageKind) {
		ecs.Component[T](b, name, kind)
	}
}

// RegisterResource makes T available as typeName, starting out as initial.
func RegisterResource[T any](c *Catalog, typeName string, initial T) {
	c.resources[typeName] = func(b *ecs.Builder, name string) {
		ecs.Resource(b, name, initial)
	}
}

// ComponentTypes lists the registered component type names, sorted.
func (c *Catalog) ComponentTypes() []string {
	out := make([]string, 0, len(c.components))
	for name := range c.components {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ResourceTypes lists the registered resource type names, sorted.
func (c *Catalog) ResourceTypes() []string {
	out := make([]string, 0, len(c.resources))
	for name := range c.resources {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
