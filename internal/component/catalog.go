package component

import (
	"github.com/l1jgo/ecsrt/internal/schema"
	"github.com/l1jgo/ecsrt/internal/spatial"
)

// Catalog exposes every demo type to schema files under its Go name.
func Catalog() *schema.Catalog {
	c := schema.NewCatalog()
	schema.RegisterComponent[Position](c, "Position")
	schema.RegisterComponent[Velocity](c, "Velocity")
	schema.RegisterComponent[Health](c, "Health")
	schema.RegisterComponent[Tag](c, "Tag")
	schema.RegisterResource(c, "Clock", Clock{})
	schema.RegisterResource(c, "Stats", Stats{})
	schema.RegisterResource(c, "Bounds", Bounds{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100})
	schema.RegisterResource(c, "Grid", spatial.NewGrid(spatial.DefaultCellSize))
	return c
}
