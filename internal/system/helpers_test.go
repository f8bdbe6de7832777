package system

import (
	"github.com/l1jgo/ecsrt/internal/component"
	"github.com/l1jgo/ecsrt/internal/core/ecs"
	"github.com/l1jgo/ecsrt/internal/schema"
)

func buildFromYAML(src string) (*ecs.World, error) {
	f, err := schema.Parse([]byte(src), "yaml")
	if err != nil {
		return nil, err
	}
	return f.Build(component.Catalog())
}
