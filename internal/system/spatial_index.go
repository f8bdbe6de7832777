package system

import (
	"time"

	"github.com/l1jgo/ecsrt/internal/component"
	"github.com/l1jgo/ecsrt/internal/core/ecs"
	coresys "github.com/l1jgo/ecsrt/internal/core/system"
	"github.com/l1jgo/ecsrt/internal/spatial"
)

// SpatialIndexSystem keeps the Grid resource in step with Position.
// Phase 3 (PostUpdate), after movement. Runs every interval ticks.
type SpatialIndexSystem struct {
	interval int
	ticks    int
}

func NewSpatialIndexSystem(interval int) *SpatialIndexSystem {
	if interval < 1 {
		interval = 1
	}
	return &SpatialIndexSystem{interval: interval, ticks: interval - 1}
}

func (s *SpatialIndexSystem) Name() string         { return "spatial_index" }
func (s *SpatialIndexSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *SpatialIndexSystem) Manifest() ecs.Manifest {
	return ecs.Manifest{
		ecs.Reads[component.Position](),
		ecs.WritesResource[spatial.Grid](),
	}
}

func (s *SpatialIndexSystem) Update(_ time.Duration, a *ecs.Access) error {
	s.ticks++
	if s.ticks < s.interval {
		return nil
	}
	s.ticks = 0

	pos, err := ecs.View[component.Position](a)
	if err != nil {
		return err
	}
	grid, err := ecs.ResMut[spatial.Grid](a)
	if err != nil {
		return err
	}
	// Drop entities that died or lost their position since the last pass.
	grid.Retain(pos.Has)
	pos.Each(func(e ecs.Entity, p component.Position) bool {
		grid.Place(e, p.X, p.Y)
		return true
	})
	return nil
}
