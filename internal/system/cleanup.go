package system

import (
	"time"

	"github.com/l1jgo/ecsrt/internal/component"
	"github.com/l1jgo/ecsrt/internal/core/ecs"
	coresys "github.com/l1jgo/ecsrt/internal/core/system"
)

// CleanupSystem flushes the deferred entity destruction queue at tick end.
// Phase 4 (Cleanup). It only declares the Stats resource, so every component
// store is free for the flush to borrow.
type CleanupSystem struct {
	world *ecs.World
}

func NewCleanupSystem(world *ecs.World) *CleanupSystem {
	return &CleanupSystem{world: world}
}

func (s *CleanupSystem) Name() string         { return "cleanup" }
func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Manifest() ecs.Manifest {
	return ecs.Manifest{ecs.WritesResource[component.Stats]()}
}

func (s *CleanupSystem) Update(_ time.Duration, a *ecs.Access) error {
	stats, err := ecs.ResMut[component.Stats](a)
	if err != nil {
		return err
	}
	n, err := s.world.FlushDestroyQueue()
	stats.Destroyed += n
	return err
}
