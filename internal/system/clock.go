package system

import (
	"time"

	"github.com/l1jgo/ecsrt/internal/component"
	"github.com/l1jgo/ecsrt/internal/core/ecs"
	coresys "github.com/l1jgo/ecsrt/internal/core/system"
)

// ClockSystem advances the Clock resource. Phase 1 (PreUpdate).
type ClockSystem struct{}

func (ClockSystem) Name() string         { return "clock" }
func (ClockSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (ClockSystem) Manifest() ecs.Manifest {
	return ecs.Manifest{ecs.WritesResource[component.Clock]()}
}

func (ClockSystem) Update(dt time.Duration, a *ecs.Access) error {
	clock, err := ecs.ResMut[component.Clock](a)
	if err != nil {
		return err
	}
	clock.Tick++
	clock.Elapsed += dt
	clock.Delta = dt
	return nil
}
