package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/ecsrt/internal/component"
	"github.com/l1jgo/ecsrt/internal/core/ecs"
	coresys "github.com/l1jgo/ecsrt/internal/core/system"
)

// DecaySystem drains Health by its Decay rate and queues entities that reach
// zero for destruction. Phase 3 (PostUpdate).
type DecaySystem struct {
	log *zap.Logger
}

func NewDecaySystem(log *zap.Logger) *DecaySystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &DecaySystem{log: log}
}

func (s *DecaySystem) Name() string         { return "decay" }
func (s *DecaySystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *DecaySystem) Manifest() ecs.Manifest {
	return ecs.Manifest{ecs.Writes[component.Health]()}
}

func (s *DecaySystem) Update(_ time.Duration, a *ecs.Access) error {
	hp, err := ecs.ViewMut[component.Health](a)
	if err != nil {
		return err
	}
	hp.Each(func(e ecs.Entity, h *component.Health) bool {
		if h.Decay == 0 {
			return true
		}
		h.Current -= h.Decay
		if h.Current > h.Max {
			h.Current = h.Max
		}
		if h.Current <= 0 {
			s.log.Debug("entity expired", zap.Stringer("entity", e))
			a.Destroy(e)
		}
		return true
	})
	return nil
}
