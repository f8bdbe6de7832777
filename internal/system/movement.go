package system

import (
	"time"

	"github.com/l1jgo/ecsrt/internal/component"
	"github.com/l1jgo/ecsrt/internal/core/ecs"
	coresys "github.com/l1jgo/ecsrt/internal/core/system"
)

// MovementSystem integrates velocity into position and bounces entities off
// the Bounds resource. Phase 2 (Update).
type MovementSystem struct{}

func (MovementSystem) Name() string         { return "movement" }
func (MovementSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (MovementSystem) Manifest() ecs.Manifest {
	return ecs.Manifest{
		ecs.Writes[component.Position](),
		ecs.Writes[component.Velocity](),
		ecs.ReadsResource[component.Bounds](),
	}
}

func (MovementSystem) Update(dt time.Duration, a *ecs.Access) error {
	pos, err := ecs.ViewMut[component.Position](a)
	if err != nil {
		return err
	}
	vel, err := ecs.ViewMut[component.Velocity](a)
	if err != nil {
		return err
	}
	bounds, err := ecs.Res[component.Bounds](a)
	if err != nil {
		return err
	}
	secs := dt.Seconds()
	ecs.Join2(pos, vel, func(_ ecs.Entity, p *component.Position, v *component.Velocity) bool {
		p.X, v.DX = bounce(p.X+v.DX*secs, v.DX, bounds.MinX, bounds.MaxX)
		p.Y, v.DY = bounce(p.Y+v.DY*secs, v.DY, bounds.MinY, bounds.MaxY)
		return true
	})
	return nil
}

// bounce reflects x back inside [lo, hi] and flips the speed when it crossed.
func bounce(x, speed, lo, hi float64) (float64, float64) {
	if hi <= lo {
		return x, speed
	}
	switch {
	case x < lo:
		return lo + (lo - x), -speed
	case x > hi:
		return hi - (x - hi), -speed
	}
	return x, speed
}
