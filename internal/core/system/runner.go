package system

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/l1jgo/ecsrt/internal/core/ecs"
	"github.com/l1jgo/ecsrt/internal/core/event"
)

type entry struct {
	sys      System
	prepared *ecs.Prepared
}

// Runner executes systems in phase order each tick. Systems run one at a time;
// Conflicts reports which of them could not share a tick slot if they didn't.
type Runner struct {
	world   *ecs.World
	bus     *event.Bus
	log     *zap.Logger
	systems []entry
	sorted  bool
	tick    uint64
}

type RunnerOption func(*Runner)

// WithBus makes the runner swap and dispatch b at the start of every tick,
// and report failing systems on it.
func WithBus(b *event.Bus) RunnerOption {
	return func(r *Runner) { r.bus = b }
}

func WithLogger(log *zap.Logger) RunnerOption {
	return func(r *Runner) {
		if log != nil {
			r.log = log
		}
	}
}

func NewRunner(world *ecs.World, opts ...RunnerOption) *Runner {
	r := &Runner{
		world:   world,
		log:     zap.NewNop(),
		systems: make([]entry, 0, 16),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register validates s's manifest against the world. A system whose manifest
// is rejected is not added.
func (r *Runner) Register(s System) error {
	p, err := r.world.Prepare(s.Name(), s.Manifest())
	if err != nil {
		r.log.Error("system rejected", zap.String("system", s.Name()), zap.Error(err))
		return err
	}
	r.systems = append(r.systems, entry{sys: s, prepared: p})
	r.sorted = false
	r.log.Debug("system registered",
		zap.String("system", s.Name()),
		zap.Stringer("phase", s.Phase()))
	return nil
}

// Len returns the number of registered systems.
func (r *Runner) Len() int { return len(r.systems) }

// Ticks returns how many ticks have completed.
func (r *Runner) Ticks() uint64 { return r.tick }

// Tick runs every system once. A failing system does not stop the ones after
// it; all failures are returned together.
func (r *Runner) Tick(dt time.Duration) error {
	r.ensureSorted()
	if r.bus != nil {
		r.bus.SwapBuffers()
		r.bus.DispatchAll()
	}
	var errs error
	for _, e := range r.systems {
		errs = multierr.Append(errs, r.run(e, dt))
	}
	r.tick++
	return errs
}

// TickPhase runs only the systems of the given phase.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) error {
	r.ensureSorted()
	var errs error
	for _, e := range r.systems {
		if e.sys.Phase() == phase {
			errs = multierr.Append(errs, r.run(e, dt))
		}
	}
	return errs
}

func (r *Runner) run(e entry, dt time.Duration) error {
	err := r.world.Run(e.prepared, func(a *ecs.Access) error {
		return e.sys.Update(dt, a)
	})
	if err == nil {
		return nil
	}
	r.log.Error("system failed",
		zap.String("system", e.sys.Name()),
		zap.Uint64("tick", r.tick),
		zap.Error(err))
	if r.bus != nil {
		event.Emit(r.bus, event.SystemFailed{System: e.sys.Name(), Tick: r.tick, Err: err, At: time.Now()})
	}
	return fmt.Errorf("tick %d: %w", r.tick, err)
}

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].sys.Phase() < r.systems[j].sys.Phase()
		})
		r.sorted = true
	}
}

// Conflict names two systems whose manifests overlap with at least one writer.
type Conflict struct {
	A, B  string
	Types []string
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s <-> %s on %v", c.A, c.B, c.Types)
}

// Conflicts checks every pair of registered systems in the same phase.
func (r *Runner) Conflicts() []Conflict {
	r.ensureSorted()
	reg := r.world.Registry()
	var out []Conflict
	for i := range r.systems {
		for j := i + 1; j < len(r.systems); j++ {
			a, b := r.systems[i], r.systems[j]
			if a.sys.Phase() != b.sys.Phase() {
				continue
			}
			ids := ecs.Conflicts(a.prepared.Plan(), b.prepared.Plan())
			if len(ids) == 0 {
				continue
			}
			out = append(out, Conflict{A: a.sys.Name(), B: b.sys.Name(), Types: reg.Names(ids)})
		}
	}
	return out
}
