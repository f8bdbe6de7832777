package main

import (
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/ecsrt/internal/component"
	"github.com/l1jgo/ecsrt/internal/config"
	"github.com/l1jgo/ecsrt/internal/core/ecs"
	"github.com/l1jgo/ecsrt/internal/core/event"
	coresys "github.com/l1jgo/ecsrt/internal/core/system"
	"github.com/l1jgo/ecsrt/internal/schema"
	"github.com/l1jgo/ecsrt/internal/scripting"
	"github.com/l1jgo/ecsrt/internal/system"
)

// indexInterval is how many ticks pass between spatial index refreshes.
const indexInterval = 2

// runtime is everything run and check share: a world built from the schema
// and a runner with native and script systems registered.
type runtime struct {
	world  *ecs.World
	bus    *event.Bus
	runner *coresys.Runner
	lua    *scripting.Engine
}

func newRuntime(cfg *config.Config, log *zap.Logger) (*runtime, error) {
	f, err := schema.Load(cfg.World.Schema)
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	bus := event.NewBus()
	world, err := f.Build(component.Catalog(),
		ecs.WithLogger(log.Named("world")),
		ecs.WithObserver(event.NewWorldObserver(bus)))
	if err != nil {
		return nil, fmt.Errorf("build world: %w", err)
	}

	rt := &runtime{
		world:  world,
		bus:    bus,
		runner: coresys.NewRunner(world, coresys.WithBus(bus), coresys.WithLogger(log.Named("runner"))),
	}
	native := []coresys.System{
		system.ClockSystem{},
		system.MovementSystem{},
		system.NewDecaySystem(log.Named("decay")),
		system.NewSpatialIndexSystem(indexInterval),
		system.NewCleanupSystem(world),
	}
	for _, s := range native {
		if err := rt.runner.Register(s); err != nil {
			return nil, err
		}
	}

	if cfg.Scripting.Enabled {
		rt.lua = scripting.NewEngine(world, log.Named("lua"))
		scripts, err := rt.lua.LoadDir(cfg.Scripting.Dir)
		if err != nil {
			rt.close()
			return nil, fmt.Errorf("scripts: %w", err)
		}
		for _, s := range scripts {
			if err := rt.runner.Register(s); err != nil {
				rt.close()
				return nil, err
			}
		}
		log.Info("lua systems loaded", zap.Int("count", len(scripts)), zap.String("dir", cfg.Scripting.Dir))
	}
	return rt, nil
}

func (rt *runtime) close() {
	if rt.lua != nil {
		rt.lua.Close()
	}
}

// seed spawns n demo entities at random positions inside Bounds.
func (rt *runtime) seed(n int, seed int64) error {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	bounds, err := ecs.GetResource[component.Bounds](rt.world)
	if err != nil {
		return err
	}
	w, h := bounds.MaxX-bounds.MinX, bounds.MaxY-bounds.MinY
	for i := 0; i < n; i++ {
		maxHP := 50 + rng.Intn(50)
		_, err := rt.world.NewEntity().
			With(component.Position{X: bounds.MinX + rng.Float64()*w, Y: bounds.MinY + rng.Float64()*h}).
			With(component.Velocity{DX: rng.Float64()*20 - 10, DY: rng.Float64()*20 - 10}).
			With(component.Health{Current: maxHP, Max: maxHP, Decay: rng.Intn(3)}).
			Build()
		if err != nil {
			return err
		}
	}
	stats, err := ecs.GetResource[component.Stats](rt.world)
	if err != nil {
		return err
	}
	stats.Spawned += n
	return ecs.SetResource(rt.world, stats)
}
