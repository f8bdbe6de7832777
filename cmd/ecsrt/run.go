package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/l1jgo/ecsrt/internal/component"
	"github.com/l1jgo/ecsrt/internal/config"
	"github.com/l1jgo/ecsrt/internal/core/ecs"
	"github.com/l1jgo/ecsrt/internal/core/event"
	"github.com/l1jgo/ecsrt/internal/spatial"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build the world and tick its systems until stopped",
	Long: `Build the world from the configured schema, spawn the demo entities and
run every system once per tick. Stops after runner.max_ticks ticks, or on
SIGINT/SIGTERM when max_ticks is 0.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runWorld(ctx, cfg, logger)
	},
}

func runWorld(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	rt, err := newRuntime(cfg, log)
	if err != nil {
		return err
	}
	defer rt.close()

	destroyed := 0
	event.Subscribe(rt.bus, func(ev event.EntityDestroyed) {
		destroyed++
		log.Debug("entity destroyed", zap.Stringer("entity", ev.Entity))
	})
	event.Subscribe(rt.bus, func(ev event.SystemFailed) {
		log.Warn("system failure reported",
			zap.String("system", ev.System),
			zap.Uint64("tick", ev.Tick),
			zap.Error(ev.Err))
	})

	if err := rt.seed(cfg.World.SeedEntities, cfg.World.SeedRandom); err != nil {
		return err
	}
	log.Info("world ready",
		zap.Int("entities", rt.world.Len()),
		zap.Int("systems", rt.runner.Len()),
		zap.Duration("tick_rate", cfg.Runner.TickRate))

	ticker := time.NewTicker(cfg.Runner.TickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := rt.runner.Tick(cfg.Runner.TickRate); err != nil {
				// Failing systems are already logged by the runner; keep ticking.
				log.Debug("tick finished with errors", zap.Error(err))
			}
			if cfg.Runner.MaxTicks > 0 && rt.runner.Ticks() >= cfg.Runner.MaxTicks {
				summarize(rt, destroyed, log)
				return nil
			}
		case <-ctx.Done():
			log.Info("shutdown signal received")
			summarize(rt, destroyed, log)
			return nil
		}
	}
}

func summarize(rt *runtime, destroyed int, log *zap.Logger) {
	fields := []zap.Field{
		zap.Uint64("ticks", rt.runner.Ticks()),
		zap.Int("alive", rt.world.Len()),
		zap.Int("destroyed_events", destroyed),
	}
	if stats, err := ecs.GetResource[component.Stats](rt.world); err == nil {
		fields = append(fields, zap.Int("spawned", stats.Spawned), zap.Int("destroyed", stats.Destroyed))
	}
	if grid, err := ecs.GetResource[spatial.Grid](rt.world); err == nil {
		fields = append(fields, zap.Int("grid_cells", grid.Cells()))
	}
	log.Info("world stopped", fields...)
}
