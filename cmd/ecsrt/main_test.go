package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/l1jgo/ecsrt/internal/config"
)

const testSchema = `
components:
  - {name: position, storage: vec, type: Position}
  - {name: velocity, storage: vec, type: Velocity}
  - {name: health, storage: map, type: Health}
resources:
  - {name: clock, type: Clock}
  - {name: stats, type: Stats}
  - {name: bounds, type: Bounds}
  - {name: grid, type: Grid}
`

func testConfig(t *testing.T, scripts map[string]string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(schemaPath, []byte(testSchema), 0o644))
	scriptDir := filepath.Join(dir, "scripts")
	require.NoError(t, os.Mkdir(scriptDir, 0o755))
	for name, src := range scripts {
		require.NoError(t, os.WriteFile(filepath.Join(scriptDir, name), []byte(src), 0o644))
	}

	cfg := config.Defaults()
	cfg.World.Schema = schemaPath
	cfg.World.SeedEntities = 8
	cfg.World.SeedRandom = 42
	cfg.Runner.TickRate = time.Millisecond
	cfg.Runner.MaxTicks = 5
	cfg.Scripting.Dir = scriptDir
	return cfg
}

func TestNewLogger(t *testing.T) {
	log, err := newLogger(config.LoggingConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))

	log, err = newLogger(config.LoggingConfig{Level: "nonsense", Format: "console"})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, config.Defaults(), cfg)
}

func TestCheckWorld(t *testing.T) {
	cfg := testConfig(t, map[string]string{
		"heal.lua": `return {phase = "post_update", writes = {"health"}, run = function() end}`,
	})
	var out bytes.Buffer
	require.NoError(t, checkWorld(&out, cfg, zap.NewNop()))

	assert.Contains(t, out.String(), "7 types")
	assert.Contains(t, out.String(), "6 systems registered")
	// heal and decay both write health in post_update.
	assert.Contains(t, out.String(), "conflict: decay <-> heal on [health]")
}

func TestCheckWorld_RejectsBadScript(t *testing.T) {
	cfg := testConfig(t, map[string]string{
		"bad.lua": `return {reads = {"mana"}, run = function() end}`,
	})
	var out bytes.Buffer
	err := checkWorld(&out, cfg, zap.NewNop())
	assert.ErrorContains(t, err, "mana")
}

func TestRunWorld_StopsAfterMaxTicks(t *testing.T) {
	cfg := testConfig(t, nil)
	core, logs := observer.New(zapcore.InfoLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, runWorld(ctx, cfg, zap.New(core)))

	stopped := logs.FilterMessage("world stopped").All()
	require.Len(t, stopped, 1)
	fields := stopped[0].ContextMap()
	assert.Equal(t, uint64(5), fields["ticks"])
	assert.Equal(t, int64(8), fields["spawned"])
}

func TestRunWorld_StopsOnCancel(t *testing.T) {
	cfg := testConfig(t, nil)
	cfg.Runner.MaxTicks = 0
	core, logs := observer.New(zapcore.InfoLevel)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, runWorld(ctx, cfg, zap.New(core)))
	assert.Equal(t, 1, logs.FilterMessage("shutdown signal received").Len())
}
