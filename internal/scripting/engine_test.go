package scripting

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l1jgo/ecsrt/internal/core/ecs"
	coresys "github.com/l1jgo/ecsrt/internal/core/system"
)

type pos struct{ X, Y float64 }
type vel struct{ DX, DY float64 }
type hp struct {
	Current int
	Label   string
}
type clock struct {
	Tick  uint64
	Delta time.Duration
}

func newWorld(t *testing.T) *ecs.World {
	t.Helper()
	b := ecs.NewBuilder()
	ecs.Component[pos](b, "position", ecs.StorageVec)
	ecs.Component[vel](b, "velocity", ecs.StorageVec)
	ecs.Component[hp](b, "health", ecs.StorageMap)
	ecs.Resource(b, "clock", clock{})
	w, err := b.Build()
	require.NoError(t, err)
	return w
}

func newEngine(t *testing.T, w *ecs.World) *Engine {
	t.Helper()
	e := NewEngine(w, nil)
	t.Cleanup(e.Close)
	return e
}

const gravity = `
return {
  name = "gravity",
  phase = "update",
  reads = {"velocity"},
  writes = {"position"},
  run = function(ctx)
    ctx.each({"position", "velocity"}, function(e, p, v)
      p.X = p.X + v.DX * ctx.dt
      p.Y = p.Y + v.DY * ctx.dt
    end)
  end,
}
`

func TestLoadString_Manifest(t *testing.T) {
	w := newWorld(t)
	sys, err := newEngine(t, w).LoadString("fallback", gravity)
	require.NoError(t, err)

	assert.Equal(t, "gravity", sys.Name())
	assert.Equal(t, coresys.PhaseUpdate, sys.Phase())
	require.Len(t, sys.Manifest(), 2)
	assert.Equal(t, ecs.Read, sys.Manifest()[0].Mode)
	assert.Equal(t, ecs.Write, sys.Manifest()[1].Mode)
}

func TestLoadString_Errors(t *testing.T) {
	w := newWorld(t)
	e := newEngine(t, w)

	_, err := e.LoadString("bad", `return 42`)
	assert.ErrorContains(t, err, "must return a table")

	_, err = e.LoadString("bad", `return {}`)
	assert.ErrorContains(t, err, "no run function")

	_, err = e.LoadString("bad", `return {phase = "later", run = function() end}`)
	assert.Error(t, err)

	_, err = e.LoadString("bad", `return {reads = {"mana"}, run = function() end}`)
	assert.ErrorIs(t, err, ecs.ErrUnregisteredComponent)

	_, err = e.LoadString("bad", `return {`)
	assert.Error(t, err)
}

func TestScriptSystem_Update(t *testing.T) {
	w := newWorld(t)
	moving, err := w.NewEntity().With(pos{X: 1}).With(vel{DX: 2, DY: 4}).Build()
	require.NoError(t, err)
	still, err := w.NewEntity().With(pos{X: 7}).Build()
	require.NoError(t, err)

	sys, err := newEngine(t, w).LoadString("gravity", gravity)
	require.NoError(t, err)
	r := coresys.NewRunner(w)
	require.NoError(t, r.Register(sys))
	require.NoError(t, r.Tick(500*time.Millisecond))

	p, _, err := ecs.GetComponent[pos](w, moving)
	require.NoError(t, err)
	assert.Equal(t, pos{X: 2, Y: 2}, p)
	p, _, err = ecs.GetComponent[pos](w, still)
	require.NoError(t, err)
	assert.Equal(t, pos{X: 7}, p)
}

func TestScriptSystem_ReadOnlyTablesAreNotWrittenBack(t *testing.T) {
	w := newWorld(t)
	e, err := w.NewEntity().With(hp{Current: 3, Label: "orc"}).Build()
	require.NoError(t, err)

	sys, err := newEngine(t, w).LoadString("peek", `
return {
  reads = {"health"},
  run = function(ctx)
    ctx.each({"health"}, function(e, h) h.Current = 0 end)
  end,
}`)
	require.NoError(t, err)
	require.NoError(t, w.RunSystem(adapter{sys}))

	h, _, err := ecs.GetComponent[hp](w, e)
	require.NoError(t, err)
	assert.Equal(t, hp{Current: 3, Label: "orc"}, h)
}

func TestScriptSystem_UndeclaredAccessFails(t *testing.T) {
	w := newWorld(t)
	_, err := w.NewEntity().With(pos{}).With(hp{Current: 1}).Build()
	require.NoError(t, err)

	sys, err := newEngine(t, w).LoadString("sneaky", `
return {
  reads = {"position"},
  run = function(ctx)
    ctx.each({"position", "health"}, function() end)
  end,
}`)
	require.NoError(t, err)
	err = w.RunSystem(adapter{sys})
	require.Error(t, err)
	assert.ErrorContains(t, err, "script sneaky")
	assert.ErrorContains(t, err, "health")
}

func TestScriptSystem_ResourcesCountAndDestroy(t *testing.T) {
	w := newWorld(t)
	var doomed ecs.Entity
	for i := 1; i <= 3; i++ {
		e, err := w.NewEntity().With(hp{Current: i - 1}).Build()
		require.NoError(t, err)
		if i == 1 {
			doomed = e
		}
	}

	sys, err := newEngine(t, w).LoadString("reaper", `
return {
  reads = {"health"},
  write_resources = {"clock"},
  run = function(ctx)
    local c = ctx.resource("clock")
    c.Tick = c.Tick + ctx.count("health")
    ctx.each({"health"}, function(e, h)
      if h.Current <= 0 then ctx.destroy(e) end
    end)
  end,
}`)
	require.NoError(t, err)
	require.NoError(t, w.RunSystem(adapter{sys}))

	c, err := ecs.GetResource[clock](w)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), c.Tick)

	assert.Equal(t, 1, w.Pending())
	n, err := w.FlushDestroyQueue()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, w.Alive(doomed))
}

func TestScriptSystem_EachStopsOnFalse(t *testing.T) {
	w := newWorld(t)
	for i := 0; i < 5; i++ {
		_, err := w.NewEntity().With(hp{Current: 1}).Build()
		require.NoError(t, err)
	}
	sys, err := newEngine(t, w).LoadString("first", `
return {
  writes = {"health"},
  run = function(ctx)
    ctx.each({"health"}, function(e, h)
      h.Current = 9
      return false
    end)
  end,
}`)
	require.NoError(t, err)
	require.NoError(t, w.RunSystem(adapter{sys}))

	changed := 0
	require.NoError(t, w.Run(mustPrepare(t, w, ecs.Manifest{ecs.Reads[hp]()}), func(a *ecs.Access) error {
		v, err := ecs.View[hp](a)
		if err != nil {
			return err
		}
		v.Each(func(_ ecs.Entity, h hp) bool {
			if h.Current == 9 {
				changed++
			}
			return true
		})
		return nil
	}))
	assert.Equal(t, 1, changed)
}

func TestScriptSystem_TypeMismatchFails(t *testing.T) {
	w := newWorld(t)
	_, err := w.NewEntity().With(hp{Current: 1}).Build()
	require.NoError(t, err)
	sys, err := newEngine(t, w).LoadString("broken", `
return {
  writes = {"health"},
  run = function(ctx)
    ctx.each({"health"}, function(e, h) h.Label = {} end)
  end,
}`)
	require.NoError(t, err)
	err = w.RunSystem(adapter{sys})
	assert.ErrorContains(t, err, "Label")
}

func TestLoadDir(t *testing.T) {
	w := newWorld(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gravity.lua"), []byte(gravity), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "noop.lua"), []byte(`return {run = function() end}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("skip"), 0o644))

	e := newEngine(t, w)
	systems, err := e.LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, systems, 2)
	assert.Equal(t, "gravity", systems[0].Name())
	assert.Equal(t, "noop", systems[1].Name())

	systems, err = e.LoadDir(filepath.Join(dir, "missing"))
	assert.NoError(t, err)
	assert.Empty(t, systems)
}

func TestScriptSystem_FailedRunKeepsResources(t *testing.T) {
	w := newWorld(t)
	sys, err := newEngine(t, w).LoadString("halfway", `
return {
  write_resources = {"clock"},
  run = function(ctx)
    local c = ctx.resource("clock")
    c.Tick = 41
    error("boom")
  end,
}`)
	require.NoError(t, err)
	err = w.RunSystem(adapter{sys})
	assert.ErrorContains(t, err, "boom")

	c, err := ecs.GetResource[clock](w)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), c.Tick)
}

func TestLoadString_RejectsNonStructTypes(t *testing.T) {
	b := ecs.NewBuilder()
	ecs.Component[int](b, "score", ecs.StorageVec)
	ecs.Resource(b, "seed", int64(3))
	w, err := b.Build()
	require.NoError(t, err)
	e := newEngine(t, w)

	_, err = e.LoadString("scorer", `return {reads = {"score"}, run = function() end}`)
	assert.ErrorContains(t, err, "struct")
	_, err = e.LoadString("seeder", `return {read_resources = {"seed"}, run = function() end}`)
	assert.ErrorContains(t, err, "struct")
}

func TestLoadString_UnknownResourceNamed(t *testing.T) {
	_, err := newEngine(t, newWorld(t)).LoadString("bad", `return {read_resources = {"weather"}, run = function() end}`)
	assert.ErrorIs(t, err, ecs.ErrUnregisteredComponent)
	assert.ErrorContains(t, err, "resource weather")
}

// adapter runs a ScriptSystem through World.RunSystem.
type adapter struct{ s *ScriptSystem }

func (a adapter) Name() string              { return a.s.Name() }
func (a adapter) Manifest() ecs.Manifest    { return a.s.Manifest() }
func (a adapter) Run(acc *ecs.Access) error { return a.s.Update(0, acc) }

func mustPrepare(t *testing.T, w *ecs.World, m ecs.Manifest) *ecs.Prepared {
	t.Helper()
	p, err := w.Prepare("counter", m)
	require.NoError(t, err)
	return p
}
