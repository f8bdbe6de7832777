package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/l1jgo/ecsrt/internal/core/ecs"
	coresys "github.com/l1jgo/ecsrt/internal/core/system"
)

// Engine wraps a single gopher-lua VM that hosts script systems for one world.
// Single-goroutine access only (the runner's tick loop).
type Engine struct {
	vm    *lua.LState
	world *ecs.World
	log   *zap.Logger
}

func NewEngine(world *ecs.World, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	return &Engine{vm: vm, world: world, log: log}
}

// LoadDir loads every .lua file in dir as a system. A missing dir yields none.
func (e *Engine) LoadDir(dir string) ([]*ScriptSystem, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // skip missing dirs
		}
		return nil, err
	}
	var out []*ScriptSystem
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		sys, err := e.LoadFile(path)
		if err != nil {
			return nil, err
		}
		out = append(out, sys)
	}
	return out, nil
}

// LoadFile loads one script. Its name defaults to the file name.
func (e *Engine) LoadFile(path string) (*ScriptSystem, error) {
	fn, err := e.vm.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	sys, err := e.define(name, fn)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	e.log.Debug("loaded lua script", zap.String("file", path), zap.String("system", sys.name))
	return sys, nil
}

// LoadString loads a script from source, for tests and embedded scripts.
func (e *Engine) LoadString(name, src string) (*ScriptSystem, error) {
	fn, err := e.vm.LoadString(src)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return e.define(name, fn)
}

// define runs a script chunk and turns the table it returns into a system:
//
//	return {
//	  name = "gravity", phase = "update",
//	  reads = {"position"}, writes = {"velocity"},
//	  read_resources = {"clock"}, write_resources = {},
//	  run = function(ctx) ... end,
//	}
func (e *Engine) define(name string, chunk *lua.LFunction) (*ScriptSystem, error) {
	if err := e.vm.CallByParam(lua.P{
		Fn:      chunk,
		NRet:    1,
		Protect: true,
	}); err != nil {
		return nil, err
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)

	def, ok := result.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("script must return a table, got %s", result.Type())
	}
	run, ok := def.RawGetString("run").(*lua.LFunction)
	if !ok {
		return nil, fmt.Errorf("script has no run function")
	}
	if n := lStr(def, "name"); n != "" {
		name = n
	}
	phase := coresys.PhaseUpdate
	if p := lStr(def, "phase"); p != "" {
		var err error
		if phase, err = coresys.ParsePhase(p); err != nil {
			return nil, err
		}
	}

	sys := &ScriptSystem{engine: e, name: name, phase: phase, run: run}
	reg := e.world.Registry()
	for _, field := range []struct {
		key  string
		kind ecs.Kind
		mode ecs.AccessMode
	}{
		{"reads", ecs.KindComponent, ecs.Read},
		{"writes", ecs.KindComponent, ecs.Write},
		{"read_resources", ecs.KindResource, ecs.Read},
		{"write_resources", ecs.KindResource, ecs.Write},
	} {
		for _, typeName := range lStrings(def, field.key) {
			id, ok := reg.LookupName(field.kind, typeName)
			if !ok {
				return nil, unknownType(field.kind, typeName)
			}
			info := reg.Info(id)
			if info.Type.Kind() != reflect.Struct {
				return nil, fmt.Errorf("%s %q: scripts can only access struct types, not %s", info.Kind, typeName, info.Type)
			}
			sys.manifest = append(sys.manifest, ecs.Request{Kind: info.Kind, Type: info.Type, Mode: field.mode})
		}
	}
	return sys, nil
}

func unknownType(kind ecs.Kind, name string) error {
	if kind == ecs.KindResource {
		name = "resource " + name
	}
	return &ecs.AccessError{Type: name, Err: ecs.ErrUnregisteredComponent}
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}

// --- Lua helpers ---

// lStr reads a string field from a Lua table.
func lStr(t *lua.LTable, key string) string {
	if v, ok := t.RawGetString(key).(lua.LString); ok {
		return string(v)
	}
	return ""
}

// lStrings reads an array of strings from a Lua table field.
func lStrings(t *lua.LTable, key string) []string {
	arr, ok := t.RawGetString(key).(*lua.LTable)
	if !ok {
		return nil
	}
	out := make([]string, 0, arr.Len())
	for i := 1; i <= arr.Len(); i++ {
		out = append(out, lua.LVAsString(arr.RawGetInt(i)))
	}
	return out
}
