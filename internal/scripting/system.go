package scripting

import (
	"fmt"
	"reflect"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/l1jgo/ecsrt/internal/core/ecs"
	coresys "github.com/l1jgo/ecsrt/internal/core/system"
)

// ScriptSystem is a Lua-defined system. Its manifest comes from the script's
// reads/writes tables and goes through the same validation as native systems.
type ScriptSystem struct {
	engine   *Engine
	name     string
	phase    coresys.Phase
	manifest ecs.Manifest
	run      *lua.LFunction
}

func (s *ScriptSystem) Name() string           { return s.name }
func (s *ScriptSystem) Phase() coresys.Phase   { return s.phase }
func (s *ScriptSystem) Manifest() ecs.Manifest { return s.manifest }

func (s *ScriptSystem) Update(dt time.Duration, a *ecs.Access) error {
	L := s.engine.vm
	c := &scriptCtx{L: L, access: a, sys: s}
	err := L.CallByParam(lua.P{
		Fn:      s.run,
		NRet:    0,
		Protect: true,
	}, c.table(dt))
	if err == nil {
		// Resource tables are only written back when run succeeded.
		err = c.flush()
	}
	if err != nil {
		s.engine.log.Error("lua system error", zap.String("system", s.name), zap.Error(err))
		return fmt.Errorf("script %s: %w", s.name, err)
	}
	return nil
}

// mode returns the mode the manifest granted for a registered type.
func (s *ScriptSystem) mode(info ecs.TypeInfo) (ecs.AccessMode, bool) {
	for _, req := range s.manifest {
		if req.Kind == info.Kind && req.Type == info.Type {
			return req.Mode, true
		}
	}
	return ecs.Read, false
}

type pendingWrite struct {
	table *lua.LTable
	dst   reflect.Value
}

// scriptCtx backs the ctx table handed to run(ctx).
type scriptCtx struct {
	L       *lua.LState
	access  *ecs.Access
	sys     *ScriptSystem
	pending []pendingWrite
}

func (c *scriptCtx) table(dt time.Duration) *lua.LTable {
	t := c.L.NewTable()
	t.RawSetString("dt", lua.LNumber(dt.Seconds()))
	t.RawSetString("system", lua.LString(c.sys.name))
	t.RawSetString("each", c.L.NewFunction(c.each))
	t.RawSetString("count", c.L.NewFunction(c.count))
	t.RawSetString("resource", c.L.NewFunction(c.resource))
	t.RawSetString("destroy", c.L.NewFunction(c.destroy))
	return t
}

// flush copies write-mode resource tables back into their Go values.
func (c *scriptCtx) flush() error {
	for _, p := range c.pending {
		if err := fromTable(p.table, p.dst); err != nil {
			return err
		}
	}
	c.pending = nil
	return nil
}

func (c *scriptCtx) view(name string) (ecs.DynamicView, error) {
	reg := c.access.Registry()
	id, ok := reg.LookupName(ecs.KindComponent, name)
	if !ok {
		return ecs.DynamicView{}, unknownType(ecs.KindComponent, name)
	}
	mode, _ := c.sys.mode(reg.Info(id))
	return c.access.Dynamic(id, mode)
}

// each(names, fn) calls fn(entity, comp1, comp2, ...) for every entity that
// has all named components. Tables of write-mode components are copied back
// after each call. fn may return false to stop.
func (c *scriptCtx) each(L *lua.LState) int {
	names := L.CheckTable(1)
	fn := L.CheckFunction(2)

	views := make([]ecs.DynamicView, 0, names.Len())
	for i := 1; i <= names.Len(); i++ {
		v, err := c.view(lua.LVAsString(names.RawGetInt(i)))
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		views = append(views, v)
	}
	if len(views) == 0 {
		L.ArgError(1, "at least one component name expected")
		return 0
	}

	smallest := 0
	for i, v := range views {
		if v.Len() < views[smallest].Len() {
			smallest = i
		}
	}
	var matches []ecs.Entity
	views[smallest].Each(func(e ecs.Entity, _ any) bool {
		for _, v := range views {
			if !v.Has(e) {
				return true
			}
		}
		matches = append(matches, e)
		return true
	})

	args := make([]lua.LValue, len(views)+1)
	ptrs := make([]reflect.Value, len(views))
	for _, e := range matches {
		args[0] = entityTable(L, e)
		for i, v := range views {
			ptr, _ := v.Get(e)
			ptrs[i] = reflect.ValueOf(ptr).Elem()
			args[i+1] = toTable(L, ptrs[i])
		}
		L.Push(fn)
		for _, arg := range args {
			L.Push(arg)
		}
		L.Call(len(args), 1)
		ret := L.Get(-1)
		L.Pop(1)
		for i, v := range views {
			if v.Mode() != ecs.Write {
				continue
			}
			if err := fromTable(args[i+1].(*lua.LTable), ptrs[i]); err != nil {
				L.RaiseError("%s: %s", v.Info().Name, err.Error())
				return 0
			}
		}
		if ret == lua.LFalse {
			break
		}
	}
	return 0
}

// count(name) returns how many entities have the component.
func (c *scriptCtx) count(L *lua.LState) int {
	v, err := c.view(L.CheckString(1))
	if err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	L.Push(lua.LNumber(v.Len()))
	return 1
}

// resource(name) returns a table copy of the resource. Changes to it are
// kept only when the script declared the resource writable.
func (c *scriptCtx) resource(L *lua.LState) int {
	name := L.CheckString(1)
	reg := c.access.Registry()
	id, ok := reg.LookupName(ecs.KindResource, name)
	if !ok {
		L.RaiseError("%s", unknownType(ecs.KindResource, name).Error())
		return 0
	}
	mode, _ := c.sys.mode(reg.Info(id))
	ptr, err := c.access.DynamicResource(id, mode)
	if err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	dst := reflect.ValueOf(ptr).Elem()
	t := toTable(L, dst)
	if mode == ecs.Write {
		c.pending = append(c.pending, pendingWrite{table: t, dst: dst})
	}
	L.Push(t)
	return 1
}

// destroy(entity) queues the entity for the cleanup phase.
func (c *scriptCtx) destroy(L *lua.LState) int {
	t := L.CheckTable(1)
	e := ecs.Entity{
		ID:         uint32(lua.LVAsNumber(t.RawGetString("id"))),
		Generation: uint32(lua.LVAsNumber(t.RawGetString("generation"))),
	}
	if c.access.Alive(e) {
		c.access.Destroy(e)
	}
	return 0
}

func entityTable(L *lua.LState, e ecs.Entity) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("id", lua.LNumber(e.ID))
	t.RawSetString("generation", lua.LNumber(e.Generation))
	return t
}
