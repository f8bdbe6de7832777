package scripting

import (
	"fmt"
	"reflect"

	lua "github.com/yuin/gopher-lua"
)

// toTable copies the exported fields of struct v into a new table keyed by
// field name. Nested structs become nested tables.
func toTable(L *lua.LState, v reflect.Value) *lua.LTable {
	t := L.NewTable()
	typ := v.Type()
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if !f.IsExported() {
			continue
		}
		if lv := toValue(L, v.Field(i)); lv != lua.LNil {
			t.RawSetString(f.Name, lv)
		}
	}
	return t
}

func toValue(L *lua.LState, v reflect.Value) lua.LValue {
	switch v.Kind() {
	case reflect.Bool:
		return lua.LBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return lua.LNumber(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return lua.LNumber(v.Uint())
	case reflect.Float32, reflect.Float64:
		return lua.LNumber(v.Float())
	case reflect.String:
		return lua.LString(v.String())
	case reflect.Struct:
		return toTable(L, v)
	}
	return lua.LNil
}

// fromTable writes table fields back into struct dst. Fields missing from the
// table keep their value; a value of the wrong Lua type is an error.
func fromTable(t *lua.LTable, dst reflect.Value) error {
	typ := dst.Type()
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if !f.IsExported() {
			continue
		}
		lv := t.RawGetString(f.Name)
		if lv == lua.LNil {
			continue
		}
		if err := fromValue(lv, dst.Field(i)); err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
	}
	return nil
}

func fromValue(lv lua.LValue, dst reflect.Value) error {
	switch dst.Kind() {
	case reflect.Bool:
		b, ok := lv.(lua.LBool)
		if !ok {
			return typeMismatch(lv, "boolean")
		}
		dst.SetBool(bool(b))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := lv.(lua.LNumber)
		if !ok {
			return typeMismatch(lv, "number")
		}
		dst.SetInt(int64(n))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := lv.(lua.LNumber)
		if !ok || n < 0 {
			return typeMismatch(lv, "non-negative number")
		}
		dst.SetUint(uint64(n))
	case reflect.Float32, reflect.Float64:
		n, ok := lv.(lua.LNumber)
		if !ok {
			return typeMismatch(lv, "number")
		}
		dst.SetFloat(float64(n))
	case reflect.String:
		s, ok := lv.(lua.LString)
		if !ok {
			return typeMismatch(lv, "string")
		}
		dst.SetString(string(s))
	case reflect.Struct:
		nested, ok := lv.(*lua.LTable)
		if !ok {
			return typeMismatch(lv, "table")
		}
		return fromTable(nested, dst)
	}
	return nil
}

func typeMismatch(lv lua.LValue, want string) error {
	return fmt.Errorf("expected %s, got %s", want, lv.Type())
}
