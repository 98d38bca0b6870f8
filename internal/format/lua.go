package format

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/flowtree/internal/doc"
	"github.com/dshills/flowtree/internal/dom"
	"github.com/dshills/flowtree/internal/layout"
)

// LuaFormatter runs formatter callbacks from a Lua script, letting
// users define rendering for custom segment kinds without recompiling.
//
// The script must return a table with a visit function and optional
// begin and finish functions. Each receives the scope's state as a
// table of scalars; scalar keys written by the script are copied back
// into the Go-side State after the call. Values that are not scalars
// (cached nodes in particular) stay on the Go side and never cross
// into Lua.
//
// The script drives the engine through the global layout module:
//
//	layout.emit_text()          emit the active text segment
//	layout.push_element(tag)    emit a cached container and descend
//	layout.emit_element(tag)    emit a cached leaf element
//	layout.pop_node()           ascend out of the current container
//	layout.push_format()        open a nested scope of this formatter
//	layout.pop_format()         close the innermost scope
//	layout.kind()               active segment kind
//	layout.text()               active text segment content, or nil
//	layout.position()           active segment start position
//	layout.depth()              format stack depth
//
// The Lua state is sandboxed: only the base, table, string, and math
// libraries are open, and the script loading primitives are removed.
//
// A LuaFormatter is driven by a single layout instance on one
// goroutine; it is not safe for concurrent use.
type LuaFormatter struct {
	ls *lua.LState

	begin  *lua.LFunction
	finish *lua.LFunction
	visit  *lua.LFunction

	// Bindings for the callback in flight.
	ctx   *layout.Context
	state layout.State
}

// NewLuaFormatter compiles and runs script, capturing the formatter
// table it returns.
func NewLuaFormatter(script string) (*LuaFormatter, error) {
	ls := lua.NewState(lua.Options{SkipOpenLibs: true})
	f := &LuaFormatter{ls: ls}

	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.LoadLibName, lua.OpenPackage},
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		if err := ls.CallByParam(lua.P{
			Fn:      ls.NewFunction(lib.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			ls.Close()
			return nil, fmt.Errorf("format: open lua lib %s: %w", lib.name, err)
		}
	}
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "print"} {
		ls.SetGlobal(name, lua.LNil)
	}

	mod := ls.NewTable()
	for name, fn := range map[string]lua.LGFunction{
		"emit_text":    f.luaEmitText,
		"push_element": f.luaPushElement,
		"emit_element": f.luaEmitElement,
		"pop_node":     f.luaPopNode,
		"push_format":  f.luaPushFormat,
		"pop_format":   f.luaPopFormat,
		"kind":         f.luaKind,
		"text":         f.luaText,
		"position":     f.luaPosition,
		"depth":        f.luaDepth,
	} {
		ls.SetField(mod, name, ls.NewFunction(fn))
	}
	ls.SetGlobal("layout", mod)

	if err := ls.DoString(script); err != nil {
		ls.Close()
		return nil, fmt.Errorf("format: run lua script: %w", err)
	}
	tbl, ok := ls.Get(-1).(*lua.LTable)
	if !ok {
		ls.Close()
		return nil, ErrScriptNoTable
	}
	ls.Pop(1)

	f.begin, _ = tbl.RawGetString("begin").(*lua.LFunction)
	f.finish, _ = tbl.RawGetString("finish").(*lua.LFunction)
	f.visit, _ = tbl.RawGetString("visit").(*lua.LFunction)
	if f.visit == nil {
		ls.Close()
		return nil, ErrScriptNoVisit
	}
	return f, nil
}

// Close releases the Lua state. The formatter must not be used after
// Close.
func (f *LuaFormatter) Close() {
	f.ls.Close()
}

// Begin invokes the script's begin function, if defined.
func (f *LuaFormatter) Begin(c *layout.Context, state layout.State) {
	f.call(f.begin, c, state)
}

// End invokes the script's finish function, if defined.
func (f *LuaFormatter) End(c *layout.Context, state layout.State) {
	f.call(f.finish, c, state)
}

// Visit invokes the script's visit function. The segment counts as done
// unless the function returns false.
func (f *LuaFormatter) Visit(c *layout.Context, state layout.State) bool {
	return f.call(f.visit, c, state) != lua.LFalse
}

// call runs fn with the state bridged to a table, then copies scalar
// keys back. A script runtime error aborts the pass by panicking, the
// same way a misbehaving Go formatter would.
func (f *LuaFormatter) call(fn *lua.LFunction, c *layout.Context, state layout.State) lua.LValue {
	if fn == nil {
		return lua.LNil
	}
	// Calls nest: pop_format from visit runs finish before visit
	// returns, so the outer bindings must be restored, not cleared.
	prevCtx, prevState := f.ctx, f.state
	f.ctx, f.state = c, state
	defer func() { f.ctx, f.state = prevCtx, prevState }()

	tbl := f.stateToLua(state)
	f.ls.Push(fn)
	f.ls.Push(tbl)
	if err := f.ls.PCall(1, 1, nil); err != nil {
		panic(fmt.Sprintf("format: lua formatter: %v", err))
	}
	ret := f.ls.Get(-1)
	f.ls.Pop(1)
	f.luaToState(tbl, state)
	return ret
}

// stateToLua builds the state table passed to the script. Only scalar
// values cross the boundary.
func (f *LuaFormatter) stateToLua(state layout.State) *lua.LTable {
	t := f.ls.NewTable()
	for k, v := range state {
		if lv := scalarToLua(v); lv != lua.LNil {
			t.RawSetString(k, lv)
		}
	}
	return t
}

// luaToState copies scalar keys from the script's state table back into
// the Go-side state.
func (f *LuaFormatter) luaToState(t *lua.LTable, state layout.State) {
	t.ForEach(func(k, v lua.LValue) {
		ks, ok := k.(lua.LString)
		if !ok {
			return
		}
		switch x := v.(type) {
		case lua.LBool:
			state[string(ks)] = bool(x)
		case lua.LNumber:
			fv := float64(x)
			if fv == float64(int64(fv)) {
				state[string(ks)] = int64(fv)
			} else {
				state[string(ks)] = fv
			}
		case lua.LString:
			state[string(ks)] = string(x)
		}
	})
}

func scalarToLua(v any) lua.LValue {
	switch x := v.(type) {
	case bool:
		return lua.LBool(x)
	case int:
		return lua.LNumber(x)
	case int64:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case string:
		return lua.LString(x)
	}
	return lua.LNil
}

// cachedElement returns the scope's cached element for key, creating it
// with tag on first use. Caching keeps incremental re-renders on the
// same nodes.
func (f *LuaFormatter) cachedElement(key, tag string) *dom.Node {
	n, _ := f.state[key].(*dom.Node)
	if n == nil {
		n = dom.NewElement(tag)
		f.state[key] = n
	}
	return n
}

func (f *LuaFormatter) luaEmitText(L *lua.LState) int {
	f.ctx.EmitText()
	return 0
}

func (f *LuaFormatter) luaPushElement(L *lua.LState) int {
	tag := L.CheckString(1)
	f.ctx.PushNode(f.cachedElement("node:"+tag, tag))
	return 0
}

// luaEmitElement emits a leaf element cached per segment, so a segment
// re-rendered in place reuses its node.
func (f *LuaFormatter) luaEmitElement(L *lua.LState) int {
	tag := L.CheckString(1)
	key := fmt.Sprintf("node:%s:%d", tag, f.ctx.Segment().ID())
	f.ctx.EmitNode(f.cachedElement(key, tag))
	return 0
}

func (f *LuaFormatter) luaPopNode(L *lua.LState) int {
	f.ctx.PopNode()
	return 0
}

func (f *LuaFormatter) luaPushFormat(L *lua.LState) int {
	f.ctx.PushFormat(f)
	return 0
}

func (f *LuaFormatter) luaPopFormat(L *lua.LState) int {
	f.ctx.PopFormat()
	return 0
}

func (f *LuaFormatter) luaKind(L *lua.LState) int {
	L.Push(lua.LString(f.ctx.Segment().Kind()))
	return 1
}

func (f *LuaFormatter) luaText(L *lua.LState) int {
	if ts, ok := f.ctx.Segment().(*doc.TextSegment); ok {
		L.Push(lua.LString(ts.Text()))
	} else {
		L.Push(lua.LNil)
	}
	return 1
}

func (f *LuaFormatter) luaPosition(L *lua.LState) int {
	L.Push(lua.LNumber(f.ctx.Position()))
	return 1
}

func (f *LuaFormatter) luaDepth(L *lua.LState) int {
	L.Push(lua.LNumber(f.ctx.Depth()))
	return 1
}
