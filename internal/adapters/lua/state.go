package lua

import (
	"context"
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.trai.ch/codetask/internal/core/domain"
	"go.trai.ch/zerr"
)

// Libraries opened in every task state. package must come first: it creates
// the loaded table the others register in.
var hostLibs = []struct {
	name string
	open lua.LGFunction
}{
	{lua.LoadLibName, lua.OpenPackage},
	{lua.BaseLibName, lua.OpenBase},
	{lua.TabLibName, lua.OpenTable},
	{lua.IoLibName, lua.OpenIo},
	{lua.OsLibName, lua.OpenOs},
	{lua.StringLibName, lua.OpenString},
	{lua.MathLibName, lua.OpenMath},
}

// fileSearcherIndex is the position of the package.path searcher in
// package.loaders; the dependency searcher takes its place.
const fileSearcherIndex = 2

// compiledChunk is a module prototype ready to be instantiated in a state.
type compiledChunk struct {
	name  string
	proto *lua.FunctionProto
}

// newState creates a state with the host libraries, every bundled module
// preloaded, and a searcher that asks resolver for anything else.
func newState(modules []compiledChunk, resolver domain.DependencyResolver) (*lua.LState, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	for _, lib := range hostLibs {
		if err := L.CallByParam(lua.P{Fn: L.NewFunction(lib.open), NRet: 0, Protect: true}, lua.LString(lib.name)); err != nil {
			L.Close()
			return nil, zerr.With(zerr.Wrap(err, "failed to open Lua library"), "library", lib.name)
		}
	}

	pkg, ok := L.GetGlobal(lua.LoadLibName).(*lua.LTable)
	if !ok {
		L.Close()
		return nil, zerr.New("package library is not available")
	}
	// Only the searchers below may load code.
	L.SetField(pkg, "path", lua.LString(""))

	preload, ok := L.GetField(pkg, "preload").(*lua.LTable)
	if !ok {
		L.Close()
		return nil, zerr.New("package.preload is not a table")
	}
	for _, m := range modules {
		L.SetField(preload, m.name, L.NewFunctionFromProto(m.proto))
	}

	if loaders, ok := L.GetField(pkg, "loaders").(*lua.LTable); ok {
		L.RawSetInt(loaders, fileSearcherIndex, L.NewFunction(dependencySearcher(resolver)))
	}

	return L, nil
}

// dependencySearcher consults the scoped dependency resolver. Following the
// package.loaders protocol it returns a loader function, or a message
// explaining why it declined.
func dependencySearcher(resolver domain.DependencyResolver) lua.LGFunction {
	return func(L *lua.LState) int {
		name := L.CheckString(1)
		if resolver == nil {
			L.Push(lua.LString(fmt.Sprintf("\n\tno dependency resolver for '%s'", name)))
			return 1
		}
		handle, ok := resolver.Resolve(name)
		if !ok {
			L.Push(lua.LString(fmt.Sprintf("\n\tno dependency '%s' in install directory", name)))
			return 1
		}
		proto, ok := handle.(*lua.FunctionProto)
		if !ok {
			L.Push(lua.LString(fmt.Sprintf("\n\tdependency '%s' is not a Lua module", name)))
			return 1
		}
		L.Push(L.NewFunctionFromProto(proto))
		return 1
	}
}

// runMain executes the task chunk and returns the value it returns.
func runMain(ctx context.Context, L *lua.LState, main *lua.FunctionProto) (ret lua.LValue, err error) {
	L.SetContext(ctx)
	defer L.RemoveContext()

	defer func() {
		if r := recover(); r != nil {
			err = zerr.With(zerr.New("lua panic"), "panic", fmt.Sprint(r))
		}
	}()

	top := L.GetTop()
	L.Push(L.NewFunctionFromProto(main))
	if err := L.PCall(0, 1, nil); err != nil {
		return lua.LNil, err
	}
	ret = L.Get(-1)
	L.SetTop(top)
	return ret, nil
}
