package lua

import (
	"context"
	"slices"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.trai.ch/codetask/internal/core/domain"
	"go.trai.ch/zerr"
)

// Fields of a class table created by taskhost.class.
const (
	fieldClassName  = "__name"
	fieldProperties = "__properties"
	fieldIndex      = "__index"
	fieldExecute    = "execute"
	fieldLog        = "Log"
)

// Module is a loaded Lua image. Its prototypes are shared by every instance;
// each instance runs in its own state.
type Module struct {
	main    *lua.FunctionProto
	modules []compiledChunk
	types   map[string]*ClassType
}

// LookupType implements domain.Module.
func (m *Module) LookupType(name string) (domain.CompiledType, bool) {
	t, ok := m.types[name]
	if !ok {
		return nil, false
	}
	return t, true
}

// ClassType is a task class returned by a Lua task chunk.
type ClassType struct {
	module  *Module
	name    string
	members []domain.Member
}

// Name implements domain.CompiledType.
func (t *ClassType) Name() string {
	return t.name
}

// Members implements domain.CompiledType.
func (t *ClassType) Members() []domain.Member {
	out := make([]domain.Member, len(t.members))
	for i, m := range t.members {
		out[i] = domain.Member{Name: m.Name, Type: m.Type, Markers: slices.Clone(m.Markers)}
	}
	return out
}

// New implements domain.CompiledType. The task chunk runs again in a fresh
// state so instances never share Lua values.
func (t *ClassType) New(ctx context.Context, env domain.TaskEnv) (domain.Instance, error) {
	L, err := newState(t.module.modules, env.Resolver)
	if err != nil {
		return nil, err
	}

	ret, err := runMain(ctx, L, t.module.main)
	if err != nil {
		L.Close()
		return nil, zerr.With(zerr.Wrap(err, domain.ErrTaskExecutionFailed.Error()), "task", t.name)
	}
	class, ok := ret.(*lua.LTable)
	if !ok || lua.LVAsString(class.RawGetString(fieldClassName)) != t.name {
		L.Close()
		return nil, zerr.With(domain.ErrTypeNotFound, "type", t.name)
	}

	return newInstance(L, t, class, env.Sink), nil
}

func (t *ClassType) member(name string) (domain.Member, bool) {
	for _, m := range t.members {
		if strings.EqualFold(m.Name, name) {
			return m, true
		}
	}
	return domain.Member{}, false
}

// readClass extracts the type declared by a class table. A value that is not a
// class yields no type.
func readClass(module *Module, v lua.LValue) (*ClassType, error) {
	class, ok := v.(*lua.LTable)
	if !ok {
		return nil, nil
	}
	name, ok := class.RawGetString(fieldClassName).(lua.LString)
	if !ok || name == "" {
		return nil, nil
	}

	t := &ClassType{module: module, name: string(name)}
	props, ok := class.RawGetString(fieldProperties).(*lua.LTable)
	if !ok {
		return t, nil
	}

	var err error
	props.ForEach(func(k, v lua.LValue) {
		if err != nil {
			return
		}
		key, isString := k.(lua.LString)
		spec, isTable := v.(*lua.LTable)
		if !isString || !isTable {
			return
		}

		typ, parseErr := domain.ParseParameterType(lua.LVAsString(spec.RawGetString("type")))
		if parseErr != nil {
			err = zerr.With(zerr.Wrap(parseErr, domain.ErrModuleLoadFailed.Error()), "property", string(key))
			return
		}

		member := domain.Member{Name: string(key), Type: typ}
		if lua.LVAsBool(spec.RawGetString(domain.MarkerOutput)) {
			member.Markers = append(member.Markers, domain.MarkerOutput)
		}
		if lua.LVAsBool(spec.RawGetString(domain.MarkerRequired)) {
			member.Markers = append(member.Markers, domain.MarkerRequired)
		}
		t.members = append(t.members, member)
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(t.members, func(a, b domain.Member) int {
		return strings.Compare(a.Name, b.Name)
	})
	return t, nil
}
