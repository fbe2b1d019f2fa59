package lua

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.trai.ch/codetask/internal/core/domain"
	"go.trai.ch/zerr"
)

// Instance is one task object living in its own Lua state.
type Instance struct {
	mu     sync.Mutex
	typ    *ClassType
	L      *lua.LState
	self   *lua.LTable
	log    *taskLog
	closed bool
}

func newInstance(L *lua.LState, typ *ClassType, class *lua.LTable, sink domain.LogSink) *Instance {
	if class.RawGetString(fieldIndex) == lua.LNil {
		class.RawSetString(fieldIndex, class)
	}

	log := &taskLog{sink: sink}
	self := L.NewTable()
	self.RawSetString(fieldLog, log.table(L))
	L.SetMetatable(self, class)

	return &Instance{typ: typ, L: L, self: self, log: log}
}

// Set implements domain.Instance.
func (i *Instance) Set(name, raw string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	member, err := i.lookup(name)
	if err != nil {
		return err
	}
	v, err := member.Type.Parse(raw)
	if err != nil {
		return zerr.With(err, "parameter", member.Name)
	}
	i.L.SetField(i.self, member.Name, toLua(i.L, v))
	return nil
}

// Get implements domain.Instance.
func (i *Instance) Get(name string) (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	member, err := i.lookup(name)
	if err != nil {
		return "", err
	}
	v, err := fromLua(i.L.GetField(i.self, member.Name), member.Type)
	if err != nil {
		return "", zerr.With(err, "parameter", member.Name)
	}
	return domain.Format(v), nil
}

// Execute implements domain.Instance. Cancelling ctx aborts the running chunk.
func (i *Instance) Execute(ctx context.Context) (ok bool, err error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return false, zerr.With(zerr.New("instance is closed"), "task", i.typ.name)
	}

	fn, isFn := i.L.GetField(i.self, fieldExecute).(*lua.LFunction)
	if !isFn {
		return false, zerr.With(zerr.With(domain.ErrTaskExecutionFailed, "task", i.typ.name), "reason", "class has no execute method")
	}

	i.L.SetContext(ctx)
	defer i.L.RemoveContext()

	defer func() {
		if r := recover(); r != nil {
			ok = false
			err = zerr.With(zerr.With(domain.ErrTaskExecutionFailed, "task", i.typ.name), "panic", fmt.Sprint(r))
		}
	}()

	top := i.L.GetTop()
	defer i.L.SetTop(top)

	if err := i.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, i.self); err != nil {
		return false, zerr.With(zerr.Wrap(err, domain.ErrTaskExecutionFailed.Error()), "task", i.typ.name)
	}
	return lua.LVAsBool(i.L.Get(-1)) && !i.log.hasErrors(), nil
}

// Close implements domain.Instance.
func (i *Instance) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return nil
	}
	i.closed = true
	i.L.Close()
	return nil
}

func (i *Instance) lookup(name string) (domain.Member, error) {
	if i.closed {
		return domain.Member{}, zerr.With(zerr.New("instance is closed"), "task", i.typ.name)
	}
	member, ok := i.typ.member(name)
	if !ok {
		return domain.Member{}, zerr.With(zerr.With(domain.ErrUnknownParameter, "parameter", name), "task", i.typ.name)
	}
	return member, nil
}

// taskLog backs the Log object handed to every task.
type taskLog struct {
	mu      sync.Mutex
	sink    domain.LogSink
	errored bool
}

func (l *taskLog) emit(level domain.LogLevel, msg string) {
	l.mu.Lock()
	if level == domain.LogError {
		l.errored = true
	}
	l.mu.Unlock()
	if l.sink != nil {
		l.sink(level, msg)
	}
}

func (l *taskLog) hasErrors() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.errored
}

// table exposes the log with method call syntax: self.Log:LogMessage("...").
func (l *taskLog) table(L *lua.LState) *lua.LTable {
	logAt := func(level domain.LogLevel) lua.LGFunction {
		return func(L *lua.LState) int {
			parts := make([]string, 0, L.GetTop())
			for n := 2; n <= L.GetTop(); n++ {
				parts = append(parts, L.ToStringMeta(L.Get(n)).String())
			}
			l.emit(level, strings.Join(parts, " "))
			return 0
		}
	}
	return L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"LogMessage": logAt(domain.LogInfo),
		"LogWarning": logAt(domain.LogWarning),
		"LogError":   logAt(domain.LogError),
		"HasLoggedErrors": func(L *lua.LState) int {
			L.Push(lua.LBool(l.hasErrors()))
			return 1
		},
	})
}

// toLua converts a parsed parameter value into a Lua value.
func toLua(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case string:
		return lua.LString(val)
	case bool:
		return lua.LBool(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case []string:
		return listToLua(L, val, func(s string) lua.LValue { return lua.LString(s) })
	case []bool:
		return listToLua(L, val, func(b bool) lua.LValue { return lua.LBool(b) })
	case []int64:
		return listToLua(L, val, func(n int64) lua.LValue { return lua.LNumber(n) })
	case []float64:
		return listToLua(L, val, func(f float64) lua.LValue { return lua.LNumber(f) })
	default:
		return lua.LNil
	}
}

func listToLua[T any](L *lua.LState, items []T, conv func(T) lua.LValue) *lua.LTable {
	tbl := L.CreateTable(len(items), 0)
	for _, item := range items {
		tbl.Append(conv(item))
	}
	return tbl
}

// fromLua converts a Lua value into the Go representation of typ. Nil is the
// zero value.
func fromLua(v lua.LValue, typ domain.ParameterType) (any, error) {
	if v == lua.LNil {
		return nil, nil
	}
	if !typ.IsArray() {
		return scalarFromLua(v, typ)
	}

	tbl, ok := v.(*lua.LTable)
	if !ok {
		return nil, zerr.With(zerr.With(domain.ErrInvalidParameterValue, "type", string(typ)), "value", v.String())
	}
	items := make([]any, 0, tbl.Len())
	for n := 1; n <= tbl.Len(); n++ {
		item, err := scalarFromLua(tbl.RawGetInt(n), typ.Elem())
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Integral Lua numbers in [minInt64, maxInt64Bound) convert to int64 exactly.
const (
	minInt64      = -(1 << 63)
	maxInt64Bound = 1 << 63
)

func scalarFromLua(v lua.LValue, typ domain.ParameterType) (any, error) {
	switch typ {
	case domain.TypeBool:
		return lua.LVAsBool(v), nil
	case domain.TypeInt:
		n, ok := v.(lua.LNumber)
		if !ok || float64(n) != math.Trunc(float64(n)) || float64(n) < minInt64 || float64(n) >= maxInt64Bound {
			return nil, zerr.With(zerr.With(domain.ErrInvalidParameterValue, "type", string(typ)), "value", v.String())
		}
		return int64(n), nil
	case domain.TypeFloat:
		n, ok := v.(lua.LNumber)
		if !ok {
			return nil, zerr.With(zerr.With(domain.ErrInvalidParameterValue, "type", string(typ)), "value", v.String())
		}
		return float64(n), nil
	default:
		return lua.LVAsString(v), nil
	}
}
