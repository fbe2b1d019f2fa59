package goplugin

import (
	"context"
	"reflect"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/codetask/internal/core/domain"
	"go.trai.ch/zerr"
)

// constructorPrefix names the exported function that creates task instances.
const constructorPrefix = "New"

// tagName is the struct tag carrying member markers.
const tagName = "task"

// logSinkSetter is implemented by tasks embedding the host library's TaskBase.
// Levels are plain ints so the plugin does not depend on host packages.
type logSinkSetter interface {
	SetLogSink(sink func(level int, msg string))
}

type executor interface {
	Execute() bool
}

// lookupFunc finds an exported symbol of a loaded plugin.
type lookupFunc func(name string) (any, error)

// Module is a loaded Go plugin.
type Module struct {
	lookup lookupFunc

	mu    sync.Mutex
	types map[string]*StructType
}

func newModule(lookup lookupFunc) *Module {
	return &Module{lookup: lookup, types: make(map[string]*StructType)}
}

// LookupType implements domain.Module. The plugin must export
// New<name>() any returning a pointer to a struct.
func (m *Module) LookupType(name string) (domain.CompiledType, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t, ok := m.types[name]; ok {
		return t, true
	}

	sym, err := m.lookup(constructorPrefix + name)
	if err != nil {
		return nil, false
	}
	ctor, ok := sym.(func() any)
	if !ok {
		return nil, false
	}
	sample := reflect.ValueOf(ctor())
	if sample.Kind() != reflect.Pointer || sample.Elem().Kind() != reflect.Struct {
		return nil, false
	}

	t := &StructType{name: name, ctor: ctor, members: membersOf(sample.Elem().Type())}
	m.types[name] = t
	return t, true
}

// StructType is a task type backed by a Go struct.
type StructType struct {
	name    string
	ctor    func() any
	members []domain.Member
}

// Name implements domain.CompiledType.
func (t *StructType) Name() string { return t.name }

// Members implements domain.CompiledType.
func (t *StructType) Members() []domain.Member { return slices.Clone(t.members) }

// New implements domain.CompiledType.
func (t *StructType) New(_ context.Context, env domain.TaskEnv) (domain.Instance, error) {
	obj := t.ctor()
	v := reflect.ValueOf(obj)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return nil, zerr.With(domain.ErrTypeNotFound, "type", t.name)
	}

	inst := &Instance{typ: t, obj: obj, value: v.Elem(), sink: env.Sink}
	if s, ok := obj.(logSinkSetter); ok {
		s.SetLogSink(inst.log)
	}
	return inst, nil
}

func (t *StructType) member(name string) (domain.Member, bool) {
	for _, m := range t.members {
		if strings.EqualFold(m.Name, name) {
			return m, true
		}
	}
	return domain.Member{}, false
}

// membersOf lists the exported, non-embedded fields of a supported type.
func membersOf(st reflect.Type) []domain.Member {
	var members []domain.Member
	for i := range st.NumField() {
		f := st.Field(i)
		if f.Anonymous || !f.IsExported() {
			continue
		}
		typ, ok := parameterType(f.Type)
		if !ok {
			continue
		}
		members = append(members, domain.Member{Name: f.Name, Type: typ, Markers: markers(f.Tag.Get(tagName))})
	}
	slices.SortFunc(members, func(a, b domain.Member) int { return strings.Compare(a.Name, b.Name) })
	return members
}

func markers(tag string) []string {
	var out []string
	for part := range strings.SplitSeq(tag, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parameterType(t reflect.Type) (domain.ParameterType, bool) {
	if t.Kind() == reflect.Slice {
		elem, ok := scalarType(t.Elem())
		if !ok {
			return "", false
		}
		return elem + "[]", true
	}
	return scalarType(t)
}

func scalarType(t reflect.Type) (domain.ParameterType, bool) {
	switch t.Kind() {
	case reflect.String:
		return domain.TypeString, true
	case reflect.Bool:
		return domain.TypeBool, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return domain.TypeInt, true
	case reflect.Float32, reflect.Float64:
		return domain.TypeFloat, true
	default:
		return "", false
	}
}
