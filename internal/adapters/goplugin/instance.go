package goplugin

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"go.trai.ch/codetask/internal/core/domain"
	"go.trai.ch/zerr"
)

// Instance is one task struct created by a plugin constructor.
type Instance struct {
	mu      sync.Mutex
	typ     *StructType
	obj     any
	value   reflect.Value
	sink    domain.LogSink
	errored atomic.Bool
	closed  bool
}

// Set implements domain.Instance.
func (i *Instance) Set(name, raw string) error {
	m, ok := i.typ.member(name)
	if !ok {
		return zerr.With(zerr.With(domain.ErrUnknownParameter, "parameter", name), "task", i.typ.name)
	}
	parsed, err := m.Type.Parse(raw)
	if err != nil {
		return zerr.With(err, "parameter", m.Name)
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if err := assign(i.value.FieldByName(m.Name), reflect.ValueOf(parsed)); err != nil {
		return zerr.With(zerr.With(err, "parameter", m.Name), "value", raw)
	}
	return nil
}

// Get implements domain.Instance.
func (i *Instance) Get(name string) (string, error) {
	m, ok := i.typ.member(name)
	if !ok {
		return "", zerr.With(zerr.With(domain.ErrUnknownParameter, "parameter", name), "task", i.typ.name)
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	return domain.Format(canonical(i.value.FieldByName(m.Name))), nil
}

// Execute implements domain.Instance. A task without an Execute method
// succeeds unless it logged errors. Go code cannot be interrupted, so ctx is
// only checked before the task starts.
func (i *Instance) Execute(ctx context.Context) (ok bool, err error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return false, zerr.With(zerr.With(domain.ErrTaskExecutionFailed, "task", i.typ.name), "reason", "instance is closed")
	}
	if err := ctx.Err(); err != nil {
		return false, zerr.With(zerr.Wrap(err, domain.ErrTaskExecutionFailed.Error()), "task", i.typ.name)
	}

	defer func() {
		if r := recover(); r != nil {
			ok = false
			err = zerr.With(zerr.With(domain.ErrTaskExecutionFailed, "task", i.typ.name), "panic", fmt.Sprint(r))
		}
	}()

	ok = true
	if e, isExec := i.obj.(executor); isExec {
		ok = e.Execute()
	}
	return ok && !i.errored.Load(), nil
}

// Close implements domain.Instance.
func (i *Instance) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.closed = true
	return nil
}

func (i *Instance) log(level int, msg string) {
	lvl := domain.LogLevel(level)
	if lvl > domain.LogError {
		lvl = domain.LogError
	}
	if lvl == domain.LogError {
		i.errored.Store(true)
	}
	if i.sink != nil {
		i.sink(lvl, msg)
	}
}

// assign stores a parsed parameter value into a struct field, converting
// between the canonical Go types and the field's kind.
func assign(field, v reflect.Value) error {
	if field.Kind() == reflect.Slice {
		out := reflect.MakeSlice(field.Type(), v.Len(), v.Len())
		for idx := range v.Len() {
			if err := assign(out.Index(idx), v.Index(idx)); err != nil {
				return err
			}
		}
		field.Set(out)
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(v.String())
	case reflect.Bool:
		field.SetBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.OverflowInt(v.Int()) {
			return zerr.With(domain.ErrInvalidParameterValue, "reason", "out of range")
		}
		field.SetInt(v.Int())
	case reflect.Float32, reflect.Float64:
		field.SetFloat(v.Float())
	default:
		return zerr.With(domain.ErrInvalidParameterType, "kind", field.Kind().String())
	}
	return nil
}

// canonical reads a field as string, bool, int64, float64 or []any.
func canonical(field reflect.Value) any {
	switch field.Kind() {
	case reflect.String:
		return field.String()
	case reflect.Bool:
		return field.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return field.Int()
	case reflect.Float32, reflect.Float64:
		return field.Float()
	case reflect.Slice:
		out := make([]any, field.Len())
		for idx := range field.Len() {
			out[idx] = canonical(field.Index(idx))
		}
		return out
	default:
		return nil
	}
}
