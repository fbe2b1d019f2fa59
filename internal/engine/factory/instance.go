package factory

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/codetask/internal/core/domain"
	"go.trai.ch/codetask/internal/core/ports"
	"go.trai.ch/codetask/internal/engine/loader"
	"go.trai.ch/zerr"
)

// TaskInstance is a task ready to execute. Close it when done.
type TaskInstance struct {
	name   string
	params []domain.ParameterDescriptor
	inst   domain.Instance
	scope  *loader.Scope
	tracer ports.Tracer
	logger ports.Logger

	mu   sync.Mutex
	span ports.Span

	closeOnce sync.Once
	closeErr  error
}

// Instantiate creates an instance of prepared and assigns inputs. Every
// required parameter that is not an output must be supplied.
func (f *Factory) Instantiate(ctx context.Context, prepared *PreparedTask, inputs map[string]string) (*TaskInstance, error) {
	name := prepared.Descriptor.Name()
	if err := checkRequired(name, prepared.Parameters, inputs); err != nil {
		return nil, err
	}

	ti := &TaskInstance{
		name:   name,
		params: prepared.Parameters,
		scope:  f.loader.Acquire(prepared.Descriptor.Language()),
		tracer: f.tracer,
		logger: f.logger,
	}

	inst, err := prepared.Compiled.Type.New(ctx, domain.TaskEnv{Resolver: ti.scope, Sink: ti.log})
	if err != nil {
		_ = ti.scope.Close()
		return nil, zerr.With(err, "task", name)
	}
	ti.inst = inst

	for _, k := range slices.Sorted(maps.Keys(inputs)) {
		if err := inst.Set(k, inputs[k]); err != nil {
			_ = ti.Close()
			return nil, zerr.With(err, "task", name)
		}
	}
	return ti, nil
}

func checkRequired(task string, params []domain.ParameterDescriptor, inputs map[string]string) error {
	var missing []string
	for _, p := range params {
		if !p.Required || p.Output {
			continue
		}
		supplied := false
		for k := range inputs {
			if strings.EqualFold(k, p.Name) {
				supplied = true
				break
			}
		}
		if !supplied {
			missing = append(missing, p.Name)
		}
	}
	if len(missing) > 0 {
		return zerr.With(zerr.With(domain.ErrMissingRequiredParameter, "parameters", missing), "task", task)
	}
	return nil
}

// Name returns the task name.
func (t *TaskInstance) Name() string {
	return t.name
}

// Execute runs the task and collects its output parameters. ok is false when
// the task reported failure; err is set when it could not run at all.
func (t *TaskInstance) Execute(ctx context.Context) (bool, map[string]string, error) {
	ctx, span := t.tracer.Start(ctx, "execute", ports.WithAttribute("task", t.name))
	defer span.End()

	t.mu.Lock()
	t.span = span
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		t.span = nil
		t.mu.Unlock()
	}()

	ok, err := t.inst.Execute(ctx)
	if err != nil {
		err = zerr.With(err, "task", t.name)
		span.RecordError(err)
		return false, nil, err
	}
	span.SetAttribute("ok", ok)

	outputs := make(map[string]string)
	for _, p := range t.params {
		if !p.Output {
			continue
		}
		v, err := t.inst.Get(p.Name)
		if err != nil {
			err = zerr.With(err, "task", t.name)
			span.RecordError(err)
			return false, nil, err
		}
		outputs[p.Name] = v
	}
	return ok, outputs, nil
}

// Close releases the instance, then its dependency scope.
func (t *TaskInstance) Close() error {
	t.closeOnce.Do(func() {
		if t.inst != nil {
			t.closeErr = t.inst.Close()
		}
		_ = t.scope.Close()
	})
	return t.closeErr
}

// log forwards task messages to the logger and the running span.
func (t *TaskInstance) log(level domain.LogLevel, msg string) {
	t.mu.Lock()
	span := t.span
	t.mu.Unlock()
	if span != nil {
		_, _ = span.Write([]byte(msg + "\n"))
	}

	line := t.name + ": " + msg
	switch level {
	case domain.LogError:
		t.logger.Error(zerr.With(zerr.New(msg), "task", t.name))
	case domain.LogWarning:
		t.logger.Warn(line)
	default:
		t.logger.Info(line)
	}
}
