// Package app implements the application layer for codetask.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.trai.ch/codetask/internal/adapters/cas"
	"go.trai.ch/codetask/internal/adapters/debugger"
	"go.trai.ch/codetask/internal/adapters/telemetry"
	"go.trai.ch/codetask/internal/adapters/watcher"
	"go.trai.ch/codetask/internal/core/domain"
	"go.trai.ch/codetask/internal/core/ports"
	"go.trai.ch/codetask/internal/engine/factory"
	"go.trai.ch/codetask/internal/ui/output"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// modeSwitcher is implemented by loggers that can change their output format
// and level.
type modeSwitcher interface {
	SetJSON(enable bool)
	SetVerbose(enable bool)
}

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	factory      *factory.Factory
	watcher      ports.Watcher
	debugger     *debugger.Waiter
	bridge       *telemetry.Bridge
	store        *cas.Store
	settings     *domain.Settings
	logger       ports.Logger

	stdout   io.Writer
	debounce time.Duration
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	f *factory.Factory,
	w ports.Watcher,
	waiter *debugger.Waiter,
	bridge *telemetry.Bridge,
	store *cas.Store,
	settings *domain.Settings,
	log ports.Logger,
) *App {
	return &App{
		configLoader: loader,
		factory:      f,
		watcher:      w,
		debugger:     waiter,
		bridge:       bridge,
		store:        store,
		settings:     settings,
		logger:       log,
		stdout:       os.Stdout,
		debounce:     watcher.DefaultDebounceWindow,
	}
}

// WithOutput sets where results are printed.
func (a *App) WithOutput(w io.Writer) *App {
	a.stdout = w
	return a
}

// CommonOptions are shared by every command that reads the project file.
type CommonOptions struct {
	// File is the project file. Empty searches upwards from the working directory.
	File string
	// JSON switches logging to JSON.
	JSON bool
	// Trace logs the duration of every factory phase.
	Trace bool
	// Verbose shows debug messages.
	Verbose bool
}

// RunOptions configuration for the Run method.
type RunOptions struct {
	CommonOptions
	// Watch reruns the tasks whenever a file below the project root changes.
	Watch bool
	// Jobs bounds concurrent task runs. Zero uses the settings.
	Jobs int
}

// Run prepares, instantiates and executes the named tasks, or every task
// when names is empty.
func (a *App) Run(ctx context.Context, names []string, opts RunOptions) error {
	project, err := a.start(ctx, opts.CommonOptions)
	if err != nil {
		return err
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = a.settings.Jobs
	}
	printer := output.NewPrinter(a.stdout)

	runErr := a.runTasks(ctx, project, names, jobs, printer)
	if !opts.Watch {
		return runErr
	}
	if runErr != nil {
		a.logger.Error(runErr)
	}
	return a.watch(ctx, project, func(ctx context.Context) error {
		reloaded, err := a.loadProject(opts.File)
		if err != nil {
			return err
		}
		return a.runTasks(ctx, reloaded, names, jobs, printer)
	})
}

// Compile prepares the named tasks without running them and prints their
// parameter surface.
func (a *App) Compile(ctx context.Context, names []string, opts CommonOptions) error {
	project, err := a.start(ctx, opts)
	if err != nil {
		return err
	}
	tasks, err := selectTasks(project, names)
	if err != nil {
		return err
	}

	printer := output.NewPrinter(a.stdout)
	var errs error
	for _, task := range tasks {
		prepared, err := a.factory.Prepare(ctx, request(task))
		if err != nil {
			errs = errors.Join(errs, zerr.With(err, "task", task.Name))
			continue
		}
		printer.Parameters(task.Name, prepared.CacheHit, prepared.Parameters)
	}
	return errs
}

// Render prints the source generated for a task.
func (a *App) Render(ctx context.Context, name string, opts CommonOptions) error {
	project, err := a.start(ctx, opts)
	if err != nil {
		return err
	}
	tasks, err := selectTasks(project, []string{name})
	if err != nil {
		return err
	}

	desc, err := a.factory.Render(ctx, request(tasks[0]))
	if err != nil {
		return zerr.With(err, "task", name)
	}
	output.NewPrinter(a.stdout).Source(desc.SourceCode())
	return nil
}

// Clean removes the scratch directory and the artifact store.
func (a *App) Clean(_ context.Context) error {
	var errs error

	a.logger.Info("removing scratch directory...")
	if err := os.RemoveAll(a.settings.ScratchDir); err != nil {
		errs = errors.Join(errs, zerr.With(zerr.Wrap(err, "failed to remove scratch directory"), "path", a.settings.ScratchDir))
	}

	a.logger.Info("removing artifact store...")
	if err := a.store.Purge(); err != nil {
		errs = errors.Join(errs, err)
	}

	if errs == nil {
		a.logger.Info("clean")
	}
	return errs
}

// start applies the output switches, waits for a debugger when asked to and
// loads the project file.
func (a *App) start(ctx context.Context, opts CommonOptions) (*domain.Project, error) {
	if s, ok := a.logger.(modeSwitcher); ok {
		s.SetJSON(opts.JSON || a.settings.LogJSON)
		s.SetVerbose(opts.Verbose || a.settings.Verbose)
	}
	a.bridge.SetEnabled(opts.Trace || a.settings.Trace)

	if a.settings.DebugWait {
		if err := a.debugger.Wait(ctx, a.settings.DebugWaitTimeout); err != nil {
			return nil, err
		}
	}
	return a.loadProject(opts.File)
}

func (a *App) loadProject(file string) (*domain.Project, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to get working directory")
	}
	project, err := a.configLoader.Load(cwd, file)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	return project, nil
}

// runTasks runs the selected tasks with at most jobs in flight. Every task
// runs to completion; the failures are joined.
func (a *App) runTasks(ctx context.Context, project *domain.Project, names []string, jobs int, printer *output.Printer) error {
	tasks, err := selectTasks(project, names)
	if err != nil {
		return err
	}

	errs := make([]error, len(tasks))
	var g errgroup.Group
	g.SetLimit(jobs)
	for i, task := range tasks {
		g.Go(func() error {
			result, err := a.runTask(ctx, task)
			printer.Result(result)
			if err != nil {
				errs[i] = zerr.With(err, "task", task.Name)
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func (a *App) runTask(ctx context.Context, task domain.TaskConfig) (output.TaskResult, error) {
	start := time.Now()
	result := output.TaskResult{Name: task.Name}

	prepared, err := a.factory.Prepare(ctx, request(task))
	if err != nil {
		return result, err
	}
	result.CacheHit = prepared.CacheHit

	inst, err := a.factory.Instantiate(ctx, prepared, task.Inputs)
	if err != nil {
		return result, err
	}
	defer func() {
		if err := inst.Close(); err != nil {
			a.logger.Warn(fmt.Sprintf("%s: failed to release task instance: %v", task.Name, err))
		}
	}()

	ok, outputs, err := inst.Execute(ctx)
	result.Duration = time.Since(start)
	if err != nil {
		return result, err
	}
	result.OK = ok
	result.Outputs = outputs
	if !ok {
		return result, domain.ErrTaskExecutionFailed
	}
	return result, nil
}

// watch reruns rerun whenever the content of a file below the project root
// changes, until ctx is done.
func (a *App) watch(ctx context.Context, project *domain.Project, rerun func(context.Context) error) error {
	content := watcher.NewContentCache()
	content.Track(project.Path)

	if err := a.watcher.Start(ctx, project.Root()); err != nil {
		return zerr.Wrap(err, "failed to start watch mode")
	}
	defer func() { _ = a.watcher.Stop() }()

	batches := make(chan []string)
	debouncer := watcher.NewDebouncer(a.debounce, func(paths []string) {
		select {
		case batches <- paths:
		case <-ctx.Done():
		}
	})
	defer debouncer.Stop()

	go func() {
		for event := range a.watcher.Events() {
			a.logger.Debug(event.Operation.String() + " " + event.Path)
			debouncer.Add(event.Path)
		}
	}()

	a.logger.Info("watching " + project.Root() + " for changes")
	for {
		select {
		case <-ctx.Done():
			return nil
		case paths := <-batches:
			changed := content.Changed(paths)
			if len(changed) == 0 {
				continue
			}
			a.logger.Info(fmt.Sprintf("%d file(s) changed, rerunning", len(changed)))
			if err := rerun(ctx); err != nil {
				a.logger.Error(err)
			}
		}
	}
}

// selectTasks returns the named tasks in the given order, or all tasks when
// names is empty.
func selectTasks(project *domain.Project, names []string) ([]domain.TaskConfig, error) {
	if len(names) == 0 {
		if len(project.Tasks) == 0 {
			return nil, zerr.With(domain.ErrNoTasksSpecified, "path", project.Path)
		}
		return project.Tasks, nil
	}

	tasks := make([]domain.TaskConfig, 0, len(names))
	for _, name := range names {
		task, ok := project.Task(name)
		if !ok {
			return nil, zerr.With(zerr.With(domain.ErrTaskNotFound, "task", name), "available", project.TaskNames())
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func request(task domain.TaskConfig) factory.TaskRequest {
	return factory.TaskRequest{
		Name:       task.Name,
		Definition: task.Definition,
		Parameters: task.Parameters,
		BaseDir:    task.BaseDir,
	}
}
