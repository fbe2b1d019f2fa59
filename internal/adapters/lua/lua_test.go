package lua_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/codetask/internal/adapters/lua"
	"go.trai.ch/codetask/internal/core/domain"
)

var hostLibrary = filepath.Join("..", "..", "..", "ref", "taskhost.lua")

const greetSource = `
local taskhost = require("taskhost")
local string = require("string")

local Greet = taskhost.class("Greet")
Greet:property("Name", "string", { required = true })
Greet:property("Result", "string", { output = true })

function Greet:execute()
  do
    self.Result = string.format("hello %s", self.Name)
  end
  return not self.Log:HasLoggedErrors()
end

return Greet
`

type mapResolver map[string]any

func (m mapResolver) Resolve(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), domain.PrivateFilePerm))
	return path
}

// compile runs the backend and returns the image bytes and the diagnostics.
func compile(t *testing.T, source string, refs ...string) ([]byte, []domain.Diagnostic) {
	t.Helper()
	dir := t.TempDir()
	req := domain.CompileRequest{
		Name:       "Greet",
		SourcePath: writeFile(t, dir, "task.lua", source),
		OutputPath: filepath.Join(dir, "task.luaimg"),
		References: append([]string{hostLibrary}, refs...),
		Options:    domain.DefaultCompileOptions(),
	}

	diags, err := lua.NewCompiler().Compile(context.Background(), req)
	require.NoError(t, err)
	if domain.HasErrors(diags) {
		assert.NoFileExists(t, req.OutputPath)
		return nil, diags
	}

	data, err := os.ReadFile(req.OutputPath)
	require.NoError(t, err)
	return data, diags
}

func load(t *testing.T, source string, env domain.TaskEnv, refs ...string) domain.CompiledType {
	t.Helper()
	data, diags := compile(t, source, refs...)
	require.False(t, domain.HasErrors(diags), "%v", diags)

	mod, err := lua.NewRuntime().LoadBuffer(context.Background(), "task.luaimg", data, env)
	require.NoError(t, err)

	typ, ok := mod.LookupType("Greet")
	require.True(t, ok)
	return typ
}

func newInstance(t *testing.T, typ domain.CompiledType, env domain.TaskEnv) domain.Instance {
	t.Helper()
	inst, err := typ.New(context.Background(), env)
	require.NoError(t, err)
	t.Cleanup(func() { _ = inst.Close() })
	return inst
}

func TestRuntime_RunsTask(t *testing.T) {
	t.Parallel()
	typ := load(t, greetSource, domain.TaskEnv{})

	assert.Equal(t, "Greet", typ.Name())
	assert.Equal(t, []domain.Member{
		{Name: "Name", Type: domain.TypeString, Markers: []string{domain.MarkerRequired}},
		{Name: "Result", Type: domain.TypeString, Markers: []string{domain.MarkerOutput}},
	}, typ.Members())

	inst := newInstance(t, typ, domain.TaskEnv{})
	require.NoError(t, inst.Set("name", "world"))

	ok, err := inst.Execute(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	out, err := inst.Get("Result")
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)
}

func TestRuntime_KeepsNonUTF8SourceBytes(t *testing.T) {
	t.Parallel()
	source := `
local taskhost = require("taskhost")
local Greet = taskhost.class("Greet")
Greet:property("Length", "int", { output = true })
function Greet:execute()
  self.Length = #"caf` + "\xe9" + `"
  return true
end
return Greet
`
	inst := newInstance(t, load(t, source, domain.TaskEnv{}), domain.TaskEnv{})

	ok, err := inst.Execute(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	got, err := inst.Get("Length")
	require.NoError(t, err)
	assert.Equal(t, "4", got)
}

func TestRuntime_InstancesAreIsolated(t *testing.T) {
	t.Parallel()
	typ := load(t, greetSource, domain.TaskEnv{})

	a := newInstance(t, typ, domain.TaskEnv{})
	b := newInstance(t, typ, domain.TaskEnv{})
	require.NoError(t, a.Set("Name", "a"))

	got, err := b.Get("Name")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRuntime_ArrayParameters(t *testing.T) {
	t.Parallel()
	typ := load(t, `
local taskhost = require("taskhost")
local Greet = taskhost.class("Greet")
Greet:property("Values", "int[]", { required = true })
Greet:property("Sum", "int", { output = true })
Greet:property("Doubled", "float[]", { output = true })

function Greet:execute()
  local sum, doubled = 0, {}
  for i, v in ipairs(self.Values) do
    sum = sum + v
    doubled[i] = v * 2.5
  end
  self.Sum = sum
  self.Doubled = doubled
  return true
end

return Greet
`, domain.TaskEnv{})

	inst := newInstance(t, typ, domain.TaskEnv{})
	require.NoError(t, inst.Set("Values", "1; 2;3"))

	ok, err := inst.Execute(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	sum, err := inst.Get("Sum")
	require.NoError(t, err)
	assert.Equal(t, "6", sum)

	doubled, err := inst.Get("Doubled")
	require.NoError(t, err)
	assert.Equal(t, "2.5;5;7.5", doubled)
}

func TestRuntime_LoggedErrorsFailTheTask(t *testing.T) {
	t.Parallel()
	typ := load(t, `
local taskhost = require("taskhost")
local Greet = taskhost.class("Greet")

function Greet:execute()
  self.Log:LogMessage("starting", 1)
  self.Log:LogError("it broke")
  return not self.Log:HasLoggedErrors()
end

return Greet
`, domain.TaskEnv{})

	type entry struct {
		level domain.LogLevel
		msg   string
	}
	var logged []entry
	inst := newInstance(t, typ, domain.TaskEnv{Sink: func(level domain.LogLevel, msg string) {
		logged = append(logged, entry{level, msg})
	}})

	ok, err := inst.Execute(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []entry{{domain.LogInfo, "starting 1"}, {domain.LogError, "it broke"}}, logged)
}

func TestRuntime_RuntimeErrorIsExecutionFailure(t *testing.T) {
	t.Parallel()
	typ := load(t, `
local taskhost = require("taskhost")
local Greet = taskhost.class("Greet")
function Greet:execute()
  error("boom")
end
return Greet
`, domain.TaskEnv{})

	inst := newInstance(t, typ, domain.TaskEnv{})
	ok, err := inst.Execute(context.Background())
	require.Error(t, err)
	assert.False(t, ok)
	assert.True(t, domain.Is(err, domain.ErrTaskExecutionFailed))
	assert.Contains(t, err.Error(), "boom")
}

func TestRuntime_ContextCancelsExecution(t *testing.T) {
	t.Parallel()
	typ := load(t, `
local taskhost = require("taskhost")
local Greet = taskhost.class("Greet")
function Greet:execute()
  while true do end
end
return Greet
`, domain.TaskEnv{})

	inst := newInstance(t, typ, domain.TaskEnv{})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	ok, err := inst.Execute(ctx)
	require.Error(t, err)
	assert.False(t, ok)
}

func TestRuntime_ParameterErrors(t *testing.T) {
	t.Parallel()
	typ := load(t, `
local taskhost = require("taskhost")
local Greet = taskhost.class("Greet")
Greet:property("Count", "int")
function Greet:execute() return true end
return Greet
`, domain.TaskEnv{})
	inst := newInstance(t, typ, domain.TaskEnv{})

	err := inst.Set("Missing", "x")
	require.Error(t, err)
	assert.True(t, domain.Is(err, domain.ErrUnknownParameter))

	err = inst.Set("Count", "three")
	require.Error(t, err)
	assert.Equal(t, domain.CodeInvalidParameter, domain.CodeOf(err))
}

func TestRuntime_IntOutputOutOfRange(t *testing.T) {
	t.Parallel()

	for _, expr := range []string{"2^63", "-2^64", "1e300"} {
		t.Run(expr, func(t *testing.T) {
			t.Parallel()
			typ := load(t, `
local taskhost = require("taskhost")
local Greet = taskhost.class("Greet")
Greet:property("Count", "int", { output = true })
function Greet:execute() self.Count = `+expr+` return true end
return Greet
`, domain.TaskEnv{})
			inst := newInstance(t, typ, domain.TaskEnv{})

			ok, err := inst.Execute(context.Background())
			require.NoError(t, err)
			require.True(t, ok)

			_, err = inst.Get("Count")
			require.Error(t, err)
			assert.Equal(t, domain.CodeInvalidParameter, domain.CodeOf(err))
		})
	}
}

func TestRuntime_DependencyHook(t *testing.T) {
	t.Parallel()
	rt := lua.NewRuntime()
	dir := t.TempDir()

	helper, err := rt.LoadDependency(writeFile(t, dir, "helper.lua", `return { shout = function(s) return s .. "!" end }`))
	require.NoError(t, err)
	env := domain.TaskEnv{Resolver: mapResolver{"helper": helper}}

	source := `
local taskhost = require("taskhost")
local helper = require("helper")
local Greet = taskhost.class("Greet")
Greet:property("Result", "string", { output = true })
function Greet:execute()
  self.Result = helper.shout("hi")
  return true
end
return Greet
`
	typ := load(t, source, env)
	inst := newInstance(t, typ, env)

	ok, err := inst.Execute(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	out, err := inst.Get("Result")
	require.NoError(t, err)
	assert.Equal(t, "hi!", out)

	data, _ := compile(t, source)
	_, err = rt.LoadBuffer(context.Background(), "task.luaimg", data, domain.TaskEnv{Resolver: mapResolver{}})
	require.Error(t, err)
	assert.Equal(t, domain.CodeModuleLoadFailure, domain.CodeOf(err))
	assert.Contains(t, err.Error(), "helper")
}

func TestRuntime_BundledReferences(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	util := writeFile(t, dir, "util.lua", `return { answer = 42 }`)

	typ := load(t, `
local taskhost = require("taskhost")
local util = require("util")
local Greet = taskhost.class("Greet")
Greet:property("Answer", "int", { output = true })
function Greet:execute()
  self.Answer = util.answer
  return true
end
return Greet
`, domain.TaskEnv{}, util)

	inst := newInstance(t, typ, domain.TaskEnv{})
	ok, err := inst.Execute(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	got, err := inst.Get("Answer")
	require.NoError(t, err)
	assert.Equal(t, "42", got)
}

func TestRuntime_ChunkWithoutClassHasNoType(t *testing.T) {
	t.Parallel()
	data, _ := compile(t, `return 42`)

	mod, err := lua.NewRuntime().LoadBuffer(context.Background(), "task.luaimg", data, domain.TaskEnv{})
	require.NoError(t, err)
	_, ok := mod.LookupType("Greet")
	assert.False(t, ok)
}

func TestRuntime_RejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, data := range [][]byte{[]byte("not json"), []byte(`{"format":"other"}`)} {
		_, err := lua.NewRuntime().LoadBuffer(context.Background(), "x", data, domain.TaskEnv{})
		require.Error(t, err)
		assert.Equal(t, domain.CodeModuleLoadFailure, domain.CodeOf(err))
	}
}

func TestCompiler_SyntaxError(t *testing.T) {
	t.Parallel()

	_, diags := compile(t, "local x = \nlocal Greet = (")
	require.True(t, domain.HasErrors(diags))

	var found bool
	for _, d := range diags {
		if d.Severity == domain.SeverityError {
			found = true
			assert.Equal(t, "task.lua", filepath.Base(d.File))
			assert.Positive(t, d.Line)
			assert.NotEmpty(t, d.Message)
		}
	}
	assert.True(t, found)
}

func TestCompiler_NonLuaReferenceWarns(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	other := writeFile(t, dir, "helper.go", "package main")

	data, diags := compile(t, greetSource, other)
	require.NotNil(t, data)
	require.Len(t, diags, 1)
	assert.Equal(t, domain.SeverityWarning, diags[0].Severity)
	assert.Equal(t, other, diags[0].File)
}

func TestCompiler_BrokenReference(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	broken := writeFile(t, dir, "broken.lua", "return {")

	_, diags := compile(t, greetSource, broken)
	require.True(t, domain.HasErrors(diags))
	assert.Equal(t, broken, diags[0].File)
}
