package domain

import (
	"fmt"
	"strings"
)

// Severity is the severity of a compiler diagnostic.
type Severity uint8

const (
	// SeverityWarning does not fail compilation.
	SeverityWarning Severity = iota
	// SeverityError fails compilation.
	SeverityError
)

// String returns the lower-case name of the severity.
func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic is one message reported by a compiler backend.
type Diagnostic struct {
	File     string
	Line     int
	Column   int
	Severity Severity
	Message  string
}

// String formats the diagnostic as file:line:col: severity: message.
func (d Diagnostic) String() string {
	var b strings.Builder
	if d.File != "" {
		b.WriteString(d.File)
		if d.Line > 0 {
			fmt.Fprintf(&b, ":%d", d.Line)
			if d.Column > 0 {
				fmt.Fprintf(&b, ":%d", d.Column)
			}
		}
		b.WriteString(": ")
	}
	b.WriteString(d.Severity.String())
	b.WriteString(": ")
	b.WriteString(d.Message)
	return b.String()
}

// HasErrors reports whether any diagnostic is an error.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Verbosity is the amount of output a backend may produce.
type Verbosity uint8

const (
	// VerbosityQuiet reports diagnostics only.
	VerbosityQuiet Verbosity = iota
	// VerbosityNormal also reports progress.
	VerbosityNormal
)

// Target is the kind of output a backend produces.
type Target uint8

const (
	// TargetLibrary produces a loadable library.
	TargetLibrary Target = iota
)

// CompileOptions is the fixed backend configuration.
type CompileOptions struct {
	Deterministic     bool
	NoStdLib          bool
	NoConfig          bool
	Verbosity         Verbosity
	Optimize          bool
	Target            Target
	SharedCompilation bool
}

// DefaultCompileOptions returns the only configuration backends are invoked with.
func DefaultCompileOptions() CompileOptions {
	return CompileOptions{
		Deterministic:     true,
		NoStdLib:          true,
		NoConfig:          true,
		Verbosity:         VerbosityQuiet,
		Optimize:          false,
		Target:            TargetLibrary,
		SharedCompilation: false,
	}
}

// CompileRequest is the input to a compiler backend.
type CompileRequest struct {
	// Name is the task name; backends use it to label output.
	Name string
	// SourcePath is the scratch file holding the rendered source.
	SourcePath string
	// OutputPath is where the backend must write the compiled artifact.
	OutputPath string
	// References are absolute paths of resolved dependencies.
	References []string
	Options    CompileOptions
}
