//go:build codetask

// Host library linked into every Go task plugin. Generated task structs embed
// TaskBase; the host attaches its log sink through SetLogSink.
package main

import (
	"fmt"
	"strings"
)

// Log levels understood by the host.
const (
	levelInfo = iota
	levelWarning
	levelError
)

// TaskLog forwards task messages to the host.
type TaskLog struct {
	sink    func(level int, msg string)
	errored bool
}

// LogMessage logs an informational message.
func (l *TaskLog) LogMessage(args ...any) { l.emit(levelInfo, args) }

// LogWarning logs a warning.
func (l *TaskLog) LogWarning(args ...any) { l.emit(levelWarning, args) }

// LogError logs an error. A task that logged an error has failed.
func (l *TaskLog) LogError(args ...any) {
	l.errored = true
	l.emit(levelError, args)
}

// HasLoggedErrors reports whether LogError was called.
func (l *TaskLog) HasLoggedErrors() bool { return l.errored }

func (l *TaskLog) emit(level int, args []any) {
	if l.sink == nil {
		return
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprint(a)
	}
	l.sink(level, strings.Join(parts, " "))
}

// TaskBase is embedded by every generated task.
type TaskBase struct {
	Log TaskLog
}

// SetLogSink is called by the host before the task runs.
func (b *TaskBase) SetLogSink(sink func(level int, msg string)) {
	b.Log.sink = sink
}

func main() {}
