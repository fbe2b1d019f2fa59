// Package output renders command results on the terminal.
package output

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.trai.ch/codetask/internal/core/domain"
	"go.trai.ch/codetask/internal/ui/style"
)

// ColorProfile returns Ascii when NO_COLOR is set and the detected terminal
// profile otherwise.
func ColorProfile() termenv.Profile {
	if os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}

// New creates a termenv.Output for w using ColorProfile. A nil w writes to stderr.
func New(w io.Writer, opts ...termenv.OutputOption) *termenv.Output {
	if w == nil {
		w = os.Stderr
	}
	opts = append(opts, termenv.WithProfile(ColorProfile()), termenv.WithTTY(true))
	return termenv.NewOutput(w, opts...)
}

// TaskResult is the outcome of one task run.
type TaskResult struct {
	Name     string
	OK       bool
	CacheHit bool
	Duration time.Duration
	Outputs  map[string]string
}

// Printer writes results. It is safe for concurrent use; each call writes
// one complete block.
type Printer struct {
	mu  sync.Mutex
	out *termenv.Output
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{out: New(w)}
}

// Result prints a task outcome followed by its outputs in name order.
func (p *Printer) Result(r TaskResult) {
	var b strings.Builder
	if r.OK {
		b.WriteString(p.paint(style.Check, style.Green))
	} else {
		b.WriteString(p.paint(style.Cross, style.Red))
	}
	b.WriteString(" " + r.Name)
	if r.CacheHit {
		b.WriteString(" " + p.paint("(cached)", style.Slate))
	}
	if r.Duration > 0 {
		b.WriteString(" " + p.paint(r.Duration.Round(time.Millisecond).String(), style.Slate))
	}
	b.WriteByte('\n')

	for _, k := range slices.Sorted(maps.Keys(r.Outputs)) {
		fmt.Fprintf(&b, "    %s = %s\n", k, r.Outputs[k])
	}
	p.write(b.String())
}

// Parameters prints the parameter surface of a compiled task.
func (p *Printer) Parameters(task string, cacheHit bool, params []domain.ParameterDescriptor) {
	var b strings.Builder
	b.WriteString(p.paint(style.Dot, style.Iris) + " " + task)
	if cacheHit {
		b.WriteString(" " + p.paint("(cached)", style.Slate))
	}
	b.WriteByte('\n')

	for _, param := range params {
		fmt.Fprintf(&b, "    %s %s", param.Name, param.Type)
		if markers := param.Markers(); len(markers) > 0 {
			b.WriteString(" " + p.paint(strings.Join(markers, ","), style.Slate))
		}
		b.WriteByte('\n')
	}
	p.write(b.String())
}

// Source prints generated source code verbatim.
func (p *Printer) Source(src string) {
	if !strings.HasSuffix(src, "\n") {
		src += "\n"
	}
	p.write(src)
}

func (p *Printer) paint(s string, c lipgloss.Color) string {
	return p.out.String(s).Foreground(p.out.Color(string(c))).String()
}

func (p *Printer) write(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = p.out.WriteString(s)
}
