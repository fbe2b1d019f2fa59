package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.trai.ch/codetask/internal/ui/output"
	"go.trai.ch/codetask/internal/ui/style"
)

// levelStyle is the icon and colour a record level is printed with.
type levelStyle struct {
	icon  string
	color lipgloss.Color
}

func styleFor(level slog.Level) levelStyle {
	switch {
	case level >= slog.LevelError:
		return levelStyle{icon: style.Cross, color: style.Red}
	case level >= slog.LevelWarn:
		return levelStyle{icon: style.Warning, color: style.Yellow}
	case level >= slog.LevelInfo:
		return levelStyle{color: style.Slate}
	default:
		return levelStyle{icon: style.Tilde, color: style.Slate}
	}
}

// PrettyHandler is a slog.Handler printing one coloured line per record, with
// the attributes appended as key=value pairs. Continuation lines of a
// multi-line message keep their own indentation.
type PrettyHandler struct {
	out   *termenv.Output
	level slog.Leveler

	// attrs are the rendered pairs added through WithAttrs.
	attrs []string
	// groups qualifies the keys of attributes added after WithGroup.
	groups []string
}

// NewPrettyHandler creates a new PrettyHandler writing to w, or to stderr when
// w is nil.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if w == nil {
		w = os.Stderr
	}

	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &PrettyHandler{out: output.New(w), level: level}
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle writes the record.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	st := styleFor(r.Level)

	var b strings.Builder
	if st.icon != "" {
		b.WriteString(st.icon)
		b.WriteByte(' ')
	}
	b.WriteString(r.Message)

	pairs := h.attrs
	if r.NumAttrs() > 0 {
		pairs = append(make([]string, 0, len(h.attrs)+r.NumAttrs()), h.attrs...)
		r.Attrs(func(a slog.Attr) bool {
			pairs = appendAttr(pairs, h.groups, a)
			return true
		})
	}
	for _, p := range pairs {
		b.WriteByte(' ')
		b.WriteString(p)
	}

	styled := h.out.String(b.String()).Foreground(termenv.RGBColor(string(st.color)))
	_, err := h.out.WriteString(styled.String() + "\n")
	return err
}

// WithAttrs returns a handler that appends attrs to every record.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.attrs = append([]string(nil), h.attrs...)
	for _, a := range attrs {
		clone.attrs = appendAttr(clone.attrs, h.groups, a)
	}
	return &clone
}

// WithGroup returns a handler qualifying the keys of later attributes with name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

// appendAttr renders a as key=value pairs. Group values are flattened and
// empty attributes are dropped.
func appendAttr(dst, groups []string, a slog.Attr) []string {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return dst
	}

	if a.Value.Kind() == slog.KindGroup {
		inner := groups
		if a.Key != "" {
			inner = append(append([]string(nil), groups...), a.Key)
		}
		for _, ga := range a.Value.Group() {
			dst = appendAttr(dst, inner, ga)
		}
		return dst
	}

	key := a.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}
	return append(dst, key+"="+a.Value.String())
}
