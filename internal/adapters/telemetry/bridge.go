package telemetry

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/codetask/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ sdktrace.SpanProcessor = (*Bridge)(nil)

// Bridge implements sdktrace.SpanProcessor and logs the duration of every
// finished span while enabled.
type Bridge struct {
	logger  ports.Logger
	enabled atomic.Bool
}

// NewBridge returns a new Bridge.
func NewBridge(logger ports.Logger, enabled bool) *Bridge {
	b := &Bridge{logger: logger}
	b.enabled.Store(enabled)
	return b
}

// SetEnabled switches logging on or off.
func (b *Bridge) SetEnabled(enabled bool) {
	b.enabled.Store(enabled)
}

// OnStart is called when a span starts.
func (b *Bridge) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

// OnEnd is called when a span ends.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if b.logger == nil || !b.enabled.Load() || !s.SpanContext().IsValid() {
		return
	}

	msg := fmt.Sprintf("%s%s took %s", s.Name(), describe(s), s.EndTime().Sub(s.StartTime()).Round(time.Microsecond))
	if s.Status().Code == codes.Error {
		desc := s.Status().Description
		if desc == "" {
			desc = "failed"
		}
		b.logger.Error(zerr.Wrap(zerr.New(desc), msg))
		return
	}
	b.logger.Info(msg)
}

// describe renders the task attribute, if any, as " [task]".
func describe(s sdktrace.ReadOnlySpan) string {
	for _, kv := range s.Attributes() {
		if kv.Key == "task" {
			return " [" + kv.Value.Emit() + "]"
		}
	}
	return ""
}

// ForceFlush does nothing.
func (b *Bridge) ForceFlush(context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *Bridge) Shutdown(context.Context) error {
	return nil
}
