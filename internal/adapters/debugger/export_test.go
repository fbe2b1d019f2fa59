package debugger

import (
	"io"
	"time"

	"go.trai.ch/codetask/internal/core/ports"
)

// NewWaiterWithProbe creates a Waiter with a custom attach probe.
func NewWaiterWithProbe(logger ports.Logger, poll time.Duration, probe func() (bool, error)) *Waiter {
	return &Waiter{logger: logger, attached: probe, poll: poll}
}

// ParseTracerPid exposes parseTracerPid.
func ParseTracerPid(r io.Reader) (bool, error) {
	return parseTracerPid(r)
}
