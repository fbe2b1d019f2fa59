// Package debugger blocks startup until a debugger attaches to the process.
package debugger

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.trai.ch/codetask/internal/core/domain"
	"go.trai.ch/codetask/internal/core/ports"
	"go.trai.ch/zerr"
)

// DefaultPollInterval is how often the tracer state is checked.
const DefaultPollInterval = 100 * time.Millisecond

const statusPath = "/proc/self/status"

// Waiter polls until a tracer is attached.
type Waiter struct {
	logger   ports.Logger
	attached func() (bool, error)
	poll     time.Duration
}

// NewWaiter creates a Waiter that reads the tracer from /proc.
func NewWaiter(logger ports.Logger) *Waiter {
	return &Waiter{logger: logger, attached: tracerAttached, poll: DefaultPollInterval}
}

// Wait blocks until a debugger is attached, ctx is done, or timeout elapses.
// A zero timeout waits forever.
func (w *Waiter) Wait(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	w.logger.Info("waiting for a debugger to attach to process " + strconv.Itoa(os.Getpid()))
	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	for {
		ok, err := w.attached()
		if err != nil {
			return zerr.Wrap(err, "cannot detect debugger")
		}
		if ok {
			w.logger.Info("debugger attached")
			return nil
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) && timeout > 0 {
				return zerr.With(domain.ErrDebuggerWaitTimeout, "timeout", timeout.String())
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func tracerAttached() (bool, error) {
	f, err := os.Open(statusPath)
	if err != nil {
		return false, err
	}
	defer func() { _ = f.Close() }()
	return parseTracerPid(f)
}

// parseTracerPid reports whether the TracerPid line of a proc status file
// names a process.
func parseTracerPid(r io.Reader) (bool, error) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		value, ok := strings.CutPrefix(sc.Text(), "TracerPid:")
		if !ok {
			continue
		}
		pid, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return false, zerr.With(zerr.Wrap(err, "malformed TracerPid"), "value", value)
		}
		return pid != 0, nil
	}
	if err := sc.Err(); err != nil {
		return false, err
	}
	return false, zerr.New("no TracerPid in process status")
}
