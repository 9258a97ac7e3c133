package onboarding

import (
	"context"
	"time"
)

// Linker connects the user's retailer account. It may take a while; the
// machine does not hold its lock while waiting.
type Linker interface {
	Link(ctx context.Context) (connected bool, err error)
}

// LinkerFunc adapts a function to Linker.
type LinkerFunc func(ctx context.Context) (bool, error)

func (f LinkerFunc) Link(ctx context.Context) (bool, error) {
	return f(ctx)
}

// SimulatedLinker stands in for a real account connection: it waits Delay
// and then reports success, or a decline when Decline is set.
type SimulatedLinker struct {
	Delay   time.Duration
	Decline bool
}

func (l SimulatedLinker) Link(ctx context.Context) (bool, error) {
	timer := time.NewTimer(l.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case <-timer.C:
		return !l.Decline, nil
	}
}
