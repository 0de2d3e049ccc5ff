package kdf

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"
)

// HostMemory reports how much physical memory the machine has.
type HostMemory interface {
	// TotalMemory returns total RAM in bytes and false when it is unknown.
	TotalMemory() (uint64, bool)
}

// HostMemoryFunc adapts a function to HostMemory.
type HostMemoryFunc func() (uint64, bool)

func (f HostMemoryFunc) TotalMemory() (uint64, bool) { return f() }

// Governor admits derivations against a shared memory budget so a burst of
// concurrent hashes cannot exhaust the process. Derivations whose combined
// cost fits the budget run in parallel; the rest wait for admission.
//
// A nil *Governor admits everything.
type Governor struct {
	budget MemLimit
	sem    *semaphore.Weighted
	host   HostMemory
}

// NewGovernor creates a governor. A zero budget disables the shared budget and
// keeps only the host memory check. A nil host skips that check.
func NewGovernor(budget MemLimit, host HostMemory) *Governor {
	g := &Governor{budget: budget, host: host}
	if budget > 0 {
		g.sem = semaphore.NewWeighted(int64(budget))
	}
	return g
}

// Budget returns the configured budget, zero when unbounded.
func (g *Governor) Budget() MemLimit {
	if g == nil {
		return 0
	}
	return g.budget
}

// Admit reserves mem bytes, blocking until they fit in the budget or ctx is
// done. The returned release func must be called exactly once.
func (g *Governor) Admit(ctx context.Context, mem MemLimit) (func(), error) {
	if g == nil {
		return func() {}, nil
	}

	if g.host != nil {
		if total, ok := g.host.TotalMemory(); ok && uint64(mem) > total {
			return nil, errors.Wrapf(ErrMemoryAllocationFailed, "mem %d exceeds host memory %d", mem, total)
		}
	}

	if g.sem == nil {
		return func() {}, nil
	}
	if mem > g.budget {
		return nil, errors.Wrapf(ErrMemoryAllocationFailed, "mem %d exceeds budget %d", mem, g.budget)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	if err := g.sem.Acquire(ctx, int64(mem)); err != nil {
		return nil, errors.WithMessage(err, "waiting for memory budget")
	}

	return func() { g.sem.Release(int64(mem)) }, nil
}
