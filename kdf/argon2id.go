package kdf

import (
	"context"
	"fmt"
	"math"

	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"
)

// Argon2idID is the algorithm tag of Argon2id in encoded hashes.
const Argon2idID = "argon2id"

// Argon2id is the Argon2id primitive from golang.org/x/crypto/argon2.
//
// Every derivation first checks the memory cost against what the host can
// hold, because a failed allocation of that size kills the process instead
// of panicking. Argon2id instances are immutable and safe for concurrent use.
type Argon2id struct {
	governor *Governor
	host     HostMemory
}

// Option configures an Argon2id primitive.
type Option func(*Argon2id)

// WithGovernor routes every derivation through g before allocating memory.
func WithGovernor(g *Governor) Option {
	return func(a *Argon2id) {
		a.governor = g
	}
}

// WithHostMemory replaces the SystemMemory probe. A nil h keeps the default.
func WithHostMemory(h HostMemory) Option {
	return func(a *Argon2id) {
		if h != nil {
			a.host = h
		}
	}
}

// NewArgon2id creates the primitive. Without WithHostMemory it probes the
// machine through SystemMemory.
func NewArgon2id(opts ...Option) *Argon2id {
	a := &Argon2id{host: SystemMemory()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Argon2id) ID() string       { return Argon2idID }
func (a *Argon2id) Version() uint32  { return argon2.Version }
func (a *Argon2id) Limits() Limits   { return argon2idLimits }
func (a *Argon2id) Presets() Presets { return argon2idPresets }

// Derive fills dst with Argon2id output. See DeriveContext.
func (a *Argon2id) Derive(dst, password, salt []byte, p Params) error {
	return a.DeriveContext(context.Background(), dst, password, salt, p)
}

// DeriveContext fills dst with Argon2id output. ctx only bounds the wait for
// memory admission; the derivation itself always runs to completion.
func (a *Argon2id) DeriveContext(ctx context.Context, dst, password, salt []byte, p Params) (err error) {
	limits := argon2idLimits
	if err := limits.CheckOutputLen(uint64(len(dst))); err != nil {
		return err
	}
	if err := limits.CheckParams(p.Ops, p.Mem); err != nil {
		return err
	}

	lanes := p.Lanes
	if lanes == 0 {
		lanes = limits.Parallelism
	}
	if len(salt) < limits.MinSaltLen {
		return errors.Wrapf(ErrInvalidParameters, "salt length %d < %d", len(salt), limits.MinSaltLen)
	}
	if uint64(len(password)) > math.MaxUint32 || uint64(len(salt)) > math.MaxUint32 {
		return errors.Wrap(ErrInvalidParameters, "input too long")
	}
	kib := p.Mem.KiB()
	if kib < 8*uint64(lanes) {
		return errors.Wrapf(ErrInvalidParameters, "%d KiB too small for %d lanes", kib, lanes)
	}

	var (
		governor *Governor
		host     HostMemory
	)
	if a != nil {
		governor, host = a.governor, a.host
	}
	if host == nil {
		host = SystemMemory()
	}
	if err := checkAllocatable(host, p.Mem); err != nil {
		return err
	}
	release, err := governor.Admit(ctx, p.Mem)
	if err != nil {
		return err
	}
	defer release()

	defer func() {
		if r := recover(); r != nil {
			err = classifyPanic(r)
		}
	}()

	out := argon2.IDKey(password, salt, uint32(p.Ops), uint32(kib), lanes, uint32(len(dst)))
	copy(dst, out)
	clear(out)

	return nil
}

// checkAllocatable refuses mem the process could never obtain: more than the
// address space, or more than the host (or its cgroup) has. The runtime
// treats such an allocation as a fatal error, so it must never be attempted.
// An unknown host total skips the host check.
func checkAllocatable(host HostMemory, mem MemLimit) error {
	if uint64(mem) > math.MaxInt {
		return errors.Wrapf(ErrMemoryAllocationFailed, "mem %d exceeds the address space", mem)
	}
	if total, ok := host.TotalMemory(); ok && uint64(mem) > total {
		return errors.Wrapf(ErrMemoryAllocationFailed, "mem %d exceeds host memory %d", mem, total)
	}
	return nil
}

// classifyPanic turns a panic raised inside the primitive into an error.
func classifyPanic(r any) error {
	return errors.Wrap(ErrPrimitiveFailure, fmt.Sprint(r))
}

// DeriveContext calls p.DeriveContext when the primitive supports admission
// control and p.Derive otherwise.
func DeriveContext(ctx context.Context, p Primitive, dst, password, salt []byte, params Params) error {
	if cp, ok := p.(interface {
		DeriveContext(context.Context, []byte, []byte, []byte, Params) error
	}); ok {
		return cp.DeriveContext(ctx, dst, password, salt, params)
	}
	return p.Derive(dst, password, salt, params)
}
