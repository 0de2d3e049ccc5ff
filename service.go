package pwhash

import (
	"context"
	"log/slog"
	"time"

	"github.com/MrEthical07/pwhash/internal/audit"
	"github.com/MrEthical07/pwhash/kdf"
	"github.com/MrEthical07/pwhash/password"
)

// Service hashes, verifies and derives with a fixed configuration and records
// metrics, diagnostic events and logs for every call.
//
// Service methods are safe for concurrent use. ctx only bounds the wait for
// memory admission and event delivery; a derivation that has started always
// finishes.
type Service struct {
	config   Config
	hasher   *password.Hasher
	governor *kdf.Governor
	metrics  *Metrics
	audit    *audit.Dispatcher
	logger   *slog.Logger
}

// HashPassword returns the encoded hash of pw at the configured cost.
func (s *Service) HashPassword(ctx context.Context, pw []byte) (string, error) {
	ctx, cancel := s.admissionContext(ctx)
	defer cancel()

	start := time.Now()
	encoded, err := s.hasher.HashContext(ctx, pw)
	elapsed := time.Since(start)

	s.metrics.Observe(MetricHashLatency, elapsed)
	kind := Classify(err)
	if err != nil {
		s.metrics.Inc(MetricHashFailure)
		s.countFailure(kind)
		s.logFailure(ctx, audit.OpHash, kind, err)
	} else {
		s.metrics.Inc(MetricHashSuccess)
	}

	ops, mem := s.cost()
	s.emit(ctx, audit.OpHash, outcomeOf(err), kind, elapsed, audit.Params{
		Ops:    uint64(ops),
		MemKiB: mem.KiB(),
		Lanes:  kdf.Argon2idParallelism,
	})

	return encoded, err
}

// VerifyPassword reports whether pw matches encoded. Malformed hashes and
// failed derivations are false; the reason only reaches metrics, events and
// debug logs.
func (s *Service) VerifyPassword(ctx context.Context, encoded string, pw []byte) bool {
	ctx, cancel := s.admissionContext(ctx)
	defer cancel()

	start := time.Now()
	outcome, err := s.hasher.CheckContext(ctx, encoded, pw)
	elapsed := time.Since(start)

	s.metrics.Observe(MetricVerifyLatency, elapsed)
	kind := Classify(err)
	switch outcome {
	case password.Match:
		s.metrics.Inc(MetricVerifyMatch)
	case password.NoMatch:
		s.metrics.Inc(MetricVerifyMismatch)
	default:
		s.metrics.Inc(MetricVerifyMalformed)
		s.countFailure(kind)
		s.logFailure(ctx, audit.OpVerify, kind, err)
	}

	s.emit(ctx, audit.OpVerify, outcome.String(), kind, elapsed, audit.Params{})

	return outcome == password.Match
}

// DeriveFromPassword derives outLen bytes from pw and salt. The caller owns
// the returned key and should Wipe it.
func (s *Service) DeriveFromPassword(ctx context.Context, outLen uint64, pw []byte, salt password.Salt, ops kdf.OpsLimit, mem kdf.MemLimit) (*password.DerivedKey, error) {
	ctx, cancel := s.admissionContext(ctx)
	defer cancel()

	start := time.Now()
	key, err := s.hasher.DeriveKey(ctx, outLen, pw, salt, ops, mem)
	elapsed := time.Since(start)

	s.metrics.Observe(MetricDeriveLatency, elapsed)
	kind := Classify(err)
	if err != nil {
		s.metrics.Inc(MetricDeriveFailure)
		s.countFailure(kind)
		s.logFailure(ctx, audit.OpDerive, kind, err)
	} else {
		s.metrics.Inc(MetricDeriveSuccess)
	}

	s.emit(ctx, audit.OpDerive, outcomeOf(err), kind, elapsed, audit.Params{
		Ops:    uint64(ops),
		MemKiB: mem.KiB(),
		Lanes:  kdf.Argon2idParallelism,
		OutLen: outLen,
	})

	return key, err
}

// NeedsRehash reports whether encoded was written with a weaker cost than the
// service's current configuration.
func (s *Service) NeedsRehash(encoded string) (bool, error) {
	return s.hasher.NeedsUpgrade(encoded)
}

// Config returns the validated configuration.
func (s *Service) Config() Config {
	return s.config
}

// MemoryBudget returns the governor budget in bytes, zero when unbounded.
func (s *Service) MemoryBudget() kdf.MemLimit {
	return s.governor.Budget()
}

// MetricsSnapshot copies the current metrics.
func (s *Service) MetricsSnapshot() MetricsSnapshot {
	return s.metrics.Snapshot()
}

// AuditDropped counts events dropped by a full dispatcher buffer.
func (s *Service) AuditDropped() uint64 {
	return s.audit.Dropped()
}

// Close flushes pending events. The service must not be used afterwards.
func (s *Service) Close() {
	s.audit.Close()
}

func (s *Service) cost() (kdf.OpsLimit, kdf.MemLimit) {
	return s.config.Password.Cost()
}

func (s *Service) admissionContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout := s.config.Resources.AdmissionTimeout; timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return ctx, func() {}
}

func (s *Service) countFailure(kind ErrorKind) {
	switch {
	case kind == KindMemoryAllocation:
		s.metrics.Inc(MetricAllocationFailed)
	case isParamRejection(kind):
		s.metrics.Inc(MetricParamsRejected)
	}
}

func (s *Service) logFailure(ctx context.Context, op string, kind ErrorKind, err error) {
	level := slog.LevelDebug
	if kind == KindMemoryAllocation || kind == KindPrimitiveFailure || kind == KindUnknown {
		level = slog.LevelWarn
	}
	s.logger.LogAttrs(ctx, level, "pwhash operation failed",
		slog.String("operation", op),
		slog.String("kind", string(kind)),
		slog.String("error", err.Error()),
	)
}

func (s *Service) emit(ctx context.Context, op, outcome string, kind ErrorKind, elapsed time.Duration, params audit.Params) {
	if s.audit == nil {
		return
	}
	event := audit.NewEvent(op, outcome, kind == KindNone)
	event.ErrorKind = string(kind)
	event.Duration = elapsed
	event.Params = params
	s.audit.Emit(ctx, event)
}

func outcomeOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
