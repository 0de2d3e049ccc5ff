package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/MrEthical07/pwhash"
	"github.com/MrEthical07/pwhash/credstore"
	"github.com/MrEthical07/pwhash/kdf"
	"github.com/MrEthical07/pwhash/password"
)

type runner struct {
	cfg    benchConfig
	svc    *pwhash.Service
	store  *credstore.Store
	logger *slog.Logger
}

func newRunner(cfg benchConfig, svc *pwhash.Service, store *credstore.Store, logger *slog.Logger) *runner {
	return &runner{cfg: cfg, svc: svc, store: store, logger: logger}
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

type report struct {
	seed  phaseStats
	login phaseStats

	matches    int64
	mismatches int64
	rehashed   int64
	raced      int64
	metrics    pwhash.MetricsSnapshot
}

// Run seeds the credential table and then performs the login phase.
func (r *runner) Run(ctx context.Context) (report, error) {
	var rep report

	seedOps := kdf.OpsLimit(r.cfg.SeedOps)
	seedMem, err := pwhash.ParseMemLimit(r.cfg.SeedMem)
	if err != nil {
		return rep, errors.Wrap(err, "seed-mem")
	}

	r.logger.Info("Seeding users", slog.Int("users", r.cfg.Users))
	rep.seed, err = r.seed(ctx, seedOps, seedMem)
	if err != nil {
		return rep, err
	}

	r.logger.Info("Running logins", slog.Int("logins", r.cfg.Logins), slog.Int("concurrency", r.cfg.Concurrency))
	rep.login = r.login(ctx, &rep)
	rep.metrics = r.svc.MetricsSnapshot()
	return rep, nil
}

// seed writes one hash per user at the weak seed cost, through the
// package-level API rather than the service so the service's own cost stays
// the upgrade target.
func (r *runner) seed(ctx context.Context, ops kdf.OpsLimit, mem kdf.MemLimit) (phaseStats, error) {
	var firstErr error
	var once sync.Once

	stats := r.parallel(r.cfg.Users, func(i int, _ *rand.Rand) bool {
		pw := passwordFor(i)
		encoded, err := password.HashPassword(pw, ops, mem)
		if err == nil {
			err = r.store.Put(ctx, userID(i), encoded)
		}
		if err != nil {
			once.Do(func() { firstErr = err })
			return false
		}
		return true
	})
	if firstErr != nil {
		return stats, errors.Wrap(firstErr, "seed failed")
	}
	return stats, nil
}

func (r *runner) login(ctx context.Context, rep *report) phaseStats {
	return r.parallel(r.cfg.Logins, func(_ int, rng *rand.Rand) bool {
		i := rng.IntN(r.cfg.Users)
		pw := passwordFor(i)
		if rng.Float64() < r.cfg.WrongRatio {
			pw = append(pw, '!')
		}

		encoded, err := r.store.Get(ctx, userID(i))
		if err != nil {
			r.logger.Warn("Credential lookup failed", slog.Any("error", err))
			return false
		}

		if !r.svc.VerifyPassword(ctx, encoded, pw) {
			atomic.AddInt64(&rep.mismatches, 1)
			return true
		}
		atomic.AddInt64(&rep.matches, 1)

		upgrade, err := r.svc.NeedsRehash(encoded)
		if err != nil || !upgrade {
			return err == nil
		}
		next, err := r.svc.HashPassword(ctx, pw)
		if err != nil {
			return false
		}
		switch err := r.store.Swap(ctx, userID(i), encoded, next); {
		case err == nil:
			atomic.AddInt64(&rep.rehashed, 1)
		case errors.Is(err, credstore.ErrHashMismatch):
			atomic.AddInt64(&rep.raced, 1)
		default:
			r.logger.Warn("Rehash store failed", slog.Any("error", err))
			return false
		}
		return true
	})
}

// parallel runs op n times across cfg.Concurrency workers and collects
// per-call latency. op reports success.
func (r *runner) parallel(n int, op func(i int, rng *rand.Rand) bool) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, n)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < r.cfg.Concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), uint64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= n {
					return
				}
				t0 := time.Now()
				ok := op(i, rng)
				d := time.Since(t0)
				if !ok {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

func userID(i int) string {
	return "u" + strconv.Itoa(i)
}

func passwordFor(i int) []byte {
	return []byte("bench-password-" + strconv.Itoa(i))
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

// Print writes the human-readable summary.
func (rep report) Print(w io.Writer) {
	fmt.Fprintln(w, "---- results ----")
	printStats(w, "seed", rep.seed)
	printStats(w, "login", rep.login)
	fmt.Fprintf(w, "login: match=%d mismatch=%d rehashed=%d raced=%d\n",
		rep.matches, rep.mismatches, rep.rehashed, rep.raced)
	fmt.Fprintf(w, "service: verify_malformed=%d params_rejected=%d allocation_failed=%d\n",
		rep.metrics.Counters[pwhash.MetricVerifyMalformed],
		rep.metrics.Counters[pwhash.MetricParamsRejected],
		rep.metrics.Counters[pwhash.MetricAllocationFailed],
	)
}

func printStats(w io.Writer, name string, s phaseStats) {
	fmt.Fprintf(w, "%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
