package pwhash

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/pwhash/kdf"
	"github.com/MrEthical07/pwhash/password"
)

func cheapConfig() Config {
	cfg := DefaultConfig()
	cfg.Password = PasswordConfig{Ops: 2, Mem: 64 * kdf.KiB}
	return cfg
}

func buildService(t *testing.T, cfg Config, sink AuditSink) *Service {
	t.Helper()
	svc, err := New().WithConfig(cfg).WithAuditSink(sink).Build()
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc
}

func TestServiceHashAndVerify(t *testing.T) {
	svc := buildService(t, cheapConfig(), nil)
	ctx := context.Background()

	encoded, err := svc.HashPassword(ctx, []byte("hunter2"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=64,t=2,p=1$"))

	assert.True(t, svc.VerifyPassword(ctx, encoded, []byte("hunter2")))
	assert.False(t, svc.VerifyPassword(ctx, encoded, []byte("hunter3")))
	assert.False(t, svc.VerifyPassword(ctx, "$argon2id$v=19$m=4096,t=0,p=1$AAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAA", []byte("hunter2")))

	snap := svc.MetricsSnapshot()
	assert.Equal(t, uint64(1), snap.Counters[MetricHashSuccess])
	assert.Equal(t, uint64(1), snap.Counters[MetricVerifyMatch])
	assert.Equal(t, uint64(1), snap.Counters[MetricVerifyMismatch])
	assert.Equal(t, uint64(1), snap.Counters[MetricVerifyMalformed])
	assert.Len(t, snap.Histograms[MetricVerifyLatency], 8)

	// Hashes from the package-level API verify through the service too.
	external, err := password.HashPassword([]byte("pw"), 1, 8192)
	require.NoError(t, err)
	assert.True(t, svc.VerifyPassword(ctx, external, []byte("pw")))
}

func TestServiceDerive(t *testing.T) {
	svc := buildService(t, cheapConfig(), nil)
	ctx := context.Background()
	salt := password.GenerateSalt()

	key, err := svc.DeriveFromPassword(ctx, 48, []byte("pw"), salt, 1, 8192)
	require.NoError(t, err)
	defer key.Wipe()
	assert.Equal(t, 48, key.Len())

	again, err := password.DeriveFromPassword(48, []byte("pw"), salt, 1, 8192)
	require.NoError(t, err)
	assert.Equal(t, key.Bytes(), again.Bytes())

	_, err = svc.DeriveFromPassword(ctx, 5, []byte("pw"), salt, 1, 8192)
	require.ErrorIs(t, err, ErrOutputLengthOutOfRange)
	assert.Equal(t, KindOutputLength, Classify(err))

	snap := svc.MetricsSnapshot()
	assert.Equal(t, uint64(1), snap.Counters[MetricDeriveSuccess])
	assert.Equal(t, uint64(1), snap.Counters[MetricDeriveFailure])
	assert.Equal(t, uint64(1), snap.Counters[MetricParamsRejected])
}

func TestServiceMemoryBudgetRejectsOversizedDerive(t *testing.T) {
	cfg := cheapConfig()
	cfg.Resources.MemoryBudget = 1 * kdf.MiB
	svc := buildService(t, cfg, nil)

	_, err := svc.DeriveFromPassword(context.Background(), 32, []byte("pw"), password.Salt{}, 1, 2*kdf.MiB)
	require.ErrorIs(t, err, ErrMemoryAllocationFailed)
	assert.Equal(t, uint64(1), svc.MetricsSnapshot().Counters[MetricAllocationFailed])
	assert.Equal(t, 1*kdf.MiB, svc.MemoryBudget())
}

func TestServiceHostMemoryProbe(t *testing.T) {
	cfg := cheapConfig()
	svc, err := New().
		WithConfig(cfg).
		WithHostMemory(kdf.HostMemoryFunc(func() (uint64, bool) { return 1 << 20, true })).
		Build()
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.DeriveFromPassword(context.Background(), 32, []byte("pw"), password.Salt{}, 1, 4*kdf.MiB)
	require.ErrorIs(t, err, ErrMemoryAllocationFailed)

	// Verification against a hash demanding more than the host has is a plain false.
	assert.False(t, svc.VerifyPassword(context.Background(), "$argon2id$v=19$m=4096,t=1,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAA", []byte("pw")))
}

func TestServiceWithoutBudgetRefusesMemoryBeyondHost(t *testing.T) {
	if _, ok := kdf.SystemMemory().TotalMemory(); !ok {
		t.Skip("host memory is unknown on this platform")
	}

	// No budget and no probe override: the built-in primitive still checks
	// the system probe before allocating.
	svc := buildService(t, cheapConfig(), nil)
	require.Zero(t, svc.MemoryBudget())

	const huge = "$argon2id$v=19$m=4294967295,t=1,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAA"
	assert.False(t, svc.VerifyPassword(context.Background(), huge, []byte("pw")))
	assert.Equal(t, uint64(1), svc.MetricsSnapshot().Counters[MetricAllocationFailed])
}

func TestServiceConcurrentHashing(t *testing.T) {
	cfg := cheapConfig()
	cfg.Resources.MemoryBudget = 256 * kdf.KiB
	svc := buildService(t, cfg, nil)

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			encoded, err := svc.HashPassword(context.Background(), []byte("concurrent"))
			if err != nil {
				errs <- err
				return
			}
			if !svc.VerifyPassword(context.Background(), encoded, []byte("concurrent")) {
				errs <- assert.AnError
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent hash failed: %v", err)
	}
	assert.Equal(t, uint64(workers), svc.MetricsSnapshot().Counters[MetricHashSuccess])
}

func TestServiceAuditEvents(t *testing.T) {
	cfg := cheapConfig()
	cfg.Audit = AuditConfig{Enabled: true, BufferSize: 16}
	sink := NewChannelSink(16)
	svc := buildService(t, cfg, sink)

	encoded, err := svc.HashPassword(context.Background(), []byte("secret-password"))
	require.NoError(t, err)
	svc.VerifyPassword(context.Background(), "garbage", []byte("secret-password"))
	svc.Close()

	events := make([]AuditEvent, 0, 2)
	for len(events) < 2 {
		select {
		case e := <-sink.Events():
			events = append(events, e)
		case <-time.After(time.Second):
			t.Fatalf("expected 2 events, got %d", len(events))
		}
	}

	assert.Equal(t, AuditOpHash, events[0].Operation)
	assert.True(t, events[0].Success)
	assert.Equal(t, uint64(64), events[0].Params.MemKiB)
	assert.NotEmpty(t, events[0].ID)

	assert.Equal(t, AuditOpVerify, events[1].Operation)
	assert.Equal(t, "malformed", events[1].Outcome)
	assert.Equal(t, string(KindInvalidEncoding), events[1].ErrorKind)

	raw, err := json.Marshal(events)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret-password")
	assert.NotContains(t, string(raw), encoded[len(encoded)-20:])
}

func TestServiceLogsWithoutSecrets(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	svc, err := New().WithConfig(cheapConfig()).WithLogger(logger).Build()
	require.NoError(t, err)
	defer svc.Close()

	svc.VerifyPassword(context.Background(), "$argon2id$v=19$m=4096,t=0,p=1$AAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAA", []byte("very-secret"))

	out := buf.String()
	assert.Contains(t, out, `"kind":"invalid_encoding"`)
	assert.NotContains(t, out, "very-secret")
}

func TestServiceNeedsRehash(t *testing.T) {
	weak := buildService(t, cheapConfig(), nil)
	encoded, err := weak.HashPassword(context.Background(), []byte("pw"))
	require.NoError(t, err)

	stronger := cheapConfig()
	stronger.Password.Ops = 3
	strong := buildService(t, stronger, nil)

	needs, err := strong.NeedsRehash(encoded)
	require.NoError(t, err)
	assert.True(t, needs)

	needs, err = weak.NeedsRehash(encoded)
	require.NoError(t, err)
	assert.False(t, needs)
}

func TestServiceAdmissionTimeout(t *testing.T) {
	cfg := cheapConfig()
	cfg.Resources.MemoryBudget = 64 * kdf.KiB
	cfg.Resources.AdmissionTimeout = 10 * time.Millisecond

	gov := kdf.NewGovernor(64*kdf.KiB, nil)
	release, err := gov.Admit(context.Background(), 64*kdf.KiB)
	require.NoError(t, err)
	defer release()

	svc, err := New().WithConfig(cfg).WithPrimitive(kdf.NewArgon2id(kdf.WithGovernor(gov))).Build()
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.HashPassword(context.Background(), []byte("pw"))
	require.Error(t, err)
	assert.Equal(t, KindCanceled, Classify(err))
	assert.Equal(t, uint64(1), svc.MetricsSnapshot().Counters[MetricHashFailure])
}

func TestBuilderSingleUse(t *testing.T) {
	b := New().WithConfig(cheapConfig())
	svc, err := b.Build()
	require.NoError(t, err)
	svc.Close()

	_, err = b.Build()
	assert.Error(t, err)
}

func TestBuilderRejectsInvalidConfig(t *testing.T) {
	cfg := cheapConfig()
	cfg.Password.Ops = 0
	_, err := New().WithConfig(cfg).Build()
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorIs(t, err, ErrOpsOutOfRange)
}
