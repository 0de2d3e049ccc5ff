package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/MrEthical07/pwhash"
	"github.com/MrEthical07/pwhash/credstore"
)

const cheapYAML = `
password:
  preset: ""
  ops: 1
  mem: 64KiB
`

func testConfig(t *testing.T) benchConfig {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pwhash.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cheapYAML), 0o600))

	return benchConfig{
		Users:       6,
		Concurrency: 4,
		Logins:      40,
		SeedOps:     1,
		SeedMem:     "32KiB",
		Prefix:      "t",
		ConfigPath:  path,
		Out:         io.Discard,
	}
}

func TestRunnerUpgradesSeededHashes(t *testing.T) {
	cfg := testConfig(t)
	logger := slog.New(slog.DiscardHandler)

	conf, err := pwhash.LoadConfig(cfg.ConfigPath)
	require.NoError(t, err)
	svc, err := pwhash.New().WithConfig(conf).Build()
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	store := credstore.NewStore(client, cfg.Prefix, 0)

	rep, err := newRunner(cfg, svc, store, logger).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, cfg.Users, rep.seed.ops)
	assert.Zero(t, rep.seed.failures)
	assert.Equal(t, cfg.Logins, rep.login.ops)
	assert.Zero(t, rep.login.failures)
	assert.EqualValues(t, cfg.Logins, rep.matches+rep.mismatches)
	assert.Zero(t, rep.mismatches, "no wrong passwords were requested")
	assert.Positive(t, rep.rehashed)
	assert.LessOrEqual(t, rep.rehashed, int64(cfg.Users))

	upgraded := 0
	for i := 0; i < cfg.Users; i++ {
		encoded, err := store.Get(context.Background(), userID(i))
		require.NoError(t, err)
		needs, err := svc.NeedsRehash(encoded)
		require.NoError(t, err)
		if !needs {
			upgraded++
			assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=64,t=1,p=1$"), encoded)
		}
	}
	assert.EqualValues(t, rep.rehashed, upgraded)
}

func TestRunnerCountsWrongPasswords(t *testing.T) {
	cfg := testConfig(t)
	cfg.WrongRatio = 1

	conf, err := pwhash.LoadConfig(cfg.ConfigPath)
	require.NoError(t, err)
	svc, err := pwhash.New().WithConfig(conf).Build()
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	rep, err := newRunner(cfg, svc, credstore.NewStore(client, cfg.Prefix, 0), slog.New(slog.DiscardHandler)).Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, rep.matches)
	assert.EqualValues(t, cfg.Logins, rep.mismatches)
	assert.Zero(t, rep.rehashed)
	assert.EqualValues(t, cfg.Logins, rep.metrics.Counters[pwhash.MetricVerifyMismatch])
}

func TestRunnerRejectsBadSeedMem(t *testing.T) {
	cfg := testConfig(t)
	cfg.SeedMem = "a lot"
	r := newRunner(cfg, nil, nil, slog.New(slog.DiscardHandler))
	_, err := r.Run(context.Background())
	assert.Error(t, err)
}

func TestAppRunsAndShutsDown(t *testing.T) {
	cfg := testConfig(t)

	var srv *httpServer
	app := fxtest.New(t, appOptions(cfg), fx.Populate(&srv))
	app.RequireStart()
	sig := <-app.Wait()
	app.RequireStop()

	assert.Equal(t, 0, sig.ExitCode)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pwhash_verify_match_total")

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "ok", rec.Body.String())
}

func TestParseFlags(t *testing.T) {
	t.Setenv("REDIS_ADDR", "redis.example:6379")
	var stderr bytes.Buffer

	cfg, err := parseFlags([]string{"-users", "5", "-wrong", "0.5"}, &stderr)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Users)
	assert.Equal(t, 0.5, cfg.WrongRatio)
	assert.Equal(t, "redis.example:6379", cfg.RedisAddr)

	_, err = parseFlags([]string{"-users", "0"}, &stderr)
	assert.Error(t, err)
	_, err = parseFlags([]string{"-wrong", "2"}, &stderr)
	assert.Error(t, err)
}

func TestReportPrint(t *testing.T) {
	var out bytes.Buffer
	report{
		matches: 3,
		metrics: pwhash.MetricsSnapshot{Counters: map[pwhash.MetricID]uint64{pwhash.MetricParamsRejected: 2}},
	}.Print(&out)

	assert.Contains(t, out.String(), "match=3")
	assert.Contains(t, out.String(), "params_rejected=2")
}

func TestComputeStats(t *testing.T) {
	var samples []time.Duration
	for i := 1; i <= 100; i++ {
		samples = append(samples, time.Duration(101-i)*time.Millisecond)
	}
	s := computeStats(time.Second, samples, 2)
	assert.Equal(t, 100, s.ops)
	assert.EqualValues(t, 2, s.failures)
	assert.Equal(t, 50*time.Millisecond, s.p50)
	assert.Equal(t, 99*time.Millisecond, s.p99)
	assert.InDelta(t, 100, s.opsPerS, 0.001)
}
