package pwhash

import (
	"log/slog"

	"github.com/pkg/errors"

	"github.com/MrEthical07/pwhash/internal/audit"
	"github.com/MrEthical07/pwhash/kdf"
	"github.com/MrEthical07/pwhash/password"
)

// Builder assembles a Service. A Builder is single-use.
type Builder struct {
	config    Config
	logger    *slog.Logger
	auditSink AuditSink
	primitive kdf.Primitive
	host      kdf.HostMemory

	built bool
}

// New returns a Builder holding DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithPreset sets the password cost from a named preset.
func (b *Builder) WithPreset(p kdf.Preset) *Builder {
	b.config.Password = presetPassword(p)
	return b
}

// WithLogger overrides the logger built from Config.Log.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets where diagnostic events go. Events are only produced
// when Config.Audit.Enabled is true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithPrimitive replaces the Argon2id primitive. The memory governor is only
// applied to the built-in primitive.
func (b *Builder) WithPrimitive(p kdf.Primitive) *Builder {
	b.primitive = p
	return b
}

// WithHostMemory replaces the system probe the built-in primitive checks
// every memory cost against.
func (b *Builder) WithHostMemory(h kdf.HostMemory) *Builder {
	b.host = h
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready Service.
func (b *Builder) Build() (*Service, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		var err error
		logger, err = NewLogger(cfg.Log)
		if err != nil {
			return nil, errors.Wrap(ErrInvalidConfig, err.Error())
		}
	}

	// -------- MEMORY GOVERNOR --------
	var governor *kdf.Governor
	if cfg.Resources.MemoryBudget > 0 {
		governor = kdf.NewGovernor(cfg.Resources.MemoryBudget, nil)
	}

	primitive := b.primitive
	if primitive == nil {
		primitive = kdf.NewArgon2id(kdf.WithGovernor(governor), kdf.WithHostMemory(b.host))
	}

	// -------- HASHER --------
	ops, mem := cfg.Password.Cost()
	hasher, err := password.NewHasher(password.Config{
		Ops:              ops,
		Mem:              mem,
		MaxPasswordBytes: cfg.Password.MaxPasswordBytes,
	}, password.WithPrimitive(primitive))
	if err != nil {
		return nil, err
	}

	svc := &Service{
		config:   cfg,
		hasher:   hasher,
		governor: governor,
		metrics:  NewMetrics(cfg.Metrics),
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
		logger: logger,
	}

	logger.Info("pwhash service ready",
		slog.String("algorithm", primitive.ID()),
		slog.Uint64("ops", uint64(ops)),
		slog.Uint64("mem_kib", mem.KiB()),
		slog.Uint64("memory_budget", uint64(cfg.Resources.MemoryBudget)),
	)

	b.built = true

	return svc, nil
}
