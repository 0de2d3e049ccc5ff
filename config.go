package pwhash

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/MrEthical07/pwhash/kdf"
)

// Config is the full service configuration. Build a baseline with
// DefaultConfig, ModerateConfig or SensitiveConfig, or load one with
// LoadConfig, then adjust fields before passing it to Builder.WithConfig.
type Config struct {
	Password  PasswordConfig `koanf:"password"`
	Resources ResourceConfig `koanf:"resources"`
	Audit     AuditConfig    `koanf:"audit"`
	Metrics   MetricsConfig  `koanf:"metrics"`
	Log       LogConfig      `koanf:"log"`
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig is the cost written into new hashes.
//
// When Preset names one of interactive, moderate or sensitive, its costs
// replace Ops and Mem. Mem is in bytes.
type PasswordConfig struct {
	Preset           string       `koanf:"preset" validate:"omitempty,oneof=interactive moderate sensitive"`
	Ops              kdf.OpsLimit `koanf:"ops"`
	Mem              kdf.MemLimit `koanf:"mem"`
	MaxPasswordBytes int          `koanf:"max_password_bytes" validate:"gte=0"`
}

// Cost returns the effective (ops, mem) pair.
func (p PasswordConfig) Cost() (kdf.OpsLimit, kdf.MemLimit) {
	if p.Preset != "" {
		if preset, ok := kdf.PresetByName(p.Preset); ok {
			return preset.Ops, preset.Mem
		}
	}
	return p.Ops, p.Mem
}

/*
====================================
RESOURCE CONFIG
====================================
*/

// ResourceConfig bounds memory used by concurrent derivations.
//
// MemoryBudget is the total bytes all in-flight derivations may hold; zero
// means unbounded. AdmissionTimeout caps how long a call waits for budget.
// Memory costs beyond what the host can hold are always refused.
type ResourceConfig struct {
	MemoryBudget     kdf.MemLimit  `koanf:"memory_budget"`
	AdmissionTimeout time.Duration `koanf:"admission_timeout" validate:"gte=0"`
}

/*
====================================
OBSERVABILITY CONFIG
====================================
*/

// AuditConfig controls the diagnostics event dispatcher.
type AuditConfig struct {
	Enabled    bool `koanf:"enabled"`
	BufferSize int  `koanf:"buffer_size" validate:"gte=0"`
	DropIfFull bool `koanf:"drop_if_full"`
}

// MetricsConfig controls in-process counters and histograms.
type MetricsConfig struct {
	Enabled                 bool `koanf:"enabled"`
	EnableLatencyHistograms bool `koanf:"enable_latency_histograms"`
}

// LogConfig selects the slog handler built by NewLogger.
type LogConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `koanf:"format" validate:"omitempty,oneof=json text discard"`
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		Password: PasswordConfig{
			Preset: kdf.Interactive.Name,
			Ops:    kdf.Interactive.Ops,
			Mem:    kdf.Interactive.Mem,
		},
		Resources: ResourceConfig{
			AdmissionTimeout: 30 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "discard",
		},
	}
}

// DefaultConfig uses the interactive preset: suitable for online logins.
func DefaultConfig() Config {
	return defaultConfig()
}

// ModerateConfig uses the moderate preset.
func ModerateConfig() Config {
	cfg := defaultConfig()
	cfg.Password = presetPassword(kdf.Moderate)
	return cfg
}

// SensitiveConfig uses the sensitive preset and bounds concurrent derivations
// to four sensitive-cost hashes at once.
func SensitiveConfig() Config {
	cfg := defaultConfig()
	cfg.Password = presetPassword(kdf.Sensitive)
	cfg.Resources.MemoryBudget = 4 * kdf.Sensitive.Mem
	return cfg
}

func presetPassword(p kdf.Preset) PasswordConfig {
	return PasswordConfig{Preset: p.Name, Ops: p.Ops, Mem: p.Mem}
}

/*
====================================
VALIDATION
====================================
*/

var structValidator = sync.OnceValue(func() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
})

// Validate checks struct constraints and then the cost against the Argon2id
// limits. Every error matches ErrInvalidConfig; bound failures also match
// ErrOpsOutOfRange or ErrMemOutOfRange.
func (c *Config) Validate() error {
	c.Password.Preset = strings.ToLower(strings.TrimSpace(c.Password.Preset))

	if err := structValidator().Struct(c); err != nil {
		return errors.Wrap(ErrInvalidConfig, err.Error())
	}

	ops, mem := c.Password.Cost()
	limits := kdf.NewArgon2id().Limits()
	if err := limits.CheckParams(ops, mem); err != nil {
		return fmt.Errorf("%w: password cost: %w", ErrInvalidConfig, err)
	}

	if c.Resources.MemoryBudget > 0 && c.Resources.MemoryBudget < mem {
		return errors.Wrapf(ErrInvalidConfig, "memory budget %d is below the hash cost %d", c.Resources.MemoryBudget, mem)
	}

	return nil
}
