package kdf

import (
	"math"
	"strings"

	"github.com/pkg/errors"
)

// OpsLimit is the time cost of a derivation (number of passes over memory).
type OpsLimit uint64

// MemLimit is the memory cost of a derivation, in bytes.
type MemLimit uint64

// Common memory sizes.
const (
	KiB MemLimit = 1 << 10
	MiB MemLimit = 1 << 20
	GiB MemLimit = 1 << 30
)

// KiB returns the memory cost in kibibytes, truncated.
func (m MemLimit) KiB() uint64 {
	return uint64(m) / uint64(KiB)
}

// Argon2id bounds. These mirror the values libsodium publishes for
// crypto_pwhash_argon2id so hashes and derived keys interoperate.
const (
	Argon2idOpsMin OpsLimit = 1
	Argon2idOpsMax OpsLimit = math.MaxUint32

	Argon2idMemMin MemLimit = 8192
	Argon2idMemMax MemLimit = math.MaxUint32 * KiB

	Argon2idBytesMin uint64 = 16
	Argon2idBytesMax uint64 = math.MaxUint32

	Argon2idSaltBytes   = 16
	Argon2idMinSaltLen  = 8
	Argon2idParallelism = 1
	Argon2idHashBytes   = 32
)

// Limits are the hard bounds a Primitive accepts. Every facade validates
// against them before calling Derive.
type Limits struct {
	OpsMin, OpsMax     OpsLimit
	MemMin, MemMax     MemLimit
	BytesMin, BytesMax uint64
	SaltBytes          int
	MinSaltLen         int
	Parallelism        uint8
	HashBytes          int
}

// CheckOps reports whether ops is within bounds.
func (l Limits) CheckOps(ops OpsLimit) error {
	if ops < l.OpsMin || ops > l.OpsMax {
		return errors.Wrapf(ErrOpsOutOfRange, "ops %d not in [%d, %d]", ops, l.OpsMin, l.OpsMax)
	}
	return nil
}

// CheckMem reports whether mem is within bounds.
func (l Limits) CheckMem(mem MemLimit) error {
	if mem < l.MemMin || mem > l.MemMax {
		return errors.Wrapf(ErrMemOutOfRange, "mem %d not in [%d, %d]", mem, l.MemMin, l.MemMax)
	}
	return nil
}

// CheckOutputLen reports whether n output bytes can be produced.
func (l Limits) CheckOutputLen(n uint64) error {
	if n < l.BytesMin {
		return errors.Wrapf(ErrOutputTooShort, "out_len %d < %d", n, l.BytesMin)
	}
	if n > l.BytesMax {
		return errors.Wrapf(ErrOutputTooLong, "out_len %d > %d", n, l.BytesMax)
	}
	return nil
}

// CheckParams validates ops and mem together.
func (l Limits) CheckParams(ops OpsLimit, mem MemLimit) error {
	if err := l.CheckOps(ops); err != nil {
		return err
	}
	return l.CheckMem(mem)
}

// Preset is a named (ops, mem) pair.
type Preset struct {
	Name string
	Ops  OpsLimit
	Mem  MemLimit
}

// Presets groups the three cost levels of a primitive, cheapest first.
type Presets struct {
	Interactive Preset
	Moderate    Preset
	Sensitive   Preset
}

// All returns the presets in increasing cost order.
func (p Presets) All() []Preset {
	return []Preset{p.Interactive, p.Moderate, p.Sensitive}
}

// ByName looks a preset up case-insensitively.
func (p Presets) ByName(name string) (Preset, bool) {
	for _, preset := range p.All() {
		if strings.EqualFold(preset.Name, name) {
			return preset, true
		}
	}
	return Preset{}, false
}

// Argon2id presets.
var (
	Interactive = Preset{Name: "interactive", Ops: 2, Mem: 64 * MiB}
	Moderate    = Preset{Name: "moderate", Ops: 3, Mem: 256 * MiB}
	Sensitive   = Preset{Name: "sensitive", Ops: 4, Mem: 1 * GiB}
)

var argon2idLimits = Limits{
	OpsMin:      Argon2idOpsMin,
	OpsMax:      Argon2idOpsMax,
	MemMin:      Argon2idMemMin,
	MemMax:      Argon2idMemMax,
	BytesMin:    Argon2idBytesMin,
	BytesMax:    Argon2idBytesMax,
	SaltBytes:   Argon2idSaltBytes,
	MinSaltLen:  Argon2idMinSaltLen,
	Parallelism: Argon2idParallelism,
	HashBytes:   Argon2idHashBytes,
}

var argon2idPresets = Presets{
	Interactive: Interactive,
	Moderate:    Moderate,
	Sensitive:   Sensitive,
}

// PresetByName resolves an Argon2id preset name.
func PresetByName(name string) (Preset, bool) {
	return argon2idPresets.ByName(name)
}
