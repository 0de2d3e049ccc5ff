package password

import (
	"context"
	"crypto/subtle"
	"math"

	"github.com/pkg/errors"

	"github.com/MrEthical07/pwhash/kdf"
	"github.com/MrEthical07/pwhash/phc"
)

// Outcome is the result of Check. Only diagnostics should look at it;
// authentication decisions use Verify, which folds everything but Match into false.
type Outcome uint8

const (
	// NoMatch means the hash was well formed and the password was wrong.
	NoMatch Outcome = iota
	// Match means the password is correct.
	Match
	// Malformed means the hash could not be used; the returned error says why.
	Malformed
)

func (o Outcome) String() string {
	switch o {
	case Match:
		return "match"
	case NoMatch:
		return "no_match"
	case Malformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Config holds the cost parameters a Hasher writes into new hashes.
//
// MaxPasswordBytes bounds accepted passwords; zero means only the primitive's
// own limit applies.
type Config struct {
	Ops              kdf.OpsLimit
	Mem              kdf.MemLimit
	MaxPasswordBytes int
}

// DefaultConfig returns the interactive preset.
func DefaultConfig() Config {
	return ConfigFromPreset(kdf.Interactive)
}

// ConfigFromPreset returns a Config with the preset's costs.
func ConfigFromPreset(p kdf.Preset) Config {
	return Config{Ops: p.Ops, Mem: p.Mem}
}

// Option configures a Hasher.
type Option func(*Hasher)

// WithPrimitive replaces the default Argon2id primitive.
func WithPrimitive(p kdf.Primitive) Option {
	return func(h *Hasher) {
		if p != nil {
			h.primitive = p
		}
	}
}

// Hasher hashes and verifies passwords with fixed cost parameters.
//
// Hasher instances are immutable after NewHasher and safe for concurrent use.
type Hasher struct {
	config    Config
	primitive kdf.Primitive
	scheme    phc.Scheme
}

// NewHasher validates cfg against the primitive's limits and returns a Hasher.
func NewHasher(cfg Config, opts ...Option) (*Hasher, error) {
	h := &Hasher{config: cfg, primitive: defaultPrimitive}
	for _, opt := range opts {
		opt(h)
	}

	if err := h.primitive.Limits().CheckParams(cfg.Ops, cfg.Mem); err != nil {
		return nil, err
	}
	if cfg.MaxPasswordBytes < 0 {
		return nil, errors.Wrap(kdf.ErrInvalidParameters, "max password bytes must be >= 0")
	}

	h.scheme = phc.Scheme{ID: h.primitive.ID(), Version: h.primitive.Version()}
	return h, nil
}

// Config returns the hasher's configuration.
func (h *Hasher) Config() Config {
	return h.config
}

// Primitive returns the KDF the hasher derives with.
func (h *Hasher) Primitive() kdf.Primitive {
	return h.primitive
}

// Hash derives a digest of password under a fresh salt and returns the
// encoded hash. Two calls with the same password return different strings.
func (h *Hasher) Hash(password []byte) (string, error) {
	return h.HashContext(context.Background(), password)
}

// HashContext is Hash with a context bounding memory admission.
func (h *Hasher) HashContext(ctx context.Context, password []byte) (string, error) {
	if err := h.checkPasswordLen(password); err != nil {
		return "", err
	}
	return hashPassword(ctx, h.primitive, h.scheme, password, h.config.Ops, h.config.Mem)
}

// Verify reports whether password matches encoded. Every failure, including a
// malformed hash, is false.
func (h *Hasher) Verify(encoded string, password []byte) bool {
	outcome, _ := h.CheckContext(context.Background(), encoded, password)
	return outcome == Match
}

// VerifyContext is Verify with a context bounding memory admission.
func (h *Hasher) VerifyContext(ctx context.Context, encoded string, password []byte) bool {
	outcome, _ := h.CheckContext(ctx, encoded, password)
	return outcome == Match
}

// Check is Verify with the reason kept for diagnostics.
func (h *Hasher) Check(encoded string, password []byte) (Outcome, error) {
	return h.CheckContext(context.Background(), encoded, password)
}

// CheckContext verifies password against encoded.
//
// A string that does not decode still costs one derivation with the hasher's
// own parameters, so malformed input is not cheaper to probe than a wrong
// password.
func (h *Hasher) CheckContext(ctx context.Context, encoded string, password []byte) (Outcome, error) {
	if err := h.checkPasswordLen(password); err != nil {
		return Malformed, err
	}

	decoded, err := phc.Decode(h.scheme, encoded)
	if err != nil {
		h.decoy(ctx, password)
		return Malformed, err
	}
	defer decoded.Wipe()

	params := decoded.Params()
	want := decoded.Digest()

	var buf [phc.MaxDigestLen]byte
	got := buf[:len(want)]
	defer clear(buf[:])

	err = kdf.DeriveContext(ctx, h.primitive, got, password, decoded.Salt(), kdf.Params{
		Ops:   kdf.OpsLimit(params.Time),
		Mem:   kdf.MemLimit(params.Memory) * kdf.KiB,
		Lanes: params.Parallelism,
	})
	if err != nil {
		// No decoy here: the refusal depends only on the stored parameters,
		// not on the password, so it leaks nothing a caller can probe.
		return Malformed, err
	}

	if subtle.ConstantTimeCompare(got, want) == 1 {
		return Match, nil
	}
	return NoMatch, nil
}

// NeedsUpgrade reports whether encoded was produced with weaker parameters
// than the hasher's, so the caller can rehash after a successful login.
func (h *Hasher) NeedsUpgrade(encoded string) (bool, error) {
	decoded, err := phc.Decode(h.scheme, encoded)
	if err != nil {
		return false, err
	}
	defer decoded.Wipe()

	params := decoded.Params()
	limits := h.primitive.Limits()

	if h.config.Mem.KiB() > uint64(params.Memory) {
		return true, nil
	}
	if uint64(h.config.Ops) > uint64(params.Time) {
		return true, nil
	}
	if len(decoded.Digest()) != limits.HashBytes {
		return true, nil
	}
	if len(decoded.Salt()) < limits.SaltBytes {
		return true, nil
	}

	return false, nil
}

// DeriveKey derives outLen bytes from password and salt with the hasher's primitive.
func (h *Hasher) DeriveKey(ctx context.Context, outLen uint64, password []byte, salt Salt, ops kdf.OpsLimit, mem kdf.MemLimit) (*DerivedKey, error) {
	return deriveKey(ctx, h.primitive, outLen, password, salt, ops, mem)
}

func (h *Hasher) checkPasswordLen(password []byte) error {
	if h.config.MaxPasswordBytes > 0 && len(password) > h.config.MaxPasswordBytes {
		return errors.Wrapf(ErrPasswordTooLong, "%d > %d bytes", len(password), h.config.MaxPasswordBytes)
	}
	return nil
}

// decoy burns one derivation at the hasher's cost and compares it against a
// zero digest. The result is discarded.
func (h *Hasher) decoy(ctx context.Context, password []byte) {
	var (
		salt   Salt
		digest [kdf.Argon2idHashBytes]byte
		zero   [kdf.Argon2idHashBytes]byte
	)
	defer clear(digest[:])

	if err := kdf.DeriveContext(ctx, h.primitive, digest[:], password, salt[:], kdf.Params{
		Ops: h.config.Ops,
		Mem: h.config.Mem,
	}); err != nil {
		return
	}
	subtle.ConstantTimeCompare(digest[:], zero[:])
}

func hashPassword(ctx context.Context, prim kdf.Primitive, scheme phc.Scheme, password []byte, ops kdf.OpsLimit, mem kdf.MemLimit) (string, error) {
	limits := prim.Limits()
	if err := limits.CheckParams(ops, mem); err != nil {
		return "", err
	}
	if uint64(ops) > math.MaxUint32 || mem.KiB() > math.MaxUint32 {
		return "", errors.Wrap(kdf.ErrInvalidParameters, "parameters do not fit the encoded format")
	}

	salt := GenerateSalt()
	defer clear(salt[:])

	digest := make([]byte, limits.HashBytes)
	defer clear(digest)

	if err := kdf.DeriveContext(ctx, prim, digest, password, salt[:], kdf.Params{Ops: ops, Mem: mem}); err != nil {
		return "", err
	}

	return phc.Encode(scheme, phc.Params{
		Memory:      uint32(mem.KiB()),
		Time:        uint32(ops),
		Parallelism: limits.Parallelism,
	}, salt[:], digest)
}
