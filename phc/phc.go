package phc

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

const (
	// MaxEncodedLen bounds the whole encoded string. Longer input is rejected
	// before any parsing.
	MaxEncodedLen = 128

	MinSaltLen   = 8
	MaxSaltLen   = 64
	MinDigestLen = 16
	MaxDigestLen = 64

	// MinMemoryPerLane is the smallest m= value (KiB) allowed per lane.
	MinMemoryPerLane = 8
)

// ErrInvalidEncoding is returned for any string that is not a well-formed hash.
var ErrInvalidEncoding = errors.New("invalid encoded hash")

var b64 = base64.RawStdEncoding.Strict()

// Scheme identifies the algorithm an encoded hash belongs to.
type Scheme struct {
	ID      string
	Version uint32
}

// Argon2id is the scheme written by this module: version 0x13 (19).
var Argon2id = Scheme{ID: "argon2id", Version: 0x13}

// HasPrefix reports whether encoded starts with the Argon2id prefix.
func HasPrefix(encoded string) bool {
	return Argon2id.HasPrefix(encoded)
}

// Prefix returns "$<id>$", the leading bytes of every hash of the scheme.
func (s Scheme) Prefix() string {
	return "$" + s.ID + "$"
}

// HasPrefix reports whether encoded claims to belong to the scheme.
func (s Scheme) HasPrefix(encoded string) bool {
	return strings.HasPrefix(encoded, s.Prefix())
}

// Params are the cost parameters as they appear in the string.
// Memory is in KiB.
type Params struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
}

// Hash is a decoded hash. Salt and digest live in fixed arrays sized to the
// format's maxima; nothing in the input string decides how much is allocated.
type Hash struct {
	scheme Scheme
	params Params

	salt      [MaxSaltLen]byte
	saltLen   int
	digest    [MaxDigestLen]byte
	digestLen int
}

// Scheme returns the scheme the hash was decoded as.
func (h *Hash) Scheme() Scheme {
	return h.scheme
}

// Params returns the decoded cost parameters.
func (h *Hash) Params() Params {
	return h.params
}

// Salt returns the decoded salt.
func (h *Hash) Salt() []byte {
	return h.salt[:h.saltLen]
}

// Digest returns the decoded digest.
func (h *Hash) Digest() []byte {
	return h.digest[:h.digestLen]
}

// Wipe zeroes salt and digest.
func (h *Hash) Wipe() {
	clear(h.salt[:])
	clear(h.digest[:])
	h.saltLen = 0
	h.digestLen = 0
}

// Encode formats a hash as
//
//	$<id>$v=<version>$m=<KiB>,t=<time>,p=<lanes>$<salt>$<digest>
//
// with unpadded standard base64. It only fails when the inputs fall outside
// what Decode would accept.
func Encode(s Scheme, p Params, salt, digest []byte) (string, error) {
	if err := checkParams(p); err != nil {
		return "", err
	}
	if len(salt) < MinSaltLen || len(salt) > MaxSaltLen {
		return "", pkgerrors.Wrapf(ErrInvalidEncoding, "salt length %d", len(salt))
	}
	if len(digest) < MinDigestLen || len(digest) > MaxDigestLen {
		return "", pkgerrors.Wrapf(ErrInvalidEncoding, "digest length %d", len(digest))
	}

	var arr [2 * MaxEncodedLen]byte
	buf := arr[:0]
	buf = append(buf, '$')
	buf = append(buf, s.ID...)
	buf = append(buf, "$v="...)
	buf = strconv.AppendUint(buf, uint64(s.Version), 10)
	buf = append(buf, "$m="...)
	buf = strconv.AppendUint(buf, uint64(p.Memory), 10)
	buf = append(buf, ",t="...)
	buf = strconv.AppendUint(buf, uint64(p.Time), 10)
	buf = append(buf, ",p="...)
	buf = strconv.AppendUint(buf, uint64(p.Parallelism), 10)
	buf = append(buf, '$')
	buf = b64.AppendEncode(buf, salt)
	buf = append(buf, '$')
	buf = b64.AppendEncode(buf, digest)

	if len(buf) > MaxEncodedLen {
		return "", pkgerrors.Wrapf(ErrInvalidEncoding, "encoded length %d exceeds %d", len(buf), MaxEncodedLen)
	}
	return string(buf), nil
}

// Decode parses an encoded hash of scheme s. Every failure wraps
// ErrInvalidEncoding.
func Decode(s Scheme, encoded string) (Hash, error) {
	var h Hash

	if len(encoded) > MaxEncodedLen {
		return h, pkgerrors.Wrapf(ErrInvalidEncoding, "length %d exceeds %d", len(encoded), MaxEncodedLen)
	}

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return h, pkgerrors.Wrap(ErrInvalidEncoding, "wrong field count")
	}

	if parts[1] != s.ID {
		return h, pkgerrors.Wrap(ErrInvalidEncoding, "unsupported algorithm")
	}

	versionPart, ok := strings.CutPrefix(parts[2], "v=")
	if !ok {
		return h, pkgerrors.Wrap(ErrInvalidEncoding, "missing version")
	}
	version, err := parseDecimal(versionPart, 32)
	if err != nil {
		return h, pkgerrors.Wrap(err, "version")
	}
	if uint32(version) != s.Version {
		return h, pkgerrors.Wrap(ErrInvalidEncoding, "unsupported version")
	}

	params, err := parseParams(parts[3])
	if err != nil {
		return h, err
	}
	if err := checkParams(params); err != nil {
		return h, err
	}

	h.saltLen, err = decodeInto(h.salt[:], parts[4], MinSaltLen)
	if err != nil {
		return Hash{}, pkgerrors.Wrap(err, "salt")
	}
	h.digestLen, err = decodeInto(h.digest[:], parts[5], MinDigestLen)
	if err != nil {
		h.Wipe()
		return Hash{}, pkgerrors.Wrap(err, "digest")
	}

	h.scheme = s
	h.params = params
	return h, nil
}

// parseParams reads "m=<n>,t=<n>,p=<n>" in exactly that order.
func parseParams(part string) (Params, error) {
	var p Params

	pairs := strings.Split(part, ",")
	if len(pairs) != 3 {
		return p, pkgerrors.Wrap(ErrInvalidEncoding, "invalid parameter format")
	}

	m, err := parseField(pairs[0], "m=", 32)
	if err != nil {
		return p, err
	}
	t, err := parseField(pairs[1], "t=", 32)
	if err != nil {
		return p, err
	}
	lanes, err := parseField(pairs[2], "p=", 8)
	if err != nil {
		return p, err
	}

	p.Memory = uint32(m)
	p.Time = uint32(t)
	p.Parallelism = uint8(lanes)
	return p, nil
}

func parseField(pair, key string, bits int) (uint64, error) {
	raw, ok := strings.CutPrefix(pair, key)
	if !ok {
		return 0, pkgerrors.Wrapf(ErrInvalidEncoding, "expected %q parameter", key)
	}
	v, err := parseDecimal(raw, bits)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "parameter %q", key)
	}
	return v, nil
}

// parseDecimal accepts canonical unsigned decimals only: no sign, no leading
// zeros, no whitespace.
func parseDecimal(s string, bits int) (uint64, error) {
	if s == "" {
		return 0, pkgerrors.Wrap(ErrInvalidEncoding, "empty number")
	}
	if len(s) > 1 && s[0] == '0' {
		return 0, pkgerrors.Wrap(ErrInvalidEncoding, "leading zero")
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, pkgerrors.Wrap(ErrInvalidEncoding, "non-numeric field")
		}
	}
	v, err := strconv.ParseUint(s, 10, bits)
	if err != nil {
		return 0, pkgerrors.Wrap(ErrInvalidEncoding, "number out of range")
	}
	return v, nil
}

func checkParams(p Params) error {
	if p.Time < 1 {
		return pkgerrors.Wrap(ErrInvalidEncoding, "t must be >= 1")
	}
	if p.Parallelism < 1 {
		return pkgerrors.Wrap(ErrInvalidEncoding, "p must be >= 1")
	}
	if uint64(p.Memory) < MinMemoryPerLane*uint64(p.Parallelism) {
		return pkgerrors.Wrap(ErrInvalidEncoding, "m too small for p")
	}
	return nil
}

// decodeInto decodes unpadded base64 into dst without growing it. Input that
// would not fit, or decodes to fewer than min bytes, is rejected.
func decodeInto(dst []byte, src string, min int) (int, error) {
	if b64.DecodedLen(len(src)) > len(dst) {
		return 0, pkgerrors.Wrap(ErrInvalidEncoding, "segment too long")
	}
	for i := 0; i < len(src); i++ {
		if !isBase64Char(src[i]) {
			return 0, pkgerrors.Wrap(ErrInvalidEncoding, "invalid base64 character")
		}
	}

	n, err := b64.Decode(dst, []byte(src))
	if err != nil {
		clear(dst)
		return 0, pkgerrors.Wrap(ErrInvalidEncoding, "invalid base64")
	}
	if n < min {
		clear(dst)
		return 0, pkgerrors.Wrap(ErrInvalidEncoding, "segment too short")
	}
	return n, nil
}

func isBase64Char(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '+' || c == '/':
		return true
	}
	return false
}
