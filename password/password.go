package password

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"github.com/MrEthical07/pwhash/kdf"
	"github.com/MrEthical07/pwhash/phc"
)

// defaultPrimitive has no shared budget; it still refuses memory costs the
// machine cannot hold.
var defaultPrimitive kdf.Primitive = kdf.NewArgon2id()

var defaultHasher = &Hasher{
	config:    DefaultConfig(),
	primitive: defaultPrimitive,
	scheme:    phc.Argon2id,
}

// HashPassword hashes password with Argon2id at the given cost and returns
// the encoded hash.
func HashPassword(password []byte, ops kdf.OpsLimit, mem kdf.MemLimit) (string, error) {
	return hashPassword(context.Background(), defaultPrimitive, phc.Argon2id, password, ops, mem)
}

// VerifyPassword reports whether password matches encoded. It never returns
// an error: a malformed hash is simply false.
func VerifyPassword(encoded string, password []byte) bool {
	return defaultHasher.Verify(encoded, password)
}

// DeriveFromPassword derives outLen bytes of key material from password and
// salt. The salt is the caller's; nothing is generated here.
func DeriveFromPassword(outLen uint64, password []byte, salt Salt, ops kdf.OpsLimit, mem kdf.MemLimit) (*DerivedKey, error) {
	return deriveKey(context.Background(), defaultPrimitive, outLen, password, salt, ops, mem)
}

func deriveKey(ctx context.Context, prim kdf.Primitive, outLen uint64, password []byte, salt Salt, ops kdf.OpsLimit, mem kdf.MemLimit) (*DerivedKey, error) {
	limits := prim.Limits()
	if err := limits.CheckOutputLen(outLen); err != nil {
		return nil, err
	}
	if err := limits.CheckParams(ops, mem); err != nil {
		return nil, err
	}
	if outLen > math.MaxInt {
		return nil, errors.Wrapf(kdf.ErrOutputTooLong, "out_len %d does not fit in memory", outLen)
	}

	key := newDerivedKey(int(outLen))
	if err := kdf.DeriveContext(ctx, prim, key.Bytes(), password, salt[:], kdf.Params{Ops: ops, Mem: mem}); err != nil {
		key.Wipe()
		return nil, err
	}
	return key, nil
}
