package password

import (
	"github.com/MrEthical07/pwhash/internal"
	"github.com/MrEthical07/pwhash/kdf"
)

// SaltBytes is the salt length used for hashing and expected for derivation.
const SaltBytes = kdf.Argon2idSaltBytes

// Salt is a fixed-length random salt.
type Salt [SaltBytes]byte

// GenerateSalt returns a fresh salt from the process-wide secure random source.
// It panics if the operating system cannot supply entropy.
func GenerateSalt() Salt {
	return Salt(internal.RandomArray16())
}

// DerivedKey holds derived key material. Its length never changes. Wipe it as
// soon as the key is no longer needed; it is also cleared once unreachable.
type DerivedKey struct {
	secret *internal.Secret
}

func newDerivedKey(n int) *DerivedKey {
	return &DerivedKey{secret: internal.NewSecret(n)}
}

// Bytes returns the key material. The slice aliases the key and is zeroed by Wipe.
func (k *DerivedKey) Bytes() []byte {
	if k == nil {
		return nil
	}
	return k.secret.Bytes()
}

// Len returns the key length in bytes.
func (k *DerivedKey) Len() int {
	if k == nil {
		return 0
	}
	return k.secret.Len()
}

// Wipe zeroes the key.
func (k *DerivedKey) Wipe() {
	if k == nil {
		return
	}
	k.secret.Wipe()
}
