package internal

import "runtime"

// Secret is a byte buffer of fixed length for key material. It never grows;
// Wipe zeroes it and the garbage collector zeroes it again if the owner
// forgets.
type Secret struct {
	b []byte
}

// NewSecret allocates an n-byte secret.
func NewSecret(n int) *Secret {
	s := &Secret{b: make([]byte, n)}
	runtime.AddCleanup(s, func(b []byte) { clear(b) }, s.b)
	return s
}

// Bytes returns the underlying buffer. It stays valid until Wipe.
func (s *Secret) Bytes() []byte {
	if s == nil {
		return nil
	}
	return s.b
}

// Len returns the fixed length.
func (s *Secret) Len() int {
	if s == nil {
		return 0
	}
	return len(s.b)
}

// Wipe zeroes the buffer. Safe to call more than once.
func (s *Secret) Wipe() {
	if s == nil {
		return
	}
	Wipe(s.b)
	runtime.KeepAlive(s)
}

// Wipe zeroes b in place.
func Wipe(b []byte) {
	clear(b)
}
