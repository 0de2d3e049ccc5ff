package kdf

// Params are the cost parameters of one derivation.
//
// Lanes is the degree of parallelism. Zero means the primitive's fixed value.
// Values other than the fixed one only occur when re-deriving from an encoded
// hash produced elsewhere.
type Params struct {
	Ops   OpsLimit
	Mem   MemLimit
	Lanes uint8
}

// Primitive is the narrow contract the hashing layer needs from a memory-hard
// KDF. Derive must be deterministic for a fixed (password, salt, params,
// len(dst)) tuple and must fill dst completely or return an error.
type Primitive interface {
	// ID is the algorithm tag used in encoded hashes.
	ID() string
	// Version is the algorithm version used in encoded hashes.
	Version() uint32
	Limits() Limits
	Presets() Presets
	Derive(dst, password, salt []byte, p Params) error
}
