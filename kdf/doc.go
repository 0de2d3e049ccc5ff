// Package kdf defines the contract between the hashing layer and a memory-hard
// key-derivation primitive, and provides the Argon2id implementation.
//
// # Components
//
//   - [Primitive] — capability interface (tag, version, limits, presets, Derive).
//   - [Limits] and [Presets] — hard bounds and the Interactive/Moderate/Sensitive levels.
//   - [Argon2id] — golang.org/x/crypto/argon2 behind the contract, single lane.
//   - [Governor] — optional memory admission shared by concurrent derivations.
//
// # Units
//
// [MemLimit] is expressed in bytes. Argon2id consumes kibibytes; the conversion
// truncates, so 7_256_678 bytes run as 7086 KiB.
//
// # What this package must NOT do
//
//   - Generate salts or encode hashes.
//   - Retry a failed derivation. A parameter error is a caller bug.
package kdf
