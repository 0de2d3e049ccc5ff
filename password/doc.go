// Package password hashes, verifies and derives keys from passwords with Argon2id.
//
// # Output format
//
// Hashes are encoded as
//
//	$argon2id$v=19$m=<KiB>,t=<passes>,p=<lanes>$<salt>$<digest>
//
// with a fresh 16-byte salt and a 32-byte digest. The string is all a caller
// needs to store. [Hasher.NeedsUpgrade] reports hashes written with weaker
// parameters so they can be replaced on the next successful login.
//
// # Verification
//
// [VerifyPassword] and [Hasher.Verify] return a single bool. Malformed hashes,
// wrong passwords and derivation failures are all false, and a malformed hash
// still costs one derivation. [Hasher.Check] keeps the reason for diagnostics.
//
// # Architecture boundaries
//
// This package owns the hash/verify contract and raw key derivation only.
// Encoding lives in phc, bounds and the primitive in kdf.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords or hashes.
//   - Normalize passwords. Bytes are hashed exactly as given.
//   - Log passwords, salts or digests.
package password
