// Package phc reads and writes the self-describing encoded hash string
//
//	$argon2id$v=19$m=<KiB>,t=<passes>,p=<lanes>$<salt>$<digest>
//
// Salt and digest use the standard base64 alphabet without padding. The string
// is the only artifact a caller stores; it carries everything needed to verify
// a password later.
//
// # Architecture boundaries
//
// Decode never sizes a buffer from the input: the string is capped at
// MaxEncodedLen and salt and digest land in fixed arrays inside Hash.
// Parameters must appear in the order m, t, p as canonical decimals.
//
// # What this package must NOT do
//
//   - Run the KDF or compare digests.
//   - Accept padded, URL-safe or whitespace-containing base64.
package phc
