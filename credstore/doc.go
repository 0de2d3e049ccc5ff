// Package credstore persists encoded password hashes in Redis, one key per
// user, with an atomic compare-and-swap for rehash-on-login.
//
// Keys are "<prefix>:cred:<userID>". Values are the encoded strings produced
// by pwhash, never passwords.
//
// # What this package must NOT do
//
//   - Hash or verify passwords. Callers use pwhash.Service for that.
//   - Store anything that is not an encoded Argon2id hash.
package credstore
