// Package pwhash hashes and verifies passwords and derives keys from them
// with Argon2id, behind a configured, observable service.
//
// Most callers build one [Service] at startup:
//
//	svc, err := pwhash.New().WithConfig(pwhash.DefaultConfig()).Build()
//	encoded, err := svc.HashPassword(ctx, pw)
//	ok := svc.VerifyPassword(ctx, encoded, pw)
//
// The stateless building blocks live in sub-packages: password for the
// hash/verify/derive contract, phc for the encoded string, kdf for limits,
// presets and the primitive. credstore keeps encoded hashes in Redis, and
// metrics/export publishes the service metrics to Prometheus or OpenTelemetry.
//
// # Architecture boundaries
//
// pwhash owns configuration, the memory governor wiring, metrics, diagnostic
// events and logging. It adds no cryptography of its own.
//
// # What this package must NOT do
//
//   - Log or emit passwords, salts, digests or derived keys.
//   - Return a verification reason to the caller of VerifyPassword.
//   - Store hashes. Persistence belongs to the caller or credstore.
package pwhash
