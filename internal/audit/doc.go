// Package audit dispatches diagnostic events for hash, verify and derive calls.
//
// # Components
//
//   - [Sink]: event consumers (channel, JSON lines, no-op).
//   - [Dispatcher]: buffered async relay, drop-if-full or block-if-full.
//   - [Event]: operation, outcome, error kind and cost parameters.
//
// # Architecture boundaries
//
// This package owns buffering and delivery. The service decides what to emit.
//
// # What this package must NOT do
//
//   - Carry passwords, salts, digests or derived keys in any field.
//   - Import pwhash or any sibling internal package.
package audit
