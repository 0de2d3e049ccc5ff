// Package internal contains helpers that are intentionally private to pwhash:
// the process-wide secure random handle and fixed-length secret buffers.
//
// # Sub-packages
//
//   - audit — async diagnostics dispatch (Dispatcher + Sink implementations)
//
// # What this package must NOT do
//
//   - Allow callers to seed or replace the random source.
//   - Be imported by any package outside the pwhash module.
package internal
