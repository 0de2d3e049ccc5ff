package pwhash

import "github.com/MrEthical07/pwhash/internal/audit"

// AuditEvent is one diagnostic record for a hash, verify or derive call.
// It never carries passwords, salts, digests or keys.
type AuditEvent = audit.Event

// AuditParams are the cost parameters recorded on an AuditEvent.
type AuditParams = audit.Params

// AuditSink receives AuditEvents from the service's dispatcher.
type AuditSink = audit.Sink

// NoOpSink discards events.
type NoOpSink = audit.NoOpSink

// ChannelSink buffers events in a channel.
type ChannelSink = audit.ChannelSink

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink = audit.JSONWriterSink

// Audit operation names.
const (
	AuditOpHash   = audit.OpHash
	AuditOpVerify = audit.OpVerify
	AuditOpDerive = audit.OpDerive
)

var (
	NewChannelSink    = audit.NewChannelSink
	NewJSONWriterSink = audit.NewJSONWriterSink
)
