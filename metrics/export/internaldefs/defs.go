package internaldefs

import (
	"github.com/MrEthical07/pwhash"
)

// CounterDef binds a counter to its exported name.
type CounterDef struct {
	ID   pwhash.MetricID
	Name string
	Help string
}

// HistogramDef binds a latency histogram to its exported name.
type HistogramDef struct {
	ID   pwhash.MetricID
	Name string
	Help string
}

// CounterDefs lists every counter in export order.
var CounterDefs = []CounterDef{
	{ID: pwhash.MetricHashSuccess, Name: "pwhash_hash_success_total", Help: "Passwords hashed."},
	{ID: pwhash.MetricHashFailure, Name: "pwhash_hash_failure_total", Help: "Hash calls that returned an error."},
	{ID: pwhash.MetricVerifyMatch, Name: "pwhash_verify_match_total", Help: "Verifications that matched."},
	{ID: pwhash.MetricVerifyMismatch, Name: "pwhash_verify_mismatch_total", Help: "Verifications of well-formed hashes that did not match."},
	{ID: pwhash.MetricVerifyMalformed, Name: "pwhash_verify_malformed_total", Help: "Verifications that failed before comparison (malformed hash or derivation error)."},
	{ID: pwhash.MetricDeriveSuccess, Name: "pwhash_derive_success_total", Help: "Keys derived."},
	{ID: pwhash.MetricDeriveFailure, Name: "pwhash_derive_failure_total", Help: "Derive calls that returned an error."},
	{ID: pwhash.MetricParamsRejected, Name: "pwhash_params_rejected_total", Help: "Calls rejected by parameter bounds before derivation."},
	{ID: pwhash.MetricAllocationFailed, Name: "pwhash_allocation_failed_total", Help: "Derivations refused for lack of memory."},
}

// HistogramDefs lists every latency histogram in export order.
var HistogramDefs = []HistogramDef{
	{ID: pwhash.MetricHashLatency, Name: "pwhash_hash_latency_seconds", Help: "Hash latency histogram."},
	{ID: pwhash.MetricVerifyLatency, Name: "pwhash_verify_latency_seconds", Help: "Verify latency histogram."},
	{ID: pwhash.MetricDeriveLatency, Name: "pwhash_derive_latency_seconds", Help: "Derive latency histogram."},
}

// Series that do not come from the snapshot.
const (
	AuditDroppedName = "pwhash_audit_dropped_total"
	AuditDroppedHelp = "Dropped diagnostic events due to dispatcher backpressure."

	CostOpsName      = "pwhash_cost_ops"
	CostOpsHelp      = "Time cost written into new hashes."
	CostMemName      = "pwhash_cost_mem_bytes"
	CostMemHelp      = "Memory cost written into new hashes, in bytes."
	MemoryBudgetName = "pwhash_memory_budget_bytes"
	MemoryBudgetHelp = "Shared memory budget for concurrent derivations; 0 is unbounded."
)

// HistogramBounds are the upper bounds, in seconds, of the eight buckets.
var HistogramBounds = []string{
	"0.01",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"1",
	"2.5",
	"+Inf",
}

// HistogramBoundSuffix are HistogramBounds usable inside instrument names.
var HistogramBoundSuffix = []string{
	"0_01",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"2_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed eight-bucket array, zero-filling.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
