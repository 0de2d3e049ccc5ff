package pwhash

import (
	"context"
	"errors"

	"github.com/MrEthical07/pwhash/internal"
	"github.com/MrEthical07/pwhash/kdf"
	"github.com/MrEthical07/pwhash/password"
	"github.com/MrEthical07/pwhash/phc"
)

var (
	// ErrOpsOutOfRange is returned when the operations count is outside the primitive's limits.
	ErrOpsOutOfRange = kdf.ErrOpsOutOfRange
	// ErrMemOutOfRange is returned when the memory cost is outside the primitive's limits.
	ErrMemOutOfRange = kdf.ErrMemOutOfRange
	// ErrOutputLengthOutOfRange is returned for an unsupported derived key length.
	ErrOutputLengthOutOfRange = kdf.ErrOutputLengthOutOfRange
	// ErrOutputTooShort matches ErrOutputLengthOutOfRange.
	ErrOutputTooShort = kdf.ErrOutputTooShort
	// ErrOutputTooLong matches ErrOutputLengthOutOfRange.
	ErrOutputTooLong = kdf.ErrOutputTooLong
	// ErrMemoryAllocationFailed is returned when the memory cost cannot be satisfied.
	ErrMemoryAllocationFailed = kdf.ErrMemoryAllocationFailed
	// ErrInvalidParameters covers other parameters the primitive rejects.
	ErrInvalidParameters = kdf.ErrInvalidParameters
	// ErrPrimitiveFailure is an opaque failure inside the primitive.
	ErrPrimitiveFailure = kdf.ErrPrimitiveFailure
	// ErrInvalidEncoding is returned for a string that is not a well-formed encoded hash.
	ErrInvalidEncoding = phc.ErrInvalidEncoding
	// ErrPasswordTooLong is returned when a password exceeds the configured maximum.
	ErrPasswordTooLong = password.ErrPasswordTooLong
	// ErrEntropyUnavailable is the panic value raised when the system random source fails.
	ErrEntropyUnavailable = internal.ErrEntropyUnavailable

	// ErrInvalidConfig is returned by Config.Validate and Build.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrUnknown is the fallback kind for errors not produced by this module.
	ErrUnknown = errors.New("unknown error")
)

// ErrorKind is a stable, loggable name for the class of an error.
type ErrorKind string

const (
	KindNone              ErrorKind = ""
	KindOpsOutOfRange     ErrorKind = "ops_out_of_range"
	KindMemOutOfRange     ErrorKind = "mem_out_of_range"
	KindOutputLength      ErrorKind = "output_length_out_of_range"
	KindMemoryAllocation  ErrorKind = "memory_allocation_failed"
	KindInvalidEncoding   ErrorKind = "invalid_encoding"
	KindInvalidParameters ErrorKind = "invalid_parameters"
	KindPrimitiveFailure  ErrorKind = "primitive_failure"
	KindPasswordTooLong   ErrorKind = "password_too_long"
	KindInvalidConfig     ErrorKind = "invalid_config"
	KindCanceled          ErrorKind = "canceled"
	KindUnknown           ErrorKind = "unknown"
)

var errorKinds = []struct {
	target error
	kind   ErrorKind
}{
	{ErrOpsOutOfRange, KindOpsOutOfRange},
	{ErrMemOutOfRange, KindMemOutOfRange},
	{ErrOutputLengthOutOfRange, KindOutputLength},
	{ErrMemoryAllocationFailed, KindMemoryAllocation},
	{ErrInvalidEncoding, KindInvalidEncoding},
	{ErrInvalidParameters, KindInvalidParameters},
	{ErrPrimitiveFailure, KindPrimitiveFailure},
	{ErrPasswordTooLong, KindPasswordTooLong},
	{ErrInvalidConfig, KindInvalidConfig},
	{context.Canceled, KindCanceled},
	{context.DeadlineExceeded, KindCanceled},
}

// Classify maps err to its ErrorKind. A nil error is KindNone.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			return k.kind
		}
	}
	return KindUnknown
}

// isParamRejection reports errors raised by bound checks before any derivation.
func isParamRejection(kind ErrorKind) bool {
	switch kind {
	case KindOpsOutOfRange, KindMemOutOfRange, KindOutputLength, KindInvalidParameters, KindPasswordTooLong:
		return true
	}
	return false
}
