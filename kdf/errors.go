package kdf

import (
	"errors"
	"fmt"
)

var (
	// ErrOpsOutOfRange is returned when the operations count is outside the primitive's limits.
	ErrOpsOutOfRange = errors.New("ops limit out of range")
	// ErrMemOutOfRange is returned when the memory cost is outside the primitive's limits.
	ErrMemOutOfRange = errors.New("mem limit out of range")
	// ErrOutputLengthOutOfRange is returned for any unsupported output length.
	ErrOutputLengthOutOfRange = errors.New("output length out of range")
	// ErrOutputTooShort is an ErrOutputLengthOutOfRange below the minimum.
	ErrOutputTooShort = fmt.Errorf("%w: output too short", ErrOutputLengthOutOfRange)
	// ErrOutputTooLong is an ErrOutputLengthOutOfRange above the maximum.
	ErrOutputTooLong = fmt.Errorf("%w: output too long", ErrOutputLengthOutOfRange)
	// ErrMemoryAllocationFailed is returned when the host cannot provide the requested memory.
	ErrMemoryAllocationFailed = errors.New("memory allocation failed")
	// ErrInvalidParameters covers any other parameter the primitive rejects.
	ErrInvalidParameters = errors.New("invalid kdf parameters")
	// ErrPrimitiveFailure is an opaque failure inside the primitive.
	ErrPrimitiveFailure = errors.New("kdf primitive failure")
)
