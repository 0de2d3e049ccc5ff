package pwhash

import (
	"context"
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/pkg/errors"

	"github.com/MrEthical07/pwhash/kdf"
	"github.com/MrEthical07/pwhash/phc"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{nil, KindNone},
		{kdf.ErrOutputTooShort, KindOutputLength},
		{pkgerrors.Wrap(kdf.ErrOpsOutOfRange, "ops 0"), KindOpsOutOfRange},
		{fmt.Errorf("outer: %w", kdf.ErrMemOutOfRange), KindMemOutOfRange},
		{pkgerrors.Wrap(phc.ErrInvalidEncoding, "salt"), KindInvalidEncoding},
		{kdf.ErrMemoryAllocationFailed, KindMemoryAllocation},
		{ErrPasswordTooLong, KindPasswordTooLong},
		{pkgerrors.WithMessage(context.DeadlineExceeded, "waiting"), KindCanceled},
		{errors.New("boom"), KindUnknown},
	}

	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.want {
			t.Fatalf("Classify(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
