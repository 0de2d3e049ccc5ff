package internal

import (
	"crypto/rand"
	"errors"
	"io"
	"sync"
)

// ErrEntropyUnavailable is the panic value raised when the system random source fails.
var ErrEntropyUnavailable = errors.New("secure random source unavailable")

type entropySource struct {
	r io.Reader
}

// processEntropy is initialized on first use and lives for the whole process.
// crypto/rand.Reader is safe for concurrent use, so readers never serialize.
var processEntropy = sync.OnceValue(func() *entropySource {
	return &entropySource{r: rand.Reader}
})

// FillRandom fills b from the process-wide secure random source.
//
// A failing source is fatal. There is no weaker fallback.
func FillRandom(b []byte) {
	if _, err := io.ReadFull(processEntropy().r, b); err != nil {
		panic(errors.Join(ErrEntropyUnavailable, err))
	}
}

// RandomArray16 returns 16 fresh random bytes.
func RandomArray16() [16]byte {
	var out [16]byte
	FillRandom(out[:])
	return out
}
