package id

import (
	crand "crypto/rand"
	"sync"

	"github.com/benz9527/xrbmap/lib/infra"
)

// URL safe, 64 symbols so a byte masked by 0x3f maps without bias.
const runIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-_"

const (
	minRunIDLen = 4
	maxRunIDLen = 64
	// Random bytes fetched per refill, in IDs.
	runIDBatch = 32
)

type RunIDGen func() string

// NewRunIDGen returns a goroutine safe generator of random IDs of
// length symbols. The random bytes are fetched in batches.
func NewRunIDGen(length int) (RunIDGen, error) {
	if length < minRunIDLen || length > maxRunIDLen {
		return nil, infra.NewErrorStack("[run-id] invalid length")
	}

	pool := make([]byte, length*runIDBatch)
	offset := len(pool)
	mask := byte(len(runIDAlphabet) - 1)

	var mu sync.Mutex
	return func() string {
		mu.Lock()
		defer mu.Unlock()

		if offset == len(pool) {
			if _, err := crand.Read(pool); /* impossible */ err != nil {
				panic(infra.WrapErrorStackWithMessage(err, "[run-id] refill random bytes"))
			}
			offset = 0
		}
		buf := make([]byte, length)
		for i := range buf {
			buf[i] = runIDAlphabet[pool[offset+i]&mask]
		}
		offset += length
		return string(buf)
	}, nil
}
