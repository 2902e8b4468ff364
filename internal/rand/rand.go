// Package rand generates the random alphanumeric suffixes used for
// client-assigned entity ids.
package rand

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"
)

const (
	bytesInUint64 = 8
	charset       = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789" // reduced base64
)

var charsetLen = len(charset)

var defaultSource = newSource()

func newSource() *source {
	seed := make([]byte, bytesInUint64*2)

	if _, err := cryptorand.Read(seed); err != nil {
		panic("unreachable")
	}

	return &source{
		//nolint:gosec // ids are not security sensitive
		rng: rand.New(rand.NewSource(int64(
			binary.LittleEndian.Uint64(seed[:8]) ^
				binary.LittleEndian.Uint64(seed[8:]),
		))),
	}
}

type source struct {
	mut sync.Mutex
	rng *rand.Rand
}

func (s *source) str(length int) string {
	buf := make([]byte, length)

	s.mut.Lock()
	for i := range buf {
		buf[i] = charset[s.rng.Intn(charsetLen)]
	}
	s.mut.Unlock()

	return string(buf)
}

// String returns a random alphanumeric string of the given length.
func String(length int) string {
	return defaultSource.str(length)
}
