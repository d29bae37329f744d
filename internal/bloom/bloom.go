// Package bloom holds the sizing math and bit positions shared by the remote
// and in-process bloom filters.
package bloom

import (
	"errors"
	"math"

	"github.com/cespare/xxhash/v2"
)

// MaxBits is the largest bitmap a Redis string can address.
const MaxBits = uint64(1) << 32

var (
	ErrInsertions = errors.New("bloom: expected insertions must be > 0")
	ErrFPP        = errors.New("bloom: false positive rate must be in (0, 1)")
	ErrTooLarge   = errors.New("bloom: filter needs more than 2^32 bits")
)

// Config is what gets persisted next to the bits so every process hashes
// the same way.
type Config struct {
	Size               uint64
	HashIterations     int
	ExpectedInsertions int64
	FalseProbability   float64
}

// NewConfig sizes a filter for n insertions at false-positive rate p:
// m = -n*ln(p)/ln(2)^2, k = max(1, round(m/n*ln(2))).
func NewConfig(n int64, p float64) (Config, error) {
	if n <= 0 {
		return Config{}, ErrInsertions
	}
	if p <= 0 || p >= 1 {
		return Config{}, ErrFPP
	}
	m := math.Ceil(-float64(n) * math.Log(p) / (math.Ln2 * math.Ln2))
	if m > float64(MaxBits) {
		return Config{}, ErrTooLarge
	}
	size := uint64(m)
	if size == 0 {
		size = 1
	}
	k := int(math.Round(float64(size) / float64(n) * math.Ln2))
	if k < 1 {
		k = 1
	}
	return Config{Size: size, HashIterations: k, ExpectedInsertions: n, FalseProbability: p}, nil
}

// Positions returns the k bit offsets for data (double hashing).
func (c Config) Positions(data []byte) []uint64 {
	h1 := xxhash.Sum64(data)
	salted := make([]byte, len(data)+1)
	copy(salted, data)
	salted[len(data)] = 0x9e
	h2 := xxhash.Sum64(salted) | 1

	out := make([]uint64, c.HashIterations)
	for i := range out {
		out[i] = (h1 + uint64(i)*h2) % c.Size
	}
	return out
}
