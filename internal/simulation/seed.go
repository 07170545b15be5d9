package simulation

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
)

// NewSeed draws a non-negative seed from the operating system's entropy source.
func NewSeed() (int64, error) {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("draw seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(buf[:]) & (1<<63 - 1)), nil
}

// resolveSeed returns the configured seed or a fresh random one.
func resolveSeed(seed *int64) (int64, error) {
	if seed != nil {
		return *seed, nil
	}
	return NewSeed()
}
