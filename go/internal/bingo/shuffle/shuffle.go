// Package shuffle generates the draw order of a round from its seed.
//
// The generator is part of the public fairness contract: players re-run it
// against the published seed to check the draw. Multiplier and Increment must
// never change once rounds have been drawn with them.
package shuffle

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const (
	// PoolSize is the number of balls in the drum.
	PoolSize = 75

	// Multiplier and Increment define the 64-bit LCG step
	// seed' = seed*Multiplier + Increment (mod 2^64).
	Multiplier uint64 = 6364136223846793005
	Increment  uint64 = 1442695040888963407
)

var ErrInvalidSeed = errors.New("invalid seed")

var mod64 = new(big.Int).Lsh(big.NewInt(1), 64)

// Generate returns the permutation of 1..PoolSize produced by seed.
func Generate(seed uint64) []int {
	balls := make([]int, PoolSize)
	for i := range balls {
		balls[i] = i + 1
	}

	for i := PoolSize - 1; i >= 1; i-- {
		seed = Next(seed)
		j := seed % uint64(i+1)
		balls[i], balls[j] = balls[j], balls[i]
	}
	return balls
}

// Next advances the LCG by one step. Overflow wraps, which is the mod 2^64.
func Next(seed uint64) uint64 {
	return seed*Multiplier + Increment
}

// ParseSeed accepts a decimal or 0x-prefixed hex integer of any width and
// reduces it mod 2^64.
func ParseSeed(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidSeed)
	}

	n := new(big.Int)
	var ok bool
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		_, ok = n.SetString(s[2:], 16)
	} else {
		_, ok = n.SetString(s, 10)
	}
	if !ok || n.Sign() < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSeed, s)
	}
	return n.Mod(n, mod64).Uint64(), nil
}

// GenerateFromString parses seed and generates its permutation.
func GenerateFromString(seed string) ([]int, error) {
	v, err := ParseSeed(seed)
	if err != nil {
		return nil, err
	}
	return Generate(v), nil
}

// Verify reports whether sequence is exactly the permutation seed produces.
func Verify(seed uint64, sequence []int) bool {
	if len(sequence) != PoolSize {
		return false
	}
	for i, n := range Generate(seed) {
		if sequence[i] != n {
			return false
		}
	}
	return true
}
