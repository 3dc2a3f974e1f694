package grafite

import (
	"fmt"
	"math/big"
	"math/rand/v2"

	"github.com/zeebo/xxh3"
)

// maxPrimeAttempts bounds the rejection-sampling loop in primeInRange. Prime
// density near 2^64 is about 1/44, so 2^16 draws failing to hit a prime means
// the generator is broken, not unlucky.
const maxPrimeAttempts = 1 << 16

// NewRand returns a *rand.Rand deterministically seeded from a string label.
// The label is stretched into 128 bits of PCG state with xxh3, so any two
// runs using the same label derive identical hashers.
func NewRand(seed string) *rand.Rand {
	u := xxh3.HashString128(seed)
	return rand.New(rand.NewPCG(u.Hi, u.Lo))
}

// randomInRange draws a uniform value from [lo, hi). A nil rng falls back to
// the process-wide source. An empty range is a precondition violation and
// panics.
func randomInRange(rng *rand.Rand, lo, hi uint64) uint64 {
	if lo >= hi {
		panic(fmt.Sprintf("grafite: empty random range [%d, %d)", lo, hi))
	}
	if rng == nil {
		return lo + rand.Uint64N(hi-lo)
	}
	return lo + rng.Uint64N(hi-lo)
}

// isPrime reports whether n is prime. ProbablyPrime(0) runs the
// Baillie-PSW test, which is deterministic for all 64-bit inputs.
func isPrime(n uint64) bool {
	return new(big.Int).SetUint64(n).ProbablyPrime(0)
}

// primeInRange draws uniform candidates from [lo, hi) until one is prime.
// The loop is convergent rather than guaranteed-terminating, so it carries a
// generous attempt cap and panics on exhaustion instead of spinning forever.
// An empty range panics, as in randomInRange.
func primeInRange(rng *rand.Rand, lo, hi uint64) uint64 {
	for range maxPrimeAttempts {
		if n := randomInRange(rng, lo, hi); isPrime(n) {
			return n
		}
	}
	panic(fmt.Sprintf("grafite: no prime found in [%d, %d) after %d attempts", lo, hi, maxPrimeAttempts))
}
