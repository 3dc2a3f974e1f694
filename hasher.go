package grafite

import (
	"errors"
	"fmt"
	"math/bits"
	"math/rand/v2"
)

// ErrInvalidParams is returned by NewHasherWithParams when the supplied
// constants do not satisfy the hash family's invariant.
var ErrInvalidParams = errors.New("grafite: invalid hasher parameters")

// Hasher is an order-preserving hash function over 64-bit integer keys.
//
// It maps the full uint64 universe into a reduced universe [0, r). The domain
// is split into contiguous blocks of size r; keys in the same block keep
// their relative order (modulo r), while the per-block shift is drawn from a
// pairwise-independent family keyed by the block index:
//
//	shift(b) = ((c1*b + c2) mod p) mod r
//	hash(x)  = (shift(x div r) + x) mod r
//
// A Hasher is an immutable value. Construct one with [NewHasher],
// [NewHasherWithBudget], [NewHasherWithReduced], or [NewHasherWithParams],
// then hand it to [Build]; the filter keeps it so query endpoints are hashed
// exactly like the stored keys. Sharing one Hasher across several filters
// makes their hash codes comparable.
type Hasher struct {
	c1 uint64 // multiplier, 0 < c1 < p
	c2 uint64 // offset, 0 <= c2 < p
	p  uint64 // prime bounding the family's domain, p > r
	r  uint64 // reduced universe size
}

// NewHasher derives hash parameters from a false positive budget.
//
// numElements is the number of distinct keys the filter will hold, epsilon
// the target false positive rate (strictly between 0 and 1), and maxInterval
// the longest range that will be queried. The reduced universe size is
// r = n * L * floor(1/epsilon), so that queries of length at most L see a
// false positive rate of roughly n*L/r = epsilon.
//
// rng drives the choice of the prime p and the constants c1, c2; pass nil to
// use the process-wide source, or a seeded *rand.Rand (see [NewRand]) for a
// reproducible derivation.
//
// Returns ErrInvalidEpsilon, ErrInvalidMaxInterval (reporting the largest
// interval that would have been accepted), or ErrOverflow when the
// parameters cannot be satisfied.
func NewHasher(numElements uint64, epsilon float64, maxInterval uint64, rng *rand.Rand) (Hasher, error) {
	if epsilon <= 0 || epsilon >= 1 {
		return Hasher{}, fmt.Errorf("%w: got %v", ErrInvalidEpsilon, epsilon)
	}
	if numElements == 0 {
		return Hasher{}, fmt.Errorf("%w: cannot size a reduced universe for zero elements", ErrOverflow)
	}

	if limit := maxRangeInterval(MaxUniverse, numElements, epsilon); maxInterval > limit {
		return Hasher{}, fmt.Errorf("%w: intervals up to %d are supported for n=%d, epsilon=%v",
			ErrInvalidMaxInterval, limit, numElements, epsilon)
	}

	r, err := reducedUniverseSize(numElements, maxInterval, epsilon)
	if err != nil {
		return Hasher{}, err
	}
	if r >= MaxUniverse-1 {
		return Hasher{}, fmt.Errorf("%w: no room for a prime above r=%d", ErrOverflow, r)
	}

	return NewHasherWithReduced(r, rng), nil
}

// NewHasherWithBudget derives hash parameters from a space budget of
// bitsPerKey bits per distinct key instead of an explicit false positive
// rate. It computes epsilon = maxInterval / 2^(bitsPerKey-2) (see
// [EpsilonForBudget]) and delegates to [NewHasher].
func NewHasherWithBudget(numElements uint64, bitsPerKey uint8, maxInterval uint64, rng *rand.Rand) (Hasher, error) {
	epsilon, err := EpsilonForBudget(bitsPerKey, maxInterval)
	if err != nil {
		return Hasher{}, err
	}
	return NewHasher(numElements, epsilon, maxInterval, rng)
}

// NewHasherWithReduced builds a Hasher for a caller-chosen reduced universe
// size, bypassing parameter derivation: a prime p is drawn uniformly from
// (r, MaxUniverse), then c1 from [1, p) and c2 from [0, p).
//
// No validation of r's suitability is performed; r must be nonzero and small
// enough to leave room for a prime above it. The caller is responsible for
// picking an r that matches their workload.
func NewHasherWithReduced(r uint64, rng *rand.Rand) Hasher {
	p := primeInRange(rng, r+1, MaxUniverse)
	return Hasher{
		c1: randomInRange(rng, 1, p),
		c2: randomInRange(rng, 0, p),
		p:  p,
		r:  r,
	}
}

// NewHasherWithParams reconstructs a Hasher from explicit constants, for
// example ones recovered from a serialized filter. It validates the family
// invariant: 0 < c1 < p, c2 < p, p prime, and p > r > 0. Violations return
// ErrInvalidParams.
func NewHasherWithParams(c1, c2, p, r uint64) (Hasher, error) {
	switch {
	case r == 0:
		return Hasher{}, fmt.Errorf("%w: reduced universe size is zero", ErrInvalidParams)
	case p <= r:
		return Hasher{}, fmt.Errorf("%w: p=%d is not greater than r=%d", ErrInvalidParams, p, r)
	case c1 == 0 || c1 >= p:
		return Hasher{}, fmt.Errorf("%w: c1=%d outside [1, p)", ErrInvalidParams, c1)
	case c2 >= p:
		return Hasher{}, fmt.Errorf("%w: c2=%d outside [0, p)", ErrInvalidParams, c2)
	case !isPrime(p):
		return Hasher{}, fmt.Errorf("%w: p=%d is not prime", ErrInvalidParams, p)
	}
	return Hasher{c1: c1, c2: c2, p: p, r: r}, nil
}

// Hash maps x into the reduced universe [0, r), preserving the relative
// order of keys that share a block of size r.
//
// All intermediate arithmetic is exact: c1*block + c2 is computed with a
// 128-bit intermediate before reduction mod p, so the result is the true
// mathematical value rather than a wrapped one. Mixing hashers that wrap
// differently would silently change the hash family, so keep this policy
// stable across versions of a persisted filter.
func (h Hasher) Hash(x uint64) uint64 {
	shift := mulAddMod(h.c1, x/h.r, h.c2, h.p) % h.r
	return addMod(shift, x%h.r, h.r)
}

// ReducedUniverse returns the size r of the hash function's output domain.
func (h Hasher) ReducedUniverse() uint64 {
	return h.r
}

// mulAddMod returns (a*b + c) mod m without overflow, using a 128-bit
// intermediate product. m must be nonzero.
func mulAddMod(a, b, c, m uint64) uint64 {
	hi, lo := bits.Mul64(a%m, b%m)
	// hi <= (m-1)^2 / 2^64 < m, so the 128-bit division cannot trap.
	_, rem := bits.Div64(hi, lo, m)
	return addMod(rem, c%m, m)
}

// addMod returns (a + b) mod m for a, b < m.
func addMod(a, b, m uint64) uint64 {
	s, carry := bits.Add64(a, b, 0)
	if carry != 0 || s >= m {
		s -= m
	}
	return s
}
