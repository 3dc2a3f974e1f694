package grafite

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
)

// MaxUniverse is the size of the unreduced key universe: every key is a
// uint64, so the universe spans [0, MaxUniverse].
const MaxUniverse = math.MaxUint64

var (
	// ErrInvalidEpsilon is returned when the requested false positive rate
	// is not strictly between 0 and 1.
	ErrInvalidEpsilon = errors.New("grafite: epsilon must be strictly between 0 and 1")

	// ErrInvalidMaxInterval is returned when the requested maximum query
	// interval exceeds what the chosen epsilon and key count can support.
	// The error message reports the largest interval that would have been
	// accepted.
	ErrInvalidMaxInterval = errors.New("grafite: max query interval too large")

	// ErrOverflow is returned when the reduced universe size does not fit
	// in a uint64, or when a bits-per-key budget is outside (2, 64].
	ErrOverflow = errors.New("grafite: parameter arithmetic overflows")
)

// EpsilonForBudget converts a space budget of bitsPerKey bits for every
// distinct key into the false positive rate that budget buys, for queries up
// to maxInterval wide. The rate is L / 2^(B-2): storing n values drawn from
// [0, r) takes roughly n*(log2(r/n) + 2) bits, so fixing bits-per-key fixes
// the reduced universe size and with it epsilon.
//
// bitsPerKey must be in (2, 64]; anything else returns ErrOverflow.
func EpsilonForBudget(bitsPerKey uint8, maxInterval uint64) (float64, error) {
	if bitsPerKey <= 2 || bitsPerKey > 64 {
		return 0, fmt.Errorf("%w: bits per key %d outside (2, 64]", ErrOverflow, bitsPerKey)
	}
	return float64(maxInterval) / float64(uint64(1)<<(bitsPerKey-2)), nil
}

// maxRangeInterval returns the largest query interval supported by a filter
// over numElements keys at false positive rate epsilon: (universe * epsilon)
// / n. Callers validate epsilon and numElements first.
func maxRangeInterval(universe, numElements uint64, epsilon float64) uint64 {
	return uint64(float64(universe)*epsilon) / numElements
}

// reducedUniverseSize computes r = n * L * floor(1/epsilon) with an overflow
// check at every step.
func reducedUniverseSize(numElements, maxInterval uint64, epsilon float64) (uint64, error) {
	inv := 1.0 / epsilon
	if inv >= float64(MaxUniverse) {
		return 0, fmt.Errorf("%w: 1/epsilon does not fit in a uint64", ErrOverflow)
	}

	upper, ok := checkedMul(numElements, maxInterval)
	if !ok {
		return 0, fmt.Errorf("%w: n*L does not fit in a uint64", ErrOverflow)
	}
	r, ok := checkedMul(upper, uint64(inv))
	if !ok {
		return 0, fmt.Errorf("%w: n*L*floor(1/epsilon) does not fit in a uint64", ErrOverflow)
	}
	if r == 0 {
		return 0, fmt.Errorf("%w: reduced universe size is zero", ErrOverflow)
	}
	return r, nil
}

// checkedMul multiplies two uint64s, reporting whether the product fits.
func checkedMul(a, b uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	return lo, hi == 0
}
