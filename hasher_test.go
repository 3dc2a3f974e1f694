package grafite

import (
	"fmt"
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewHasherRejectsBadEpsilon(t *testing.T) {
	for _, eps := range []float64{0, 1, -0.5, 1.5, math.Inf(1)} {
		_, err := NewHasher(8, eps, 20, nil)
		require.ErrorIs(t, err, ErrInvalidEpsilon, "epsilon=%v", eps)
	}
}

func TestNewHasherRejectsZeroElements(t *testing.T) {
	_, err := NewHasher(0, 0.01, 20, nil)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestNewHasherRejectsOversizedInterval(t *testing.T) {
	// With n=2^32 and epsilon=0.5, intervals are capped at 2^31.
	_, err := NewHasher(1<<32, 0.5, 1<<40, nil)
	require.ErrorIs(t, err, ErrInvalidMaxInterval)
	// The error reports the bound that was violated, not the caller's input.
	require.ErrorContains(t, err, "2147483648")
}

func TestNewHasherOverflow(t *testing.T) {
	// L=2^31 is within the interval cap, but n*L*floor(1/eps) = 2^64.
	_, err := NewHasher(1<<32, 0.5, 1<<31, nil)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestNewHasherDerivation(t *testing.T) {
	h, err := NewHasher(8, 0.01, 20, NewRand("derive"))
	require.NoError(t, err)

	// r = n * L * floor(1/epsilon) = 8 * 20 * 100.
	require.Equal(t, uint64(16000), h.ReducedUniverse())

	require.Greater(t, h.p, h.r)
	require.True(t, isPrime(h.p))
	require.GreaterOrEqual(t, h.c1, uint64(1))
	require.Less(t, h.c1, h.p)
	require.Less(t, h.c2, h.p)
}

func TestNewHasherWithBudget(t *testing.T) {
	h, err := NewHasherWithBudget(1000, 16, 32, NewRand("budget"))
	require.NoError(t, err)

	// epsilon = 32 / 2^14 = 1/512, so r = 1000 * 32 * 512.
	require.Equal(t, uint64(16_384_000), h.ReducedUniverse())

	_, err = NewHasherWithBudget(1000, 2, 32, nil)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestNewHasherWithReduced(t *testing.T) {
	h := NewHasherWithReduced(10007, NewRand("reduced"))
	require.Equal(t, uint64(10007), h.ReducedUniverse())
	require.Greater(t, h.p, h.r)
	require.True(t, isPrime(h.p))

	rng := NewRand("reduced-hash")
	for range 1000 {
		require.Less(t, h.Hash(rng.Uint64()), h.r)
	}
}

func TestNewHasherWithParams(t *testing.T) {
	h, err := NewHasherWithParams(1, 0, 16001, 16000)
	require.NoError(t, err)
	require.Equal(t, Hasher{c1: 1, c2: 0, p: 16001, r: 16000}, h)

	cases := []struct {
		name         string
		c1, c2, p, r uint64
	}{
		{"zero r", 1, 0, 16001, 0},
		{"p not above r", 1, 0, 16000, 16000},
		{"zero c1", 0, 0, 16001, 16000},
		{"c1 at p", 16001, 0, 16001, 16000},
		{"c2 at p", 1, 16001, 16001, 16000},
		{"composite p", 1, 0, 16002, 16000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewHasherWithParams(tc.c1, tc.c2, tc.p, tc.r)
			require.ErrorIs(t, err, ErrInvalidParams)
		})
	}
}

// bigHash evaluates the hash definition with arbitrary-precision arithmetic.
func bigHash(h Hasher, x uint64) uint64 {
	block := new(big.Int).SetUint64(x / h.r)
	shift := new(big.Int).Mul(new(big.Int).SetUint64(h.c1), block)
	shift.Add(shift, new(big.Int).SetUint64(h.c2))
	shift.Mod(shift, new(big.Int).SetUint64(h.p))
	shift.Mod(shift, new(big.Int).SetUint64(h.r))
	shift.Add(shift, new(big.Int).SetUint64(x))
	shift.Mod(shift, new(big.Int).SetUint64(h.r))
	return shift.Uint64()
}

func TestHashMatchesExactArithmetic(t *testing.T) {
	rng := NewRand("exact")
	for i := range 20 {
		r := 1 + rng.Uint64N(1<<40)
		h := NewHasherWithReduced(r, rng)

		for _, x := range []uint64{0, 1, r - 1, r, r + 1, math.MaxUint64} {
			require.Equal(t, bigHash(h, x), h.Hash(x), "hasher %d, x=%d", i, x)
		}
		for range 200 {
			x := rng.Uint64()
			require.Equal(t, bigHash(h, x), h.Hash(x), "hasher %d, x=%d", i, x)
		}
	}
}

func TestMulAddMod(t *testing.T) {
	rng := NewRand("mulAddMod")
	for range 2000 {
		m := 1 + rng.Uint64()
		a, b, c := rng.Uint64(), rng.Uint64(), rng.Uint64()

		want := new(big.Int).Mul(new(big.Int).SetUint64(a%m), new(big.Int).SetUint64(b%m))
		want.Add(want, new(big.Int).SetUint64(c%m))
		want.Mod(want, new(big.Int).SetUint64(m))

		require.Equal(t, want.Uint64(), mulAddMod(a, b, c, m))
	}
}

// Keys in the same block share a fixed shift: hashes differ by exactly the
// key distance, modulo r. Absent a wrap past r, that means order survives.
func TestHashSameBlockShift(t *testing.T) {
	rng := NewRand("block")
	h := NewHasherWithReduced(1<<20, rng)
	r := h.ReducedUniverse()

	for range 2000 {
		base := rng.Uint64()
		blockStart := base - base%r

		x := blockStart + rng.Uint64N(r)
		y := blockStart + rng.Uint64N(r)
		if x > y {
			x, y = y, x
		}

		diff := y - x
		require.Equal(t, h.Hash(y), addMod(h.Hash(x), diff%r, r))
		if h.Hash(x)+diff < r {
			require.LessOrEqual(t, h.Hash(x), h.Hash(y))
		}
	}
}

func TestHashDeterministic(t *testing.T) {
	h1, err := NewHasher(100, 0.01, 16, NewRand("same-seed"))
	require.NoError(t, err)
	h2, err := NewHasher(100, 0.01, 16, NewRand("same-seed"))
	require.NoError(t, err)

	require.Equal(t, h1, h2)
	for i := range uint64(1000) {
		require.Equal(t, h1.Hash(i*7919), h2.Hash(i*7919))
	}
}

func TestHashSeedsDiffer(t *testing.T) {
	// Different seeds should (overwhelmingly) derive different families.
	distinct := make(map[Hasher]bool)
	for i := range 8 {
		h, err := NewHasher(100, 0.01, 16, NewRand(fmt.Sprintf("seed-%d", i)))
		require.NoError(t, err)
		distinct[h] = true
	}
	require.Greater(t, len(distinct), 1)
}
