package grafite

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEpsilonForBudget(t *testing.T) {
	eps, err := EpsilonForBudget(16, 32)
	require.NoError(t, err)
	require.Equal(t, 32.0/float64(uint64(1)<<14), eps)

	eps, err = EpsilonForBudget(64, 1)
	require.NoError(t, err)
	require.Equal(t, 1.0/float64(uint64(1)<<62), eps)
}

func TestEpsilonForBudgetRejectsBadBudgets(t *testing.T) {
	for _, bits := range []uint8{0, 1, 2, 65, 255} {
		_, err := EpsilonForBudget(bits, 32)
		require.ErrorIs(t, err, ErrOverflow, "bits=%d", bits)
	}
}

func TestMaxRangeInterval(t *testing.T) {
	// float64(MaxUniverse) is exactly 2^64, so 2^64 * 0.5 / 2^32 = 2^31.
	require.Equal(t, uint64(1)<<31, maxRangeInterval(MaxUniverse, 1<<32, 0.5))

	// A 1% budget over 8 keys leaves room for enormous intervals.
	require.Greater(t, maxRangeInterval(MaxUniverse, 8, 0.01), uint64(1)<<50)
}

func TestReducedUniverseSize(t *testing.T) {
	r, err := reducedUniverseSize(8, 20, 0.01)
	require.NoError(t, err)
	require.Equal(t, uint64(16000), r)

	r, err = reducedUniverseSize(1000, 32, 1.0/512)
	require.NoError(t, err)
	require.Equal(t, uint64(1000*32*512), r)
}

func TestReducedUniverseSizeOverflow(t *testing.T) {
	// n*L alone overflows.
	_, err := reducedUniverseSize(1<<32, 1<<33, 0.5)
	require.ErrorIs(t, err, ErrOverflow)

	// n*L fits but the final multiply does not.
	_, err = reducedUniverseSize(1<<32, 1<<31, 0.5)
	require.ErrorIs(t, err, ErrOverflow)

	// 1/epsilon itself escapes uint64.
	_, err = reducedUniverseSize(1, 1, 1e-300)
	require.ErrorIs(t, err, ErrOverflow)

	// Degenerate zero-sized universe.
	_, err = reducedUniverseSize(1, 0, 0.5)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestCheckedMul(t *testing.T) {
	v, ok := checkedMul(1<<31, 1<<32)
	require.True(t, ok)
	require.Equal(t, uint64(1)<<63, v)

	_, ok = checkedMul(1<<32, 1<<32)
	require.False(t, ok)

	v, ok = checkedMul(math.MaxUint64, 1)
	require.True(t, ok)
	require.Equal(t, uint64(math.MaxUint64), v)
}
