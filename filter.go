package grafite

import (
	"encoding/binary"
	"errors"
	"fmt"
	"iter"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"
)

// parallelThreshold is the key count above which Build hashes in parallel.
// Below it the goroutine fan-out costs more than it saves.
const parallelThreshold = 1 << 16

// Filter is an approximate range-emptiness filter over a static set of
// 64-bit integer keys.
//
// Query answers "does any key lie in this range?" with one-sided error: it
// may report true for an empty range (a false positive) but never reports
// false for a range that contains a key. The filter stores only the
// order-preserving hash codes of its keys in a compressed predecessor
// structure, so it is far smaller than the key set itself.
//
// A Filter is immutable once built and safe for concurrent readers.
type Filter struct {
	hasher Hasher
	set    hashSet
}

// Build constructs a Filter over keys using the given hasher. Every key is
// hashed into the reduced universe; the codes are sorted, deduplicated, and
// stored succinctly. Duplicate keys are fine, and an empty slice yields a
// filter that answers false to every query.
//
// The hashing pass runs in parallel for large inputs; the result is
// identical either way.
func Build(keys []uint64, hasher Hasher) *Filter {
	hashes := make([]uint64, len(keys))
	if len(keys) >= parallelThreshold {
		parallelHash(keys, hashes, hasher)
	} else {
		for i, k := range keys {
			hashes[i] = hasher.Hash(k)
		}
	}
	return buildFromHashes(hashes, hasher)
}

// BuildSeq constructs a Filter from a key sequence, for callers that do not
// have their keys in a slice. See Build.
func BuildSeq(keys iter.Seq[uint64], hasher Hasher) *Filter {
	var hashes []uint64
	for k := range keys {
		hashes = append(hashes, hasher.Hash(k))
	}
	return buildFromHashes(hashes, hasher)
}

// parallelHash fills hashes[i] = hasher.Hash(keys[i]) using one goroutine
// per contiguous chunk. Each chunk writes a disjoint region, so no
// synchronization beyond the final wait is needed.
func parallelHash(keys, hashes []uint64, hasher Hasher) {
	workers := runtime.GOMAXPROCS(0)
	chunk := (len(keys) + workers - 1) / workers

	var g errgroup.Group
	for start := 0; start < len(keys); start += chunk {
		end := min(start+chunk, len(keys))
		g.Go(func() error {
			for i := start; i < end; i++ {
				hashes[i] = hasher.Hash(keys[i])
			}
			return nil
		})
	}
	_ = g.Wait() // workers never fail
}

// buildFromHashes sorts and deduplicates hash codes in place, checks the
// construction invariant, and hands them to the succinct store. A hash code
// at or beyond the reduced universe means the hasher and the filter disagree
// about parameters, which is a defect in the caller, not a runtime
// condition; it panics.
func buildFromHashes(hashes []uint64, hasher Hasher) *Filter {
	slices.Sort(hashes)
	hashes = slices.Compact(hashes)

	if len(hashes) > 0 && hashes[len(hashes)-1] >= hasher.r {
		panic(fmt.Sprintf("grafite: hash code %d escapes reduced universe %d; hasher and filter parameters disagree",
			hashes[len(hashes)-1], hasher.r))
	}

	return &Filter{hasher: hasher, set: newHashSet(hashes)}
}

// Query reports whether any key might lie in the inclusive range [lo, hi].
// A false result is definitive; a true result may be a false positive with
// probability about FalsePositiveRate(n, hi-lo+1).
//
// A reversed range (lo > hi) is empty and reports false without hashing.
func (f *Filter) Query(lo, hi uint64) bool {
	if lo > hi || f.set.len() == 0 {
		return false
	}

	loHash := f.hasher.Hash(lo)
	hiHash := f.hasher.Hash(hi)

	// The [lo, hi] span crossed a block boundary and wrapped around the
	// reduced universe. Order reasoning breaks down across the
	// discontinuity, so certify non-emptiness by checking whether the
	// stored extremes land in either implied interval. This
	// over-approximates: more false positives, never a false negative.
	if loHash > hiHash {
		return f.set.min() <= hiHash || f.set.max() >= loHash
	}

	pred, ok := f.set.predecessor(hiHash)
	if !ok {
		// Nothing stored at or below the end of the range.
		return false
	}
	return pred >= loHash
}

// QueryHalfOpen reports whether any key might lie in the half-open range
// [lo, hi). A zero hi makes the range empty and reports false.
func (f *Filter) QueryHalfOpen(lo, hi uint64) bool {
	if hi == 0 {
		return false
	}
	return f.Query(lo, hi-1)
}

// QueryFrom reports whether any key might lie in [lo, MaxUniverse].
func (f *Filter) QueryFrom(lo uint64) bool {
	return f.Query(lo, MaxUniverse)
}

// QueryUpTo reports whether any key might lie in [0, hi].
func (f *Filter) QueryUpTo(hi uint64) bool {
	return f.Query(0, hi)
}

// Contains reports whether the key x might be in the set.
func (f *Filter) Contains(x uint64) bool {
	return f.Query(x, x)
}

// FalsePositiveRate returns the expected false positive rate n*L/r for
// queries of length maxInterval against numElements distinct keys. This is
// diagnostic only; it does not affect query answers.
func (f *Filter) FalsePositiveRate(numElements, maxInterval uint64) float64 {
	return float64(numElements) * float64(maxInterval) / float64(f.hasher.r)
}

// Hasher returns the hash function this filter was built with. Hashing other
// keys through it yields codes comparable with this filter's contents.
func (f *Filter) Hasher() Hasher {
	return f.hasher
}

// Count returns the number of distinct hash codes stored. Keys that collide
// under the hasher collapse into one code, so this is at most the number of
// distinct keys.
func (f *Filter) Count() uint64 {
	return f.set.len()
}

// SizeInBytes returns the size of the succinct hash-code store.
func (f *Filter) SizeInBytes() uint64 {
	return f.set.sizeInBytes()
}

// BitsPerKey returns the storage cost per stored hash code, or 0 for an
// empty filter.
func (f *Filter) BitsPerKey() float64 {
	n := f.set.len()
	if n == 0 {
		return 0
	}
	return float64(8*f.set.sizeInBytes()) / float64(n)
}

// Serialization constants and errors.
const (
	// serializeVersion is the current serialization format version.
	serializeVersion byte = 1

	// headerSize is the size of the serialization header in bytes:
	// version (1) + c1 (8) + c2 (8) + p (8) + r (8).
	headerSize = 33
)

var (
	// ErrInvalidData is returned when serialized data is invalid or corrupted.
	ErrInvalidData = errors.New("grafite: invalid serialized data")

	// ErrUnsupportedVersion is returned when the serialization version is not
	// supported.
	ErrUnsupportedVersion = errors.New("grafite: unsupported serialization version")
)

// MarshalBinary serializes the filter. The format is:
//   - Version (1 byte)
//   - c1, c2, p, r (8 bytes each, little-endian)
//   - the succinct store's own binary encoding
func (f *Filter) MarshalBinary() ([]byte, error) {
	setData, err := f.set.marshalBinary()
	if err != nil {
		return nil, err
	}

	buf := make([]byte, headerSize, headerSize+len(setData))
	buf[0] = serializeVersion
	binary.LittleEndian.PutUint64(buf[1:9], f.hasher.c1)
	binary.LittleEndian.PutUint64(buf[9:17], f.hasher.c2)
	binary.LittleEndian.PutUint64(buf[17:25], f.hasher.p)
	binary.LittleEndian.PutUint64(buf[25:33], f.hasher.r)
	return append(buf, setData...), nil
}

// UnmarshalBinary deserializes a filter produced by MarshalBinary, validating
// the hasher invariant and the stored codes before accepting the data.
func UnmarshalBinary(data []byte) (*Filter, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: data too short (got %d bytes, need at least %d)", ErrInvalidData, len(data), headerSize)
	}

	if version := data[0]; version != serializeVersion {
		return nil, fmt.Errorf("%w: got version %d, expected %d", ErrUnsupportedVersion, version, serializeVersion)
	}

	c1 := binary.LittleEndian.Uint64(data[1:9])
	c2 := binary.LittleEndian.Uint64(data[9:17])
	p := binary.LittleEndian.Uint64(data[17:25])
	r := binary.LittleEndian.Uint64(data[25:33])

	hasher, err := NewHasherWithParams(c1, c2, p, r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	set, err := unmarshalHashSet(data[headerSize:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	if set.len() > 0 && set.max() >= r {
		return nil, fmt.Errorf("%w: stored hash %d escapes reduced universe %d", ErrInvalidData, set.max(), r)
	}

	return &Filter{hasher: hasher, set: set}, nil
}
