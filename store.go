package grafite

import (
	"bytes"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// hashSet is the succinct sorted-set store backing a Filter: a compressed,
// immutable set of hash codes supporting predecessor queries. It adapts a
// roaring bitmap to the three operations the query algorithm needs, so the
// rest of the package depends on this contract rather than on the bitmap
// API.
type hashSet struct {
	bm *roaring64.Bitmap
}

// newHashSet stores a sorted, deduplicated sequence of hash codes.
func newHashSet(sorted []uint64) hashSet {
	bm := roaring64.New()
	bm.AddMany(sorted)
	bm.RunOptimize()
	return hashSet{bm: bm}
}

// predecessor returns the largest stored value <= x, if any.
func (s hashSet) predecessor(x uint64) (uint64, bool) {
	rank := s.bm.Rank(x) // number of stored values <= x
	if rank == 0 {
		return 0, false
	}
	v, err := s.bm.Select(rank - 1)
	if err != nil {
		panic(fmt.Sprintf("grafite: select(%d) failed on a set of %d values: %v", rank-1, s.bm.GetCardinality(), err))
	}
	return v, true
}

// min and max must not be called on an empty set.
func (s hashSet) min() uint64 { return s.bm.Minimum() }
func (s hashSet) max() uint64 { return s.bm.Maximum() }

func (s hashSet) len() uint64 { return s.bm.GetCardinality() }

func (s hashSet) sizeInBytes() uint64 { return s.bm.GetSerializedSizeInBytes() }

func (s hashSet) marshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := s.bm.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func unmarshalHashSet(data []byte) (hashSet, error) {
	bm := roaring64.New()
	if _, err := bm.ReadFrom(bytes.NewReader(data)); err != nil {
		return hashSet{}, err
	}
	return hashSet{bm: bm}, nil
}
