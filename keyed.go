package grafite

// Keyed is a Filter over arbitrary key types. It pairs a Filter with the
// key-mapping function the keys were built through, so query endpoints are
// mapped exactly like the stored keys.
//
// The mapping must be order-consistent: k1 <= k2 in the key type's order
// implies keyFn(k1) <= keyFn(k2). An inconsistent mapping silently breaks
// the no-false-negatives guarantee.
type Keyed[K any] struct {
	filter *Filter
	keyFn  func(K) uint64
}

// BuildKeyed constructs a filter over keys of any type via an
// order-consistent mapping into uint64. A typical mapping for signed keys
// flips the sign bit:
//
//	func(k int64) uint64 { return uint64(k) ^ (1 << 63) }
func BuildKeyed[K any](keys []K, keyFn func(K) uint64, hasher Hasher) *Keyed[K] {
	mapped := make([]uint64, len(keys))
	for i, k := range keys {
		mapped[i] = keyFn(k)
	}
	return &Keyed[K]{filter: Build(mapped, hasher), keyFn: keyFn}
}

// Query reports whether any key might lie in the inclusive range [lo, hi].
func (k *Keyed[K]) Query(lo, hi K) bool {
	return k.filter.Query(k.keyFn(lo), k.keyFn(hi))
}

// Contains reports whether the key x might be in the set.
func (k *Keyed[K]) Contains(x K) bool {
	return k.filter.Contains(k.keyFn(x))
}

// Filter returns the underlying integer filter.
func (k *Keyed[K]) Filter() *Filter {
	return k.filter
}
