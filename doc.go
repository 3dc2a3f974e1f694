// Package grafite provides an approximate range-emptiness filter for Go.
//
// A range filter is the range-query analog of a bloom filter: given a static
// set of 64-bit integer keys, it answers "does any key lie in [lo, hi]?" with
// one-sided error. False positive matches are possible, but false negatives
// are not – if the filter says a range is empty, it definitely is. Range
// filters sit in front of expensive range scans (for example over an on-disk
// sorted structure such as an LSM level) to cheaply reject ranges that are
// known to contain nothing.
//
// # Architecture
//
// The filter combines two cooperating pieces:
//
// Order-preserving hashing: a [Hasher] compresses the 64-bit key universe into
// a much smaller "reduced universe" of size r. The domain is partitioned into
// contiguous blocks of size r; within one block the hash is a fixed shift of
// the identity, so relative key order survives. Across block boundaries the
// shift is recomputed with a pairwise-independent hash of the block index,
// which keeps codomain usage close to uniform and bounds the collision rate.
//
// Succinct predecessor storage: the hashed keys are sorted, deduplicated, and
// handed to a compressed 64-bit integer set that answers "largest stored
// value <= x" queries. A range query hashes its two endpoints and needs only
// a single predecessor probe (or a min/max check when the hashed endpoints
// wrap around the reduced universe).
//
// # Choosing Parameters
//
// Use [NewHasher] with your key count, target false positive rate, and the
// longest range you intend to query:
//
//	// Filter for 1 million keys, 1% false positives, ranges up to 64 wide
//	hasher, err := grafite.NewHasher(1_000_000, 0.01, 64, nil)
//	if err != nil { ... }
//	f := grafite.Build(keys, hasher)
//
// Most callers think in terms of a memory budget rather than a rate;
// [NewHasherWithBudget] fixes bits-per-key instead and derives the rate via
// epsilon = L / 2^(B-2). [NewHasherWithReduced] skips derivation entirely and
// takes a caller-chosen reduced universe size.
//
// # False Positive Rate
//
// For n distinct stored keys and a query interval of length L, the expected
// false positive rate is n*L/r. Longer query ranges or smaller reduced
// universes mean more noise; soundness is unaffected. Use
// [Filter.FalsePositiveRate] to inspect the rate a built filter offers.
//
// Queries longer than the maxInterval used at construction time remain sound
// (a range containing a key always reports true) but exceed the configured
// false positive budget.
//
// # Determinism
//
// Parameter derivation draws a random prime and two random constants. Pass a
// *rand.Rand (see [NewRand]) to make derivation reproducible; passing nil
// uses the process-wide source. The hash function itself is a pure function
// of the four derived parameters.
//
// # Thread Safety
//
// A built [Filter] is immutable and safe for use by any number of concurrent
// readers without synchronization. Construction of independent filters may
// proceed in parallel; [Build] additionally parallelizes its internal hashing
// pass for large inputs.
//
// # References
//
//   - Grafite: Taming Adversarial Queries with Optimal Range Filters:
//     https://arxiv.org/abs/2311.15380
//   - Roaring Bitmaps: https://arxiv.org/abs/1603.06549
package grafite
