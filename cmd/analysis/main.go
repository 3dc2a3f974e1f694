// Command analysis measures the empirical false positive rate and space
// usage of a grafite range filter against an exact ground-truth set.
//
// Keys are drawn uniformly from a configurable universe, stored both in the
// filter and in a plain bitset, and then random fixed-width ranges are
// queried against both. Ranges the bitset reports empty but the filter
// reports occupied are false positives; the observed rate should track the
// theoretical n*L/r.
//
// Usage:
//
//	analysis -keys 100000 -universe-bits 24 -interval 16 -eps 0.01 -queries 1000000
//	analysis -keys 100000 -bits 12 -interval 16   # size by bits-per-key budget
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Connortsui20/grafite"
	"github.com/bits-and-blooms/bitset"
)

func main() {
	var (
		numKeys      = flag.Uint64("keys", 100_000, "number of distinct keys to insert")
		universeBits = flag.Uint("universe-bits", 24, "keys are drawn from [0, 2^bits)")
		interval     = flag.Uint64("interval", 16, "query range width (the max interval L)")
		eps          = flag.Float64("eps", 0, "target false positive rate (0 means use -bits)")
		bitsPerKey   = flag.Uint("bits", 12, "bits-per-key budget, used when -eps is 0")
		numQueries   = flag.Uint64("queries", 1_000_000, "number of random range queries")
		seed         = flag.String("seed", "analysis", "seed label for key and query generation")
	)
	flag.Parse()

	if *universeBits == 0 || *universeBits > 28 {
		log.Fatal("universe-bits must be in [1, 28]: the ground-truth bitset is dense")
	}
	if *bitsPerKey <= 2 || *bitsPerKey > 64 {
		log.Fatal("bits must be in (2, 64]")
	}
	universe := uint64(1) << *universeBits
	if *numKeys >= universe/2 {
		log.Fatalf("too many keys (%d) for a 2^%d universe", *numKeys, *universeBits)
	}
	if *interval == 0 || *interval >= universe {
		log.Fatalf("interval must be in [1, 2^%d)", *universeBits)
	}

	rng := grafite.NewRand(*seed)

	var hasher grafite.Hasher
	var err error
	if *eps != 0 {
		hasher, err = grafite.NewHasher(*numKeys, *eps, *interval, rng)
	} else {
		hasher, err = grafite.NewHasherWithBudget(*numKeys, uint8(*bitsPerKey), *interval, rng)
	}
	if err != nil {
		log.Fatalf("deriving hasher: %v", err)
	}

	// Distinct random keys; the bitset doubles as exact ground truth.
	truth := bitset.New(uint(universe))
	keys := make([]uint64, 0, *numKeys)
	for uint64(len(keys)) < *numKeys {
		k := rng.Uint64N(universe)
		if truth.Test(uint(k)) {
			continue
		}
		truth.Set(uint(k))
		keys = append(keys, k)
	}

	buildStart := time.Now()
	f := grafite.Build(keys, hasher)
	buildTime := time.Since(buildStart)

	var nonEmpty, empty, falsePositives uint64
	queryStart := time.Now()
	for range *numQueries {
		lo := rng.Uint64N(universe - *interval)
		hi := lo + *interval - 1

		hit := f.Query(lo, hi)
		if idx, ok := truth.NextSet(uint(lo)); ok && uint64(idx) <= hi {
			nonEmpty++
			if !hit {
				fmt.Fprintf(os.Stderr, "FALSE NEGATIVE on [%d, %d]: filter soundness is broken\n", lo, hi)
				os.Exit(1)
			}
			continue
		}
		empty++
		if hit {
			falsePositives++
		}
	}
	queryTime := time.Since(queryStart)

	empirical := 0.0
	if empty > 0 {
		empirical = float64(falsePositives) / float64(empty)
	}

	fmt.Printf("keys:                %d distinct in [0, 2^%d)\n", len(keys), *universeBits)
	fmt.Printf("reduced universe:    %d\n", hasher.ReducedUniverse())
	fmt.Printf("stored hash codes:   %d\n", f.Count())
	fmt.Printf("filter size:         %d bytes (%.2f bits/key)\n", f.SizeInBytes(), f.BitsPerKey())
	fmt.Printf("build time:          %v\n", buildTime)
	fmt.Printf("queries:             %d x width %d (%d non-empty, %d empty)\n", *numQueries, *interval, nonEmpty, empty)
	fmt.Printf("query time:          %v (%.0f ns/query)\n", queryTime, float64(queryTime.Nanoseconds())/float64(*numQueries))
	fmt.Printf("theoretical fp rate: %.4f%%\n", f.FalsePositiveRate(uint64(len(keys)), *interval)*100)
	fmt.Printf("empirical fp rate:   %.4f%% (%d / %d)\n", empirical*100, falsePositives, empty)
}
