// Package testutil provides testing utilities for statagg.
//
// This package is intended for use in tests and benchmarks only.
// It provides deterministic generators for values, skewed group keys and
// documents, partition helpers for merge tests, and reference statistics.
//
// # Random Data Generation
//
//	rng := testutil.NewRNG(seed)
//	vals := rng.GaussianValues(1000, 50, 10)
//	docs := rng.Documents(1000, 32, 1.2) // Zipf-skewed string keys
//
// # Reference Statistics
//
//	mean, variance := testutil.TwoPassVariance(vals)
package testutil
