// Package accum implements the numeric accumulators behind every aggregate node.
//
// An accumulator is resolved from two closed axes:
//
//   - Domain: integer (int64) or floating (float64)
//   - Level: basic (count, sum, min, max), advanced (+ Welford mean and
//     variance), full (+ the raw values)
//
// Merge combines independently built accumulators using the parallel variance
// update of Chan et al., so merging partials in any order and grouping yields
// the statistics of a single accumulator over the union.
//
// Full-level raw values are kept either in a bounded heap (the N smallest
// values) or in an unbounded store that seals every 1024 values into an LZ4 or
// ZSTD compressed block charged to the resource controller.
package accum
