package testutil

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/hupe1980/statagg/model"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Shuffle pseudo-randomizes the order of n elements.
func (r *RNG) Shuffle(n int, swap func(i, j int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Shuffle(n, swap)
}

// GaussianValues returns n normally distributed values.
func (r *RNG) GaussianValues(n int, mean, stddev float64) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]float64, n)
	for i := range out {
		out[i] = mean + r.rand.NormFloat64()*stddev
	}
	return out
}

// IntValues returns n integers uniformly drawn from [lo, hi).
func (r *RNG) IntValues(n int, lo, hi int64) []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int64, n)
	for i := range out {
		out[i] = lo + r.rand.Int63n(hi-lo)
	}
	return out
}

// Zipf returns a Zipfian-distributed value in [0, n).
// Uses Zipf's law: P(k) ∝ 1/k^s where s is the skew parameter.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zipfLocked(n, s)
}

// zipfLocked is the internal implementation (caller must hold lock).
func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	// Compute normalization constant (harmonic number with exponent s)
	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	// Sample from uniform and use inverse transform
	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1 // 0-indexed
		}
	}

	return n - 1
}

// Key returns the string group key used for bucket i.
func Key(i int) model.GroupKey {
	return model.StringKey(fmt.Sprintf("k%03d", i))
}

// Documents generates n documents with sequential IDs, Zipf-skewed string keys
// over keyCount buckets and uniform floating values in [0, 100).
func (r *RNG) Documents(n, keyCount int, skew float64) []model.Document {
	docs := make([]model.Document, n)
	for i := range docs {
		k := Key(r.Zipf(keyCount, skew))
		docs[i] = model.Document{
			ID:    uint32(i),
			Key:   &k,
			Value: model.Float(r.Float64() * 100),
		}
	}
	return docs
}

// Partition splits indexes [0, n) into parts non-empty random groups (parts <= n).
func (r *RNG) Partition(n, parts int) [][]int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	r.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

	// Pick parts-1 distinct cut points in (0, n).
	cuts := map[int]bool{}
	for len(cuts) < parts-1 {
		cuts[1+r.Intn(n-1)] = true
	}
	out := make([][]int, 0, parts)
	start := 0
	for i := 1; i <= n; i++ {
		if i == n || cuts[i] {
			out = append(out, idx[start:i])
			start = i
		}
	}
	return out
}

// TwoPassVariance computes the mean and population variance with the textbook
// two-pass formula.
func TwoPassVariance(values []float64) (mean, variance float64) {
	if len(values) == 0 {
		return math.NaN(), math.NaN()
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	return mean, variance / float64(len(values))
}

// RelErr returns |got-want| relative to |want| (absolute when want is 0).
func RelErr(got, want float64) float64 {
	if want == 0 {
		return math.Abs(got)
	}
	return math.Abs(got-want) / math.Abs(want)
}
