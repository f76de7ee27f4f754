package accum

import (
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/statagg/model"
	"github.com/hupe1980/statagg/resource"
)

var (
	// ErrMismatch is returned when values or accumulators of different domain/level meet.
	ErrMismatch = errors.New("accumulator mismatch")

	// ErrInvalidValue is returned for values that cannot be accumulated (NaN, ±Inf).
	ErrInvalidValue = errors.New("invalid value")
)

// Accumulator summarizes every value seen for one bucket.
//
// Accumulators are single-writer and NOT thread-safe.
type Accumulator interface {
	Domain() model.Domain
	Level() model.Level
	// Count returns the number of values accumulated.
	Count() int64
	// Add accumulates one value.
	Add(v model.Value) error
	// Merge folds other into the receiver. other must have the same domain,
	// level and bound, and must not be used afterwards.
	Merge(other Accumulator) error
	// Stat extracts one statistic.
	Stat(item model.StatItem) (model.StatValue, error)
	// Extract extracts several statistics.
	Extract(items []model.StatItem) (map[model.StatItem]model.StatValue, error)
	// Release returns memory charged to the resource controller.
	Release()
}

// Config configures an accumulator.
type Config struct {
	Domain model.Domain
	Level  model.Level
	// MaxValues bounds the raw values kept at LevelFull (0 = unbounded).
	MaxValues   int
	Compression Compression
	Controller  *resource.Controller
}

// New creates an accumulator for the configured domain and level.
func New(cfg Config) (Accumulator, error) {
	if !cfg.Level.Valid() {
		return nil, fmt.Errorf("%w: %d", model.ErrUnknownLevel, cfg.Level)
	}
	switch cfg.Domain {
	case model.DomainInteger:
		return newNumeric(intOps, cfg), nil
	case model.DomainFloating:
		return newNumeric(floatOps, cfg), nil
	default:
		return nil, fmt.Errorf("%w: %d", model.ErrUnknownDomain, cfg.Domain)
	}
}

// Numeric is the accumulator for one numeric domain.
type Numeric[T Number] struct {
	ops       numOps[T]
	level     model.Level
	maxValues int

	n        int64
	sum      T
	min, max T

	// Welford running moments (LevelAdvanced and up).
	mean float64
	m2   float64

	raw valueStore[T] // LevelFull only
}

func newNumeric[T Number](ops numOps[T], cfg Config) *Numeric[T] {
	a := &Numeric[T]{
		ops:       ops,
		level:     cfg.Level,
		maxValues: cfg.MaxValues,
	}
	if cfg.Level == model.LevelFull {
		if cfg.MaxValues > 0 {
			a.raw = newBoundedStore[T](cfg.MaxValues)
		} else {
			a.raw = newBlockStore(ops, cfg.Compression, cfg.Controller)
		}
	}
	return a
}

func (a *Numeric[T]) Domain() model.Domain { return a.ops.domain }
func (a *Numeric[T]) Level() model.Level   { return a.level }
func (a *Numeric[T]) Count() int64         { return a.n }

func (a *Numeric[T]) Add(v model.Value) error {
	x, err := a.ops.from(v)
	if err != nil {
		return fmt.Errorf("%w: %s value into %s accumulator", err, kindName(v.Kind), a.ops.domain)
	}

	// The raw store is the only step that can fail; run it first so a failed
	// add leaves the accumulator untouched.
	if a.raw != nil {
		if err := a.raw.add(x); err != nil {
			return err
		}
	}

	a.n++
	a.sum += x
	if a.n == 1 {
		a.min, a.max = x, x
	} else {
		a.min = min(a.min, x)
		a.max = max(a.max, x)
	}

	if a.level >= model.LevelAdvanced {
		f := float64(x)
		delta := f - a.mean
		a.mean += delta / float64(a.n)
		a.m2 += delta * (f - a.mean)
	}
	return nil
}

func (a *Numeric[T]) Merge(other Accumulator) error {
	if other == nil {
		return fmt.Errorf("%w: nil accumulator", ErrMismatch)
	}
	o, ok := other.(*Numeric[T])
	if !ok || o.level != a.level || o.maxValues != a.maxValues {
		return fmt.Errorf("%w: cannot merge %s/%s into %s/%s",
			ErrMismatch, other.Domain(), other.Level(), a.ops.domain, a.level)
	}
	if o == a {
		return fmt.Errorf("%w: accumulator merged into itself", ErrMismatch)
	}
	if o.n == 0 {
		return nil
	}

	if a.raw != nil {
		a.raw.merge(o.raw)
	}

	if a.n == 0 {
		a.n, a.sum, a.min, a.max = o.n, o.sum, o.min, o.max
		a.mean, a.m2 = o.mean, o.m2
		return nil
	}

	n1, n2 := float64(a.n), float64(o.n)
	n := n1 + n2

	a.sum += o.sum
	a.min = min(a.min, o.min)
	a.max = max(a.max, o.max)

	if a.level >= model.LevelAdvanced {
		// Chan et al. parallel update.
		delta := o.mean - a.mean
		a.mean += delta * n2 / n
		a.m2 += o.m2 + delta*delta*n1*n2/n
	}
	a.n += o.n
	return nil
}

func (a *Numeric[T]) Stat(item model.StatItem) (model.StatValue, error) {
	if !item.AvailableAt(a.level) {
		if _, err := item.Level(); err != nil {
			return model.NoData(), err
		}
		return model.NoData(), fmt.Errorf("%w: %q is not available at level %s",
			model.ErrUnknownStatItem, string(item), a.level)
	}

	switch item {
	case model.StatCount:
		return model.IntStat(a.n), nil
	case model.StatSum:
		if math.IsNaN(float64(a.sum)) {
			return model.NoData(), nil
		}
		return a.ops.stat(a.sum), nil
	}

	if a.n == 0 {
		if item == model.StatValues {
			return model.ListStat(nil), nil
		}
		return model.NoData(), nil
	}

	switch item {
	case model.StatMin:
		return a.ops.stat(a.min), nil
	case model.StatMax:
		return a.ops.stat(a.max), nil
	case model.StatMean:
		return moment(a.mean), nil
	case model.StatVariance:
		return moment(a.variance()), nil
	case model.StatStdDev:
		return moment(math.Sqrt(a.variance())), nil
	case model.StatSampleVariance:
		if a.n < 2 {
			return model.NoData(), nil
		}
		return moment(math.Max(a.m2, 0) / float64(a.n-1)), nil
	case model.StatValues:
		vs, err := a.raw.sorted()
		if err != nil {
			return model.NoData(), err
		}
		out := make([]model.Value, len(vs))
		for i, v := range vs {
			out[i] = a.ops.value(v)
		}
		return model.ListStat(out), nil
	case model.StatMedian:
		if a.raw.truncated() {
			return model.NoData(), nil
		}
		vs, err := a.raw.sorted()
		if err != nil {
			return model.NoData(), err
		}
		return a.median(vs), nil
	case model.StatDistinct:
		if a.raw.truncated() {
			return model.NoData(), nil
		}
		vs, err := a.raw.sorted()
		if err != nil {
			return model.NoData(), err
		}
		return model.IntStat(distinct(vs)), nil
	}
	return model.NoData(), fmt.Errorf("%w: %q", model.ErrUnknownStatItem, string(item))
}

func (a *Numeric[T]) Extract(items []model.StatItem) (map[model.StatItem]model.StatValue, error) {
	out := make(map[model.StatItem]model.StatValue, len(items))
	for _, it := range items {
		v, err := a.Stat(it)
		if err != nil {
			return nil, err
		}
		out[it] = v
	}
	return out, nil
}

func (a *Numeric[T]) Release() {
	if a.raw != nil {
		a.raw.release()
	}
}

// moment reports NoData for moments that overflowed the float64 range.
func moment(f float64) model.StatValue {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return model.NoData()
	}
	return model.FloatStat(f)
}

// variance is the population variance; rounding can push m2 slightly below zero.
func (a *Numeric[T]) variance() float64 {
	return math.Max(a.m2, 0) / float64(a.n)
}

func (a *Numeric[T]) median(sorted []T) model.StatValue {
	n := len(sorted)
	if n == 0 {
		return model.NoData()
	}
	if n%2 == 1 {
		return a.ops.stat(sorted[n/2])
	}
	lo, hi := float64(sorted[n/2-1]), float64(sorted[n/2])
	return model.FloatStat(lo + (hi-lo)/2)
}

func distinct[T Number](sorted []T) int64 {
	var d int64
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			d++
		}
	}
	return d
}

func kindName(k model.ValueKind) string {
	switch k {
	case model.ValueInt:
		return "integer"
	case model.ValueFloat:
		return "floating"
	default:
		return "invalid"
	}
}
