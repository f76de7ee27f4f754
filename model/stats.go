package model

import (
	"cmp"
	"errors"
	"fmt"
	"strconv"
)

// ErrUnknownStatItem is returned when a stat item name is not recognized.
var ErrUnknownStatItem = errors.New("unknown stat item")

// StatItem names one statistic.
type StatItem string

const (
	StatCount          StatItem = "count"
	StatSum            StatItem = "sum"
	StatMin            StatItem = "min"
	StatMax            StatItem = "max"
	StatMean           StatItem = "mean"
	StatVariance       StatItem = "variance"
	StatSampleVariance StatItem = "sample_variance"
	StatStdDev         StatItem = "stddev"
	StatValues         StatItem = "values"
	StatMedian         StatItem = "median"
	StatDistinct       StatItem = "distinct"
)

// SortByKey sorts entries by their GroupKey instead of a statistic.
const SortByKey StatItem = "_key"

var statLevels = map[StatItem]Level{
	StatCount:          LevelBasic,
	StatSum:            LevelBasic,
	StatMin:            LevelBasic,
	StatMax:            LevelBasic,
	StatMean:           LevelAdvanced,
	StatVariance:       LevelAdvanced,
	StatSampleVariance: LevelAdvanced,
	StatStdDev:         LevelAdvanced,
	StatValues:         LevelFull,
	StatMedian:         LevelFull,
	StatDistinct:       LevelFull,
}

// Level returns the minimum level providing the item.
func (s StatItem) Level() (Level, error) {
	l, ok := statLevels[s]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownStatItem, string(s))
	}
	return l, nil
}

// AvailableAt reports whether the item is known and provided at level l.
func (s StatItem) AvailableAt(l Level) bool {
	min, ok := statLevels[s]
	return ok && min <= l
}

// Scalar reports whether the item yields a single number usable for sorting.
func (s StatItem) Scalar() bool { return s != StatValues }

// ItemsAt returns every stat item available at level l.
func ItemsAt(l Level) []StatItem {
	all := []StatItem{
		StatCount, StatSum, StatMin, StatMax,
		StatMean, StatVariance, StatSampleVariance, StatStdDev,
		StatValues, StatMedian, StatDistinct,
	}
	out := make([]StatItem, 0, len(all))
	for _, it := range all {
		if it.AvailableAt(l) {
			out = append(out, it)
		}
	}
	return out
}

// StatKind is the kind of a StatValue.
type StatKind uint8

const (
	// StatNoData marks a statistic that is undefined for the data seen (e.g. mean of nothing).
	StatNoData StatKind = iota
	StatInt
	StatFloat
	StatList
)

// StatValue is one extracted statistic.
// The zero value is the NoData sentinel.
type StatValue struct {
	Kind   StatKind
	I64    int64
	F64    float64
	Values []Value
}

// NoData returns the explicit empty statistic.
func NoData() StatValue { return StatValue{} }

// IntStat returns an integer statistic.
func IntStat(v int64) StatValue { return StatValue{Kind: StatInt, I64: v} }

// FloatStat returns a floating statistic.
func FloatStat(v float64) StatValue { return StatValue{Kind: StatFloat, F64: v} }

// ListStat returns a raw value list statistic.
func ListStat(vs []Value) StatValue { return StatValue{Kind: StatList, Values: vs} }

// IsNoData reports whether v is the NoData sentinel.
func (v StatValue) IsNoData() bool { return v.Kind == StatNoData }

// Float64 returns a scalar statistic as float64. NoData and lists report false.
func (v StatValue) Float64() (float64, bool) {
	switch v.Kind {
	case StatInt:
		return float64(v.I64), true
	case StatFloat:
		return v.F64, true
	}
	return 0, false
}

// Compare orders two scalar statistics. Integers compare exactly.
// NoData orders after every value; lists compare by length.
func (v StatValue) Compare(other StatValue) int {
	if v.Kind == StatNoData || other.Kind == StatNoData {
		return cmp.Compare(noDataRank(v), noDataRank(other))
	}
	if v.Kind == StatInt && other.Kind == StatInt {
		return cmp.Compare(v.I64, other.I64)
	}
	if v.Kind == StatList || other.Kind == StatList {
		return cmp.Compare(len(v.Values), len(other.Values))
	}
	a, _ := v.Float64()
	b, _ := other.Float64()
	return cmp.Compare(a, b)
}

func noDataRank(v StatValue) int {
	if v.Kind == StatNoData {
		return 1
	}
	return 0
}

func (v StatValue) String() string {
	switch v.Kind {
	case StatInt:
		return strconv.FormatInt(v.I64, 10)
	case StatFloat:
		return strconv.FormatFloat(v.F64, 'g', -1, 64)
	case StatList:
		return fmt.Sprintf("%v", v.Values)
	default:
		return "nodata"
	}
}

// Direction is the sort direction of the primary comparison.
type Direction uint8

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// SortSpec configures ordering and windowing of one nesting level.
type SortSpec struct {
	Item      StatItem
	Direction Direction
	// Start is the number of sorted entries to skip.
	Start int
	// Number caps the number of entries returned. Nil means unbounded.
	Number *int
}

// Limit returns a pointer to n for SortSpec.Number.
func Limit(n int) *int { return &n }

// Window returns the start offset and the exclusive end of the window for size entries.
func (s *SortSpec) Window(size int) (start, end int) {
	if s == nil {
		return 0, size
	}
	start = min(max(s.Start, 0), size)
	end = size
	if s.Number != nil {
		if n := max(*s.Number, 0); n < size-start {
			end = start + n
		}
	}
	return start, end
}

// CollectorSpec describes one nesting level of a collector.
// Sub links to the spec of the next level, if any.
type CollectorSpec struct {
	Mode   Mode
	Domain Domain
	Level  Level
	// Items are the statistics reported in results for this level.
	Items []StatItem
	Sort  *SortSpec
	// MaxValues bounds the raw values retained at LevelFull. 0 keeps every value.
	MaxValues int
	Sub       *CollectorSpec
}

// Chain folds per-level specs into one recursive spec, outermost level first.
// The inputs are copied; their Sub fields are ignored.
func Chain(levels ...CollectorSpec) *CollectorSpec {
	var head *CollectorSpec
	for i := len(levels) - 1; i >= 0; i-- {
		s := levels[i]
		s.Sub = head
		head = &s
	}
	return head
}

// Depth returns the number of nesting levels.
func (s *CollectorSpec) Depth() int {
	d := 0
	for cur := s; cur != nil; cur = cur.Sub {
		d++
	}
	return d
}

// SameShape reports whether two specs accumulate compatible state at every level.
// Items and Sort only affect result extraction and are not compared.
func (s *CollectorSpec) SameShape(other *CollectorSpec) bool {
	a, b := s, other
	for a != nil && b != nil {
		if a.Mode != b.Mode || a.Domain != b.Domain || a.Level != b.Level || a.MaxValues != b.MaxValues {
			return false
		}
		a, b = a.Sub, b.Sub
	}
	return a == nil && b == nil
}

// Result is one node of the ordered result tree.
type Result struct {
	// Key is nil for the root and for data-mode nodes.
	Key      *GroupKey
	Stats    map[StatItem]StatValue
	Children []Result
}
