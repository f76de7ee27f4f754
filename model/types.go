package model

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrUnknownMode is returned when a mode name or value is not recognized.
	ErrUnknownMode = errors.New("unknown mode")

	// ErrUnknownDomain is returned when a numeric domain is not recognized.
	ErrUnknownDomain = errors.New("unknown numeric domain")

	// ErrUnknownLevel is returned when a stats level is not recognized.
	ErrUnknownLevel = errors.New("unknown stats level")
)

// SegmentID identifies the index segment a partial was computed on.
type SegmentID uint64

// MergedSegmentID tags collectors produced by merging partials.
const MergedSegmentID SegmentID = math.MaxUint64

// String returns a string representation of the SegmentID.
func (s SegmentID) String() string {
	if s == MergedSegmentID {
		return "merged"
	}
	return strconv.FormatUint(uint64(s), 10)
}

// Mode selects between a single scalar aggregate and a keyed aggregation tree.
type Mode uint8

const (
	// ModeData aggregates every value into one root node without a group key.
	ModeData Mode = iota + 1
	// ModeList aggregates values into one node per group key.
	ModeList
)

func (m Mode) String() string {
	switch m {
	case ModeData:
		return "data"
	case ModeList:
		return "list"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool { return m == ModeData || m == ModeList }

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "data":
		return ModeData, nil
	case "list":
		return ModeList, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Domain is the numeric domain values are accumulated in.
type Domain uint8

const (
	// DomainInteger accumulates int64 values.
	DomainInteger Domain = iota + 1
	// DomainFloating accumulates float64 values.
	DomainFloating
)

func (d Domain) String() string {
	switch d {
	case DomainInteger:
		return "integer"
	case DomainFloating:
		return "floating"
	default:
		return fmt.Sprintf("Domain(%d)", uint8(d))
	}
}

// Valid reports whether d is a known domain.
func (d Domain) Valid() bool { return d == DomainInteger || d == DomainFloating }

// ParseDomain parses a domain name. "int", "long", "float" and "double" are accepted aliases.
func ParseDomain(s string) (Domain, error) {
	switch strings.ToLower(s) {
	case "integer", "int", "long":
		return DomainInteger, nil
	case "floating", "float", "double":
		return DomainFloating, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDomain, s)
}

// Level is the precision level of an accumulator.
// Each level provides every statistic of the levels below it.
type Level uint8

const (
	// LevelBasic tracks count, sum, min and max.
	LevelBasic Level = iota + 1
	// LevelAdvanced additionally tracks a running mean and variance.
	LevelAdvanced
	// LevelFull additionally retains the raw values.
	LevelFull
)

func (l Level) String() string {
	switch l {
	case LevelBasic:
		return "basic"
	case LevelAdvanced:
		return "advanced"
	case LevelFull:
		return "full"
	default:
		return fmt.Sprintf("Level(%d)", uint8(l))
	}
}

// Valid reports whether l is a known level.
func (l Level) Valid() bool { return l >= LevelBasic && l <= LevelFull }

// ParseLevel parses a level name.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "basic":
		return LevelBasic, nil
	case "advanced":
		return LevelAdvanced, nil
	case "full":
		return LevelFull, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}

// KeyKind is the kind of a GroupKey.
type KeyKind uint8

const (
	// KeyInt is an integer group key.
	KeyInt KeyKind = iota + 1
	// KeyString is a string group key.
	KeyString
)

// GroupKey identifies one aggregation bucket.
// It is comparable and can be used as a map key.
type GroupKey struct {
	kind KeyKind
	i    int64
	s    string
}

// IntKey returns an integer group key.
func IntKey(v int64) GroupKey { return GroupKey{kind: KeyInt, i: v} }

// StringKey returns a string group key.
func StringKey(s string) GroupKey { return GroupKey{kind: KeyString, s: s} }

// Kind returns the kind of the key.
func (k GroupKey) Kind() KeyKind { return k.kind }

// Int returns the integer value of an integer key.
func (k GroupKey) Int() int64 { return k.i }

// Str returns the string value of a string key.
func (k GroupKey) Str() string { return k.s }

// Compare orders keys naturally: integer keys before string keys, then by value.
func (k GroupKey) Compare(other GroupKey) int {
	if c := cmp.Compare(k.kind, other.kind); c != 0 {
		return c
	}
	if k.kind == KeyInt {
		return cmp.Compare(k.i, other.i)
	}
	return strings.Compare(k.s, other.s)
}

func (k GroupKey) String() string {
	switch k.kind {
	case KeyInt:
		return strconv.FormatInt(k.i, 10)
	case KeyString:
		return k.s
	default:
		return "<nil>"
	}
}

// Ptr returns a pointer to a copy of k, convenient for optional key arguments.
func (k GroupKey) Ptr() *GroupKey { return &k }

// ValueKind is the kind of a Value.
type ValueKind uint8

const (
	// ValueInt is an int64 value.
	ValueInt ValueKind = iota + 1
	// ValueFloat is a float64 value.
	ValueFloat
)

// Value is a tagged number supplied by the traversal layer.
type Value struct {
	Kind ValueKind
	I64  int64
	F64  float64
}

// Int returns an integer value.
func Int(v int64) Value { return Value{Kind: ValueInt, I64: v} }

// Float returns a floating value.
func Float(v float64) Value { return Value{Kind: ValueFloat, F64: v} }

// Float64 returns v as float64, widening integers.
func (v Value) Float64() float64 {
	if v.Kind == ValueInt {
		return float64(v.I64)
	}
	return v.F64
}

func (v Value) String() string {
	switch v.Kind {
	case ValueInt:
		return strconv.FormatInt(v.I64, 10)
	case ValueFloat:
		return strconv.FormatFloat(v.F64, 'g', -1, 64)
	default:
		return "<invalid>"
	}
}

// Entry is a nested value forwarded into a child collector.
// Key must be nil for data-mode children and set for list-mode children.
type Entry struct {
	Key   *GroupKey
	Value Value
	Sub   []Entry
}

// Document is one visited document as supplied by the traversal layer.
type Document struct {
	// ID is the document identifier used for boundary ownership checks.
	ID    uint32
	Key   *GroupKey
	Value Value
	Sub   []Entry
}
