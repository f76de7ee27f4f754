package accum

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/hupe1980/statagg/model"
)

// Number is the set of Go types backing the two numeric domains.
type Number interface {
	int64 | float64
}

// numOps holds the per-domain conversions so Numeric stays free of type switches.
type numOps[T Number] struct {
	domain   model.Domain
	from     func(model.Value) (T, error)
	stat     func(T) model.StatValue
	value    func(T) model.Value
	toBits   func(T) uint64
	fromBits func(uint64) T
}

var intOps = numOps[int64]{
	domain: model.DomainInteger,
	from: func(v model.Value) (int64, error) {
		if v.Kind != model.ValueInt {
			return 0, ErrMismatch
		}
		return v.I64, nil
	},
	stat:     model.IntStat,
	value:    model.Int,
	toBits:   func(v int64) uint64 { return uint64(v) },
	fromBits: func(b uint64) int64 { return int64(b) },
}

var floatOps = numOps[float64]{
	domain: model.DomainFloating,
	from: func(v model.Value) (float64, error) {
		switch v.Kind {
		case model.ValueFloat:
			if math.IsNaN(v.F64) || math.IsInf(v.F64, 0) {
				return 0, ErrInvalidValue
			}
			return v.F64, nil
		case model.ValueInt:
			return float64(v.I64), nil
		}
		return 0, ErrMismatch
	},
	stat:     model.FloatStat,
	value:    model.Float,
	toBits:   math.Float64bits,
	fromBits: math.Float64frombits,
}

const valueSize = 8

func (o numOps[T]) appendValues(dst []byte, vs []T) []byte {
	for _, v := range vs {
		dst = binary.LittleEndian.AppendUint64(dst, o.toBits(v))
	}
	return dst
}

func (o numOps[T]) decodeValues(dst []T, data []byte) ([]T, error) {
	if len(data)%valueSize != 0 {
		return nil, errCorruptBlock
	}
	for i := 0; i < len(data); i += valueSize {
		dst = append(dst, o.fromBits(binary.LittleEndian.Uint64(data[i:])))
	}
	return dst, nil
}

// CheckValue reports whether v can be added to an accumulator of domain d
// without mutating anything.
func CheckValue(d model.Domain, v model.Value) error {
	var err error
	switch d {
	case model.DomainInteger:
		_, err = intOps.from(v)
	case model.DomainFloating:
		_, err = floatOps.from(v)
	default:
		return fmt.Errorf("%w: %d", model.ErrUnknownDomain, d)
	}
	if err != nil {
		return fmt.Errorf("%w: %s value into %s accumulator", err, kindName(v.Kind), d)
	}
	return nil
}
