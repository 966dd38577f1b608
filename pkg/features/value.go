package features

import (
	"math"
	"strconv"
)

// Value is a feature value that may be undefined. The zero Value is
// Undefined, which is how the store reports quantities that have no
// mathematical meaning for a track (the confinement index of a track with
// zero path length, for instance). An undefined value is never a NaN or an
// infinity stored as if it were valid.
type Value struct {
	v       float64
	defined bool
}

// Undefined is the sentinel for a feature that cannot be computed.
var Undefined = Value{}

// Defined wraps v. Non-finite inputs become Undefined.
func Defined(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Undefined
	}
	return Value{v: v, defined: true}
}

// IsDefined reports whether the value holds a number.
func (v Value) IsDefined() bool { return v.defined }

// Float64 returns the number and whether it is defined.
func (v Value) Float64() (float64, bool) { return v.v, v.defined }

// Or returns the number, or fallback when undefined.
func (v Value) Or(fallback float64) float64 {
	if !v.defined {
		return fallback
	}
	return v.v
}

func (v Value) String() string {
	if !v.defined {
		return "undefined"
	}
	return strconv.FormatFloat(v.v, 'g', -1, 64)
}

// MarshalJSON encodes undefined values as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.defined {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v.v, 'g', -1, 64), nil
}

// UnmarshalJSON accepts a number or null.
func (v *Value) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = Undefined
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*v = Defined(f)
	return nil
}

// Values maps feature keys to the values computed for one track.
type Values map[string]Value
