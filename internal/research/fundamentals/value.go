package fundamentals

import (
	"encoding/json"
	"math"
	"strconv"
)

// Value is a numeric observation that may be not-available. The zero Value
// is not-available, which is distinct from Of(0).
type Value struct {
	v  float64
	ok bool
}

// NA is the not-available marker.
var NA = Value{}

// Of wraps f. NaN and infinities are not observations and become NA.
func Of(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return NA
	}
	return Value{v: f, ok: true}
}

// Valid reports whether the value is available.
func (x Value) Valid() bool { return x.ok }

// Float64 returns the raw value and whether it is available.
func (x Value) Float64() (float64, bool) { return x.v, x.ok }

// OrZero returns the value, or 0 when not-available.
func (x Value) OrZero() float64 {
	if !x.ok {
		return 0
	}
	return x.v
}

// Or returns x when available, otherwise fallback.
func (x Value) Or(fallback Value) Value {
	if x.ok {
		return x
	}
	return fallback
}

func (x Value) Add(y Value) Value {
	if !x.ok || !y.ok {
		return NA
	}
	return Of(x.v + y.v)
}

func (x Value) Sub(y Value) Value {
	if !x.ok || !y.ok {
		return NA
	}
	return Of(x.v - y.v)
}

func (x Value) Mul(y Value) Value {
	if !x.ok || !y.ok {
		return NA
	}
	return Of(x.v * y.v)
}

// Div is NA when either side is NA or the divisor is exactly zero.
func (x Value) Div(y Value) Value {
	if !x.ok || !y.ok || y.v == 0 {
		return NA
	}
	return Of(x.v / y.v)
}

// PercentChange is (cur - prev) / prev * 100.
func PercentChange(prev, cur Value) Value {
	return cur.Sub(prev).Div(prev).Mul(Of(100))
}

func (x Value) String() string {
	if !x.ok {
		return "NA"
	}
	return strconv.FormatFloat(x.v, 'f', -1, 64)
}

func (x Value) MarshalJSON() ([]byte, error) {
	if !x.ok {
		return []byte("null"), nil
	}
	return json.Marshal(x.v)
}

func (x *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*x = NA
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*x = Of(f)
	return nil
}
