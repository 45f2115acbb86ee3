// Package num implements the fixed-scale decimal used for every price and
// quantity in the engine: a signed 64-bit count of 1e-9 units. Additions and
// comparisons are native integer operations; anything that can overflow
// reports it instead of wrapping.
package num

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fixed-point units per whole unit.
const Scale int64 = 1_000_000_000

const scaleDigits = 9

var (
	ErrOverflow       = errors.New("fixed-decimal overflow")
	ErrDivisionByZero = errors.New("division by zero")
	ErrNegative       = errors.New("negative operand")
)

// Dec is a fixed-scale decimal: the int64 value is a count of 1e-9 units.
// The zero value is 0. Ordering and equality work directly on the type.
type Dec int64

// FromUnits wraps a raw count of 1e-9 units.
func FromUnits(units int64) Dec { return Dec(units) }

// FromInt converts a whole number, failing on overflow.
func FromInt(i int64) (Dec, error) {
	if i > math.MaxInt64/Scale || i < math.MinInt64/Scale {
		return 0, ErrOverflow
	}
	return Dec(i * Scale), nil
}

// MustFromInt is FromInt for values known to fit, such as literals.
func MustFromInt(i int64) Dec {
	d, err := FromInt(i)
	if err != nil {
		panic(err)
	}
	return d
}

// FromString parses a decimal string. Fractional digits beyond the ninth are
// truncated toward zero.
func FromString(s string) (Dec, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	shifted := d.Truncate(scaleDigits).Shift(scaleDigits).BigInt()
	if !shifted.IsInt64() {
		return 0, ErrOverflow
	}
	return Dec(shifted.Int64()), nil
}

// Units returns the raw count of 1e-9 units.
func (d Dec) Units() int64 { return int64(d) }

func (d Dec) IsZero() bool     { return d == 0 }
func (d Dec) IsPositive() bool { return d > 0 }
func (d Dec) IsNegative() bool { return d < 0 }

// Add returns d+o, failing on overflow.
func (d Dec) Add(o Dec) (Dec, error) {
	sum := d + o
	if (o > 0 && sum < d) || (o < 0 && sum > d) {
		return 0, ErrOverflow
	}
	return sum, nil
}

// Sub returns d-o, failing on overflow.
func (d Dec) Sub(o Dec) (Dec, error) {
	diff := d - o
	if (o < 0 && diff < d) || (o > 0 && diff > d) {
		return 0, ErrOverflow
	}
	return diff, nil
}

// MulInt returns d*n, failing on overflow.
func (d Dec) MulInt(n int64) (Dec, error) {
	if d == 0 || n == 0 {
		return 0, nil
	}
	p := int64(d) * n
	if p/n != int64(d) {
		return 0, ErrOverflow
	}
	return Dec(p), nil
}

// DivInt returns d/n truncated toward zero.
func (d Dec) DivInt(n int64) (Dec, error) {
	if n == 0 {
		return 0, ErrDivisionByZero
	}
	return Dec(int64(d) / n), nil
}

// Ratio exposes the exact rational form units/Scale for callers that need to
// carry on with their own exact arithmetic.
func (d Dec) Ratio() (numerator, denominator int64) {
	return int64(d), Scale
}

// MulDiv computes floor(d*mul/div) with an exact 128-bit intermediate
// product; the quotient is floored to a whole unit (a multiple of Scale).
// All three operands must be non-negative; div must be non-zero. This is
// the pro-rata primitive.
func (d Dec) MulDiv(mul, div Dec) (Dec, error) {
	if d < 0 || mul < 0 || div < 0 {
		return 0, ErrNegative
	}
	if div == 0 {
		return 0, ErrDivisionByZero
	}
	hi, lo := bits.Mul64(uint64(d), uint64(mul))
	if hi >= uint64(div) {
		return 0, ErrOverflow
	}
	q, _ := bits.Div64(hi, lo, uint64(div))
	if q > math.MaxInt64 {
		return 0, ErrOverflow
	}
	return Dec(q).Trunc(Dec(Scale)), nil
}

// Trunc rounds d down to a multiple of step. A zero step leaves d untouched.
// Negative values are truncated toward zero.
func (d Dec) Trunc(step Dec) Dec {
	if step <= 0 {
		return d
	}
	return d - d%step
}

// Min returns the smaller of a and b.
func Min(a, b Dec) Dec {
	if a < b {
		return a
	}
	return b
}

// String renders the decimal with trailing fractional zeros trimmed.
func (d Dec) String() string {
	units := int64(d)
	sign := ""
	if units < 0 {
		sign = "-"
		units = -units
	}
	whole := units / Scale
	frac := units % Scale
	if frac == 0 {
		return fmt.Sprintf("%s%d", sign, whole)
	}
	fracStr := strings.TrimRight(fmt.Sprintf("%09d", frac), "0")
	return fmt.Sprintf("%s%d.%s", sign, whole, fracStr)
}
