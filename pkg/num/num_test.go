package num

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromString(t *testing.T) {
	tests := []struct {
		in    string
		units int64
	}{
		{"0", 0},
		{"1", Scale},
		{"50000", 50000 * Scale},
		{"0.5", Scale / 2},
		{"1.000000001", Scale + 1},
		{"-2.25", -2*Scale - Scale/4},
		// The tenth fractional digit truncates toward zero.
		{"0.0000000019", 1},
	}
	for _, tc := range tests {
		d, err := FromString(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.units, d.Units(), tc.in)
	}

	_, err := FromString("not-a-number")
	assert.Error(t, err)

	_, err = FromString("99999999999999999999")
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestString(t *testing.T) {
	assert.Equal(t, "0", Dec(0).String())
	assert.Equal(t, "1.5", FromUnits(Scale+Scale/2).String())
	assert.Equal(t, "-1.5", FromUnits(-Scale-Scale/2).String())
	assert.Equal(t, "100", MustFromInt(100).String())
	assert.Equal(t, "0.000000001", FromUnits(1).String())
}

func TestCheckedArithmetic(t *testing.T) {
	a := MustFromInt(3)
	b := MustFromInt(2)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, MustFromInt(5), sum)

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, MustFromInt(1), diff)

	_, err = Dec(math.MaxInt64).Add(1)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = Dec(math.MinInt64).Sub(1)
	assert.ErrorIs(t, err, ErrOverflow)

	p, err := a.MulInt(4)
	require.NoError(t, err)
	assert.Equal(t, MustFromInt(12), p)

	_, err = Dec(math.MaxInt64).MulInt(2)
	assert.ErrorIs(t, err, ErrOverflow)

	q, err := MustFromInt(7).DivInt(2)
	require.NoError(t, err)
	assert.Equal(t, FromUnits(3*Scale + Scale/2), q)

	_, err = a.DivInt(0)
	assert.ErrorIs(t, err, ErrDivisionByZero)

	_, err = FromInt(math.MaxInt64)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestMulDiv(t *testing.T) {
	// floor(150 * 50 / 300) = 25, the pro-rata share from a three-order
	// level.
	q := MustFromInt(150)
	share, err := q.MulDiv(MustFromInt(50), MustFromInt(300))
	require.NoError(t, err)
	assert.Equal(t, MustFromInt(25), share)

	// Intermediate product exceeds 64 bits but the quotient fits.
	big := MustFromInt(4_000_000_000)
	share, err = big.MulDiv(MustFromInt(3), MustFromInt(4))
	require.NoError(t, err)
	assert.Equal(t, MustFromInt(3_000_000_000), share)

	// Truncation, not rounding.
	share, err = MustFromInt(100).MulDiv(MustFromInt(100), MustFromInt(300))
	require.NoError(t, err)
	assert.Equal(t, MustFromInt(33), share)

	_, err = q.MulDiv(MustFromInt(1), 0)
	assert.ErrorIs(t, err, ErrDivisionByZero)

	_, err = q.MulDiv(MustFromInt(-1), MustFromInt(10))
	assert.ErrorIs(t, err, ErrNegative)

	_, err = Dec(math.MaxInt64).MulDiv(Dec(math.MaxInt64), 1)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestRatio(t *testing.T) {
	n, d := MustFromInt(3).Ratio()
	assert.Equal(t, 3*Scale, n)
	assert.Equal(t, Scale, d)
}

func TestTrunc(t *testing.T) {
	lot := MustFromInt(1)
	assert.Equal(t, MustFromInt(33), FromUnits(33*Scale+7).Trunc(lot))
	// Zero step leaves the value untouched.
	assert.Equal(t, FromUnits(33*Scale+7), FromUnits(33*Scale+7).Trunc(0))
	assert.Equal(t, MustFromInt(30), MustFromInt(33).Trunc(MustFromInt(10)))
}

func TestMin(t *testing.T) {
	assert.Equal(t, MustFromInt(2), Min(MustFromInt(2), MustFromInt(3)))
	assert.Equal(t, MustFromInt(2), Min(MustFromInt(3), MustFromInt(2)))
}
