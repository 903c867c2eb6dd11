package value

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedIntegerBounds(t *testing.T) {
	cases := []struct {
		width   IntWidth
		value   int64
		wantErr bool
	}{
		{U8, 255, false},
		{U8, 256, true},
		{U8, -1, true},
		{I8, 127, false},
		{I8, 128, true},
		{I8, -128, false},
		{I8, -129, true},
	}
	for _, tc := range cases {
		_, err := NewTypedInteger(tc.width, big.NewInt(tc.value))
		if tc.wantErr {
			assert.ErrorIs(t, err, ErrIntegerOverflow, "width=%s value=%d", tc.width, tc.value)
		} else {
			assert.NoError(t, err, "width=%s value=%d", tc.width, tc.value)
		}
	}
}

func TestTypedIntegerU128RoundTrip(t *testing.T) {
	max := new(big.Int).Lsh(big.NewInt(1), 128)
	max.Sub(max, big.NewInt(1))
	ti, err := NewTypedInteger(U128, max)
	require.NoError(t, err)
	assert.Equal(t, 0, ti.BigInt().Cmp(max))

	over := new(big.Int).Add(max, big.NewInt(1))
	_, err = NewTypedInteger(U128, over)
	assert.ErrorIs(t, err, ErrIntegerOverflow)
}

func TestIntegerArbitraryPrecision(t *testing.T) {
	huge, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	require.True(t, ok)
	i := NewInteger(huge)
	assert.Equal(t, huge.String(), i.String())
}

func TestDecimalSpecialValues(t *testing.T) {
	assert.True(t, NaN.IsNaN())
	assert.False(t, PositiveInfinity.IsNaN())
	assert.Equal(t, DecimalInfPos, PositiveInfinity.DKind)
	assert.Equal(t, DecimalInfNeg, NegativeInfinity.DKind)
}

func TestFractionDecimal(t *testing.T) {
	d := NewFractionDecimal(big.NewInt(1), big.NewInt(3))
	assert.Equal(t, DecimalFraction, d.DKind)
	assert.Equal(t, 0, d.Numerator.Cmp(big.NewInt(1)))
	assert.Equal(t, 0, d.Denominator.Cmp(big.NewInt(3)))
}
