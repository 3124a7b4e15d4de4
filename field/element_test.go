package field_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NillionNetwork/nilcore/field"
)

func TestAddSubInverse(t *testing.T) {
	m := field.NewModulus(field.U64SafePrime)
	a := field.FromUint64(m, 42)
	b := field.FromUint64(m, 13)

	sum := a.Add(b)
	assert.True(t, sum.Sub(b).Equal(a))

	neg := a.Neg()
	assert.True(t, a.Add(neg).IsZero())

	inv := a.Inverse()
	assert.True(t, a.Mul(inv).Equal(field.One(m)))
}

func TestDivByZero(t *testing.T) {
	m := field.NewModulus(field.U64SafePrime)
	a := field.FromUint64(m, 7)
	_, err := a.Div(field.Zero(m))
	require.Error(t, err)
}

func TestRightShift(t *testing.T) {
	m := field.NewModulus(field.U64SafePrime)
	x := field.FromUint64(m, 20)
	got, err := x.RightShift(1)
	require.NoError(t, err)
	assert.True(t, got.Equal(field.FromUint64(m, 10)))

	x2 := field.FromUint64(m, 12)
	got2, err := x2.RightShift(2)
	require.NoError(t, err)
	assert.True(t, got2.Equal(field.FromUint64(m, 3)))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	m := field.NewModulus(field.U256SafePrime)
	a := field.FromUint64(m, 123456789)
	encoded := a.Encode()
	decoded, err := field.Decode(encoded)
	require.NoError(t, err)
	assert.True(t, a.Equal(decoded))
}

func TestLessThan(t *testing.T) {
	m := field.NewModulus(field.U64SafePrime)
	assert.True(t, field.FromUint64(m, 3).LessThan(field.FromUint64(m, 5)))
	assert.False(t, field.FromUint64(m, 10).LessThan(field.FromUint64(m, 7)))
	assert.False(t, field.FromUint64(m, 5).LessThan(field.FromUint64(m, 5)))
	assert.True(t, field.FromInt64(m, -1).LessThan(field.FromUint64(m, 0)))
}

func TestDecodeModuloMismatch(t *testing.T) {
	m64 := field.NewModulus(field.U64SafePrime)
	a := field.FromUint64(m64, 5)
	encoded := a.Encode()
	_, err := field.DecodeWithModulus(encoded, field.NewModulus(field.U256SafePrime))
	require.Error(t, err)
}
