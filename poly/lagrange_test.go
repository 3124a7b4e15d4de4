package poly_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NillionNetwork/nilcore/field"
	"github.com/NillionNetwork/nilcore/poly"
)

func TestLagrangeInterpolateAndEval(t *testing.T) {
	m := field.NewModulus(field.U64SafePrime)
	xs := []uint64{2, 8, 3}
	ys := []uint64{10, 5, 10}
	var abscissas []field.Element
	var points []poly.Point
	for i, x := range xs {
		ex := field.FromUint64(m, x)
		abscissas = append(abscissas, ex)
		points = append(points, poly.Point{X: ex, Y: field.FromUint64(m, ys[i])})
	}
	lag, err := poly.NewLagrange(m, abscissas)
	require.NoError(t, err)

	// Ground truth comes from the degree-2 polynomial interpolated directly.
	p, err := poly.LagrangePolynomial(m, points)
	require.NoError(t, err)
	expected := p.Evaluate(field.Zero(m))

	got, err := lag.Interpolate(points)
	require.NoError(t, err)
	assert.True(t, got.Equal(expected))

	got4, err := lag.EvalAt(points, field.FromUint64(m, 4))
	require.NoError(t, err)
	assert.True(t, got4.Equal(p.Evaluate(field.FromUint64(m, 4))))
}

func TestPolynomialDivMod(t *testing.T) {
	m := field.NewModulus(field.U64SafePrime)
	// p(x) = x^2 - 1 = (x-1)(x+1)
	p := poly.New(m, []field.Element{field.FromInt64(m, -1), field.Zero(m), field.One(m)})
	divisor := poly.New(m, []field.Element{field.FromInt64(m, -1), field.One(m)})
	q, r, err := p.DivMod(divisor)
	require.NoError(t, err)
	assert.True(t, r.Evaluate(field.Zero(m)).IsZero())
	assert.True(t, q.Evaluate(field.One(m)).Equal(field.FromUint64(m, 2)))
}
