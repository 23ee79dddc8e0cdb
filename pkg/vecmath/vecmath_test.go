package vecmath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVecmath(t *testing.T) {
	a := []float64{3, 4}
	assert.Equal(t, 5.0, Norm(a))
	assert.Equal(t, []float64{0.6, 0.8}, Normalize(a))
	assert.Equal(t, []float64{3, 4}, a, "Normalize must not modify its input")
	assert.Equal(t, []float64{0, 0}, Normalize([]float64{0, 0}))

	assert.Equal(t, 11.0, Dot(a, []float64{1, 2}))
	assert.Zero(t, Dot(a, []float64{1}))

	assert.InDelta(t, 1.0, Cosine(a, []float64{6, 8}), 1e-12)
	assert.InDelta(t, -1.0, Cosine(a, []float64{-3, -4}), 1e-12)
	assert.Zero(t, Cosine(a, []float64{0, 0}))
	assert.Zero(t, Cosine(nil, nil))

	assert.Equal(t, 5.0, Euclidean([]float64{0, 0}, a))
	assert.True(t, math.IsInf(Euclidean(a, []float64{1}), 1))

	dst := []float64{1, 1}
	AXPY(dst, 2, a)
	assert.Equal(t, []float64{7, 9}, dst)
}
