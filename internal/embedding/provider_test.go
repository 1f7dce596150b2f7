package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestL2Normalize(t *testing.T) {
	t.Run("scales vector to unit length", func(t *testing.T) {
		v := []float32{3, 4}
		l2Normalize(v)
		assert.InDelta(t, float32(0.6), v[0], 1e-6)
		assert.InDelta(t, float32(0.8), v[1], 1e-6)
	})

	t.Run("zero vector is left unchanged", func(t *testing.T) {
		v := []float32{0, 0, 0}
		l2Normalize(v)
		assert.Equal(t, []float32{0, 0, 0}, v)
	})

	t.Run("already-unit vector is a no-op", func(t *testing.T) {
		v := []float32{1, 0}
		l2Normalize(v)
		assert.InDelta(t, float32(1), v[0], 1e-6)
	})
}

func TestValidateDimension(t *testing.T) {
	assert.NoError(t, validateDimension([]float32{1, 2, 3}, 3))
	assert.Error(t, validateDimension([]float32{1, 2}, 3))
	assert.Error(t, validateDimension(nil, 1))
}

func TestRejectBlank(t *testing.T) {
	assert.Error(t, rejectBlank(""))
	assert.Error(t, rejectBlank("   "))
	assert.Error(t, rejectBlank("\t\n"))
	assert.NoError(t, rejectBlank("hello"))
}
