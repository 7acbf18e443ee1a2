package mathx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVecBasics(t *testing.T) {
	a := V3(1, 2, 3)
	b := V3(4, 5, 6)

	assert.Equal(t, V3(5, 7, 9), a.Add(b))
	assert.Equal(t, V3(-3, -3, -3), a.Sub(b))
	assert.Equal(t, V3(2, 4, 6), a.Scale(2))
	assert.InDelta(t, 32.0, a.Dot(b), 1e-12)
}

func TestNormalize(t *testing.T) {
	v := V3(3, 0, 4).Normalize()
	assert.InDelta(t, 1.0, v.Length(), 1e-12)
	assert.InDelta(t, 0.6, v.X, 1e-12)
	assert.InDelta(t, 0.8, v.Z, 1e-12)

	assert.Equal(t, Vec3{}, Vec3{}.Normalize())
}

func TestCrossIsOrthogonal(t *testing.T) {
	a := V3(1, 2, 3)
	b := V3(-2, 1, 0.5)
	c := a.Cross(b)
	assert.InDelta(t, 0, c.Dot(a), 1e-12)
	assert.InDelta(t, 0, c.Dot(b), 1e-12)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-1, 0, 1))
	assert.Equal(t, 1.0, Clamp(2, 0, 1))
	assert.Equal(t, 0.5, Clamp(0.5, 0, 1))
}
