package spatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVec3Basics(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, -2, 1}

	assert.Equal(t, Vec3{5, 0, 4}, a.Add(b))
	assert.Equal(t, Vec3{-3, 4, 2}, a.Sub(b))
	assert.Equal(t, Vec3{2, 4, 6}, a.Scale(2))
	assert.InDelta(t, 3.0, a.Dot(b), 1e-12)
	assert.InDelta(t, math.Sqrt(14), a.Length(), 1e-12)
}

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	assert.Equal(t, Vec3{0, 0, 1}, x.Cross(y))
	assert.Equal(t, Vec3{0, 0, -1}, y.Cross(x))
}

func TestNormalizeZeroVector(t *testing.T) {
	assert.Equal(t, Vec3{}, Vec3{}.Normalize())
}

func TestIsFinite(t *testing.T) {
	assert.True(t, Vec3{1, 2, 3}.IsFinite())
	assert.False(t, Vec3{math.NaN(), 0, 0}.IsFinite())
	assert.False(t, Vec3{0, math.Inf(1), 0}.IsFinite())

	m := Identity()
	assert.True(t, m.IsFinite())
	m[7] = math.NaN()
	assert.False(t, m.IsFinite())
}

func TestMat4IdentityMul(t *testing.T) {
	m := Perspective(math.Pi/2, 1, 0.1, 100)
	assert.Equal(t, m, Identity().Mul(m))
	assert.Equal(t, m, m.Mul(Identity()))
}

func TestLookAtTransformsPoints(t *testing.T) {
	// Camera at origin looking down +X with +Y up. A point ahead of the
	// camera must land on the -Z axis in view space.
	view := LookAt(Vec3{}, Vec3{1, 0, 0}, Vec3{0, 1, 0})

	p := transformPoint(view, Vec3{5, 0, 0})
	assert.InDelta(t, 0, p.X, 1e-12)
	assert.InDelta(t, 0, p.Y, 1e-12)
	assert.InDelta(t, -5, p.Z, 1e-12)
}

func transformPoint(m Mat4, v Vec3) Vec3 {
	x := m[0]*v.X + m[4]*v.Y + m[8]*v.Z + m[12]
	y := m[1]*v.X + m[5]*v.Y + m[9]*v.Z + m[13]
	z := m[2]*v.X + m[6]*v.Y + m[10]*v.Z + m[14]
	return Vec3{x, y, z}
}

func TestFrustumContainsSphere(t *testing.T) {
	// 90 degree square frustum at the origin facing +X: a point is inside
	// iff near < x < far, |y| <= x and |z| <= x.
	proj := Perspective(math.Pi/2, 1, 0.1, 100)
	view := LookAt(Vec3{}, Vec3{1, 0, 0}, Vec3{0, 1, 0})
	f := FrustumFromMatrix(proj.Mul(view))

	cases := []struct {
		name   string
		p      Vec3
		radius float64
		want   bool
	}{
		{"dead ahead", Vec3{10, 0, 0}, 0, true},
		{"behind camera", Vec3{-10, 0, 0}, 0, false},
		{"inside edge", Vec3{10, 9.9, 0}, 0, true},
		{"outside edge", Vec3{10, 10.1, 0}, 0, false},
		{"outside lateral", Vec3{10, 0, -10.1}, 0, false},
		{"beyond far plane", Vec3{150, 0, 0}, 0, false},
		{"closer than near plane", Vec3{0.05, 0, 0}, 0, false},
		{"sphere straddles edge", Vec3{10, 10.5, 0}, 1, true},
		{"sphere fully out", Vec3{10, 13, 0}, 1, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, f.ContainsSphere(tc.p, tc.radius))
		})
	}
}

func TestFrustumPlaneNormalsAreUnit(t *testing.T) {
	proj := Perspective(math.Pi/3, 16.0/9.0, 0.5, 500)
	view := LookAt(Vec3{3, 4, 5}, Vec3{0, 0, 0}, Vec3{0, 1, 0})
	f := FrustumFromMatrix(proj.Mul(view))

	for i, pl := range f {
		require.InDelta(t, 1.0, pl.Normal.Length(), 1e-9, "plane %d", i)
	}
}

func TestDistance(t *testing.T) {
	assert.InDelta(t, 5, Distance(Vec3{0, 3, 0}, Vec3{4, 0, 0}), 1e-12)
}
