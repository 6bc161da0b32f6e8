package spatial

// Plane is a half-space in Hessian normal form: points p with
// Normal·p + D >= 0 are on the inside.
type Plane struct {
	Normal Vec3
	D      float64
}

// SignedDistance returns the signed distance from p to the plane.
func (pl Plane) SignedDistance(p Vec3) float64 {
	return pl.Normal.Dot(p) + pl.D
}

// Frustum is the camera's visible volume bounded by six planes:
// left, right, bottom, top, near, far.
type Frustum [6]Plane

// FrustumFromMatrix extracts the six frustum planes from a combined
// projection*view (clip) matrix using the Gribb-Hartmann method.
// Plane normals point inward and are normalized so signed distances
// are in world units.
func FrustumFromMatrix(clip Mat4) Frustum {
	row := func(i int) (float64, float64, float64, float64) {
		return clip[i], clip[i+4], clip[i+8], clip[i+12]
	}
	r0x, r0y, r0z, r0w := row(0)
	r1x, r1y, r1z, r1w := row(1)
	r2x, r2y, r2z, r2w := row(2)
	r3x, r3y, r3z, r3w := row(3)

	planes := [6][4]float64{
		{r3x + r0x, r3y + r0y, r3z + r0z, r3w + r0w}, // left
		{r3x - r0x, r3y - r0y, r3z - r0z, r3w - r0w}, // right
		{r3x + r1x, r3y + r1y, r3z + r1z, r3w + r1w}, // bottom
		{r3x - r1x, r3y - r1y, r3z - r1z, r3w - r1w}, // top
		{r3x + r2x, r3y + r2y, r3z + r2z, r3w + r2w}, // near
		{r3x - r2x, r3y - r2y, r3z - r2z, r3w - r2w}, // far
	}

	var f Frustum
	for i, p := range planes {
		n := Vec3{p[0], p[1], p[2]}
		l := n.Length()
		if l > 0 {
			f[i] = Plane{Normal: n.Scale(1 / l), D: p[3] / l}
		} else {
			f[i] = Plane{Normal: n, D: p[3]}
		}
	}
	return f
}

// ContainsSphere reports whether a sphere at center with the given
// radius intersects the frustum. A radius of zero degenerates to a
// point test.
func (f Frustum) ContainsSphere(center Vec3, radius float64) bool {
	for _, pl := range f {
		if pl.SignedDistance(center) < -radius {
			return false
		}
	}
	return true
}
