package scene

import "github.com/exovista/exovista/internal/core/spatial"

// Camera is the pose snapshot handed to the visibility engine once per
// cycle: a world position plus the view and projection transforms.
type Camera struct {
	Position   spatial.Vec3
	View       spatial.Mat4
	Projection spatial.Mat4
}

// Clip returns the combined projection*view transform.
func (c Camera) Clip() spatial.Mat4 {
	return c.Projection.Mul(c.View)
}

// Valid reports whether the pose is usable for frustum extraction.
// A NaN or Inf anywhere in the transforms marks the camera degenerate
// for this cycle.
func (c Camera) Valid() bool {
	return c.Position.IsFinite() && c.View.IsFinite() && c.Projection.IsFinite()
}
