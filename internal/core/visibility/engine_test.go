package visibility

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exovista/exovista/internal/core/scene"
	"github.com/exovista/exovista/internal/core/spatial"
)

func forwardCamera() scene.Camera {
	return scene.Camera{
		Position:   spatial.Vec3{},
		View:       spatial.LookAt(spatial.Vec3{}, spatial.Vec3{X: 1}, spatial.Vec3{Y: 1}),
		Projection: spatial.Perspective(math.Pi/2, 1, 0.1, 1000),
	}
}

func TestClassifyDistanceCull(t *testing.T) {
	e := NewEngine(40, nil)
	cam := forwardCamera()
	e.UpdateFrustum(cam)

	entities := []scene.Entity{
		{ID: "near", Position: spatial.Vec3{X: 10}},
		{ID: "far", Position: spatial.Vec3{X: 41}},
	}
	p := e.Classify(entities, cam.Position)

	require.Len(t, p.Visible, 1)
	require.Len(t, p.Invisible, 1)
	assert.Equal(t, scene.EntityID("near"), p.Visible[0].Entity.ID)
	assert.Equal(t, scene.EntityID("far"), p.Invisible[0].Entity.ID)
}

func TestClassifyFrustumCull(t *testing.T) {
	e := NewEngine(100, nil)
	cam := forwardCamera()
	e.UpdateFrustum(cam)

	entities := []scene.Entity{
		{ID: "ahead", Position: spatial.Vec3{X: 10}},
		{ID: "behind", Position: spatial.Vec3{X: -10}},
		{ID: "above-cone", Position: spatial.Vec3{X: 10, Y: 20}},
	}
	p := e.Classify(entities, cam.Position)

	require.Len(t, p.Visible, 1)
	assert.Equal(t, scene.EntityID("ahead"), p.Visible[0].Entity.ID)
	assert.Len(t, p.Invisible, 2)
}

func TestBeyondRenderDistanceNeverVisible(t *testing.T) {
	// distance > maxRenderDistance implies invisible regardless of the
	// frustum outcome.
	e := NewEngine(40, nil)
	cam := forwardCamera()
	e.UpdateFrustum(cam)

	rng := rand.New(rand.NewSource(7))
	entities := make([]scene.Entity, 0, 200)
	for i := 0; i < 200; i++ {
		d := 40.0 + rng.Float64()*60
		entities = append(entities, scene.Entity{
			ID:       scene.EntityID(fmt.Sprintf("e%03d", i)),
			Position: spatial.Vec3{X: d}, // dead ahead, frustum test would pass
		})
	}
	p := e.Classify(entities, cam.Position)
	for _, c := range p.Visible {
		assert.LessOrEqual(t, c.Distance, 40.0)
	}
}

func TestDegenerateCameraReusesLastPartition(t *testing.T) {
	e := NewEngine(40, nil)
	cam := forwardCamera()
	e.UpdateFrustum(cam)

	entities := []scene.Entity{{ID: "a", Position: spatial.Vec3{X: 10}}}
	first := e.Classify(entities, cam.Position)
	require.Len(t, first.Visible, 1)

	bad := cam
	bad.View[0] = math.NaN()
	e.UpdateFrustum(bad)

	// Different input set, but the stale partition must be served.
	second := e.Classify(nil, cam.Position)
	assert.Equal(t, first, second)

	// A valid pose resumes normal classification.
	e.UpdateFrustum(cam)
	third := e.Classify(nil, cam.Position)
	assert.Empty(t, third.Visible)
}

func TestClosestVisibleOrderingAndTies(t *testing.T) {
	p := Partition{Visible: []Candidate{
		{Entity: scene.Entity{ID: "c"}, Distance: 5},
		{Entity: scene.Entity{ID: "a"}, Distance: 5},
		{Entity: scene.Entity{ID: "b"}, Distance: 2},
		{Entity: scene.Entity{ID: "d"}, Distance: 9},
	}}

	closest := ClosestVisible(p, 3)
	require.Len(t, closest, 3)
	assert.Equal(t, scene.EntityID("b"), closest[0].Entity.ID)
	assert.Equal(t, scene.EntityID("a"), closest[1].Entity.ID)
	assert.Equal(t, scene.EntityID("c"), closest[2].Entity.ID)

	// n larger than the visible set is clamped.
	assert.Len(t, ClosestVisible(p, 10), 4)

	// The source partition is not reordered.
	assert.Equal(t, scene.EntityID("c"), p.Visible[0].Entity.ID)
}

// TestUniformSceneMatchesGeometricRecount places 1000 entities at
// distances 1-50 from the origin and cross-checks the engine's visible
// count against a direct geometric recomputation for a 90 degree
// frustum facing +X.
func TestUniformSceneMatchesGeometricRecount(t *testing.T) {
	const maxRenderDistance = 40.0
	e := NewEngine(maxRenderDistance, nil)
	cam := forwardCamera()
	e.UpdateFrustum(cam)

	rng := rand.New(rand.NewSource(42))
	entities := make([]scene.Entity, 0, 1000)
	for i := 0; i < 1000; i++ {
		// Uniform random direction, uniform distance in [1, 50].
		theta := rng.Float64() * 2 * math.Pi
		z := rng.Float64()*2 - 1
		r := math.Sqrt(1 - z*z)
		dir := spatial.Vec3{X: r * math.Cos(theta), Y: r * math.Sin(theta), Z: z}
		d := 1 + rng.Float64()*49
		entities = append(entities, scene.Entity{
			ID:       scene.EntityID(fmt.Sprintf("p%04d", i)),
			Position: dir.Scale(d),
		})
	}

	p := e.Classify(entities, cam.Position)

	// Independent recount: with a square 90 degree frustum looking down
	// +X (up +Y), a point is inside iff x >= near and |y| <= x and
	// |z| <= x, and within render distance.
	expected := 0
	const near = 0.1
	for _, entity := range entities {
		pos := entity.Position
		if pos.Length() > maxRenderDistance {
			continue
		}
		if pos.X < near {
			continue
		}
		if math.Abs(pos.Y) > pos.X || math.Abs(pos.Z) > pos.X {
			continue
		}
		expected++
	}

	require.Greater(t, expected, 0)
	assert.Equal(t, expected, len(p.Visible))
	assert.Equal(t, 1000, len(p.Visible)+len(p.Invisible))
}
