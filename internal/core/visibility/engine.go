package visibility

import (
	"sort"

	"github.com/exovista/exovista/internal/core/observability/log"
	"github.com/exovista/exovista/internal/core/scene"
	"github.com/exovista/exovista/internal/core/spatial"
)

// Candidate pairs an entity with its camera distance for the current
// cycle, so downstream prioritization never recomputes distances.
type Candidate struct {
	Entity   scene.Entity
	Distance float64
}

// Partition is the binary visible/invisible split for one cycle. It is
// recomputed from scratch each cycle and never merged with a previous
// partition.
type Partition struct {
	Visible   []Candidate
	Invisible []Candidate
}

// Engine performs frustum and distance culling against a camera pose.
// It is not safe for concurrent use; the owning manager drives it once
// per cycle.
type Engine struct {
	maxRenderDistance float64
	logger            log.Log

	frustum    spatial.Frustum
	hasFrustum bool

	// degenerate is set when the last UpdateFrustum saw a NaN/Inf pose.
	// While set, Classify serves the last valid partition.
	degenerate    bool
	lastPartition Partition
	hasPartition  bool
}

// NewEngine creates an engine that culls everything farther than
// maxRenderDistance from the camera.
func NewEngine(maxRenderDistance float64, logger log.Log) *Engine {
	if logger == nil {
		logger = log.Nop()
	}
	return &Engine{
		maxRenderDistance: maxRenderDistance,
		logger:            logger.With(log.String("component", "visibility")),
	}
}

// UpdateFrustum recomputes the six frustum planes from the camera's
// combined projection and view transforms. It must run before Classify
// in the same cycle. A degenerate pose (NaN or Inf anywhere in the
// transforms) skips the recomputation: the engine logs the event and
// keeps serving the last valid partition rather than failing the frame.
func (e *Engine) UpdateFrustum(cam scene.Camera) {
	if !cam.Valid() {
		e.degenerate = true
		e.logger.Warn("degenerate camera pose, reusing last partition")
		return
	}
	e.frustum = spatial.FrustumFromMatrix(cam.Clip())
	e.hasFrustum = true
	e.degenerate = false
}

// Classify partitions entities into visible and invisible sets. An
// entity is visible iff its camera distance is within the render
// distance and its bounding sphere intersects the frustum; the distance
// test runs first as the cheap short-circuit. While the camera is
// degenerate the last valid partition is returned unchanged.
func (e *Engine) Classify(entities []scene.Entity, cameraPosition spatial.Vec3) Partition {
	if e.degenerate && e.hasPartition {
		return e.lastPartition
	}

	p := Partition{
		Visible:   make([]Candidate, 0, len(entities)),
		Invisible: make([]Candidate, 0),
	}
	for _, entity := range entities {
		c := Candidate{
			Entity:   entity,
			Distance: spatial.Distance(entity.Position, cameraPosition),
		}
		if c.Distance <= e.maxRenderDistance && e.hasFrustum &&
			e.frustum.ContainsSphere(entity.Position, entity.BoundingRadius) {
			p.Visible = append(p.Visible, c)
		} else {
			p.Invisible = append(p.Invisible, c)
		}
	}

	e.lastPartition = p
	e.hasPartition = true
	return p
}

// ClosestVisible returns the n visible candidates nearest the camera in
// ascending distance order, ties broken by entity id so the ordering is
// deterministic. The partition itself is left untouched.
func ClosestVisible(p Partition, n int) []Candidate {
	sorted := make([]Candidate, len(p.Visible))
	copy(sorted, p.Visible)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Distance != sorted[j].Distance {
			return sorted[i].Distance < sorted[j].Distance
		}
		return sorted[i].Entity.ID < sorted[j].Entity.ID
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}
