package scene

import "github.com/exovista/exovista/internal/core/spatial"

// EntityID is a stable opaque identifier supplied by the catalog.
type EntityID string

// Entity is a read-only view of a catalog object as the residency core
// sees it. Physical attributes are in Earth units (mass in Earth masses,
// radius in Earth radii, temperature in Kelvin) and feed classification
// only; the core never mutates them.
type Entity struct {
	ID          EntityID
	Position    spatial.Vec3
	Mass        float64
	Radius      float64
	Temperature float64

	// BoundingRadius is the world-space radius of the entity's bounding
	// sphere used for frustum tests.
	BoundingRadius float64
}

// Registry supplies the current entity set each cycle. Additions and
// removals between cycles are ordinary set changes with no migration
// step.
type Registry interface {
	// Entities returns the current entity set. The returned slice must
	// not be retained past the cycle it was handed to.
	Entities() []Entity

	// Lookup returns the entity with the given id, if present.
	Lookup(id EntityID) (Entity, bool)

	Count() int
}
