package residency

import "github.com/exovista/exovista/internal/core/scene"

// Quality is the image-quality tier a resource is resident at. The
// ordering is meaningful: upgrades move up the ladder, downgrades move
// down, and QualityNone means no payload is resident.
type Quality uint8

const (
	QualityNone Quality = iota
	QualityLow
	QualityHigh
)

func (q Quality) String() string {
	switch q {
	case QualityNone:
		return "none"
	case QualityLow:
		return "low"
	case QualityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// PayloadOrigin records where a resident payload came from.
type PayloadOrigin uint8

const (
	OriginSynthesized PayloadOrigin = iota
	OriginFetched
)

// Payload is the resource bound to a render material. Bytes is either
// raw synthesized RGB pixels or opaque fetched image bytes; Resolution
// is the pixel size for synthesized payloads and zero for fetched ones.
type Payload struct {
	Bytes      []byte
	Origin     PayloadOrigin
	Resolution int
}

// ResourceView is the read-only answer to a resolution or residency
// query: the best currently resident payload for an entity. Payload is
// nil iff Quality is QualityNone.
type ResourceView struct {
	EntityID scene.EntityID
	Quality  Quality
	Payload  *Payload
}
