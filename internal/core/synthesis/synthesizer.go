package synthesis

import (
	"math/rand"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/exovista/exovista/internal/core/observability/log"
	"github.com/exovista/exovista/internal/core/scene"
	"github.com/exovista/exovista/pkg/generic"
)

const (
	// LowResolution is the pixel size of the low quality tier.
	LowResolution = 32
	// MaxResolution bounds the high tier ladder.
	MaxResolution = 512
)

// ResolutionFor returns the high tier pixel size for an entity radius,
// larger bodies earning more texels.
func ResolutionFor(radius float64) int {
	switch {
	case radius > 10:
		return 512
	case radius > 5:
		return 256
	case radius > 2:
		return 128
	default:
		return 64
	}
}

type memoKey struct {
	id         scene.EntityID
	resolution int
}

// Synthesizer deterministically renders a texture payload from an
// entity's physical attributes. Output is memoized by (entity id,
// resolution) and bit-identical across calls: all stochastic variation
// is seeded from the entity id hash. The memo table is the only state;
// a Synthesizer belongs to one scene and is never shared globally.
type Synthesizer struct {
	mu     sync.RWMutex
	memo   map[memoKey]*Texture
	waves  *generic.SlicePool[float64]
	logger log.Log
}

func NewSynthesizer(logger log.Log) *Synthesizer {
	if logger == nil {
		logger = log.Nop()
	}
	return &Synthesizer{
		memo:   make(map[memoKey]*Texture),
		waves:  generic.NewSlicePool[float64](MaxResolution),
		logger: logger.With(log.String("component", "synthesis")),
	}
}

// MemoLen reports the number of cached textures.
func (s *Synthesizer) MemoLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.memo)
}

// Synthesize returns the texture for an entity at the given resolution.
// A memo hit short-circuits all computation and returns the previously
// rendered texture. Synthesis cannot fail: invalid attributes fall back
// to the default category inside Classify.
func (s *Synthesizer) Synthesize(e scene.Entity, resolution int) *Texture {
	if resolution <= 0 {
		resolution = LowResolution
	}
	key := memoKey{id: e.ID, resolution: resolution}

	s.mu.RLock()
	tex, ok := s.memo[key]
	s.mu.RUnlock()
	if ok {
		return tex
	}

	tex = s.render(e, resolution)

	s.mu.Lock()
	if existing, raced := s.memo[key]; raced {
		tex = existing
	} else {
		s.memo[key] = tex
	}
	s.mu.Unlock()

	s.logger.Debug("synthesized texture",
		log.String("entity", string(e.ID)),
		log.Int("resolution", resolution))
	return tex
}

func (s *Synthesizer) render(e scene.Entity, resolution int) *Texture {
	seed := xxhash.Sum64String(string(e.ID))
	rng := rand.New(rand.NewSource(int64(seed)))
	variant := rng.Float64()

	category := Classify(e)
	temp := e.Temperature
	if !validAttr(temp) {
		temp = defaultTemperature
	}
	palette := ColorsFor(category, temp, variant)

	if resolution <= LowResolution {
		tex := newTexture(resolution, palette.Base)
		drawShadedSphere(tex, palette)
		return tex
	}

	tex := newTexture(resolution, palette.Base)
	step, octaves := featureBudget(resolution)
	wave := s.waves.Get(resolution)
	defer s.waves.Put(wave)

	switch category {
	case CategoryHotJupiter:
		drawBands(tex, palette, 1.5, rng, wave)
		drawClouds(tex, palette, 0.4, cloudSpots, rng, step, octaves)
		addGrain(tex, 25, rng)

	case CategoryWarmNeptune:
		drawBands(tex, palette, 1.0, rng, wave)
		drawClouds(tex, palette, 0.3, cloudBands, rng, step, octaves)
		addGrain(tex, 20, rng)

	case CategoryIceGiant:
		drawBands(tex, palette, 0.5, rng, wave)
		if rng.Float64() > 0.7 {
			drawClouds(tex, palette, 0.2, cloudSpots, rng, step, octaves)
		}
		addGrain(tex, 15, rng)

	case CategoryMiniNeptune:
		if rng.Float64() > 0.5 {
			drawBands(tex, palette, 0.7, rng, wave)
		}
		drawClouds(tex, palette, 0.4, cloudWisps, rng, step, octaves)
		addGrain(tex, 18, rng)

	case CategorySuperEarth:
		switch {
		case temp > 700:
			drawBands(tex, palette, 0.8, rng, wave)
			addGrain(tex, 30, rng)
		case temp > 250 && temp < 400:
			drawClouds(tex, palette, 0.3, cloudWisps, rng, step, octaves)
			addGrain(tex, 20, rng)
		default:
			addGrain(tex, 22, rng)
		}

	default: // terrestrial
		switch {
		case temp > 600:
			drawClouds(tex, palette, 0.8, cloudWisps, rng, step, octaves)
			addGrain(tex, 18, rng)
		case temp > 200 && temp < 350:
			drawClouds(tex, palette, 0.25, cloudWisps, rng, step, octaves)
			addGrain(tex, 20, rng)
		case temp > 150:
			addGrain(tex, 25, rng)
		default:
			addGrain(tex, 15, rng)
		}
	}

	if resolution >= 128 {
		smooth(tex)
	}
	return tex
}

// featureBudget scales sampling cost down with resolution so low tiers
// stay cheap: coarser cloud sampling and fewer noise octaves for small
// textures, denser work only where the texels exist to show it.
func featureBudget(resolution int) (step, octaves int) {
	switch {
	case resolution >= 512:
		return 4, 3
	case resolution >= 256:
		return 2, 3
	case resolution >= 128:
		return 2, 2
	default:
		return 1, 2
	}
}
