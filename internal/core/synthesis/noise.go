package synthesis

import (
	"math"
	"math/rand"
)

// layeredNoise evaluates a cheap octave noise field at (x, y), both in
// [0,1], returning a value in [0,1]. Each octave doubles frequency and
// halves amplitude.
func layeredNoise(x, y, scale float64, octaves int) float64 {
	value, amplitude, frequency, maxValue := 0.0, 1.0, scale, 0.0
	for i := 0; i < octaves; i++ {
		value += math.Sin(x*frequency) * math.Cos(y*frequency) * amplitude
		maxValue += amplitude
		amplitude *= 0.5
		frequency *= 2
	}
	return (value/maxValue + 1) / 2
}

// addGrain applies per-pixel brightness noise of +/- intensity levels
// across all channels, the last pass of every synthesized texture.
func addGrain(t *Texture, intensity int, rng *rand.Rand) {
	if intensity <= 0 {
		return
	}
	for i := 0; i < len(t.Pix); i += 3 {
		n := float64(rng.Intn(2*intensity+1) - intensity)
		t.Pix[i] = clampByte(float64(t.Pix[i]) + n)
		t.Pix[i+1] = clampByte(float64(t.Pix[i+1]) + n)
		t.Pix[i+2] = clampByte(float64(t.Pix[i+2]) + n)
	}
}

// drawBands paints alternating wavy atmospheric bands across the
// texture. turbulence scales the wave amplitude; wave is a caller
// provided scratch slice of at least t.Size elements.
func drawBands(t *Texture, p Palette, turbulence float64, rng *rand.Rand, wave []float64) {
	size := t.Size
	bands := 6 + rng.Intn(7)
	bandHeight := float64(size) / float64(bands)
	// Wave amplitudes are tuned for a 256px texture and scale linearly.
	ampScale := float64(size) / 256

	for i := 0; i < bands; i++ {
		y0 := float64(i) * bandHeight
		color := p.Secondary
		if i%2 != 0 {
			color = p.Accent
		}
		for x := 0; x < size; x++ {
			fx := float64(x) / float64(size)
			wave1 := math.Sin(fx*math.Pi*6+float64(i)) * turbulence * 8 * ampScale
			wave2 := math.Sin(fx*math.Pi*3+float64(i)*2) * turbulence * 4 * ampScale
			wave[x] = y0 + wave1 + wave2
		}
		for x := 0; x < size; x++ {
			start := int(wave[x])
			end := int(y0 + bandHeight)
			for y := start; y < end; y++ {
				if y >= 0 && y < size {
					t.set(x, y, color)
				}
			}
		}
	}
}

type cloudPattern uint8

const (
	cloudWisps cloudPattern = iota
	cloudBands
	cloudSpots
)

// drawClouds overlays a translucent cloud layer. step and octaves come
// from the resolution-dependent feature budget: coarser sampling and
// fewer octaves keep low tiers cheap.
func drawClouds(t *Texture, p Palette, density float64, pattern cloudPattern, rng *rand.Rand, step, octaves int) {
	size := t.Size
	switch pattern {
	case cloudBands:
		bands := 5 + rng.Intn(6)
		bandHeight := size / bands
		for i := 0; i < bands; i++ {
			alpha := rng.Float64()*0.4 + 0.3
			y0 := i * bandHeight
			for y := y0; y < y0+bandHeight && y < size; y++ {
				for x := 0; x < size; x++ {
					t.blend(x, y, p.Secondary, alpha)
				}
			}
		}

	case cloudSpots:
		spots := 3 + rng.Intn(6)
		scale := float64(size) / 256
		for s := 0; s < spots; s++ {
			cx := rng.Float64() * float64(size)
			cy := rng.Float64() * float64(size)
			r := (10 + float64(rng.Intn(31))) * scale
			minX, maxX := int(cx-r), int(cx+r)
			minY, maxY := int(cy-r), int(cy+r)
			for y := max(minY, 0); y <= maxY && y < size; y++ {
				for x := max(minX, 0); x <= maxX && x < size; x++ {
					dx, dy := float64(x)-cx, float64(y)-cy
					if dx*dx+dy*dy <= r*r {
						t.blend(x, y, p.Secondary, 0.4)
					}
				}
			}
		}

	default: // wisps
		for y := 0; y < size; y += step {
			for x := 0; x < size; x += step {
				n := layeredNoise(float64(x)/float64(size), float64(y)/float64(size), 8, octaves)
				if n > 1-density {
					alpha := (n - (1 - density)) / density * 0.5
					for dy := 0; dy < step && y+dy < size; dy++ {
						for dx := 0; dx < step && x+dx < size; dx++ {
							t.blend(x+dx, y+dy, p.Secondary, alpha)
						}
					}
				}
			}
		}
	}
}

// drawShadedSphere renders the low tier: a radial gradient from base at
// the limb to secondary at the center, cheap enough for any entity.
func drawShadedSphere(t *Texture, p Palette) {
	size := t.Size
	half := float64(size) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x) - half
			dy := float64(y) - half
			d := math.Sqrt(dx*dx+dy*dy) / half
			if d > 1 {
				d = 1
			}
			t.set(x, y, RGB{
				R: mix(p.Secondary.R, p.Base.R, d),
				G: mix(p.Secondary.G, p.Base.G, d),
				B: mix(p.Secondary.B, p.Base.B, d),
			})
		}
	}
}

// smooth applies a single 3x3 box filter pass, approximating the mild
// blur the high tier receives to soften band edges.
func smooth(t *Texture) {
	size := t.Size
	src := make([]byte, len(t.Pix))
	copy(src, t.Pix)
	at := func(x, y, c int) int {
		return int(src[(y*size+x)*3+c])
	}
	for y := 1; y < size-1; y++ {
		for x := 1; x < size-1; x++ {
			for c := 0; c < 3; c++ {
				sum := at(x-1, y-1, c) + at(x, y-1, c) + at(x+1, y-1, c) +
					at(x-1, y, c) + 8*at(x, y, c) + at(x+1, y, c) +
					at(x-1, y+1, c) + at(x, y+1, c) + at(x+1, y+1, c)
				t.Pix[(y*size+x)*3+c] = uint8(sum / 16)
			}
		}
	}
}
