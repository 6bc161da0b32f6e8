package synthesis

// Texture is a square RGB image payload, three bytes per pixel in
// row-major order. It is the synthesized stand-in for a precomputed
// texture and is shared read-only once returned from the synthesizer.
type Texture struct {
	Size int
	Pix  []byte
}

func newTexture(size int, base RGB) *Texture {
	t := &Texture{Size: size, Pix: make([]byte, size*size*3)}
	for i := 0; i < len(t.Pix); i += 3 {
		t.Pix[i] = base.R
		t.Pix[i+1] = base.G
		t.Pix[i+2] = base.B
	}
	return t
}

func (t *Texture) at(x, y int) RGB {
	i := (y*t.Size + x) * 3
	return RGB{t.Pix[i], t.Pix[i+1], t.Pix[i+2]}
}

func (t *Texture) set(x, y int, c RGB) {
	i := (y*t.Size + x) * 3
	t.Pix[i] = c.R
	t.Pix[i+1] = c.G
	t.Pix[i+2] = c.B
}

// blend mixes c over the existing pixel with the given opacity.
func (t *Texture) blend(x, y int, c RGB, alpha float64) {
	if alpha <= 0 {
		return
	}
	if alpha > 1 {
		alpha = 1
	}
	old := t.at(x, y)
	t.set(x, y, RGB{
		R: mix(old.R, c.R, alpha),
		G: mix(old.G, c.G, alpha),
		B: mix(old.B, c.B, alpha),
	})
}

func mix(a, b uint8, alpha float64) uint8 {
	return clampByte(float64(a)*(1-alpha) + float64(b)*alpha)
}

func clampByte(f float64) uint8 {
	if f < 0 {
		return 0
	}
	if f > 255 {
		return 255
	}
	return uint8(f)
}

// Bytes exposes the raw pixel buffer. Callers must treat it as
// read-only: the buffer is shared through the synthesizer memo.
func (t *Texture) Bytes() []byte { return t.Pix }
