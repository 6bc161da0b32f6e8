package synthesis

// RGB is an 8-bit color triple.
type RGB struct {
	R, G, B uint8
}

// Palette is the three-color scheme a texture is built from.
type Palette struct {
	Base      RGB
	Secondary RGB
	Accent    RGB
}

// ColorsFor selects the palette for a category at the given equilibrium
// temperature. Temperate categories carry several looks (ocean, verdant,
// arid); variant in [0,1) picks between them and must be derived
// deterministically from the entity's identity so repeated synthesis is
// bit-identical.
func ColorsFor(category Category, temp, variant float64) Palette {
	switch category {
	case CategoryHotJupiter:
		switch {
		case temp > 2000:
			return Palette{RGB{0x5a, 0x38, 0x20}, RGB{0x3d, 0x25, 0x10}, RGB{0x8a, 0x55, 0x30}}
		case temp > 1500:
			return Palette{RGB{0x6a, 0x45, 0x30}, RGB{0x4a, 0x30, 0x20}, RGB{0x9a, 0x65, 0x40}}
		default:
			return Palette{RGB{0x7a, 0x58, 0x40}, RGB{0x5a, 0x40, 0x30}, RGB{0xaa, 0x78, 0x60}}
		}

	case CategoryWarmNeptune:
		return Palette{RGB{0x8b, 0xc5, 0xe8}, RGB{0x6b, 0xa3, 0xd0}, RGB{0xaa, 0xe5, 0xff}}

	case CategoryIceGiant:
		if temp < 100 {
			return Palette{RGB{0x6a, 0x8f, 0xc5}, RGB{0x4a, 0x6f, 0xa5}, RGB{0x8a, 0xaf, 0xe5}}
		}
		return Palette{RGB{0x9a, 0xd8, 0xe5}, RGB{0x7a, 0xb8, 0xc5}, RGB{0xba, 0xf8, 0xff}}

	case CategoryMiniNeptune:
		// variant doubles as cloudiness here.
		switch {
		case variant > 0.7:
			return Palette{RGB{0xe5, 0xf5, 0xff}, RGB{0xc5, 0xd5, 0xe5}, RGB{0xff, 0xff, 0xff}}
		case variant > 0.4:
			return Palette{RGB{0xaa, 0xd5, 0xf5}, RGB{0x8a, 0xb5, 0xd5}, RGB{0xca, 0xf5, 0xff}}
		default:
			return Palette{RGB{0x8a, 0xaf, 0xb5}, RGB{0x6a, 0x8f, 0xa5}, RGB{0xaa, 0xcf, 0xd5}}
		}

	case CategorySuperEarth:
		switch {
		case temp > 700:
			return Palette{RGB{0xff, 0x7a, 0x40}, RGB{0xe8, 0x5a, 0x20}, RGB{0xff, 0xaa, 0x70}}
		case temp > 400:
			return Palette{RGB{0xd8, 0xb0, 0x90}, RGB{0xb8, 0x90, 0x70}, RGB{0xf8, 0xd0, 0xb0}}
		case temp > 250:
			switch {
			case variant < 0.4: // ocean world
				return Palette{RGB{0x4d, 0x7a, 0xaa}, RGB{0x3d, 0x6a, 0x9a}, RGB{0x6d, 0x9a, 0xca}}
			case variant < 0.7: // verdant
				return Palette{RGB{0x6a, 0x9a, 0x7a}, RGB{0x5a, 0x8a, 0x6a}, RGB{0x8a, 0xba, 0x9a}}
			default: // arid
				return Palette{RGB{0xaa, 0x9a, 0x7a}, RGB{0x8a, 0x7a, 0x5a}, RGB{0xca, 0xba, 0x9a}}
			}
		default:
			return Palette{RGB{0xe5, 0xf5, 0xff}, RGB{0xc5, 0xd5, 0xe5}, RGB{0xff, 0xff, 0xff}}
		}

	case CategoryTerrestrial:
		switch {
		case temp > 600:
			return Palette{RGB{0xf8, 0xe0, 0xb0}, RGB{0xd8, 0xc0, 0x90}, RGB{0xff, 0xff, 0xd0}}
		case temp > 350:
			return Palette{RGB{0xe8, 0xb0, 0x80}, RGB{0xc8, 0x90, 0x60}, RGB{0xff, 0xd0, 0xa0}}
		case temp > 200:
			switch {
			case variant < 0.3: // ocean world
				return Palette{RGB{0x5d, 0x8a, 0xba}, RGB{0x4d, 0x7a, 0xaa}, RGB{0x7d, 0xaa, 0xdd}}
			case variant < 0.6: // verdant
				return Palette{RGB{0x7a, 0x9a, 0x8a}, RGB{0x6a, 0x8a, 0x7a}, RGB{0x9a, 0xba, 0xaa}}
			default: // arid
				return Palette{RGB{0xba, 0xaa, 0x8a}, RGB{0x9a, 0x8a, 0x6a}, RGB{0xda, 0xca, 0xaa}}
			}
		case temp > 150:
			return Palette{RGB{0xe8, 0x9a, 0x70}, RGB{0xc8, 0x7a, 0x50}, RGB{0xff, 0xba, 0x90}}
		default:
			return Palette{RGB{0xf5, 0xff, 0xff}, RGB{0xd5, 0xe5, 0xf5}, RGB{0xff, 0xff, 0xff}}
		}
	}

	return Palette{RGB{160, 160, 160}, RGB{128, 128, 128}, RGB{192, 192, 192}}
}
