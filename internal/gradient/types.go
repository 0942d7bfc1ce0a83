package gradient

import "image/color"

// DefaultSize is the default canvas side length
const DefaultSize = 1024

// Color is an opaque RGB triple
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// NRGBA converts the color to a fully opaque color.NRGBA
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// Channel returns channel i (0=red, 1=green, 2=blue)
func (c Color) Channel(i int) int {
	switch i {
	case 0:
		return int(c.R)
	case 1:
		return int(c.G)
	default:
		return int(c.B)
	}
}

// Palette is an ordered list of colors; order defines the interpolation sequence
type Palette []Color

// Point is an integer grid coordinate
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// SwitchPoints are the distances at which interpolation moves to the next color pair.
// Segment i runs from SwitchPoints[i] to SwitchPoints[i+1].
type SwitchPoints []int

// Source is the randomness every generator draws from.
// *math/rand.Rand satisfies it.
type Source interface {
	// Intn returns a uniform integer in [0, n)
	Intn(n int) int
}

// randInclusive returns a uniform integer in [lo, hi]
func randInclusive(src Source, lo, hi int) int {
	return lo + src.Intn(hi-lo+1)
}

// channelValue clamps an interpolated value into the 8-bit range
func channelValue(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
