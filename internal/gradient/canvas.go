package gradient

import (
	"image"
)

// Canvas is a square, fully opaque pixel grid.
// A renderer owns the canvas it returns; rotation produces a new canvas.
type Canvas struct {
	img  *image.NRGBA
	size int
}

// NewCanvas allocates a size x size canvas
func NewCanvas(size int) (*Canvas, error) {
	if err := checkSize("new canvas", size); err != nil {
		return nil, err
	}
	return &Canvas{
		img:  image.NewNRGBA(image.Rect(0, 0, size, size)),
		size: size,
	}, nil
}

// Size returns the side length
func (c *Canvas) Size() int {
	return c.size
}

// Image exposes the underlying buffer for encoders
func (c *Canvas) Image() *image.NRGBA {
	return c.img
}

// Set writes an opaque color at (x, y)
func (c *Canvas) Set(x, y int, col Color) {
	// Inline PixOffset, the bounds are always the origin-anchored square
	i := y*c.img.Stride + x*4
	p := c.img.Pix[i : i+4 : i+4]
	p[0] = col.R
	p[1] = col.G
	p[2] = col.B
	p[3] = 255
}

// At reads the color at (x, y)
func (c *Canvas) At(x, y int) Color {
	i := y*c.img.Stride + x*4
	return Color{R: c.img.Pix[i], G: c.img.Pix[i+1], B: c.img.Pix[i+2]}
}

// Rotate returns a new canvas turned counter-clockwise by quarterTurns * 90 degrees.
// It is a pure pixel permutation; the receiver is left untouched.
func (c *Canvas) Rotate(quarterTurns int) *Canvas {
	turns := ((quarterTurns % 4) + 4) % 4
	n := c.size
	out := &Canvas{
		img:  image.NewNRGBA(image.Rect(0, 0, n, n)),
		size: n,
	}

	if turns == 0 {
		copy(out.img.Pix, c.img.Pix)
		return out
	}

	last := n - 1
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			var sx, sy int
			switch turns {
			case 1:
				sx, sy = last-y, x
			case 2:
				sx, sy = last-x, last-y
			case 3:
				sx, sy = y, last-x
			}
			out.Set(x, y, c.At(sx, sy))
		}
	}
	return out
}

// Equal reports whether both canvases hold identical pixels
func (c *Canvas) Equal(other *Canvas) bool {
	if other == nil || c.size != other.size {
		return false
	}
	for i := range c.img.Pix {
		if c.img.Pix[i] != other.img.Pix[i] {
			return false
		}
	}
	return true
}
