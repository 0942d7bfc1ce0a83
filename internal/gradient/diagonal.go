package gradient

import "context"

// RenderDiagonal paints a gradient that advances along the main diagonal,
// constant along every anti-diagonal line.
//
// For pixel (x, y) the distance is measured from the virtual point
// (-(y-x)/2, (y-x)/2), the foot of the pixel's anti-diagonal on the line
// through the top-left corner.
func RenderDiagonal(ctx context.Context, c *Canvas, palette Palette, sp SwitchPoints, opts RenderOptions) error {
	if err := sp.validate("diagonal gradient", palette); err != nil {
		return err
	}

	return fill(ctx, c, opts, func(x, y int) Color {
		net := float64(y - x)
		d := Distance(-0.5*net, 0.5*net, float64(x), float64(y))
		return sp.colorAt(palette, d)
	})
}
