package gradient

import (
	"context"
	"fmt"
)

// RadialPlan is a two-color gradient spreading from a single point.
type RadialPlan struct {
	Origin  Point   `json:"origin"`
	Palette Palette `json:"palette"`
}

// NewRadialPlan draws one origin and a two-color palette.
func NewRadialPlan(src Source, size int) (*RadialPlan, error) {
	origin := GenerateOrigins(src, 1, size)[0]
	palette, err := GeneratePalette(src, 2)
	if err != nil {
		return nil, err
	}
	return &RadialPlan{Origin: origin, Palette: palette}, nil
}

// Algorithm implements Plan.
func (p *RadialPlan) Algorithm() Algorithm {
	return AlgorithmRadial
}

// Render paints the gradient. Distances are normalized by the hypotenuse, so
// the second color is only approached, never reached, inside the canvas.
func (p *RadialPlan) Render(ctx context.Context, size int, opts RenderOptions) (*Canvas, error) {
	if len(p.Palette) != 2 {
		return nil, precondition("radial gradient", ErrInvalidPaletteSize, "palette=%d, want 2", len(p.Palette))
	}
	canvas, err := NewCanvas(size)
	if err != nil {
		return nil, err
	}

	hyp := Hypotenuse(size)
	from, to := p.Palette[0], p.Palette[1]
	origin := p.Origin

	err = fill(ctx, canvas, opts, func(x, y int) Color {
		d := distancePoints(origin, Point{x, y})
		return Color{
			R: channelValue(Lerp(int(from.R), int(to.R), d, hyp)),
			G: channelValue(Lerp(int(from.G), int(to.G), d, hyp)),
			B: channelValue(Lerp(int(from.B), int(to.B), d, hyp)),
		}
	})
	if err != nil {
		return nil, fmt.Errorf("radial gradient from %v: %w", origin, err)
	}
	return canvas, nil
}
