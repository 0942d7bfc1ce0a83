package gradient

import (
	"context"
	"fmt"
)

// LinearPlan is a multi-color gradient starting at one of the eight edge origins.
type LinearPlan struct {
	Origin       EdgeOrigin   `json:"origin"`
	Palette      Palette      `json:"palette"`
	SwitchPoints SwitchPoints `json:"switchPoints"`
}

// NewLinearPlan draws an origin, a palette of 2-4 colors and the matching switch points.
func NewLinearPlan(src Source, size int) (*LinearPlan, error) {
	origins := EdgeOrigins()
	origin := origins[src.Intn(len(origins))]

	palette, err := GeneratePalette(src, randInclusive(src, MinPaletteSize, MaxPaletteSize))
	if err != nil {
		return nil, err
	}

	sp, err := GenerateSwitchPoints(TraversalLength(origin.Traversal(), size), len(palette))
	if err != nil {
		return nil, err
	}

	return &LinearPlan{Origin: origin, Palette: palette, SwitchPoints: sp}, nil
}

// Algorithm implements Plan.
func (p *LinearPlan) Algorithm() Algorithm {
	return AlgorithmLinear
}

// Render paints the gradient along x (edges) or the anti-diagonal (corners),
// then turns the canvas to face the origin.
func (p *LinearPlan) Render(ctx context.Context, size int, opts RenderOptions) (*Canvas, error) {
	canvas, err := NewCanvas(size)
	if err != nil {
		return nil, err
	}

	if p.Origin.IsCorner() {
		err = RenderDiagonal(ctx, canvas, p.Palette, p.SwitchPoints, opts)
	} else {
		err = RenderHorizontal(ctx, canvas, p.Palette, p.SwitchPoints, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("linear gradient from %s: %w", p.Origin, err)
	}

	if turns := p.Origin.QuarterTurns(); turns != 0 {
		return canvas.Rotate(turns), nil
	}
	return canvas, nil
}

// RenderHorizontal paints a left-to-right gradient; every column is one color.
func RenderHorizontal(ctx context.Context, c *Canvas, palette Palette, sp SwitchPoints, opts RenderOptions) error {
	if err := sp.validate("horizontal gradient", palette); err != nil {
		return err
	}

	columns := make([]Color, c.size)
	for x := range columns {
		columns[x] = sp.colorAt(palette, x)
	}

	return fill(ctx, c, opts, func(x, _ int) Color {
		return columns[x]
	})
}
