package gradient

import (
	"context"
	"fmt"
)

// ChannelStrengthPlan drives red, green and blue from three independent radial fields.
// Each channel is 255 at its origin and falls off linearly with distance.
type ChannelStrengthPlan struct {
	Origins       [3]Point      `json:"origins"`
	Normalization Normalization `json:"normalization"`
	// Divisors are only set for NormalizeMeasured.
	Divisors []int `json:"divisors,omitempty"`
}

// NewChannelStrengthPlan draws the three origins, then the normalization policy.
func NewChannelStrengthPlan(src Source, size int) (*ChannelStrengthPlan, error) {
	points := GenerateOrigins(src, 3, size)
	plan := &ChannelStrengthPlan{
		Normalization: Normalization(src.Intn(len(normalizationNames))),
	}
	copy(plan.Origins[:], points)

	if plan.Normalization == NormalizeMeasured {
		plan.Divisors = FindDivisors(points, size)
	}
	return plan, nil
}

// Algorithm implements Plan.
func (p *ChannelStrengthPlan) Algorithm() Algorithm {
	return AlgorithmChannelStrength
}

// Render paints the three channel fields.
func (p *ChannelStrengthPlan) Render(ctx context.Context, size int, opts RenderOptions) (*Canvas, error) {
	canvas, err := NewCanvas(size)
	if err != nil {
		return nil, err
	}

	strength, err := p.strengthFunc(size)
	if err != nil {
		return nil, err
	}

	origins := p.Origins
	err = fill(ctx, canvas, opts, func(x, y int) Color {
		px := Point{x, y}
		return Color{
			R: channelValue(strength(0, distancePoints(origins[0], px))),
			G: channelValue(strength(1, distancePoints(origins[1], px))),
			B: channelValue(strength(2, distancePoints(origins[2], px))),
		}
	})
	if err != nil {
		return nil, fmt.Errorf("channel strength (%s): %w", p.Normalization, err)
	}
	return canvas, nil
}

// strengthFunc returns the intensity of channel i at distance d from its origin
func (p *ChannelStrengthPlan) strengthFunc(size int) (func(i, d int) int, error) {
	switch p.Normalization {
	case NormalizeSize:
		return func(_, d int) int {
			return Lerp(255, 0, min(size, d), size)
		}, nil

	case NormalizeHypotenuse:
		hyp := Hypotenuse(size)
		return func(_, d int) int {
			return Lerp(255, 0, d, hyp)
		}, nil

	case NormalizeMeasured:
		divisors := p.Divisors
		if len(divisors) != len(p.Origins) {
			divisors = FindDivisors(p.Origins[:], size)
		}
		for i, div := range divisors {
			if div <= 0 {
				return nil, precondition("channel strength", ErrDegenerateTraversal, "divisor %d for origin %v", i, p.Origins[i])
			}
		}
		return func(i, d int) int {
			return Lerp(255, 0, d, divisors[i])
		}, nil

	default:
		return nil, fmt.Errorf("channel strength: unknown normalization %d", int(p.Normalization))
	}
}
