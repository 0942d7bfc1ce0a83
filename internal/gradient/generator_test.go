package gradient

import (
	"context"
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGeneratorPicksEveryAlgorithm(t *testing.T) {
	seen := map[Algorithm]int{}
	g, err := NewGenerator(16, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	for i := 0; i < 300; i++ {
		plan, err := g.Plan()
		require.NoError(t, err)
		seen[plan.Algorithm()]++
	}

	for _, a := range Algorithms() {
		require.Greaterf(t, seen[a], 50, "algorithm %s drawn only %d times", a, seen[a])
	}
}

func TestGeneratorPlanShapes(t *testing.T) {
	const size = 64
	src := rand.New(rand.NewSource(5))

	for i := 0; i < 200; i++ {
		g, err := NewGenerator(size, src)
		require.NoError(t, err)
		plan, err := g.Plan()
		require.NoError(t, err)

		switch p := plan.(type) {
		case *LinearPlan:
			require.GreaterOrEqual(t, len(p.Palette), MinPaletteSize)
			require.LessOrEqual(t, len(p.Palette), MaxPaletteSize)
			require.Len(t, p.SwitchPoints, len(p.Palette))
			require.Equal(t, TraversalLength(p.Origin.Traversal(), size), p.SwitchPoints.Length())
		case *RadialPlan:
			require.Len(t, p.Palette, 2)
			require.Less(t, p.Origin.X, size)
			require.Less(t, p.Origin.Y, size)
		case *ChannelStrengthPlan:
			if p.Normalization == NormalizeMeasured {
				require.Equal(t, FindDivisors(p.Origins[:], size), p.Divisors)
			} else {
				require.Nil(t, p.Divisors)
			}
		default:
			t.Fatalf("unexpected plan type %T", plan)
		}
	}
}

func TestGeneratorForcedAlgorithm(t *testing.T) {
	for _, a := range Algorithms() {
		g, err := NewGenerator(8, rand.New(rand.NewSource(11)), WithAlgorithm(a))
		require.NoError(t, err)
		for i := 0; i < 10; i++ {
			plan, err := g.Plan()
			require.NoError(t, err)
			require.Equal(t, a, plan.Algorithm())
		}
	}
}

func TestGeneratorForcedAlgorithmKeepsDrawOrder(t *testing.T) {
	const size = 32

	for seed := int64(0); seed < 20; seed++ {
		free, err := NewGenerator(size, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)
		drawn, err := free.Plan()
		require.NoError(t, err)

		// Forcing the algorithm that would have been drawn anyway changes nothing
		forced, err := NewGenerator(size, rand.New(rand.NewSource(seed)), WithAlgorithm(drawn.Algorithm()))
		require.NoError(t, err)
		same, err := forced.Plan()
		require.NoError(t, err)
		require.Equal(t, drawn, same)

		// Any forced algorithm draws its parameters after the algorithm pick
		for _, a := range Algorithms() {
			g, err := NewGenerator(size, rand.New(rand.NewSource(seed)), WithAlgorithm(a))
			require.NoError(t, err)
			plan, err := g.Plan()
			require.NoError(t, err)

			src := rand.New(rand.NewSource(seed))
			src.Intn(len(Algorithms()))
			var want Plan
			switch a {
			case AlgorithmLinear:
				want, err = NewLinearPlan(src, size)
			case AlgorithmRadial:
				want, err = NewRadialPlan(src, size)
			case AlgorithmChannelStrength:
				want, err = NewChannelStrengthPlan(src, size)
			}
			require.NoError(t, err)
			require.Equal(t, want, plan, "seed %d, algorithm %s", seed, a)
		}
	}
}

func TestGenerateIsReproducible(t *testing.T) {
	for seed := int64(0); seed < 8; seed++ {
		a, err := Generate(context.Background(), 24, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)
		b, err := Generate(context.Background(), 24, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)
		require.True(t, a.Equal(b))
		require.Equal(t, 24, a.Size())
	}
}

func TestGeneratePreconditions(t *testing.T) {
	_, err := Generate(context.Background(), 1, rand.New(rand.NewSource(1)))
	require.ErrorIs(t, err, ErrDegenerateCanvas)

	_, err = NewGenerator(16, nil)
	require.Error(t, err)
}

func TestParseAlgorithm(t *testing.T) {
	for _, a := range Algorithms() {
		parsed, err := ParseAlgorithm(a.String())
		require.NoError(t, err)
		require.Equal(t, a, parsed)
	}

	_, err := ParseAlgorithm("spiral")
	require.ErrorIs(t, err, ErrUnknownAlgorithm)
}

func TestEdgeOriginQuarterTurns(t *testing.T) {
	want := map[EdgeOrigin]int{
		OriginLeft:        0,
		OriginTop:         1,
		OriginRight:       2,
		OriginBottom:      3,
		OriginTopLeft:     0,
		OriginTopRight:    1,
		OriginBottomRight: 2,
		OriginBottomLeft:  2,
	}
	for origin, turns := range want {
		require.Equalf(t, turns, origin.QuarterTurns(), "origin %s", origin)
	}
}

func TestPlanJSON(t *testing.T) {
	plan := &LinearPlan{
		Origin:       OriginBottomLeft,
		Palette:      Palette{{1, 2, 3}, {4, 5, 6}},
		SwitchPoints: SwitchPoints{0, 1449},
	}
	data, err := json.Marshal(plan)
	require.NoError(t, err)
	require.JSONEq(t, `{"origin":"bottom_left","palette":[{"r":1,"g":2,"b":3},{"r":4,"g":5,"b":6}],"switchPoints":[0,1449]}`, string(data))

	var decoded LinearPlan
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, *plan, decoded)
}
