package gradient

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Plan is a fully drawn set of parameters for one algorithm.
// Rendering a plan is deterministic; all randomness is spent when the plan is drawn.
type Plan interface {
	Algorithm() Algorithm
	Render(ctx context.Context, size int, opts RenderOptions) (*Canvas, error)
}

// Generator draws plans from a random source and paints them.
type Generator struct {
	size      int
	src       Source
	opts      RenderOptions
	algorithm *Algorithm
	logger    *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithWorkers sets the number of goroutines painting rows.
func WithWorkers(n int) Option {
	return func(g *Generator) {
		g.opts.Workers = n
	}
}

// WithProgress installs a row-progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(g *Generator) {
		g.opts.Progress = fn
	}
}

// WithAlgorithm always uses a. The algorithm draw still consumes the source,
// so a seed yields the same parameter draws whether or not a is forced.
func WithAlgorithm(a Algorithm) Option {
	return func(g *Generator) {
		g.algorithm = &a
	}
}

// WithLogger sets the logger used for plan selection messages.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// NewGenerator creates a generator for size x size canvases.
func NewGenerator(size int, src Source, opts ...Option) (*Generator, error) {
	if err := checkSize("new generator", size); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, fmt.Errorf("new generator: nil random source")
	}

	g := &Generator{
		size:   size,
		src:    src,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Size returns the canvas side length.
func (g *Generator) Size() int {
	return g.size
}

// Plan picks an algorithm uniformly at random and draws its parameters.
// A forced algorithm replaces the pick after it was drawn.
func (g *Generator) Plan() (Plan, error) {
	algorithm := Algorithm(g.src.Intn(len(algorithmNames)))
	if g.algorithm != nil {
		algorithm = *g.algorithm
	}

	var (
		plan Plan
		err  error
	)
	switch algorithm {
	case AlgorithmLinear:
		plan, err = NewLinearPlan(g.src, g.size)
	case AlgorithmRadial:
		plan, err = NewRadialPlan(g.src, g.size)
	case AlgorithmChannelStrength:
		plan, err = NewChannelStrengthPlan(g.src, g.size)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownAlgorithm, int(algorithm))
	}
	if err != nil {
		return nil, fmt.Errorf("draw %s plan: %w", algorithm, err)
	}

	g.logger.Debug("Drew gradient plan", "algorithm", algorithm.String(), "size", g.size)
	return plan, nil
}

// Render paints plan onto a fresh canvas.
func (g *Generator) Render(ctx context.Context, plan Plan) (*Canvas, error) {
	start := time.Now()
	canvas, err := plan.Render(ctx, g.size, g.opts)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("Rendered gradient", "algorithm", plan.Algorithm().String(), "elapsed", time.Since(start))
	return canvas, nil
}

// Generate draws a plan and paints it.
func (g *Generator) Generate(ctx context.Context) (*Canvas, Plan, error) {
	plan, err := g.Plan()
	if err != nil {
		return nil, nil, err
	}
	canvas, err := g.Render(ctx, plan)
	if err != nil {
		return nil, nil, err
	}
	return canvas, plan, nil
}

// Generate is the single entry point for callers that only want pixels:
// it picks an algorithm, draws its parameters from src and returns the painted canvas.
func Generate(ctx context.Context, size int, src Source) (*Canvas, error) {
	g, err := NewGenerator(size, src)
	if err != nil {
		return nil, err
	}
	canvas, _, err := g.Generate(ctx)
	return canvas, err
}
