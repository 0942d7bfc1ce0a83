package gradient

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// ProgressFunc receives the number of rows painted so far.
// It is called from worker goroutines and must be safe for concurrent use.
type ProgressFunc func(rowsDone, rowsTotal int)

// RenderOptions controls how a plan is painted.
type RenderOptions struct {
	// Workers is the number of goroutines painting rows; <= 0 means GOMAXPROCS.
	Workers  int
	Progress ProgressFunc
}

func (o RenderOptions) workers(rows int) int {
	w := o.Workers
	if w <= 0 {
		w = runtime.GOMAXPROCS(0)
	}
	if w > rows {
		w = rows
	}
	return w
}

// pixelFunc computes the final color of one pixel from its coordinates alone
type pixelFunc func(x, y int) Color

// fill paints every pixel of c exactly once.
// Rows are split into contiguous bands, one per worker; workers never share rows.
func fill(ctx context.Context, c *Canvas, opts RenderOptions, fn pixelFunc) error {
	n := c.size
	workers := opts.workers(n)
	band := (n + workers - 1) / workers

	var done atomic.Int64
	group, ctx := errgroup.WithContext(ctx)

	for start := 0; start < n; start += band {
		start := start
		end := min(start+band, n)

		group.Go(func() error {
			for y := start; y < end; y++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				for x := 0; x < n; x++ {
					c.Set(x, y, fn(x, y))
				}
				rows := done.Add(1)
				if opts.Progress != nil {
					opts.Progress(int(rows), n)
				}
			}
			return nil
		})
	}

	return group.Wait()
}
