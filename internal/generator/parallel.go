package generator

import (
	"context"
	"math/rand"

	"golang.org/x/sync/errgroup"
)

// minChunkSize keeps small jobs on the sequential path.
const minChunkSize = 1024

// GenerateParallel generates count records on up to workers goroutines. The
// range is split into contiguous chunks, each filled by a child generator
// seeded from g, so a seeded g gives the same output for the same worker count.
func (g *Generator) GenerateParallel(ctx context.Context, fields []FieldSpec, count, workers int) ([]Record, error) {
	if count < 0 {
		count = 0
	}
	if workers <= 1 || count < 2*minChunkSize {
		return g.GenerateContext(ctx, fields, count)
	}

	size := (count + workers - 1) / workers
	if size < minChunkSize {
		size = minChunkSize
	}
	chunks := (count + size - 1) / size

	g.mu.Lock()
	seeds := make([]int64, chunks)
	for i := range seeds {
		seeds[i] = g.rng.Int63()
	}
	now := g.now
	g.mu.Unlock()

	out := make([]Record, count)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for i, seed := range seeds {
		start := i * size
		end := min(start+size, count)
		child := &Generator{rng: rand.New(rand.NewSource(seed)), now: now}
		eg.Go(func() error {
			return child.fill(ctx, out[start:end], fields)
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
