package render

import (
	"context"
	"fmt"

	"github.com/destel/rill"

	"github.com/benoitkugler/oklabel/markup"
)

type job struct {
	index int
	doc   *markup.Markup
}

// RenderAll renders independent markups with `workers` concurrent passes,
// each owning its own raster. `fn` is called as soon as a markup is
// rendered, possibly concurrently, with the index of the markup in `docs`.
// The first error (from rendering or from `fn`) stops the batch.
func (r *Renderer) RenderAll(ctx context.Context, docs []*markup.Markup, workers int, fn func(index int, res *Result) error) error {
	if workers < 1 {
		workers = 1
	}
	jobs := make([]job, len(docs))
	for i, doc := range docs {
		jobs[i] = job{index: i, doc: doc}
	}
	return rill.ForEach(rill.FromSlice(jobs, nil), workers, func(j job) error {
		res, err := r.Render(ctx, j.doc)
		if err != nil {
			return fmt.Errorf("markup %d: %w", j.index, err)
		}
		return fn(j.index, res)
	})
}
