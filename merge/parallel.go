package merge

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/minios-linux/locsync/tree"
)

// run translates every job and returns the results by job index. With
// MaxConcurrent > 1 jobs are spread over a bounded worker pool; each job
// writes only its own result slot, so the output does not depend on
// scheduling.
func run(ctx context.Context, jobs []job, tr Translator, opts Options) ([]tree.Leaf, error) {
	results := make([]tree.Leaf, len(jobs))
	if len(jobs) == 0 {
		return results, ctx.Err()
	}

	var mu sync.Mutex
	done := func(j job, out tree.Leaf) {
		if opts.OnLeaf == nil {
			return
		}
		src, _ := j.leaf.Str()
		dst, _ := out.Str()
		mu.Lock()
		defer mu.Unlock()
		opts.OnLeaf(j.path, src, dst)
	}

	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent <= 1 {
		for i, j := range jobs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = tr.TranslateLeaf(ctx, j.leaf)
			done(j, results[i])
		}
		return results, ctx.Err()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)
	for i, j := range jobs {
		i, j := i, j
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = tr.TranslateLeaf(gctx, j.leaf)
			done(j, results[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
