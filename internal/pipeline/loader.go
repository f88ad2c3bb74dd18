// Package pipeline orchestrates importing transaction files and filtering
// loaded transactions.
package pipeline

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/spendwise/internal/source"
)

// ProgressFunc is called during parsing to report progress.
// current is the number of files processed so far, total is the total count.
type ProgressFunc func(current, total int)

// ParseFiles parses files in parallel with a bounded worker pool. Results are
// positional: results[i] belongs to files[i]. Only context cancellation
// returns an error; per-file failures are reported in each ParseResult.
func ParseFiles(ctx context.Context, files []source.DiscoveredFile, opts source.Options, progressFn ProgressFunc) ([]source.ParseResult, error) {
	results := make([]source.ParseResult, len(files))
	if len(files) == 0 {
		return results, nil
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(numWorkers)

	var processed atomic.Int64
	for i := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = source.ParseFile(files[i], opts)
			n := processed.Add(1)
			if progressFn != nil {
				progressFn(int(n), len(files))
			}
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
