package result

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ReadTraces parses the named trace files concurrently. the result keeps the order of names,
// so it lines up with the manifest. the first failure cancels the remaining reads.
func ReadTraces(ctx context.Context, outputDir string, names []string, opts TraceOptions) ([]*VariableTrace, error) {
	if len(names) == 0 {
		return nil, nil
	}

	res := make([]*VariableTrace, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(runtime.NumCPU(), len(names)))

	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err //nolint:wrapcheck // context error returned as-is
			}
			tr, err := ParseVariableTrace(outputDir, name, opts)
			if err != nil {
				return fmt.Errorf("trace %d (%s): %w", i+1, name, err)
			}
			res[i] = tr
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err //nolint:wrapcheck // already wrapped per trace
	}
	return res, nil
}
