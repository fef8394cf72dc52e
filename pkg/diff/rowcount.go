package diff

import (
	"context"
	"fmt"

	"github.com/TFMV/tabdiff/pkg/core"
	"golang.org/x/sync/errgroup"
)

// SameRowCount counts the rows of both sources and reports whether they match.
// The two counts are taken concurrently.
func SameRowCount(ctx context.Context, first, second core.Source) (bool, int64, int64, error) {
	var n1, n2 int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := first.RowCount(gctx)
		if err != nil {
			return fmt.Errorf("failed to count rows of %s: %w", first.Path(), err)
		}
		n1 = n
		return nil
	})
	g.Go(func() error {
		n, err := second.RowCount(gctx)
		if err != nil {
			return fmt.Errorf("failed to count rows of %s: %w", second.Path(), err)
		}
		n2 = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return false, 0, 0, err
	}

	return n1 == n2, n1, n2, nil
}
