package diff

import (
	"context"

	"github.com/TFMV/tabdiff/pkg/core"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type groupOutcome struct {
	equal bool
	err   error
}

// compareGroups evaluates groups in order and returns the index of the first
// group that differs, or -1 when all groups match.
func (c *Comparer) compareGroups(ctx context.Context, first, second core.Source, key string, groups [][]string) (int, error) {
	if c.opts.Workers <= 1 || len(groups) <= 1 {
		return c.compareSequential(ctx, first, second, key, groups)
	}
	return c.compareParallel(ctx, first, second, key, groups)
}

func (c *Comparer) compareSequential(ctx context.Context, first, second core.Source, key string, groups [][]string) (int, error) {
	for i, group := range groups {
		if err := ctx.Err(); err != nil {
			return -1, err
		}
		equal, err := evaluateGroup(ctx, first, second, group, key)
		if err != nil {
			return -1, err
		}
		if stop := c.tick(i, group, equal); stop {
			return i, nil
		}
	}
	return -1, nil
}

// compareParallel evaluates up to Workers groups ahead of the one being reported.
// Outcomes are consumed strictly in group order, so the first differing group
// in the plan wins even when a later one finishes first.
func (c *Comparer) compareParallel(ctx context.Context, first, second core.Source, key string, groups [][]string) (int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	outcomes := make([]chan groupOutcome, len(groups))
	for i := range outcomes {
		outcomes[i] = make(chan groupOutcome, 1)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)

		var g errgroup.Group
		g.SetLimit(c.opts.Workers)
		for i, group := range groups {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				equal, err := evaluateGroup(ctx, first, second, group, key)
				outcomes[i] <- groupOutcome{equal: equal, err: err}
				return nil
			})
		}
		_ = g.Wait()
	}()
	defer func() {
		cancel()
		<-done
	}()

	for i, group := range groups {
		var out groupOutcome
		select {
		case out = <-outcomes[i]:
		case <-ctx.Done():
			return -1, ctx.Err()
		}
		if out.err != nil {
			return -1, out.err
		}
		if stop := c.tick(i, group, out.equal); stop {
			return i, nil
		}
	}
	return -1, nil
}

// tick reports a group outcome and returns true when the run must stop.
func (c *Comparer) tick(index int, group []string, equal bool) bool {
	c.log.Debug("group compared",
		zap.Int("group", index),
		zap.Strings("columns", group),
		zap.Bool("equal", equal),
	)
	c.observer.OnGroup(index, group, equal)
	return !equal
}
