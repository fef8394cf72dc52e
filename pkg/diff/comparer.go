// Package diff decides whether two tabular sources are identical under row reordering.
package diff

import (
	"context"
	"fmt"

	"github.com/TFMV/tabdiff/pkg/core"
	"github.com/TFMV/tabdiff/pkg/schema"
	"go.uber.org/zap"
)

// Comparer runs the row count gate, schema reconciliation and the batched
// group comparison, stopping at the first difference.
type Comparer struct {
	opts     core.CompareOptions
	observer core.Observer
	log      *zap.Logger
}

var _ core.Comparer = (*Comparer)(nil)

// NewComparer creates a comparer. A zero Workers value means one worker.
func NewComparer(opts core.CompareOptions) (*Comparer, error) {
	if opts.BatchSize < 1 {
		return nil, fmt.Errorf("%w: got %d", core.ErrInvalidBatchSize, opts.BatchSize)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	observer := opts.Observer
	if observer == nil {
		observer = core.NopObserver{}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Comparer{opts: opts, observer: observer, log: log}, nil
}

// Compare decides whether first and second hold the same rows.
//
// The returned error is non-nil only for input failures; every difference is
// reported as a verdict, which is also sent to the observer.
func (c *Comparer) Compare(ctx context.Context, first, second core.Source) (*core.Verdict, error) {
	verdict, err := c.compare(ctx, first, second)
	if err != nil {
		c.log.Error("comparison failed", zap.Error(err))
		return nil, err
	}

	c.log.Info("comparison finished",
		zap.Stringer("verdict", verdict.Kind),
		zap.Int("exit_code", verdict.ExitCode()),
	)
	c.observer.OnVerdict(verdict)
	return verdict, nil
}

func (c *Comparer) compare(ctx context.Context, first, second core.Source) (*core.Verdict, error) {
	log := c.log.With(zap.String("first", first.Path()), zap.String("second", second.Path()))

	// Row counts gate everything else.
	same, n1, n2, err := SameRowCount(ctx, first, second)
	if err != nil {
		return nil, err
	}
	log.Debug("row counts", zap.Int64("first_rows", n1), zap.Int64("second_rows", n2))
	c.observer.OnRowCount(n1, n2)
	if !same {
		return &core.Verdict{Kind: core.RowCountMismatch, FirstRows: n1, SecondRows: n2}, nil
	}

	cols1, err := first.Columns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", first.Path(), err)
	}
	cols2, err := second.Columns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", second.Path(), err)
	}

	result := schema.Reconcile(cols1, cols2, c.opts.StrictColumnOrder)
	if !result.Comparable {
		onlyFirst, onlySecond := schema.Difference(cols1, cols2)
		log.Debug("columns differ",
			zap.Stringer("mode", result.Mode),
			zap.Strings("only_first", onlyFirst),
			zap.Strings("only_second", onlySecond),
			zap.Bool("reordered", schema.Reordered(cols1, cols2)),
		)
		return &core.Verdict{
			Kind:          core.SchemaMismatch,
			FirstColumns:  result.First,
			SecondColumns: result.Second,
			Strict:        result.Strict(),
		}, nil
	}

	key, rest, err := KeyColumn(cols1)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", first.Path(), err)
	}

	if c.opts.RequireUniqueKey {
		for _, src := range []core.Source{first, second} {
			dup, found, err := FindDuplicateKey(ctx, src, key)
			if err != nil {
				return nil, err
			}
			if found {
				return &core.Verdict{
					Kind:         core.DuplicateKey,
					KeyColumn:    key,
					Path:         src.Path(),
					Value:        dup.Value,
					ValueMissing: dup.Missing,
				}, nil
			}
		}
	}

	groups, err := Plan(rest, c.opts.BatchSize)
	if err != nil {
		return nil, err
	}
	log.Debug("comparison plan",
		zap.String("key", key),
		zap.Int("groups", len(groups)),
		zap.Int("batch_size", c.opts.BatchSize),
		zap.Int("workers", c.opts.Workers),
	)
	c.observer.OnPlan(key, groups)

	failed, err := c.compareGroups(ctx, first, second, key, groups)
	if err != nil {
		return nil, err
	}
	if failed >= 0 {
		return &core.Verdict{
			Kind:       core.ContentMismatch,
			KeyColumn:  key,
			Group:      groups[failed],
			GroupIndex: failed,
		}, nil
	}

	return &core.Verdict{Kind: core.Identical, KeyColumn: key}, nil
}
