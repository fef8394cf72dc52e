package diff

import (
	"context"
	"fmt"

	"github.com/TFMV/tabdiff/pkg/core"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// CompareGroup returns the key column and group columns of src, sorted by key.
// The caller must release the record.
func CompareGroup(ctx context.Context, src core.Source, group []string, key string) (arrow.Record, error) {
	rec, err := src.SortedProjection(ctx, group, key)
	if err != nil {
		return nil, fmt.Errorf("failed to project %v from %s: %w", group, src.Path(), err)
	}
	return rec, nil
}

// GroupsEqual compares two sorted projections row by row.
// Missing values are equal to each other and to nothing else.
func GroupsEqual(first, second arrow.Record) bool {
	return array.RecordEqual(first, second)
}

// evaluateGroup projects and compares one group from both sources.
func evaluateGroup(ctx context.Context, first, second core.Source, group []string, key string) (bool, error) {
	rec1, err := CompareGroup(ctx, first, group, key)
	if err != nil {
		return false, err
	}
	defer rec1.Release()

	rec2, err := CompareGroup(ctx, second, group, key)
	if err != nil {
		return false, err
	}
	defer rec2.Release()

	return GroupsEqual(rec1, rec2), nil
}
