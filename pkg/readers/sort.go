package readers

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/compute"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// SortPermutation returns the stable ascending order of key.
// Missing values sort first and present values compare byte-wise.
func SortPermutation(key *array.String) []int64 {
	perm := make([]int64, key.Len())
	for i := range perm {
		perm[i] = int64(i)
	}
	slices.SortStableFunc(perm, func(a, b int64) int {
		return compareText(key, int(a), int(b))
	})
	return perm
}

func compareText(arr *array.String, a, b int) int {
	aNull, bNull := arr.IsNull(a), arr.IsNull(b)
	switch {
	case aNull && bNull:
		return 0
	case aNull:
		return -1
	case bNull:
		return 1
	}
	return strings.Compare(arr.Value(a), arr.Value(b))
}

// sortByKey reorders cols by the stable order of cols[0].
func sortByKey(ctx context.Context, alloc memory.Allocator, cols []arrow.Array) ([]arrow.Array, error) {
	key, ok := cols[0].(*array.String)
	if !ok {
		return nil, fmt.Errorf("key column has type %s, want utf8", cols[0].DataType())
	}

	b := array.NewInt64Builder(alloc)
	defer b.Release()
	b.AppendValues(SortPermutation(key), nil)
	indices := b.NewArray()
	defer indices.Release()

	ctx = compute.WithAllocator(ctx, alloc)
	out := make([]arrow.Array, 0, len(cols))
	for _, col := range cols {
		taken, err := compute.TakeArray(ctx, col, indices)
		if err != nil {
			releaseAll(out)
			return nil, err
		}
		out = append(out, taken)
	}
	return out, nil
}
