package diff

import (
	"context"
	"fmt"
	"strings"

	"github.com/TFMV/tabdiff/pkg/core"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// Duplicate describes a key value that occurs more than once.
type Duplicate struct {
	Value   string
	Missing bool
}

// FindDuplicateKey reports the smallest key value that occurs twice in src.
// Two missing keys count as a duplicate.
func FindDuplicateKey(ctx context.Context, src core.Source, key string) (Duplicate, bool, error) {
	rec, err := CompareGroup(ctx, src, nil, key)
	if err != nil {
		return Duplicate{}, false, err
	}
	defer rec.Release()

	col, ok := rec.Column(0).(*array.String)
	if !ok {
		return Duplicate{}, false, fmt.Errorf("key column %q of %s has type %s", key, src.Path(), rec.Column(0).DataType())
	}

	for i := 1; i < col.Len(); i++ {
		prevNull, curNull := col.IsNull(i-1), col.IsNull(i)
		switch {
		case prevNull && curNull:
			return Duplicate{Missing: true}, true, nil
		case prevNull || curNull:
			continue
		case col.Value(i-1) == col.Value(i):
			return Duplicate{Value: strings.Clone(col.Value(i))}, true, nil
		}
	}
	return Duplicate{}, false, nil
}
