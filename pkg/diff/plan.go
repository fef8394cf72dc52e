package diff

import (
	"fmt"

	"github.com/TFMV/tabdiff/pkg/core"
)

// KeyColumn returns the column rows are matched on and the columns left to compare.
// The key is always the first column of the header.
func KeyColumn(columns []string) (string, []string, error) {
	if len(columns) == 0 {
		return "", nil, core.ErrNoColumns
	}
	return columns[0], columns[1:], nil
}

// Plan splits columns into contiguous groups of at most batchSize names,
// preserving their order. The last group may be shorter.
func Plan(columns []string, batchSize int) ([][]string, error) {
	if batchSize < 1 {
		return nil, fmt.Errorf("%w: got %d", core.ErrInvalidBatchSize, batchSize)
	}

	groups := make([][]string, 0, (len(columns)+batchSize-1)/batchSize)
	for start := 0; start < len(columns); start += batchSize {
		end := min(start+batchSize, len(columns))
		group := make([]string, end-start)
		copy(group, columns[start:end])
		groups = append(groups, group)
	}
	return groups, nil
}
