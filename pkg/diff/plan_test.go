package diff

import (
	"context"
	"slices"
	"testing"

	"github.com/TFMV/tabdiff/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlan(t *testing.T) {
	cols := []string{"a", "b", "c", "d", "e"}

	tests := []struct {
		batch int
		want  [][]string
	}{
		{1, [][]string{{"a"}, {"b"}, {"c"}, {"d"}, {"e"}}},
		{2, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}},
		{5, [][]string{{"a", "b", "c", "d", "e"}}},
		{10, [][]string{{"a", "b", "c", "d", "e"}}},
	}

	for _, tt := range tests {
		groups, err := Plan(cols, tt.batch)
		require.NoError(t, err)
		assert.Equal(t, tt.want, groups, "batch=%d", tt.batch)
		assert.Equal(t, cols, slices.Concat(groups...), "batch=%d", tt.batch)
	}
}

func TestPlanEmpty(t *testing.T) {
	groups, err := Plan(nil, 3)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestPlanInvalidBatch(t *testing.T) {
	for _, batch := range []int{0, -1} {
		_, err := Plan([]string{"a"}, batch)
		assert.ErrorIs(t, err, core.ErrInvalidBatchSize)
	}
}

func TestPlanDoesNotAlias(t *testing.T) {
	cols := []string{"a", "b"}
	groups, err := Plan(cols, 2)
	require.NoError(t, err)
	groups[0][0] = "changed"
	assert.Equal(t, "a", cols[0])
}

func TestKeyColumn(t *testing.T) {
	key, rest, err := KeyColumn([]string{"id", "a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "id", key)
	assert.Equal(t, []string{"a", "b"}, rest)

	_, _, err = KeyColumn(nil)
	assert.ErrorIs(t, err, core.ErrNoColumns)
}

func TestSameRowCount(t *testing.T) {
	ctx := context.Background()

	same, n1, n2, err := SameRowCount(ctx, openSource(t, fileA), openSource(t, fileB))
	require.NoError(t, err)
	assert.True(t, same)
	assert.Equal(t, int64(2), n1)
	assert.Equal(t, int64(2), n2)

	same, n1, n2, err = SameRowCount(ctx, openSource(t, fileA), openSource(t, fileE))
	require.NoError(t, err)
	assert.False(t, same)
	assert.Equal(t, int64(2), n1)
	assert.Equal(t, int64(3), n2)
}

func TestFindDuplicateKey(t *testing.T) {
	ctx := context.Background()

	_, found, err := FindDuplicateKey(ctx, openSource(t, "id,v\nb,1\na,2\nc,3\n"), "id")
	require.NoError(t, err)
	assert.False(t, found)

	dup, found, err := FindDuplicateKey(ctx, openSource(t, "id,v\nb,1\na,2\nb,3\na,4\n"), "id")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, Duplicate{Value: "a"}, dup)

	_, found, err = FindDuplicateKey(ctx, openSource(t, "id,v\n,1\na,2\n"), "id")
	require.NoError(t, err)
	assert.False(t, found)
}
