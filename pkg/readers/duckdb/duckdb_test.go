//go:build cgo

package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/tabdiff/pkg/core"
	"github.com/TFMV/tabdiff/pkg/diff"
	"github.com/TFMV/tabdiff/pkg/readers"
)

func openSource(t *testing.T, content string, sep rune) core.Source {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	src, err := NewSource(core.SourceConfig{Path: path, Separator: sep})
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })
	return src
}

func values(t *testing.T, rec arrow.Record, i int) []string {
	t.Helper()
	col := rec.Column(i).(*array.String)
	out := make([]string, col.Len())
	for j := range out {
		if col.IsNull(j) {
			out[j] = "<nil>"
		} else {
			out[j] = col.Value(j)
		}
	}
	return out
}

func TestRegistered(t *testing.T) {
	assert.True(t, readers.DefaultFactory.Has(EngineName))
}

func TestSource(t *testing.T) {
	ctx := context.Background()
	src := openSource(t, "id;val\nb;1\na;2\n;3\na;4\n10;\n", ';')

	cols, err := src.Columns(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "val"}, cols)

	n, err := src.RowCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	rec, err := src.SortedProjection(ctx, []string{"val"}, "id")
	require.NoError(t, err)
	defer rec.Release()

	assert.Equal(t, []string{"<nil>", "10", "a", "a", "b"}, values(t, rec, 0))
	assert.Equal(t, []string{"3", "<nil>", "2", "4", "1"}, values(t, rec, 1))

	_, err = src.SortedProjection(ctx, []string{"missing"}, "id")
	assert.ErrorIs(t, err, core.ErrColumnNotFound)
}

func TestMatchesArrowEngine(t *testing.T) {
	ctx := context.Background()
	content := "id,a,b\n3,x,\n1,p,q\n2,,r\n"

	duck := openSource(t, content, ',')
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	native, err := readers.NewCSVSource(core.SourceConfig{Path: path})
	require.NoError(t, err)

	rec1, err := duck.SortedProjection(ctx, []string{"a", "b"}, "id")
	require.NoError(t, err)
	defer rec1.Release()
	rec2, err := native.SortedProjection(ctx, []string{"a", "b"}, "id")
	require.NoError(t, err)
	defer rec2.Release()

	assert.True(t, diff.GroupsEqual(rec1, rec2))
}

func TestCompareWithDuckDB(t *testing.T) {
	c, err := diff.NewComparer(core.CompareOptions{BatchSize: 1})
	require.NoError(t, err)

	v, err := c.Compare(context.Background(),
		openSource(t, "id,val\n1,x\n2,y\n", ','),
		openSource(t, "id,val\n2,y\n1,x\n", ','))
	require.NoError(t, err)
	assert.Equal(t, core.Identical, v.Kind)

	v, err = c.Compare(context.Background(),
		openSource(t, "id,val\n1,x\n2,y\n", ','),
		openSource(t, "id,val\n1,x\n2,z\n", ','))
	require.NoError(t, err)
	assert.Equal(t, core.ContentMismatch, v.Kind)
}
