package readers

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/TFMV/tabdiff/pkg/core"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// columnValues returns the values of a utf8 column, with "<nil>" for missing cells.
func columnValues(t *testing.T, rec arrow.Record, i int) []string {
	t.Helper()
	col, ok := rec.Column(i).(*array.String)
	require.True(t, ok, "column %d is %s", i, rec.Column(i).DataType())
	out := make([]string, col.Len())
	for j := range out {
		if col.IsNull(j) {
			out[j] = "<nil>"
			continue
		}
		out[j] = col.Value(j)
	}
	return out
}

func openCSV(t *testing.T, config core.SourceConfig) core.Source {
	t.Helper()
	src, err := NewCSVSource(config)
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })
	return src
}

func TestCSVSourceColumns(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		content   string
		separator rune
		want      []string
	}{
		{"comma", "id,val,other\n1,x,y\n", 0, []string{"id", "val", "other"}},
		{"semicolon", "id;val\n1;x\n", ';', []string{"id", "val"}},
		{"tab", "id\tval\n1\tx\n", '\t', []string{"id", "val"}},
		{"bom", "\uFEFFid,val\n1,x\n", 0, []string{"id", "val"}},
		{"duplicate names", "id,a,a\n1,2,3\n", 0, []string{"id", "a", "a"}},
		{"header only", "id,val\n", 0, []string{"id", "val"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := openCSV(t, core.SourceConfig{
				Path:      writeFile(t, "in.csv", tt.content),
				Separator: tt.separator,
			})
			cols, err := src.Columns(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cols)
		})
	}
}

func TestCSVSourceErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing file", func(t *testing.T) {
		_, err := NewCSVSource(core.SourceConfig{Path: filepath.Join(t.TempDir(), "nope.csv")})
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("directory", func(t *testing.T) {
		_, err := NewCSVSource(core.SourceConfig{Path: t.TempDir()})
		assert.Error(t, err)
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := NewCSVSource(core.SourceConfig{})
		assert.Error(t, err)
	})

	t.Run("quote separator", func(t *testing.T) {
		_, err := NewCSVSource(core.SourceConfig{Path: writeFile(t, "in.csv", "a\n"), Separator: '"'})
		assert.ErrorIs(t, err, core.ErrInvalidSeparator)
	})

	t.Run("empty file", func(t *testing.T) {
		src := openCSV(t, core.SourceConfig{Path: writeFile(t, "in.csv", "")})
		_, err := src.Columns(ctx)
		assert.ErrorIs(t, err, core.ErrNoColumns)
		_, err = src.RowCount(ctx)
		assert.ErrorIs(t, err, core.ErrNoColumns)
	})

	t.Run("ragged row", func(t *testing.T) {
		src := openCSV(t, core.SourceConfig{Path: writeFile(t, "in.csv", "id,val\n1,x\n2\n")})
		_, err := src.RowCount(ctx)
		assert.Error(t, err)
	})

	t.Run("unknown column", func(t *testing.T) {
		src := openCSV(t, core.SourceConfig{Path: writeFile(t, "in.csv", "id,val\n1,x\n")})
		_, err := src.SortedProjection(ctx, []string{"missing"}, "id")
		assert.ErrorIs(t, err, core.ErrColumnNotFound)
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		src := openCSV(t, core.SourceConfig{Path: writeFile(t, "in.csv", "id,val\n1,x\n")})
		_, err := src.RowCount(cctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCSVSourceRowCount(t *testing.T) {
	ctx := context.Background()
	content := "id,val\n1,a\n2,b\n3,c\n4,d\n5,e\n"

	for _, chunk := range []int{1, 2, 3, 100} {
		src := openCSV(t, core.SourceConfig{Path: writeFile(t, "in.csv", content), ChunkSize: chunk})
		n, err := src.RowCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(5), n, "chunk size %d", chunk)
	}

	src := openCSV(t, core.SourceConfig{Path: writeFile(t, "in.csv", "id,val\n")})
	n, err := src.RowCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCSVSourceSortedProjection(t *testing.T) {
	ctx := context.Background()
	content := "id,val,other\nb,1,p\na,2,q\n,3,r\na,4,s\n10,5,t\n2,,u\n"

	src := openCSV(t, core.SourceConfig{Path: writeFile(t, "in.csv", content), ChunkSize: 2})
	rec, err := src.SortedProjection(ctx, []string{"val"}, "id")
	require.NoError(t, err)
	defer rec.Release()

	require.Equal(t, int64(2), rec.NumCols())
	assert.Equal(t, "id", rec.ColumnName(0))
	assert.Equal(t, "val", rec.ColumnName(1))

	// Missing keys first, byte-wise order, ties keep file order.
	assert.Equal(t, []string{"<nil>", "10", "2", "a", "a", "b"}, columnValues(t, rec, 0))
	assert.Equal(t, []string{"3", "5", "<nil>", "2", "4", "1"}, columnValues(t, rec, 1))
}

func TestCSVSourceProjectionOrder(t *testing.T) {
	ctx := context.Background()
	src := openCSV(t, core.SourceConfig{Path: writeFile(t, "in.csv", "id,a,b,c\n2,a2,b2,c2\n1,a1,b1,c1\n")})

	rec, err := src.SortedProjection(ctx, []string{"c", "a"}, "id")
	require.NoError(t, err)
	defer rec.Release()

	assert.Equal(t, []string{"1", "2"}, columnValues(t, rec, 0))
	assert.Equal(t, []string{"c1", "c2"}, columnValues(t, rec, 1))
	assert.Equal(t, []string{"a1", "a2"}, columnValues(t, rec, 2))
}

func TestCSVSourceHeaderOnlyProjection(t *testing.T) {
	src := openCSV(t, core.SourceConfig{Path: writeFile(t, "in.csv", "id,val\n")})
	rec, err := src.SortedProjection(context.Background(), []string{"val"}, "id")
	require.NoError(t, err)
	defer rec.Release()
	assert.Zero(t, rec.NumRows())
	assert.Equal(t, int64(2), rec.NumCols())
}

func compress(t *testing.T, c Compression, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	var w io.WriteCloser
	var err error
	switch c {
	case CompressionGzip:
		w = gzip.NewWriter(&buf)
	case CompressionZstd:
		w, err = zstd.NewWriter(&buf)
	case CompressionLZ4:
		w = lz4.NewWriter(&buf)
	case CompressionXZ:
		w, err = xz.NewWriter(&buf)
	default:
		t.Fatalf("no writer for %s", c)
	}
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestCompressedInputs(t *testing.T) {
	ctx := context.Background()
	plain := []byte("id,val\n2,y\n1,x\n")

	tests := []struct {
		ext   string
		codec Compression
	}{
		{".csv.gz", CompressionGzip},
		{".csv.zst", CompressionZstd},
		{".csv.lz4", CompressionLZ4},
		{".csv.xz", CompressionXZ},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "in"+tt.ext)
			require.NoError(t, os.WriteFile(path, compress(t, tt.codec, plain), 0o644))
			assert.Equal(t, tt.codec, DetectCompression(path))

			src := openCSV(t, core.SourceConfig{Path: path})
			cols, err := src.Columns(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"id", "val"}, cols)

			rec, err := src.SortedProjection(ctx, []string{"val"}, "id")
			require.NoError(t, err)
			defer rec.Release()
			assert.Equal(t, []string{"x", "y"}, columnValues(t, rec, 1))
		})
	}
}

func TestDetectCompression(t *testing.T) {
	assert.Equal(t, CompressionNone, DetectCompression("data.csv"))
	assert.Equal(t, CompressionGzip, DetectCompression("DATA.CSV.GZ"))
	assert.Equal(t, CompressionZstd, DetectCompression("a.zstd"))
	assert.Equal(t, CompressionBzip2, DetectCompression("a.bz2"))
}

func TestOpenStreamErrors(t *testing.T) {
	path := writeFile(t, "in.csv.gz", "not gzip at all")
	_, err := openStream(path, CompressionGzip)
	assert.Error(t, err)

	_, err = openStream(path, Compression("brotli"))
	assert.ErrorIs(t, err, ErrUnsupportedCompression)
}

func TestSortPermutation(t *testing.T) {
	b := array.NewStringBuilder(memory.NewGoAllocator())
	defer b.Release()
	b.AppendValues([]string{"b", "a", "", "a", "B"}, []bool{true, true, false, true, true})
	arr := b.NewStringArray()
	defer arr.Release()

	assert.Equal(t, []int64{2, 4, 1, 3, 0}, SortPermutation(arr))
}

func TestFactory(t *testing.T) {
	f := NewFactory()
	_, err := f.Open("nope", core.SourceConfig{})
	assert.ErrorIs(t, err, core.ErrUnknownEngine)

	assert.True(t, DefaultFactory.Has(EngineArrow))
	assert.Contains(t, DefaultFactory.Engines(), EngineArrow)

	src, err := DefaultFactory.Open(EngineArrow, core.SourceConfig{Path: writeFile(t, "in.csv", "id\n1\n")})
	require.NoError(t, err)
	assert.NoError(t, src.Close())
}
