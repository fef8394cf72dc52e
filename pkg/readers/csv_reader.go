// Package readers provides tabular sources backed by delimited text files.
package readers

import (
	"context"
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/TFMV/tabdiff/pkg/core"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// DefaultChunkSize is the number of rows decoded per CSV chunk.
const DefaultChunkSize = 10000

const utf8BOM = "\uFEFF"

// CSVSource implements core.Source for a delimited text file using Arrow.
//
// Every column is read as a nullable utf8 column and empty fields are missing.
// Nothing is read at construction; each query re-scans the file.
type CSVSource struct {
	path        string
	separator   rune
	chunkSize   int
	alloc       memory.Allocator
	compression Compression

	mu      sync.Mutex
	columns []string
}

// NewCSVSource creates a new CSV source.
func NewCSVSource(config core.SourceConfig) (core.Source, error) {
	return newCSVSource(config)
}

func newCSVSource(config core.SourceConfig) (*CSVSource, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for CSV source")
	}

	info, err := os.Stat(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", config.Path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("failed to open %s: is a directory", config.Path)
	}

	separator := config.Separator
	if separator == 0 {
		separator = ','
	}
	if !ValidSeparator(separator) {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidSeparator, separator)
	}

	chunkSize := config.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	alloc := config.Allocator
	if alloc == nil {
		alloc = memory.NewGoAllocator()
	}

	return &CSVSource{
		path:        config.Path,
		separator:   separator,
		chunkSize:   chunkSize,
		alloc:       alloc,
		compression: DetectCompression(config.Path),
	}, nil
}

// ValidSeparator reports whether r can delimit fields.
func ValidSeparator(r rune) bool {
	switch r {
	case 0, '"', '\r', '\n', 0xFFFD:
		return false
	}
	return true
}

// Path returns the file path.
func (s *CSVSource) Path() string {
	return s.path
}

// Columns returns the header names in file order.
func (s *CSVSource) Columns(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.columns != nil {
		return s.columns, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rc, err := openStream(s.path, s.compression)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	r := stdcsv.NewReader(rc)
	r.Comma = s.separator
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", s.path, core.ErrNoColumns)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", s.path, err)
	}
	header[0] = strings.TrimPrefix(header[0], utf8BOM)

	s.columns = header
	return s.columns, nil
}

// RowCount materializes the first column and returns its length.
func (s *CSVSource) RowCount(ctx context.Context) (int64, error) {
	if _, err := s.Columns(ctx); err != nil {
		return 0, err
	}

	cols, err := s.scan(ctx, []int{0})
	if err != nil {
		return 0, err
	}
	defer releaseAll(cols)

	return int64(cols[0].Len()), nil
}

// SortedProjection materializes key and columns, sorted by key.
func (s *CSVSource) SortedProjection(ctx context.Context, columns []string, key string) (arrow.Record, error) {
	header, err := s.Columns(ctx)
	if err != nil {
		return nil, err
	}

	names := append([]string{key}, columns...)
	indices, err := resolve(header, names)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}

	cols, err := s.scan(ctx, indices)
	if err != nil {
		return nil, err
	}
	defer releaseAll(cols)

	sorted, err := sortByKey(ctx, s.alloc, cols)
	if err != nil {
		return nil, fmt.Errorf("failed to sort %s by %q: %w", s.path, key, err)
	}
	defer releaseAll(sorted)

	return array.NewRecord(textSchema(names), sorted, int64(sorted[0].Len())), nil
}

// Close releases resources held by the source.
func (s *CSVSource) Close() error {
	return nil
}

// scan reads the whole file and returns the columns at indices, in that order.
// Only the requested columns are retained between chunks.
func (s *CSVSource) scan(ctx context.Context, indices []int) ([]arrow.Array, error) {
	rc, err := openStream(s.path, s.compression)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	reader := csv.NewReader(
		rc,
		textSchema(s.columns),
		csv.WithHeader(true),
		csv.WithComma(s.separator),
		csv.WithChunk(s.chunkSize),
		csv.WithNullReader(true, ""), // Empty string is treated as null
		csv.WithAllocator(s.alloc),
	)
	defer reader.Release()

	chunks := make([][]arrow.Array, len(indices))
	defer func() {
		for _, c := range chunks {
			releaseAll(c)
		}
	}()

	for reader.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec := reader.Record()
		for i, idx := range indices {
			col := rec.Column(idx)
			col.Retain()
			chunks[i] = append(chunks[i], col)
		}
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	out := make([]arrow.Array, 0, len(indices))
	for _, c := range chunks {
		arr, err := concat(s.alloc, c)
		if err != nil {
			releaseAll(out)
			return nil, fmt.Errorf("failed to assemble %s: %w", s.path, err)
		}
		out = append(out, arr)
	}
	return out, nil
}

// resolve maps names to header positions. Duplicate header names resolve to their first occurrence.
func resolve(header, names []string) ([]int, error) {
	pos := make(map[string]int, len(header))
	for i, name := range header {
		if _, ok := pos[name]; !ok {
			pos[name] = i
		}
	}

	indices := make([]int, len(names))
	for i, name := range names {
		idx, ok := pos[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", core.ErrColumnNotFound, name)
		}
		indices[i] = idx
	}
	return indices, nil
}

func textSchema(names []string) *arrow.Schema {
	fields := make([]arrow.Field, len(names))
	for i, name := range names {
		fields[i] = arrow.Field{Name: name, Type: arrow.BinaryTypes.String, Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

func concat(alloc memory.Allocator, chunks []arrow.Array) (arrow.Array, error) {
	switch len(chunks) {
	case 0:
		b := array.NewStringBuilder(alloc)
		defer b.Release()
		return b.NewArray(), nil
	case 1:
		chunks[0].Retain()
		return chunks[0], nil
	default:
		return array.Concatenate(chunks, alloc)
	}
}

func releaseAll(arrs []arrow.Array) {
	for _, a := range arrs {
		if a != nil {
			a.Release()
		}
	}
}
