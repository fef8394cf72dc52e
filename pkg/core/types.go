// Package core provides the core types and interfaces for the tabdiff comparison tool.
package core

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"
)

// Source defines a lazily opened tabular input.
//
// Every cell is exposed as raw text; no type inference happens. Each query may
// re-scan the underlying file.
type Source interface {
	// Path returns the location the source was opened from.
	Path() string

	// Columns returns the header names in file order, verbatim.
	Columns(ctx context.Context) ([]string, error)

	// RowCount materializes the first column and returns its length.
	RowCount(ctx context.Context) (int64, error)

	// SortedProjection materializes the key column followed by columns, sorted
	// by the key using a stable, ascending, byte-wise order with missing keys first.
	// The caller owns the returned record and must release it.
	SortedProjection(ctx context.Context, columns []string, key string) (arrow.Record, error)

	// Close releases resources held by the source.
	Close() error
}

// Opener opens a Source without reading its rows.
type Opener func(config SourceConfig) (Source, error)

// SourceConfig provides configuration for opening a source.
type SourceConfig struct {
	// Path is the path to the delimited file, optionally compressed.
	Path string

	// Separator is the field delimiter. Zero means ','.
	Separator rune

	// ChunkSize is the number of rows decoded per read chunk.
	ChunkSize int

	// Allocator is used for all Arrow buffers. Nil means a Go allocator.
	Allocator memory.Allocator
}

// CompareOptions provides options for a comparison run.
type CompareOptions struct {
	// StrictColumnOrder requires both headers to be equal as ordered sequences.
	// When false the headers are compared as sets.
	StrictColumnOrder bool

	// BatchSize is the maximum number of non-key columns per comparison group.
	BatchSize int

	// Workers is the number of groups that may be evaluated at once.
	// Outcomes are always reported in group order.
	Workers int

	// RequireUniqueKey fails the run with a DuplicateKey verdict when the key
	// column holds the same value twice in either source.
	RequireUniqueKey bool

	// Observer receives progress ticks and the final verdict.
	Observer Observer

	// Logger receives structured diagnostics. Nil disables logging.
	Logger *zap.Logger
}

// DefaultCompareOptions returns the options used when nothing is configured.
func DefaultCompareOptions() CompareOptions {
	return CompareOptions{
		BatchSize: 1,
		Workers:   1,
	}
}

// Comparer decides whether two sources are equivalent under row reordering.
type Comparer interface {
	// Compare runs the comparison and returns exactly one verdict.
	// Errors are reserved for input failures.
	Compare(ctx context.Context, first, second Source) (*Verdict, error)
}
