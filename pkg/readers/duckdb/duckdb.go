//go:build cgo

// Package duckdb provides a tabular source that reads delimited files through DuckDB.
package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/TFMV/tabdiff/pkg/core"
	"github.com/TFMV/tabdiff/pkg/readers"

	// Import DuckDB driver
	_ "github.com/marcboeker/go-duckdb/v2"
)

// EngineName is the name the engine is registered under.
const EngineName = "duckdb"

// rowColumn carries the original row position so ties keep file order.
const rowColumn = "__tabdiff_row"

func init() {
	readers.DefaultFactory.Register(EngineName, NewSource)
}

// Source implements core.Source on top of DuckDB's read_csv.
//
// All columns are read as VARCHAR and empty fields are NULL. DuckDB decompresses
// gzip and zstd inputs itself. Repeated header names are renamed by DuckDB.
type Source struct {
	path      string
	separator rune
	alloc     memory.Allocator
	db        *sql.DB

	mu      sync.Mutex
	columns []string
}

// NewSource opens an in-memory DuckDB database for path. No rows are read.
func NewSource(config core.SourceConfig) (core.Source, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for DuckDB source")
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
	if !readers.ValidSeparator(separator) {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidSeparator, separator)
	}

	alloc := config.Allocator
	if alloc == nil {
		alloc = memory.NewGoAllocator()
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB database: %w", err)
	}

	return &Source{
		path:      config.Path,
		separator: separator,
		alloc:     alloc,
		db:        db,
	}, nil
}

// Path returns the file path.
func (s *Source) Path() string {
	return s.path
}

// Columns returns the header names as DuckDB reports them.
func (s *Source) Columns(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.columns != nil {
		return s.columns, nil
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT 0", s.table()))
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", s.path, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", s.path, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%s: %w", s.path, core.ErrNoColumns)
	}

	s.columns = cols
	return s.columns, nil
}

// RowCount returns the number of data rows.
func (s *Source) RowCount(ctx context.Context) (int64, error) {
	if _, err := s.Columns(ctx); err != nil {
		return 0, err
	}

	var n int64
	query := fmt.Sprintf("SELECT count(*) FROM %s", s.table())
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rows of %s: %w", s.path, err)
	}
	return n, nil
}

// SortedProjection materializes key and columns ordered by key, missing keys
// first, ties in file order.
func (s *Source) SortedProjection(ctx context.Context, columns []string, key string) (arrow.Record, error) {
	header, err := s.Columns(ctx)
	if err != nil {
		return nil, err
	}

	names := append([]string{key}, columns...)
	for _, name := range names {
		if !contains(header, name) {
			return nil, fmt.Errorf("%s: %w: %q", s.path, core.ErrColumnNotFound, name)
		}
	}

	rows, err := s.db.QueryContext(ctx, s.projectionQuery(names, key))
	if err != nil {
		return nil, fmt.Errorf("failed to sort %s by %q: %w", s.path, key, err)
	}
	defer rows.Close()

	builders := make([]*array.StringBuilder, len(names))
	for i := range builders {
		builders[i] = array.NewStringBuilder(s.alloc)
		defer builders[i].Release()
	}

	values := make([]sql.NullString, len(names))
	dest := make([]any, len(names))
	for i := range values {
		dest[i] = &values[i]
	}

	var n int64
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", s.path, err)
		}
		for i, v := range values {
			if v.Valid {
				builders[i].Append(v.String)
			} else {
				builders[i].AppendNull()
			}
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	fields := make([]arrow.Field, len(names))
	arrs := make([]arrow.Array, len(names))
	for i, name := range names {
		fields[i] = arrow.Field{Name: name, Type: arrow.BinaryTypes.String, Nullable: true}
		arrs[i] = builders[i].NewArray()
		defer arrs[i].Release()
	}
	return array.NewRecord(arrow.NewSchema(fields, nil), arrs, n), nil
}

// Close closes the DuckDB database.
func (s *Source) Close() error {
	return s.db.Close()
}

func (s *Source) table() string {
	return fmt.Sprintf(
		"read_csv(%s, header = true, all_varchar = true, delim = %s, quote = '\"', escape = '\"', compression = 'auto')",
		quoteLiteral(s.path), quoteLiteral(string(s.separator)),
	)
}

func (s *Source) projectionQuery(names []string, key string) string {
	cols := make([]string, len(names))
	for i, name := range names {
		cols[i] = quoteIdent(name)
	}
	return fmt.Sprintf(
		"SELECT %s FROM (SELECT *, row_number() OVER () AS %s FROM %s) ORDER BY %s ASC NULLS FIRST, %s",
		strings.Join(cols, ", "), rowColumn, s.table(), quoteIdent(key), rowColumn,
	)
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
