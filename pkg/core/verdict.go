package core

import (
	"fmt"
	"strings"
)

// Process exit codes. Other tools depend on these values.
const (
	ExitIdentical        = 0
	ExitInputError       = 1
	ExitSchemaMismatch   = 2
	ExitContentMismatch  = 3
	ExitRowCountMismatch = 4
	ExitDuplicateKey     = 5
)

// VerdictKind classifies the outcome of a comparison.
type VerdictKind int

const (
	// Identical means every comparison group matched.
	Identical VerdictKind = iota

	// RowCountMismatch means the sources hold a different number of rows.
	RowCountMismatch

	// SchemaMismatch means the headers could not be reconciled.
	SchemaMismatch

	// ContentMismatch means a comparison group differs after sorting.
	ContentMismatch

	// DuplicateKey means the key column is not unique in one of the sources.
	DuplicateKey
)

// String implements fmt.Stringer.
func (k VerdictKind) String() string {
	switch k {
	case Identical:
		return "identical"
	case RowCountMismatch:
		return "row_count_mismatch"
	case SchemaMismatch:
		return "schema_mismatch"
	case ContentMismatch:
		return "content_mismatch"
	case DuplicateKey:
		return "duplicate_key"
	default:
		return fmt.Sprintf("verdict(%d)", int(k))
	}
}

// ExitCode returns the process exit code for the kind.
func (k VerdictKind) ExitCode() int {
	switch k {
	case Identical:
		return ExitIdentical
	case RowCountMismatch:
		return ExitRowCountMismatch
	case SchemaMismatch:
		return ExitSchemaMismatch
	case ContentMismatch:
		return ExitContentMismatch
	case DuplicateKey:
		return ExitDuplicateKey
	default:
		return ExitInputError
	}
}

// Verdict is the terminal result of a comparison run.
// Only the fields relevant to Kind are populated.
type Verdict struct {
	Kind VerdictKind

	// KeyColumn is set once the schemas have been reconciled.
	KeyColumn string

	// RowCountMismatch.
	FirstRows  int64
	SecondRows int64

	// SchemaMismatch. The column lists are verbatim copies of both headers.
	FirstColumns  []string
	SecondColumns []string
	Strict        bool

	// ContentMismatch.
	Group      []string
	GroupIndex int

	// DuplicateKey.
	Path         string
	Value        string
	ValueMissing bool
}

// ExitCode returns the process exit code for the verdict.
func (v *Verdict) ExitCode() int {
	return v.Kind.ExitCode()
}

// Identical reports whether the sources were found equivalent.
func (v *Verdict) Identical() bool {
	return v.Kind == Identical
}

// String returns a one-line description, mostly for logs and test failures.
func (v *Verdict) String() string {
	switch v.Kind {
	case Identical:
		return fmt.Sprintf("identical when sorted by %q", v.KeyColumn)
	case RowCountMismatch:
		return fmt.Sprintf("row count mismatch: %d <> %d", v.FirstRows, v.SecondRows)
	case SchemaMismatch:
		return fmt.Sprintf("schema mismatch (strict=%t): [%s] != [%s]",
			v.Strict, strings.Join(v.FirstColumns, ","), strings.Join(v.SecondColumns, ","))
	case ContentMismatch:
		return fmt.Sprintf("content mismatch in group %d [%s]", v.GroupIndex, strings.Join(v.Group, ","))
	case DuplicateKey:
		if v.ValueMissing {
			return fmt.Sprintf("duplicate missing key in %s", v.Path)
		}
		return fmt.Sprintf("duplicate key %q in %s", v.Value, v.Path)
	default:
		return v.Kind.String()
	}
}
