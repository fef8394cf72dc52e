// Package schema reconciles the column headers of two tabular sources.
package schema

import "fmt"

// Mode defines how headers are matched.
type Mode int

const (
	// ModePermissive compares headers as sets. Order and repetition are ignored.
	ModePermissive Mode = iota

	// ModeStrict compares headers as ordered sequences.
	ModeStrict
)

// ModeFor returns the mode selected by the strict column order flag.
func ModeFor(strict bool) Mode {
	if strict {
		return ModeStrict
	}
	return ModePermissive
}

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case ModePermissive:
		return "permissive"
	case ModeStrict:
		return "strict"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ReconciliationResult represents the outcome of reconciling two headers.
type ReconciliationResult struct {
	// Comparable indicates whether the headers match under Mode.
	Comparable bool

	// Mode is the mode that was applied.
	Mode Mode

	// First and Second are verbatim copies of both headers, kept for diagnostics.
	First  []string
	Second []string
}

// Strict reports whether the result was produced in strict mode.
func (r ReconciliationResult) Strict() bool {
	return r.Mode == ModeStrict
}
