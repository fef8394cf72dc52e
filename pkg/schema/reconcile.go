package schema

import (
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
)

// Reconcile checks whether two headers describe the same columns.
//
// It never touches data and never renames or partially matches columns.
// In permissive mode a name repeated a different number of times in each
// header is not detected.
func Reconcile(first, second []string, strict bool) ReconciliationResult {
	result := ReconciliationResult{
		Mode:   ModeFor(strict),
		First:  slices.Clone(first),
		Second: slices.Clone(second),
	}

	switch result.Mode {
	case ModeStrict:
		result.Comparable = slices.Equal(first, second)
	default:
		result.Comparable = mapset.NewSet(first...).Equal(mapset.NewSet(second...))
	}
	return result
}

// Difference returns the names present in only one of the headers, in header order.
func Difference(first, second []string) (onlyFirst, onlySecond []string) {
	a, b := mapset.NewSet(first...), mapset.NewSet(second...)
	return ordered(first, a.Difference(b)), ordered(second, b.Difference(a))
}

// Reordered reports whether the headers hold the same names in a different order.
func Reordered(first, second []string) bool {
	if slices.Equal(first, second) {
		return false
	}
	return len(first) == len(second) && mapset.NewSet(first...).Equal(mapset.NewSet(second...))
}

func ordered(header []string, keep mapset.Set[string]) []string {
	var out []string
	seen := mapset.NewThreadUnsafeSet[string]()
	for _, name := range header {
		if keep.Contains(name) && seen.Add(name) {
			out = append(out, name)
		}
	}
	return out
}
