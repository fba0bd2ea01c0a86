package engine

import (
	"strings"
)

// ============================================================================
// FILTERS — row selection
// ============================================================================
// Filters compile to a list of predicates, evaluated once per row. The
// result is a subset of the input view.
// ============================================================================

type predicate func(view RecordView, i int) bool

// ApplyFilters keeps the rows that satisfy every constraint in filters.
// Values listed for one dimension are alternatives and match regardless of
// case. MinMeasures floors are inclusive. An empty filter returns view.
func ApplyFilters(view RecordView, filters Filters) RecordView {
	if filters.IsEmpty() {
		return view
	}

	preds := compileFilters(filters)
	rows := make([]int, 0, view.Len())
	for i, n := 0, view.Len(); i < n; i++ {
		if matchesAll(preds, view, i) {
			rows = append(rows, i)
		}
	}
	return selectRows(view, rows)
}

func compileFilters(f Filters) []predicate {
	preds := make([]predicate, 0, len(f.Dimensions)+len(f.MinMeasures))
	for key, allowed := range f.Dimensions {
		if len(allowed) > 0 {
			preds = append(preds, dimensionIn(key, allowed))
		}
	}
	for key, floor := range f.MinMeasures {
		preds = append(preds, measureAtLeast(key, floor))
	}
	return preds
}

func dimensionIn(key string, allowed []string) predicate {
	set := make(map[string]struct{}, len(allowed))
	for _, v := range allowed {
		set[strings.ToLower(v)] = struct{}{}
	}
	return func(view RecordView, i int) bool {
		_, ok := set[strings.ToLower(view.Dimension(i, key))]
		return ok
	}
}

func measureAtLeast(key string, floor float64) predicate {
	return func(view RecordView, i int) bool {
		return view.Measure(i, key) >= floor
	}
}

func matchesAll(preds []predicate, view RecordView, i int) bool {
	for _, p := range preds {
		if !p(view, i) {
			return false
		}
	}
	return true
}
