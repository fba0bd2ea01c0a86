package engine

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ============================================================================
// AGGREGATORS — Grouping, Aggregation, and Sorting via RecordView
// ============================================================================
// All functions operate on RecordView: zero-copy access to any data source.
// Each group holds a subset of the filtered view.
// Groups come out in first-appearance order; sorting is stable, so ties keep
// that order.
// ============================================================================

// keySep joins composite group keys internally. Not a printable character,
// so it cannot collide with data.
const keySep = "\x1f"

// GroupAndAggregate is the main entry point for the aggregation pipeline.
// Pipeline: group → aggregate → sort → limit.
func GroupAndAggregate(view RecordView, spec QuerySpec, measure string) ([]Group, error) {
	if !validAggregation(spec.Aggregation) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAggregation, spec.Aggregation)
	}
	if view.Len() == 0 {
		return nil, nil
	}

	// 1. Group
	var groups []Group
	if len(spec.GroupBy) == 0 {
		groups = []Group{{
			Key:   "all",
			Label: "Total",
			View:  view,
		}}
	} else {
		groups = groupByKeys(view, spec.GroupBy, spec.DropMissing)
	}

	// 2. Aggregate
	for i := range groups {
		aggregateGroup(&groups[i], measure, spec.Aggregation)
	}

	// 3. Sort
	SortGroups(groups, spec.SortKeys, spec.GroupBy)

	// 4. Limit
	if spec.Limit > 0 && len(groups) > spec.Limit {
		groups = groups[:spec.Limit]
	}

	return groups, nil
}

// ============================================================================
// GROUPING
// ============================================================================

// groupByKeys buckets records by the tuple of their dimension values.
// With dropMissing, a record with any empty key is skipped.
func groupByKeys(view RecordView, dimensions []string, dropMissing bool) []Group {
	grouped := make(map[string][]int)
	keysOf := make(map[string][]string)
	order := make([]string, 0)

	for i := 0; i < view.Len(); i++ {
		keys := make([]string, len(dimensions))
		missing := false
		for d, dim := range dimensions {
			keys[d] = view.Dimension(i, dim)
			if keys[d] == "" {
				missing = true
			}
		}
		if missing && dropMissing {
			continue
		}

		composite := strings.Join(keys, keySep)
		if _, exists := grouped[composite]; !exists {
			order = append(order, composite)
			keysOf[composite] = keys
		}
		grouped[composite] = append(grouped[composite], i)
	}

	groups := make([]Group, 0, len(order))
	for _, composite := range order {
		keys := keysOf[composite]
		label := strings.Join(keys, " / ")
		groups = append(groups, Group{
			Key:   label,
			Label: label,
			Keys:  keys,
			View:  selectRows(view, grouped[composite]),
		})
	}
	return groups
}

// ============================================================================
// AGGREGATION
// ============================================================================

func validAggregation(aggregation string) bool {
	switch aggregation {
	case "", "count", "sum", "avg", "max", "min":
		return true
	}
	return false
}

func aggregateGroup(group *Group, measure string, aggregation string) {
	group.Count = group.View.Len()
	if group.Count == 0 {
		return
	}

	switch aggregation {
	case "count", "":
		group.Value = float64(group.Count)
	case "sum":
		group.Value = SumMeasure(group.View, measure)
	case "avg":
		group.Value = AvgMeasure(group.View, measure)
	case "max":
		group.Value = MaxMeasure(group.View, measure)
	case "min":
		group.Value = MinMeasure(group.View, measure)
	}
}

// SumMeasure sums a named measure across a view.
func SumMeasure(view RecordView, measure string) float64 {
	var total float64
	for i := 0; i < view.Len(); i++ {
		total += view.Measure(i, measure)
	}
	return total
}

// AvgMeasure computes average of a named measure.
func AvgMeasure(view RecordView, measure string) float64 {
	n := view.Len()
	if n == 0 {
		return 0
	}
	return SumMeasure(view, measure) / float64(n)
}

// MaxMeasure returns the largest value of a named measure.
func MaxMeasure(view RecordView, measure string) float64 {
	n := view.Len()
	if n == 0 {
		return 0
	}
	m := math.Inf(-1)
	for i := 0; i < n; i++ {
		if v := view.Measure(i, measure); v > m {
			m = v
		}
	}
	return m
}

// MinMeasure returns the smallest value of a named measure.
func MinMeasure(view RecordView, measure string) float64 {
	n := view.Len()
	if n == 0 {
		return 0
	}
	m := math.Inf(1)
	for i := 0; i < n; i++ {
		if v := view.Measure(i, measure); v < m {
			m = v
		}
	}
	return m
}

// ============================================================================
// SORTING
// ============================================================================

// sortAliases keeps the single-mode sort names working as sort keys.
var sortAliases = map[string][]string{
	"value_desc": {"-value"},
	"value_asc":  {"value"},
	"label_asc":  {"label"},
	"alpha_asc":  {"label"},
	"label_desc": {"-label"},
}

// SortGroups stable-sorts groups by the given keys, most significant first.
// A key is "value", "count", "label" or one of the groupBy dimensions; a
// leading "-" sorts descending. Keys that parse as numbers on both sides
// compare numerically, everything else compares case-insensitively.
// Unknown keys are ignored; no keys preserves grouping order.
func SortGroups(groups []Group, keys []string, groupBy []string) {
	keys = expandSortKeys(keys)
	if len(keys) == 0 {
		return
	}

	dimIndex := make(map[string]int, len(groupBy))
	for i, dim := range groupBy {
		dimIndex[dim] = i
	}

	sort.SliceStable(groups, func(i, j int) bool {
		for _, key := range keys {
			desc := strings.HasPrefix(key, "-")
			name := strings.TrimPrefix(key, "-")

			var c int
			switch name {
			case "value":
				c = compareFloat(groups[i].Value, groups[j].Value)
			case "count":
				c = compareFloat(float64(groups[i].Count), float64(groups[j].Count))
			case "label":
				c = compareKeys(groups[i].Label, groups[j].Label)
			default:
				idx, ok := dimIndex[name]
				if !ok {
					continue
				}
				c = compareKeys(keyAt(groups[i], idx), keyAt(groups[j], idx))
			}
			if c == 0 {
				continue
			}
			if desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func expandSortKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if alias, ok := sortAliases[k]; ok {
			out = append(out, alias...)
			continue
		}
		out = append(out, k)
	}
	return out
}

func keyAt(g Group, idx int) string {
	if idx < len(g.Keys) {
		return g.Keys[idx]
	}
	return ""
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareKeys(a, b string) int {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		return compareFloat(fa, fb)
	}
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

// ============================================================================
// FORMATTING UTILITIES
// ============================================================================

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", FormatInt(n/1000), n%1000)
}

// FormatNumber renders whole numbers with separators and others with 2 decimals.
func FormatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return FormatInt(int(v))
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// LabelForDimension turns a dimension key into a display label:
// "target_ages" → "Target Ages", "country name" → "Country Name".
func LabelForDimension(dimension string) string {
	if dimension == "" {
		return ""
	}
	// Casers are stateful; one per call keeps this safe across goroutines.
	return cases.Title(language.English).String(strings.ReplaceAll(dimension, "_", " "))
}

// LabelForAggregation returns a human-readable label for an aggregation type.
func LabelForAggregation(aggregation string) string {
	switch aggregation {
	case "sum":
		return "Total"
	case "count", "":
		return "Count"
	case "avg":
		return "Average"
	case "max":
		return "Maximum"
	case "min":
		return "Minimum"
	default:
		return "Value"
	}
}
