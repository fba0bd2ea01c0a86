package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ============================================================================
// EXECUTOR — Dispatcher + Placeholder Resolution
// ============================================================================
// Entry point: Execute(spec, view, opts...)
//
// Pipeline:
//   1. Normalize the QuerySpec
//   2. Apply filters → row subset
//   3. Group, aggregate, sort, limit
//   4. Build the chart and the aggregate table behind it
//   5. Resolve reply template placeholders
//
// Execute is pure: same spec and view, same Result.
// ============================================================================

// Execute runs a QuerySpec against a RecordView and returns a render-ready Result.
//
// Options:
//   - WithDefaultMeasure(key): sets the measure when QuerySpec.Measure is empty
//   - WithPeriodDimension(key): year-like dimension behind {period}
//   - WithLabels(fn): display labels for axes and table columns
//   - WithLogger(logger): debug logging of each pipeline step
func Execute(spec QuerySpec, view RecordView, opts ...Option) (*Result, error) {
	cfg := applyOptions(opts)
	spec = NormalizeQuerySpec(spec)

	if len(spec.GroupBy) == 0 {
		return nil, ErrNoGroupBy
	}

	measure := spec.Measure
	if measure == "" {
		measure = cfg.DefaultMeasure
	}

	cfg.Logger.Debug().
		Int("records", view.Len()).
		Str("visualize", spec.Visualize).
		Str("aggregation", spec.Aggregation).
		Strs("group_by", spec.GroupBy).
		Msg("executing query")

	// 1. Apply filters
	filtered := ApplyFilters(view, spec.Filters)
	cfg.Logger.Debug().
		Int("matched", filtered.Len()).
		Int("total", view.Len()).
		Msg("filters applied")

	// 2. Group and aggregate
	groups, err := GroupAndAggregate(filtered, spec, measure)
	if err != nil {
		return nil, err
	}

	// 3. Build chart and aggregate table
	chart, err := BuildChart(spec, groups, cfg.Labels)
	if err != nil {
		return nil, err
	}
	result := &Result{
		Title:       spec.Title,
		ChartConfig: chart,
		TableData:   BuildTable(spec, groups, cfg.Labels),
		Groups:      groups,
	}

	// 4. Resolve reply template placeholders
	if filtered.Len() == 0 {
		result.Reply = "No records match your query filters."
	} else {
		result.Reply = ResolvePlaceholders(spec.Reply, groups, filtered, measure, cfg.PeriodDimension)
	}

	return result, nil
}

// ============================================================================
// PLACEHOLDER RESOLUTION
// ============================================================================

// ResolvePlaceholders substitutes computed values into the reply template.
// Unknown placeholders are stripped.
func ResolvePlaceholders(template string, groups []Group, view RecordView, measure string, periodDimension string) string {
	if template == "" {
		return buildDefaultReply(view)
	}

	replacements := map[string]string{
		"{total}":  FormatNumber(SumMeasure(view, measure)),
		"{count}":  FormatInt(view.Len()),
		"{period}": DerivePeriod(view, periodDimension),
		"{groups}": FormatInt(len(groups)),
	}

	// Top group: highest value, earliest on ties
	if len(groups) > 0 {
		top := groups[0]
		for _, g := range groups[1:] {
			if g.Value > top.Value {
				top = g
			}
		}
		replacements["{top_category}"] = top.Label
		replacements["{top_amount}"] = FormatNumber(top.Value)
	}

	result := template
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	return stripUnresolvedPlaceholders(result)
}

// PERIOD HELPER
// ============================================================================

// DerivePeriod builds a human-readable period from a year-like key, read as
// a dimension or, failing that, a non-zero measure: "2015 – 2021", a single
// year, or "All time" when the key is unset or never numeric.
func DerivePeriod(view RecordView, dimension string) string {
	if view.Len() == 0 {
		return "No data"
	}
	if dimension == "" {
		return "All time"
	}

	var earliest, latest int
	found := false
	for i := 0; i < view.Len(); i++ {
		n, err := strconv.Atoi(view.Dimension(i, dimension))
		if err != nil {
			m := view.Measure(i, dimension)
			if m == 0 {
				continue
			}
			n = int(m)
		}
		if !found || n < earliest {
			earliest = n
		}
		if !found || n > latest {
			latest = n
		}
		found = true
	}

	switch {
	case !found:
		return "All time"
	case earliest == latest:
		return strconv.Itoa(earliest)
	default:
		return fmt.Sprintf("%d – %d", earliest, latest)
	}
}

// ============================================================================
// QUERYSPEC NORMALIZATION
// ============================================================================

// NormalizeQuerySpec trims and lower-cases the enumerated fields. An empty
// visualization becomes "bar".
func NormalizeQuerySpec(spec QuerySpec) QuerySpec {
	spec.Visualize = strings.ToLower(strings.TrimSpace(spec.Visualize))
	spec.Aggregation = strings.ToLower(strings.TrimSpace(spec.Aggregation))
	if spec.Visualize == "" {
		spec.Visualize = "bar"
	}
	return spec
}

// ============================================================================
// INTERNAL HELPERS
// ============================================================================

func buildDefaultReply(view RecordView) string {
	if view.Len() == 0 {
		return "No matching records found."
	}
	return fmt.Sprintf("Found %s records.", FormatInt(view.Len()))
}

var placeholderRegex = regexp.MustCompile(`\{[a-z_]+\}`)

func stripUnresolvedPlaceholders(text string) string {
	if !placeholderRegex.MatchString(text) {
		return text
	}
	cleaned := placeholderRegex.ReplaceAllString(text, "")
	cleaned = strings.ReplaceAll(cleaned, "  ", " ")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimRight(cleaned, " .—-–")
	if cleaned == "" {
		return text
	}
	return cleaned
}
