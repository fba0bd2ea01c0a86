package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// ============================================================================
// CHART BUILDER — Produces ChartConfig from QuerySpec + Groups
// ============================================================================
// Groups carry their full key path (Keys), so every chart shape is derived
// from the same flat, already-sorted group list:
//
//   pie          label = Keys[0]
//   bar / line   x = Keys[0], one series per Keys[1] (when grouped twice)
//   scatter_geo  frame = Keys[0], series = Keys[1], location = Keys[2]
//   sunburst     path = Keys
// ============================================================================

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// BuildChart produces a ChartConfig from a QuerySpec and aggregated groups.
// The x axis defaults to the label of the first groupBy key. An empty group
// list yields a chart with no series.
func BuildChart(spec QuerySpec, groups []Group, labels Labeler) (*ChartConfig, error) {
	chartType := spec.Visualize
	if chartType == "" {
		chartType = "bar"
	}

	config := &ChartConfig{
		ChartType:  chartType,
		Title:      spec.Title,
		XAxis:      spec.XAxis,
		YAxis:      spec.YAxis,
		ShowLegend: true,
		ShowGrid:   chartType == "bar" || chartType == "line",
	}
	if config.XAxis == "" && len(spec.GroupBy) > 0 {
		config.XAxis = labels.Label(spec.GroupBy[0])
	}
	if config.YAxis == "" {
		config.YAxis = LabelForAggregation(spec.Aggregation)
	}

	switch chartType {
	case "bar", "line":
		if len(spec.GroupBy) >= 2 {
			config.Series = buildMultiSeries(groups)
		} else {
			config.Series = buildSingleSeries(groups, spec.Title)
		}
	case "pie":
		config.Series = buildPieSeries(groups, spec.Title)
	case "scatter_geo":
		if len(spec.GroupBy) < 3 {
			return nil, fmt.Errorf("%w: scatter_geo needs frame, series and location, got %v",
				ErrGroupDepth, spec.GroupBy)
		}
		config.Series, config.Frames = buildFrameSeries(groups)
	case "sunburst":
		if len(spec.GroupBy) < 1 {
			return nil, fmt.Errorf("%w: sunburst needs a path", ErrGroupDepth)
		}
		config.Series = buildSunburstSeries(groups, spec.Title)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownChart, chartType)
	}

	config.Colors = assignColors(len(config.Series))
	return config, nil
}

// ============================================================================
// SERIES BUILDERS
// ============================================================================

func buildSingleSeries(groups []Group, seriesName string) []ChartSeries {
	if seriesName == "" {
		seriesName = "Value"
	}

	points := make([]ChartPoint, 0, len(groups))
	for _, g := range groups {
		points = append(points, ChartPoint{
			Label: g.Label,
			Value: RoundTo2(g.Value),
		})
	}

	return []ChartSeries{{
		Name: seriesName,
		Data: points,
	}}
}

// buildMultiSeries makes one series per second-level key, in first-appearance
// order. Only combinations present in groups produce points.
func buildMultiSeries(groups []Group) []ChartSeries {
	index := make(map[string]int)
	series := make([]ChartSeries, 0)

	for _, g := range groups {
		name := keyAt(g, 1)
		i, ok := index[name]
		if !ok {
			i = len(series)
			index[name] = i
			series = append(series, ChartSeries{
				Name:  name,
				Color: defaultColors[i%len(defaultColors)],
			})
		}
		series[i].Data = append(series[i].Data, ChartPoint{
			Label: keyAt(g, 0),
			Value: RoundTo2(g.Value),
		})
	}

	return series
}

// buildPieSeries adds each slice's share of the total, in percent.
func buildPieSeries(groups []Group, seriesName string) []ChartSeries {
	if seriesName == "" {
		seriesName = "Share"
	}

	values := make([]float64, len(groups))
	for i, g := range groups {
		values[i] = g.Value
	}
	shares := pieShares(values)

	points := make([]ChartPoint, 0, len(groups))
	for i, g := range groups {
		points = append(points, ChartPoint{
			Label: keyAt(g, 0),
			Value: RoundTo2(g.Value),
			Share: shares[i],
		})
	}

	return []ChartSeries{{Name: seriesName, Data: points}}
}

// pieShares converts values to percentages with two decimals. Hundredths
// are handed out by largest remainder, earlier slices first on ties, so the
// shares of a non-empty total add up to exactly 100.
func pieShares(values []float64) []float64 {
	const units = 100 * 100

	shares := make([]float64, len(values))
	var total float64
	for _, v := range values {
		total += v
	}
	if total <= 0 {
		return shares
	}

	type remainder struct {
		index int
		frac  float64
	}
	counts := make([]int, len(values))
	rems := make([]remainder, len(values))
	assigned := 0
	for i, v := range values {
		exact := v / total * units
		counts[i] = int(math.Floor(exact))
		rems[i] = remainder{index: i, frac: exact - float64(counts[i])}
		assigned += counts[i]
	}

	sort.SliceStable(rems, func(a, b int) bool { return rems[a].frac > rems[b].frac })
	for k := 0; k < units-assigned && k < len(rems); k++ {
		counts[rems[k].index]++
	}

	for i, n := range counts {
		shares[i] = float64(n) / 100
	}
	return shares
}

// buildFrameSeries groups points by Keys[1] and tags each with its frame
// (Keys[0]). Frames are returned in first-appearance order.
func buildFrameSeries(groups []Group) ([]ChartSeries, []string) {
	var frames []string
	seenFrame := make(map[string]bool)
	index := make(map[string]int)
	series := make([]ChartSeries, 0)

	for _, g := range groups {
		frame := keyAt(g, 0)
		if !seenFrame[frame] {
			seenFrame[frame] = true
			frames = append(frames, frame)
		}

		name := keyAt(g, 1)
		i, ok := index[name]
		if !ok {
			i = len(series)
			index[name] = i
			series = append(series, ChartSeries{
				Name:  name,
				Color: defaultColors[i%len(defaultColors)],
			})
		}
		series[i].Data = append(series[i].Data, ChartPoint{
			Label: keyAt(g, 2),
			Value: RoundTo2(g.Value),
			Frame: frame,
		})
	}

	return series, frames
}

// buildSunburstSeries expands every group's key path into nodes. A node's
// ID is its path joined by "/", and its value is the sum of its leaves.
func buildSunburstSeries(groups []Group, seriesName string) []ChartSeries {
	index := make(map[string]int)
	var points []ChartPoint

	for _, g := range groups {
		for depth := range g.Keys {
			id := strings.Join(g.Keys[:depth+1], "/")
			i, ok := index[id]
			if !ok {
				i = len(points)
				index[id] = i
				points = append(points, ChartPoint{
					ID:     id,
					Label:  g.Keys[depth],
					Parent: strings.Join(g.Keys[:depth], "/"),
				})
			}
			points[i].Value = RoundTo2(points[i].Value + g.Value)
		}
	}

	return []ChartSeries{{Name: seriesName, Data: points}}
}

func assignColors(count int) []string {
	colors := make([]string, count)
	for i := 0; i < count; i++ {
		colors[i] = defaultColors[i%len(defaultColors)]
	}
	return colors
}
