package engine

// ============================================================================
// ENGINE TYPES — Domain-Agnostic Grouped Counts
// ============================================================================
// Record / RecordView carry the data, QuerySpec says what to compute, Result
// carries render-ready output (chart config, aggregate table, reply line).
//
// The engine owns no data and never mutates the views it reads.
// ============================================================================

// ============================================================================
// RECORD — Generic data row
// ============================================================================

// Record is a single data row with string dimensions and numeric measures.
//
// Example: Record{Dimensions["rating"]="TV-MA", Measures["release_year"]=2019}
type Record struct {
	Dimensions map[string]string  `json:"dimensions"`
	Measures   map[string]float64 `json:"measures"`
}

// ============================================================================
// QUERYSPEC — What the engine should compute
// ============================================================================

// QuerySpec defines one aggregate view over a RecordView.
type QuerySpec struct {
	Filters     Filters  `json:"filters"`               // Which records to include
	Aggregation string   `json:"aggregation"`           // "count", "sum", "avg", "max", "min"
	Measure     string   `json:"measure"`               // Which measure to aggregate (empty → default)
	GroupBy     []string `json:"groupBy"`               // Dimension keys, outermost first
	DropMissing bool     `json:"dropMissing,omitempty"` // Skip records with an empty group key
	SortKeys    []string `json:"sortKeys,omitempty"`    // "-value", "rating", "-year_added"
	Limit       int      `json:"limit"`                 // 0 = all
	Visualize   string   `json:"visualize"`             // "bar", "line", "pie", "scatter_geo", "sunburst"
	Title       string   `json:"title"`
	XAxis       string   `json:"xAxis,omitempty"` // Axis label overrides
	YAxis       string   `json:"yAxis,omitempty"`
	Reply       string   `json:"reply"` // Template: "{count} titles, most common {top_category}."
}

// Filters define which records to include.
// Dimensions: OR within a dimension, AND across dimensions, case-insensitive.
// MinMeasures: inclusive lower bounds on measures, AND-combined.
// Empty = all.
type Filters struct {
	Dimensions  map[string][]string `json:"dimensions"`
	MinMeasures map[string]float64  `json:"minMeasures,omitempty"`
}

// IsEmpty returns true if no filters are set.
func (f Filters) IsEmpty() bool {
	if len(f.MinMeasures) > 0 {
		return false
	}
	for _, vals := range f.Dimensions {
		if len(vals) > 0 {
			return false
		}
	}
	return true
}

// ============================================================================
// RESULT — Render-ready output
// ============================================================================

// Result is the engine's render-ready output.
type Result struct {
	Title string `json:"title"`
	Reply string `json:"reply"`

	ChartConfig *ChartConfig `json:"chartConfig"`
	TableData   *TableData   `json:"tableData"` // aggregate rows behind the chart

	Groups []Group `json:"-"`
}

// ============================================================================
// GROUP — Intermediate computation result
// ============================================================================

// Group is one aggregated bucket. Keys holds the value of every groupBy
// dimension, outermost first; Key and Label join them for display.
type Group struct {
	Key   string     `json:"key"`
	Label string     `json:"label"`
	Keys  []string   `json:"keys"`
	Value float64    `json:"value"`
	Count int        `json:"count"`
	View  RecordView `json:"-"` // Sub-view for records in this group (zero-copy)
}

// ============================================================================
// CHART TYPES
// ============================================================================

// ChartConfig defines how to render a chart.
type ChartConfig struct {
	ChartType  string        `json:"chartType"`
	Title      string        `json:"title"`
	XAxis      string        `json:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty"`
	Series     []ChartSeries `json:"series"`
	Frames     []string      `json:"frames,omitempty"` // animation frame order (scatter_geo)
	Colors     []string      `json:"colors,omitempty"`
	ShowLegend bool          `json:"showLegend"`
	ShowGrid   bool          `json:"showGrid"`
	Style      *ChartStyle   `json:"style,omitempty"`
}

// ChartStyle carries presentation hints the frontend applies as-is.
type ChartStyle struct {
	Pull         []float64 `json:"pull,omitempty"`
	TextInfo     string    `json:"textInfo,omitempty"`
	TextFontSize int       `json:"textFontSize,omitempty"`
	LineColor    string    `json:"lineColor,omitempty"`
	LineWidth    float64   `json:"lineWidth,omitempty"`
	SizeMax      int       `json:"sizeMax,omitempty"`
	Opacity      float64   `json:"opacity,omitempty"`
	Projection   string    `json:"projection,omitempty"`
	LocationMode string    `json:"locationMode,omitempty"`
	Mode         string    `json:"mode,omitempty"`
}

// ChartSeries represents a data series in a chart.
type ChartSeries struct {
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// ChartPoint represents a single data point.
// Share is set for pie slices, ID/Parent for sunburst nodes, Frame for
// animated charts.
type ChartPoint struct {
	Label  string  `json:"label"`
	Value  float64 `json:"value"`
	Share  float64 `json:"share,omitempty"`
	ID     string  `json:"id,omitempty"`
	Parent string  `json:"parent,omitempty"`
	Frame  string  `json:"frame,omitempty"`
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData defines how to render a table.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Total   int        `json:"total"` // rows before paging
	Summary *Summary   `json:"summary,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number"
	Align string `json:"align"` // "left", "center", "right"
}

// Summary provides totals for a table.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}
