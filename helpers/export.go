package helpers

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-gota/gota/dataframe"

	"github.com/spektr-org/catalogdash/engine"
)

// ============================================================================
// CSV OUTPUT — Chart and table data as Sheets-ready CSV
// ============================================================================

// WriteChartCSV writes the points of a chart in long form. The columns
// depend on the chart shape:
//
//	single series   X, Y
//	multi series    Series, X, Y
//	scatter_geo     Frame, Series, Location, Value
//	sunburst        ID, Label, Parent, Value
func WriteChartCSV(w io.Writer, chart *engine.ChartConfig) error {
	if chart == nil {
		return fmt.Errorf("csv: no chart to write")
	}

	xLabel := chart.XAxis
	yLabel := chart.YAxis
	if xLabel == "" {
		xLabel = "Label"
	}
	if yLabel == "" {
		yLabel = "Value"
	}

	var names []string
	switch {
	case chart.ChartType == "sunburst":
		names = []string{"ID", "Label", "Parent", "Value"}
	case chart.ChartType == "scatter_geo":
		names = []string{"Frame", "Series", "Location", yLabel}
	case len(chart.Series) > 1:
		names = []string{"Series", xLabel, yLabel}
	default:
		names = []string{xLabel, yLabel}
	}

	columns := make(map[string][]string, len(names))
	for _, s := range chart.Series {
		for _, p := range s.Data {
			var row []string
			switch {
			case chart.ChartType == "sunburst":
				row = []string{p.ID, p.Label, p.Parent, fmtNum(p.Value)}
			case chart.ChartType == "scatter_geo":
				row = []string{p.Frame, s.Name, p.Label, fmtNum(p.Value)}
			case len(chart.Series) > 1:
				row = []string{s.Name, p.Label, fmtNum(p.Value)}
			default:
				row = []string{p.Label, fmtNum(p.Value)}
			}
			for i, name := range names {
				columns[name] = append(columns[name], row[i])
			}
		}
	}

	return writeFrame(w, names, columns)
}

// WriteTableCSV writes a table with its column labels as the header row.
func WriteTableCSV(w io.Writer, table *engine.TableData) error {
	if table == nil || len(table.Columns) == 0 {
		return fmt.Errorf("csv: no table to write")
	}

	names := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		names[i] = c.Label
		if names[i] == "" {
			names[i] = c.Key
		}
	}

	columns := make(map[string][]string, len(names))
	for _, row := range table.Rows {
		for i, name := range names {
			var v string
			if i < len(row) {
				v = row[i]
			}
			columns[name] = append(columns[name], v)
		}
	}

	return writeFrame(w, names, columns)
}

// WriteFrameCSV writes a DataFrame with its header row.
func WriteFrameCSV(w io.Writer, df dataframe.DataFrame) error {
	if df.Err != nil {
		return df.Err
	}
	return df.WriteCSV(w)
}

func writeFrame(w io.Writer, names []string, columns map[string][]string) error {
	for _, name := range names {
		if columns[name] == nil {
			columns[name] = []string{}
		}
	}
	return WriteFrameCSV(w, FromColumns(names, columns))
}

// fmtNum renders whole numbers without decimals and others with 2.
func fmtNum(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
