package engine

import (
	"fmt"
)

// ============================================================================
// TABLE BUILDER — Produces TableData from QuerySpec + Groups, or raw rows
// ============================================================================

// BuildTable produces the aggregate table behind a chart: one column per
// groupBy dimension plus the aggregated value.
func BuildTable(spec QuerySpec, groups []Group, labels Labeler) *TableData {
	valueKey := spec.Aggregation
	if valueKey == "" {
		valueKey = "count"
	}

	columns := make([]Column, 0, len(spec.GroupBy)+1)
	for _, dim := range spec.GroupBy {
		columns = append(columns, Column{
			Key:   dim,
			Label: labels.Label(dim),
			Type:  "text",
			Align: "left",
		})
	}
	columns = append(columns, Column{
		Key:   valueKey,
		Label: LabelForAggregation(spec.Aggregation),
		Type:  "number",
		Align: "right",
	})

	rows := make([][]string, 0, len(groups))
	var totalValue float64
	for _, g := range groups {
		row := make([]string, 0, len(columns))
		if len(spec.GroupBy) == 0 {
			row = append(row, FormatNumber(g.Value))
		} else {
			row = append(row, g.Keys...)
			row = append(row, FormatNumber(g.Value))
		}
		rows = append(rows, row)
		totalValue += g.Value
	}

	return &TableData{
		Title:   spec.Title,
		Columns: columns,
		Rows:    rows,
		Total:   len(rows),
		Summary: &Summary{
			Label: fmt.Sprintf("Total (%d groups)", len(groups)),
			Values: map[string]string{
				valueKey: FormatNumber(totalValue),
			},
		},
	}
}

// NewTable builds a plain text table from a header row of keys and data rows.
func NewTable(title string, header []string, rows [][]string, labels Labeler) *TableData {
	columns := make([]Column, 0, len(header))
	for _, h := range header {
		columns = append(columns, Column{
			Key:   h,
			Label: labels.Label(h),
			Type:  "text",
			Align: "left",
		})
	}
	if rows == nil {
		rows = [][]string{}
	}
	return &TableData{
		Title:   title,
		Columns: columns,
		Rows:    rows,
		Total:   len(rows),
	}
}

// Page returns a copy of t holding rows [offset, offset+limit). Total keeps
// the unpaged row count. limit <= 0 means no upper bound.
func (t *TableData) Page(offset, limit int) *TableData {
	if offset < 0 {
		offset = 0
	}
	if offset > len(t.Rows) {
		offset = len(t.Rows)
	}
	end := len(t.Rows)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	page := *t
	page.Rows = t.Rows[offset:end]
	return &page
}
