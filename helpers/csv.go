package helpers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/spektr-org/catalogdash/schema"
)

// ============================================================================
// CSV HELPER — Reads a CSV file into a string-typed DataFrame
// ============================================================================
// Every column is kept as a string; callers parse what they need. Header
// names are normalised with schema.NormalizeHeader so " Release Year" and
// "release_year" address the same column.
// ============================================================================

var (
	// ErrNotFound is wrapped when the CSV file does not exist.
	ErrNotFound = errors.New("csv: file not found")
	// ErrMalformed is wrapped when the CSV cannot be parsed into a table.
	ErrMalformed = errors.New("csv: malformed input")
)

// stringColumns loads every column as a string with no NaN sentinels, so
// values like "NA" (Namibia) survive untouched.
func stringColumns() []dataframe.LoadOption {
	return []dataframe.LoadOption{
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	}
}

// ReadCSV loads path into a DataFrame with normalised header names. A file
// holding only a header row yields an empty frame with those columns.
func ReadCSV(path string) (dataframe.DataFrame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return dataframe.DataFrame{}, fmt.Errorf("%w: %s: %w", ErrNotFound, path, err)
		}
		return dataframe.DataFrame{}, fmt.Errorf("csv: open %s: %w", path, err)
	}

	headers, hasRows, err := readHeader(data)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}

	if !hasRows {
		return FromColumns(headers, map[string][]string{}), nil
	}

	df := dataframe.ReadCSV(bytes.NewReader(data), stringColumns()...)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: %s: %v", ErrMalformed, path, df.Err)
	}

	records := df.Records()
	records[0] = headers
	out := dataframe.LoadRecords(records, stringColumns()...)
	if out.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: %s: %v", ErrMalformed, path, out.Err)
	}
	return out, nil
}

// readHeader checks the raw header row before the frame loader renames
// blank or repeated columns, and reports whether any data row follows.
func readHeader(data []byte) ([]string, bool, error) {
	r := csv.NewReader(bytes.NewReader(data))
	raw, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, false, errors.New("no header row")
	}
	if err != nil {
		return nil, false, err
	}

	headers := make([]string, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, h := range raw {
		name := schema.NormalizeHeader(h)
		if name == "" {
			return nil, false, fmt.Errorf("empty column name at position %d", i+1)
		}
		if seen[name] {
			return nil, false, fmt.Errorf("duplicate column %q", name)
		}
		seen[name] = true
		headers[i] = name
	}

	_, err = r.Read()
	if errors.Is(err, io.EOF) {
		return headers, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return headers, true, nil
}

// Column returns the values of a column, or nil when it does not exist.
func Column(df dataframe.DataFrame, name string) []string {
	for _, n := range df.Names() {
		if n == name {
			return df.Col(name).Records()
		}
	}
	return nil
}

// FromColumns builds a string DataFrame from equal-length columns, in the
// order given by names.
func FromColumns(names []string, columns map[string][]string) dataframe.DataFrame {
	cols := make([]series.Series, 0, len(names))
	for _, name := range names {
		cols = append(cols, series.New(columns[name], series.String, name))
	}
	return dataframe.New(cols...)
}
