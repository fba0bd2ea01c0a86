package schema

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ============================================================================
// SCHEMA — Describes the shape of the catalog for loading and display
// ============================================================================
// The input CSV has a fixed column set. Catalog() returns that shape plus
// the derived columns, the two display renames, and the display order the
// raw table is shown in. Dimension and measure names label chart axes and
// table columns.
// ============================================================================

// ErrMissingColumns is wrapped when the input lacks required columns.
var ErrMissingColumns = errors.New("schema: missing required columns")

// Config describes the complete shape of a dataset.
type Config struct {
	Dimensions []DimensionMeta `json:"dimensions"`
	Measures   []MeasureMeta   `json:"measures"`

	Required     []string          `json:"required"`     // input columns that must be present
	Renames      map[string]string `json:"renames"`      // input column → display column
	DisplayOrder []string          `json:"displayOrder"` // input and derived columns, left to right
}

// DimensionMeta names a string field used for grouping and filtering.
type DimensionMeta struct {
	Key         string `json:"key"`
	DisplayName string `json:"displayName"`
}

// MeasureMeta names a numeric field used for aggregation.
type MeasureMeta struct {
	Key         string `json:"key"`
	DisplayName string `json:"displayName"`
}

// Catalog returns the schema of the streaming catalog CSV.
func Catalog() Config {
	dim := func(key, name string) DimensionMeta { return DimensionMeta{Key: key, DisplayName: name} }

	return Config{
		Dimensions: []DimensionMeta{
			dim("type", "Type"),
			dim("title", "Title"),
			dim("director", "Director"),
			dim("rating", "Rating"),
			dim("target_ages", "Target Ages"),
			dim("duration", "Duration"),
			dim("release_year", "Release Year"),
			dim("date_added", "Date Added"),
			dim("month_added", "Month Added"),
			dim("year_added", "Year Added"),
			dim("country name", "Country"),
			dim("country_code", "Country Code"),
			dim("continent_code", "Continent Code"),
			dim("continent name", "Continent"),
			dim("genres", "Genres"),
			dim("genre", "Genre"),
		},
		Measures: []MeasureMeta{
			{Key: "record_count", DisplayName: "Count"},
			{Key: "release_year", DisplayName: "Release Year"},
			{Key: "year_added", DisplayName: "Year Added"},
		},
		Required: []string{
			"type", "title", "director", "country", "rating",
			"duration", "release_year", "date_added", "listed_in",
		},
		Renames: map[string]string{
			"country":   "country name",
			"listed_in": "genres",
		},
		DisplayOrder: []string{
			"type", "title", "director", "rating", "target_ages", "duration", "release_year",
			"date_added", "month_added", "year_added", "country", "continent name", "listed_in",
		},
	}
}

// Validate checks that headers contain every required column. Headers are
// compared after NormalizeHeader.
func (c Config) Validate(headers []string) error {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[NormalizeHeader(h)] = true
	}

	var missing []string
	for _, col := range c.Required {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return nil
}

// DisplayName returns the display column for an input column.
func (c Config) DisplayName(column string) string {
	if renamed, ok := c.Renames[column]; ok {
		return renamed
	}
	return column
}

// DisplayColumns returns DisplayOrder with the renames applied.
func (c Config) DisplayColumns() []string {
	out := make([]string, len(c.DisplayOrder))
	for i, col := range c.DisplayOrder {
		out[i] = c.DisplayName(col)
	}
	return out
}

// GetDefaultMeasure returns the first measure's key, or "record_count" as fallback.
func (c Config) GetDefaultMeasure() string {
	if len(c.Measures) > 0 {
		return c.Measures[0].Key
	}
	return "record_count"
}

// Label returns the display name of a dimension or measure key.
func (c Config) Label(key string) (string, bool) {
	for _, d := range c.Dimensions {
		if d.Key == key {
			return d.DisplayName, true
		}
	}
	for _, m := range c.Measures {
		if m.Key == key {
			return m.DisplayName, true
		}
	}
	return "", false
}

// NormalizeHeader converts "Column Name" or "columnName" → "column_name".
func NormalizeHeader(s string) string {
	s = strings.TrimSpace(strings.TrimPrefix(s, "\ufeff"))

	// Handle camelCase: insert underscore before uppercase letters
	var result strings.Builder
	var prev rune
	for i, r := range s {
		if unicode.IsUpper(r) && i > 0 && (unicode.IsLower(prev) || unicode.IsDigit(prev)) {
			result.WriteRune('_')
		}
		result.WriteRune(r)
		prev = r
	}

	s = strings.ToLower(result.String())
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return strings.Trim(s, "_")
}
